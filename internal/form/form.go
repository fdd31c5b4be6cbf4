// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package form builds the contract entry form and persists it as
// tab-separated values. The form lists every unposted DataSpace record with
// pre-filled funding guesses and blank slots a person completes before
// posting to OSTI.
package form

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/osti-sync/internal/funding"
	"github.com/pdiddy/osti-sync/internal/jsonfile"
	"github.com/pdiddy/osti-sync/internal/reconcile"
	"github.com/pdiddy/osti-sync/pkg/types"
)

// Generate builds one row per record. Sponsor defaults to the configured
// organization, contracts come from the funder metadata, and Datatype is
// left blank. Rows are ordered by issue date.
func Generate(records []types.CatalogRecord, ex *funding.Extractor, cfg types.SubmissionConfig) []types.EntryFormRow {
	rows := make([]types.EntryFormRow, 0, len(records))
	for _, r := range records {
		issued, _ := r.First(types.KeyDateIssued)
		grants := ex.Grants(r.Values(types.KeyFunder))
		rows = append(rows, types.EntryFormRow{
			DSpaceID:       r.ID,
			IssueDate:      issued,
			Title:          r.Name,
			Author:         strings.Join(r.Values(types.KeyAuthor), ";"),
			Link:           cfg.SiteURLBase + r.Handle,
			SponsorOrgs:    cfg.DefaultSponsor,
			DOEContract:    funding.Join(grants.DOE),
			NonDOEContract: funding.Join(grants.Other),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].IssueDate < rows[j].IssueDate
	})
	return rows
}

// WriteTSV writes rows with a header line in FormColumns order.
func WriteTSV(w io.Writer, rows []types.EntryFormRow) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(types.FormColumns); err != nil {
		return err
	}
	for _, r := range rows {
		rec := make([]string, 0, len(types.FormColumns))
		rec = append(rec, strconv.Itoa(r.DSpaceID))
		for _, col := range types.FormColumns[1:] {
			v, _ := r.Cell(col)
			rec = append(rec, v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteForm writes rows under form's header. Columns the header lacks are
// appended in FormColumns order. A row found in form.Cells is written from
// its original cells, with appended columns taken from the row; other rows
// are written from their fields with unknown columns left blank.
func WriteForm(w io.Writer, form types.EntryForm, rows []types.EntryFormRow) error {
	header := append([]string(nil), form.Columns...)
	if form.Columns == nil {
		header = append(header, types.FormColumns...)
	} else {
		for _, col := range types.FormColumns {
			if !form.HasColumn(col) {
				header = append(header, col)
			}
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		orig := form.Cells[r.DSpaceID]
		rec := make([]string, len(header))
		for i, col := range header {
			switch {
			case orig != nil && i < len(form.Columns):
				if i < len(orig) {
					rec[i] = orig[i]
				}
			case col == types.ColDSpaceID:
				rec[i] = strconv.Itoa(r.DSpaceID)
			default:
				rec[i], _ = r.Cell(col)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTSV parses an entry form. The header must carry the DSpace ID column;
// other columns may be missing or reordered since the file is edited by
// hand. Unknown columns are kept in Cells but not parsed. Row fields are
// trimmed; Cells keeps the original text. Duplicate ids are an error.
func ReadTSV(r io.Reader) (types.EntryForm, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return types.EntryForm{}, fmt.Errorf("entry form is empty")
	}
	if err != nil {
		return types.EntryForm{}, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	idCol := -1
	for i, h := range header {
		if h == types.ColDSpaceID {
			idCol = i
		}
	}
	if idCol < 0 {
		return types.EntryForm{}, fmt.Errorf("entry form has no %q column", types.ColDSpaceID)
	}

	form := types.EntryForm{Columns: header, Cells: map[int][]string{}}
	seen := map[int]int{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return types.EntryForm{}, fmt.Errorf("reading line %d: %w", line, err)
		}
		if blank(rec) {
			continue
		}
		if idCol >= len(rec) {
			return types.EntryForm{}, fmt.Errorf("line %d: missing %q", line, types.ColDSpaceID)
		}
		id, err := strconv.Atoi(strings.TrimSpace(rec[idCol]))
		if err != nil {
			return types.EntryForm{}, fmt.Errorf("line %d: %s %q is not an integer", line, types.ColDSpaceID, rec[idCol])
		}
		if prev, dup := seen[id]; dup {
			return types.EntryForm{}, fmt.Errorf("line %d: %s %d already appears on line %d", line, types.ColDSpaceID, id, prev)
		}
		seen[id] = line

		row := types.EntryFormRow{DSpaceID: id}
		for i, h := range header {
			if i < len(rec) {
				setCell(&row, h, strings.TrimSpace(rec[i]))
			}
		}
		form.Rows = append(form.Rows, row)
		form.Cells[id] = append([]string(nil), rec...)
	}
	return form, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func setCell(r *types.EntryFormRow, col, v string) {
	switch col {
	case types.ColIssueDate:
		r.IssueDate = v
	case types.ColTitle:
		r.Title = v
	case types.ColAuthor:
		r.Author = v
	case types.ColLink:
		r.Link = v
	case types.ColSponsorOrgs:
		r.SponsorOrgs = v
	case types.ColDOEContract:
		r.DOEContract = v
	case types.ColNonDOEContract:
		r.NonDOEContract = v
	case types.ColDatatype:
		r.Datatype = v
	}
}

// WriteFile atomically replaces path with the TSV form.
func WriteFile(path string, rows []types.EntryFormRow) error {
	var buf bytes.Buffer
	if err := WriteTSV(&buf, rows); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return jsonfile.WriteBytes(path, buf.Bytes())
}

// ReadFile parses the TSV form at path. A missing file is returned as an
// error satisfying os.IsNotExist.
func ReadFile(path string) (types.EntryForm, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.EntryForm{}, err
	}
	defer f.Close()

	form, err := ReadTSV(f)
	if err != nil {
		return types.EntryForm{}, fmt.Errorf("%s: %w", path, err)
	}
	return form, nil
}

// UpdateFormInput folds the generated entry form at entryPath into the
// hand-edited form at inputPath, preserving edits on rows still pending.
// The input form must already exist.
func UpdateFormInput(entryPath, inputPath, placeholder string, w io.Writer) (reconcile.SyncSummary, error) {
	input, err := ReadFile(inputPath)
	if os.IsNotExist(err) {
		return reconcile.SyncSummary{}, fmt.Errorf("form input %s does not exist: %w", inputPath, err)
	}
	if err != nil {
		return reconcile.SyncSummary{}, err
	}
	entry, err := ReadFile(entryPath)
	if err != nil {
		return reconcile.SyncSummary{}, err
	}

	fmt.Fprintf(w, "updating %s\n", inputPath)
	updated, sum := reconcile.SyncEntries(input.Rows, entry.Rows, placeholder)
	fmt.Fprintf(w, "  common records:  %3d\n", len(sum.Common))
	fmt.Fprintf(w, "  new records:     %3d\n", len(sum.Added))
	fmt.Fprintf(w, "  records to drop: %3d\n", len(sum.Dropped))
	if len(sum.Dropped) > 0 {
		fmt.Fprintf(w, "  removing: %s\n", joinIDs(sum.Dropped))
	}
	if len(sum.Added) > 0 {
		fmt.Fprintf(w, "  appending: %s\n", joinIDs(sum.Added))
	}

	if !sum.Changed() {
		return sum, nil
	}
	var buf bytes.Buffer
	if err := WriteForm(&buf, input, updated); err != nil {
		return sum, fmt.Errorf("encoding %s: %w", inputPath, err)
	}
	if err := jsonfile.WriteBytes(inputPath, buf.Bytes()); err != nil {
		return sum, err
	}
	return sum, nil
}

func joinIDs(ids []int) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = strconv.Itoa(id)
	}
	return strings.Join(s, ",")
}

// PrintRows lists each row's title and link.
func PrintRows(w io.Writer, rows []types.EntryFormRow) {
	for _, r := range rows {
		fmt.Fprintf(w, "\t%q\n\t\t%s\n", r.Title, r.Link)
	}
}
