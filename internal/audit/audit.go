// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audit produces the DataSpace content audit: every item in the
// community with its OSTI DOI, when one is known from the redirect cache.
package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/osti-sync/internal/resolve"
	"github.com/pdiddy/osti-sync/pkg/types"
)

// Columns is the audit header.
var Columns = []string{
	"DSpace ID", "ARK", "DOI", "OSTI ID", "Issue Date",
	"Collection", "Author", "Title", "DataSpace URL",
}

const (
	doiResolverPrefix = "https://doi.org/"
	ostiDOIPrefix     = "10.11578/"
)

// Row is one audit line.
type Row struct {
	DSpaceID   int
	ARK        string
	DOI        string
	OSTIID     string
	IssueDate  string
	Collection string
	Author     string
	Title      string
	URL        string
}

func (r Row) strings() []string {
	return []string{
		strconv.Itoa(r.DSpaceID), r.ARK, r.DOI, r.OSTIID, r.IssueDate,
		r.Collection, r.Author, r.Title, r.URL,
	}
}

// handleIndex inverts the cache. When several DOIs resolve to the same
// handle the lexically smallest is kept, matching Cache.DOIFor.
func handleIndex(cache *resolve.Cache) map[string]string {
	idx := map[string]string{}
	for doi, h := range cache.Entries() {
		if cur, ok := idx[h]; !ok || doi < cur {
			idx[h] = doi
		}
	}
	return idx
}

// Build returns one row per record, sorted by DSpace ID. DOI is shown
// without the resolver prefix and OSTI ID is the DOI suffix after the OSTI
// registrant prefix.
func Build(records []types.CatalogRecord, cache *resolve.Cache, siteURLBase string) []Row {
	idx := handleIndex(cache)
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		issued, _ := r.First(types.KeyDateIssued)
		doi := strings.TrimPrefix(idx[r.Handle], doiResolverPrefix)
		rows = append(rows, Row{
			DSpaceID:   r.ID,
			ARK:        r.Handle,
			DOI:        doi,
			OSTIID:     strings.TrimPrefix(doi, ostiDOIPrefix),
			IssueDate:  issued,
			Collection: r.Collection,
			Author:     strings.Join(r.Values(types.KeyAuthor), ";"),
			Title:      r.Name,
			URL:        siteURLBase + r.Handle,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].DSpaceID < rows[j].DSpaceID })
	return rows
}

// WriteCSV writes rows with a header.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FillDOIs copies a CSV from r to w, filling the DOI column of each row
// from the redirect cache by the value of the handle column. The DOI column
// is appended when absent. It returns the number of rows matched.
func FillDOIs(r io.Reader, w io.Writer, cache *resolve.Cache, handleCol, doiCol string) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}

	hIdx, dIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case handleCol:
			hIdx = i
		case doiCol:
			dIdx = i
		}
	}
	if hIdx < 0 {
		return 0, fmt.Errorf("no %q column", handleCol)
	}
	if dIdx < 0 {
		header = append(header, doiCol)
		dIdx = len(header) - 1
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return 0, err
	}

	idx := handleIndex(cache)
	matched := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return matched, err
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		doi := ""
		if hIdx < len(rec) {
			if d, ok := idx[strings.TrimSpace(rec[hIdx])]; ok {
				doi = d
				matched++
			}
		}
		rec[dIdx] = doi
		if err := cw.Write(rec); err != nil {
			return matched, err
		}
	}
	cw.Flush()
	return matched, cw.Error()
}
