// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package submission

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/pdiddy/osti-sync/internal/jsonfile"
	"github.com/pdiddy/osti-sync/pkg/errors"
	"github.com/pdiddy/osti-sync/pkg/types"
)

// ResponseTimeLayout stamps response file names.
const ResponseTimeLayout = "2006-01-02 150405.000000"

// Report prints one ✔ or ✗ line per response entry and returns an error
// value for each entry OSTI did not accept.
func Report(w io.Writer, resp *types.SubmissionResponse) []*errors.SubmissionError {
	var failed []*errors.SubmissionError
	for _, rec := range resp.Records {
		if rec.Succeeded() {
			fmt.Fprintf(w, "\t✔ %s\n", rec.Title)
			continue
		}
		fmt.Fprintf(w, "\t✗ %s\n", rec.Title)
		se := &errors.SubmissionError{Title: rec.Title, Status: rec.Status}
		if rec.StatusMessage != nil {
			se.Message = *rec.StatusMessage
		}
		failed = append(failed, se)
	}
	return failed
}

// PrintTable renders the response as a table.
func PrintTable(w io.Writer, resp *types.SubmissionResponse) error {
	table := tablewriter.NewTable(w)
	table.Header("Status", "OSTI ID", "DOI", "Accession", "Title")
	for _, rec := range resp.Records {
		if err := table.Append(rec.Status, rec.OSTIID, rec.DOI, rec.AccessionNum, rec.Title); err != nil {
			return err
		}
	}
	return table.Render()
}

// Summarize prints the closing line of a live submission: a success note
// when OSTI accepted every record, otherwise a pointer to the saved
// response. Dry runs print nothing.
func Summarize(w io.Writer, mode Mode, resp *types.SubmissionResponse, path string) {
	if mode == ModeDryRun {
		return
	}
	if resp.AllSucceeded() {
		fmt.Fprintln(w, "All records posted successfully.")
		return
	}
	fmt.Fprintf(w, "Some records failed; see %s for details.\n", path)
}

// ResponsePath returns {dir}/{mode}_osti_response_{timestamp}.json.
func ResponsePath(dir string, mode Mode, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_osti_response_%s.json", mode, now.Format(ResponseTimeLayout)))
}

// WriteResponse persists resp and returns the file path.
func WriteResponse(dir string, mode Mode, resp *types.SubmissionResponse, now time.Time) (string, error) {
	path := ResponsePath(dir, mode, now)
	if err := jsonfile.Write(path, resp); err != nil {
		return "", fmt.Errorf("writing response: %w", err)
	}
	return path, nil
}
