// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a SQLite history of every E-Link response and a
// mirror of the DOI redirect cache, so past runs can be queried without
// digging through timestamped response files.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/osti-sync/internal/jsonfile"
	"github.com/pdiddy/osti-sync/pkg/types"
)

// Store manages the ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger at path and creates the schema if it
// does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			accession_num TEXT,
			title TEXT,
			osti_id TEXT,
			doi TEXT,
			status TEXT NOT NULL,
			status_message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_mode ON submissions(mode)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status)`,
		`CREATE TABLE IF NOT EXISTS redirects (
			doi TEXT PRIMARY KEY,
			handle TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Submission is one ledger row.
type Submission struct {
	ID            int64     `json:"id" yaml:"id"`
	RunAt         time.Time `json:"run_at" yaml:"run_at"`
	Mode          string    `json:"mode" yaml:"mode"`
	AccessionNum  string    `json:"accession_num" yaml:"accession_num"`
	Title         string    `json:"title" yaml:"title"`
	OSTIID        string    `json:"osti_id,omitempty" yaml:"osti_id,omitempty"`
	DOI           string    `json:"doi,omitempty" yaml:"doi,omitempty"`
	Status        string    `json:"status" yaml:"status"`
	StatusMessage string    `json:"status_message,omitempty" yaml:"status_message,omitempty"`
}

// RecordResponse inserts one row per response entry in a single
// transaction and returns the number of rows written.
func (s *Store) RecordResponse(ctx context.Context, mode string, resp *types.SubmissionResponse, at time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO submissions (run_at, mode, accession_num, title, osti_id, doi, status, status_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	runAt := at.UTC().Format(time.RFC3339Nano)
	for _, rec := range resp.Records {
		var msg sql.NullString
		if rec.StatusMessage != nil {
			msg = sql.NullString{String: *rec.StatusMessage, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			runAt, mode, rec.AccessionNum, rec.Title, rec.OSTIID, rec.DOI, rec.Status, msg,
		); err != nil {
			return 0, fmt.Errorf("inserting %q: %w", rec.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return len(resp.Records), nil
}

// SyncRedirects upserts every DOI to handle mapping and returns the number
// of rows touched.
func (s *Store) SyncRedirects(ctx context.Context, entries map[string]string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO redirects (doi, handle) VALUES (?, ?)
		 ON CONFLICT(doi) DO UPDATE SET handle=excluded.handle`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	dois := make([]string, 0, len(entries))
	for d := range entries {
		dois = append(dois, d)
	}
	sort.Strings(dois)
	for _, d := range dois {
		if _, err := stmt.ExecContext(ctx, d, entries[d]); err != nil {
			return 0, fmt.Errorf("upserting redirect %s: %w", d, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return len(dois), nil
}

// Redirect returns the handle stored for doi.
func (s *Store) Redirect(ctx context.Context, doi string) (string, bool, error) {
	var h string
	err := s.db.QueryRowContext(ctx, `SELECT handle FROM redirects WHERE doi = ?`, doi).Scan(&h)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying redirect: %w", err)
	}
	return h, true, nil
}

// QueryOptions filters History. Zero values mean no filter.
type QueryOptions struct {
	Mode   string
	Status string
	Limit  int
}

// History returns ledger rows, newest first.
func (s *Store) History(ctx context.Context, opts QueryOptions) ([]Submission, error) {
	var where []string
	var args []any
	if opts.Mode != "" {
		where = append(where, "mode = ?")
		args = append(args, opts.Mode)
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, opts.Status)
	}

	q := `SELECT id, run_at, mode, accession_num, title, osti_id, doi, status, status_message FROM submissions`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY run_at DESC, id DESC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var (
			sub                                Submission
			runAt                              string
			accession, title, ostiID, doi, msg sql.NullString
		)
		if err := rows.Scan(&sub.ID, &runAt, &sub.Mode, &accession, &title, &ostiID, &doi, &sub.Status, &msg); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if sub.RunAt, err = time.Parse(time.RFC3339Nano, runAt); err != nil {
			return nil, fmt.Errorf("parsing run_at %q: %w", runAt, err)
		}
		sub.AccessionNum = accession.String
		sub.Title = title.String
		sub.OSTIID = ostiID.String
		sub.DOI = doi.String
		sub.StatusMessage = msg.String
		out = append(out, sub)
	}
	return out, rows.Err()
}

// ExportYAML writes the filtered history to path.
func (s *Store) ExportYAML(ctx context.Context, path string, opts QueryOptions) error {
	subs, err := s.History(ctx, opts)
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []Submission{}
	}
	data, err := yaml.Marshal(subs)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return jsonfile.WriteBytes(path, data)
}
