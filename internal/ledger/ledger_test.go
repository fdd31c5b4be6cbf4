// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/osti-sync/pkg/types"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "data", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func strPtr(s string) *string { return &s }

func TestRecordResponseAndHistory(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	first := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	n, err := s.RecordResponse(ctx, "dry-run", &types.SubmissionResponse{Records: []types.RecordStatus{
		{Title: "A", AccessionNum: "88435/dsp01a", OSTIID: "1", DOI: "10.11578/1", Status: types.StatusSuccess},
	}}, first)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.RecordResponse(ctx, "prod", &types.SubmissionResponse{Records: []types.RecordStatus{
		{Title: "B", AccessionNum: "88435/dsp01b", Status: "FAILURE", StatusMessage: strPtr("Missing sponsor")},
		{Title: "C", AccessionNum: "88435/dsp01c", OSTIID: "3", Status: types.StatusSuccess},
	}}, second)
	require.NoError(t, err)

	all, err := s.History(ctx, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "C", all[0].Title, "newest first")
	assert.Equal(t, "A", all[2].Title)
	assert.True(t, all[2].RunAt.Equal(first))

	failed, err := s.History(ctx, QueryOptions{Status: "FAILURE"})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "Missing sponsor", failed[0].StatusMessage)

	prod, err := s.History(ctx, QueryOptions{Mode: "prod", Limit: 1})
	require.NoError(t, err)
	require.Len(t, prod, 1)
	assert.Equal(t, "prod", prod[0].Mode)
}

func TestSyncRedirects(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	n, err := s.SyncRedirects(ctx, map[string]string{
		"https://doi.org/10.11578/1": "88435/dsp01a",
		"https://doi.org/10.11578/2": "88435/dsp01b",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.SyncRedirects(ctx, map[string]string{"https://doi.org/10.11578/2": "88435/dsp01c"})
	require.NoError(t, err)

	h, ok, err := s.Redirect(ctx, "https://doi.org/10.11578/2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "88435/dsp01c", h)

	_, ok, err = s.Redirect(ctx, "https://doi.org/10.11578/404")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExportYAML(t *testing.T) {
	s, dir := testStore(t)
	ctx := context.Background()
	_, err := s.RecordResponse(ctx, "test", cannedLike(), time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	path := filepath.Join(dir, "history.yaml")
	require.NoError(t, s.ExportYAML(ctx, path, QueryOptions{Mode: "test"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []Submission
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "88435/dsp01z316q451j", got[0].AccessionNum)
	assert.Equal(t, "1488485", got[0].OSTIID)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.RecordResponse(context.Background(), "test", cannedLike(), time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.History(context.Background(), QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// cannedLike is a single successful response entry.
func cannedLike() *types.SubmissionResponse {
	return &types.SubmissionResponse{Records: []types.RecordStatus{{
		OSTIID:       "1488485",
		AccessionNum: "88435/dsp01z316q451j",
		Title:        "Toward fusion plasma scenario planning",
		DOI:          "10.11578/1488485",
		Status:       types.StatusSuccess,
	}}}
}
