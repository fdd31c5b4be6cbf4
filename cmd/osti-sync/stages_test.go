package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/osti-sync/internal/form"
	"github.com/pdiddy/osti-sync/pkg/types"
)

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), cfg)

	viper.Set("osti.max_pages", 3)
	viper.Set("match", "title")
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.OSTI.MaxPages)
	assert.Equal(t, types.MatchByTitle, cfg.Match)
	assert.Equal(t, "PPPL", cfg.OSTI.SiteOwnershipCode)
	assert.Len(t, cfg.DSpace.Collections, len(types.DefaultConfig().DSpace.Collections))
}

func testPipelineConfig(t *testing.T) types.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := types.DefaultConfig()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.ResponseDir = filepath.Join(dir, "responses")
	cfg.Paths.EntryForm = filepath.Join(dir, "entry_form.tsv")
	cfg.Paths.FormInput = filepath.Join(dir, "form_input.tsv")
	return cfg
}

func TestWriteFormsSeedsThenSyncs(t *testing.T) {
	cfg := testPipelineConfig(t)
	unposted := []types.CatalogRecord{{
		ID: 42, Name: "Study X", Handle: "88435/dsp01x",
		Metadata: []types.MetadataEntry{
			{Key: types.KeyDateIssued, Value: "2020"},
			{Key: types.KeyAuthor, Value: "Jones"},
		},
	}}

	_, err := writeForms(cfg, unposted, false, io.Discard)
	require.Error(t, err, "missing form input without seed")

	sum, err := writeForms(cfg, unposted, true, io.Discard)
	require.NoError(t, err)
	assert.False(t, sum.Changed())
	assert.Equal(t, []int{42}, sum.Common)

	got, err := form.ReadFile(cfg.Paths.FormInput)
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, cfg.Submission.DefaultDatatype, got.Rows[0].Datatype)
	assert.Equal(t, types.BlanketContract, got.Rows[0].DOEContract)
}

func TestArtifactPaths(t *testing.T) {
	cfg := testPipelineConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Paths.ResponseDir, 0o755))
	resp := filepath.Join(cfg.Paths.ResponseDir, "test_osti_response_2026-01-01 000000.000000.json")
	require.NoError(t, os.WriteFile(resp, []byte("{}"), 0o644))
	cfg.Paths.Payload = ""

	files, err := artifactPaths(cfg)
	require.NoError(t, err)
	assert.Contains(t, files, filepath.Join(cfg.Paths.DataDir, "osti_scrape.json"))
	assert.Contains(t, files, cfg.Paths.FormInput)
	assert.Contains(t, files, resp)
	assert.NotContains(t, files, "")
}
