// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/osti-sync/internal/httputil"
	"github.com/pdiddy/osti-sync/internal/jsonfile"
	"github.com/pdiddy/osti-sync/internal/logging"
	"github.com/pdiddy/osti-sync/pkg/errors"
	"github.com/pdiddy/osti-sync/pkg/types"
)

func studyX() types.CatalogRecord {
	return types.CatalogRecord{
		ID:     42,
		Name:   "Study X",
		Handle: "88435/dsp01abc",
		Metadata: []types.MetadataEntry{
			{Key: types.KeyDateAvailable, Value: "2020-01-15T00:00:00+0000"},
			{Key: types.KeyAuthor, Value: "Jones"},
		},
	}
}

func studyXRow() types.EntryFormRow {
	return types.EntryFormRow{
		DSpaceID:    42,
		SponsorOrgs: "USDOE Office of Science (SC)",
		DOEContract: "AC02-09CH11466",
		Datatype:    "AS",
	}
}

func newTestBuilder() *Builder {
	return NewBuilder(types.DefaultConfig().Submission)
}

func TestBuildStudyX(t *testing.T) {
	recs, err := newTestBuilder().Build([]types.CatalogRecord{studyX()}, types.EntryForm{Rows: []types.EntryFormRow{studyXRow()}})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, "01/15/2020", r.PublicationDate)
	assert.Equal(t, "Jones", r.Creators)
	assert.Equal(t, "https://dataspace.princeton.edu/handle/88435/dsp01abc", r.SiteURL)
	assert.Equal(t, "Study X", r.Title)
	assert.Equal(t, "88435/dsp01abc", r.AccessionNum)
	assert.Equal(t, "PPPL", r.ResearchOrg)
	assert.Equal(t, types.DatasetAnimation, r.DatasetType)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	for _, key := range []string{"description", "keywords", "related_identifiers", "othnondoe_contract_nos"} {
		assert.NotContains(t, string(data), key, "absent optional field %s is omitted", key)
	}
}

func TestBuildOptionalFields(t *testing.T) {
	rec := studyX()
	rec.Metadata = append(rec.Metadata,
		types.MetadataEntry{Key: types.KeyAuthor, Value: "Smith"},
		types.MetadataEntry{Key: types.KeyAbstract, Value: "First paragraph."},
		types.MetadataEntry{Key: types.KeyAbstract, Value: "Second paragraph."},
		types.MetadataEntry{Key: types.KeySubject, Value: "tokamak"},
		types.MetadataEntry{Key: types.KeySubject, Value: "MHD"},
		types.MetadataEntry{Key: types.KeyReferencedBy, Value: "https://doi.org/10.1088/1741-4326/ab1234"},
	)
	row := studyXRow()
	row.NonDOEContract = "PHY-1805316"

	recs, err := newTestBuilder().Build([]types.CatalogRecord{rec}, types.EntryForm{Rows: []types.EntryFormRow{row}})
	require.NoError(t, err)
	r := recs[0]

	assert.Equal(t, "Jones;Smith", r.Creators)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", r.Description)
	assert.Equal(t, "tokamak; MHD", r.Keywords)
	assert.Equal(t, "PHY-1805316", r.NonDOEContract)
	assert.Equal(t, []types.RelatedIdentifier{{
		Identifier:     "10.1088/1741-4326/ab1234",
		RelationType:   "IsReferencedBy",
		IdentifierType: "DOI",
	}}, r.RelatedIdentifiers)
}

func TestBuildRejectsBadDatatype(t *testing.T) {
	row := studyXRow()
	row.Datatype = "XX"
	_, err := newTestBuilder().Build([]types.CatalogRecord{studyX()}, types.EntryForm{Rows: []types.EntryFormRow{row}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, err.Error(), "XX")
}

func TestBuildRejectsAmbiguousJoin(t *testing.T) {
	form := types.EntryForm{Rows: []types.EntryFormRow{studyXRow()}}

	_, err := newTestBuilder().Build(nil, form)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, err.Error(), "matches 0 catalog records")

	_, err = newTestBuilder().Build([]types.CatalogRecord{studyX(), studyX()}, form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matches 2 catalog records")
}

func TestBuildReportsWholeBatch(t *testing.T) {
	noDate := studyX()
	noDate.ID = 7
	noDate.Metadata = noDate.Metadata[1:]

	twoDates := studyX()
	twoDates.ID = 8
	twoDates.Metadata = append(twoDates.Metadata, types.MetadataEntry{Key: types.KeyDateAvailable, Value: "2021-01-01T00:00:00Z"})

	badDate := studyX()
	badDate.ID = 9
	badDate.Metadata[0].Value = "January 2020"

	empty := studyXRow()
	empty.DSpaceID = 10
	empty.SponsorOrgs = ""
	empty.Datatype = ""

	rows := []types.EntryFormRow{studyXRow(), studyXRow(), studyXRow(), studyXRow(), empty}
	rows[1].DSpaceID, rows[2].DSpaceID, rows[3].DSpaceID = 7, 8, 9
	records := []types.CatalogRecord{studyX(), noDate, twoDates, badDate, {ID: 10, Handle: "h", Metadata: studyX().Metadata}}

	_, err := newTestBuilder().Build(records, types.EntryForm{Rows: rows})
	require.Error(t, err)

	var verrs errors.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 5)
	assert.Equal(t, 7, verrs[0].Row)
	assert.Equal(t, types.KeyDateAvailable, verrs[0].Field)
	assert.Equal(t, 8, verrs[1].Row)
	assert.Equal(t, 9, verrs[2].Row)
	assert.Equal(t, 10, verrs[3].Row)
	assert.Equal(t, types.ColSponsorOrgs, verrs[3].Field)
	assert.Equal(t, types.ColDatatype, verrs[4].Field)
}

func TestBuildMissingColumn(t *testing.T) {
	form := types.EntryForm{
		Columns: []string{types.ColDSpaceID, types.ColSponsorOrgs, types.ColDatatype},
		Rows:    []types.EntryFormRow{studyXRow()},
	}
	_, err := newTestBuilder().Build([]types.CatalogRecord{studyX()}, form)
	require.Error(t, err)
	var verrs errors.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, types.ColDOEContract, verrs[0].Field)
}

func TestPlaceholderRows(t *testing.T) {
	a, b := studyXRow(), studyXRow()
	b.DSpaceID, b.Datatype = 43, "ND"
	assert.Equal(t, []int{42}, PlaceholderRows(types.EntryForm{Rows: []types.EntryFormRow{a, b}}, "AS"))
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"dry-run", "test", "prod"} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, Mode(s), m)
	}
	_, err := ParseMode("staging")
	assert.Error(t, err)
	assert.False(t, ModeDryRun.NeedsCredentials())
	assert.True(t, ModeProd.NeedsCredentials())
}

func TestELinkClient(t *testing.T) {
	var gotUser, gotPass string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<records>
  <record status="UPDATED">
    <osti_id>1488485</osti_id>
    <accession_num>88435/dsp01abc</accession_num>
    <title>Study X</title>
    <contract_nos>AC02-09CH11466</contract_nos>
    <doi>10.11578/1488485</doi>
    <doi_status>PENDING</doi_status>
    <status>SUCCESS</status>
  </record>
  <record status="FAILED">
    <title>Study Y</title>
    <status>FAILURE</status>
    <status_message>Missing sponsor</status_message>
  </record>
</records>`)
	}))
	defer srv.Close()

	c := &ELinkClient{HTTP: srv.Client(), Endpoint: srv.URL, Log: logging.Nop}
	recs, err := newTestBuilder().Build([]types.CatalogRecord{studyX()}, types.EntryForm{Rows: []types.EntryFormRow{studyXRow()}})
	require.NoError(t, err)

	resp, err := c.Submit(context.Background(), recs, types.Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "u", gotUser)
	assert.Equal(t, "p", gotPass)
	assert.Contains(t, string(gotBody), "<records><record><title>Study X</title>")
	assert.Contains(t, string(gotBody), "<publication_date>01/15/2020</publication_date>")
	assert.NotContains(t, string(gotBody), "<description>")

	require.Len(t, resp.Records, 2)
	assert.Equal(t, "1488485", resp.Records[0].OSTIID)
	assert.Equal(t, "UPDATED", resp.Records[0].RecordAction)
	assert.True(t, resp.Records[0].Succeeded())
	assert.False(t, resp.Records[1].Succeeded())
	require.NotNil(t, resp.Records[1].StatusMessage)
	assert.Equal(t, "Missing sponsor", *resp.Records[1].StatusMessage)
}

func TestELinkClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	c := &ELinkClient{HTTP: srv.Client(), Endpoint: srv.URL, Log: logging.Nop}

	_, err := c.Submit(context.Background(), nil, types.Credentials{})
	assert.Error(t, err, "credentials required")

	_, err = c.Submit(context.Background(), nil, types.Credentials{Username: "u", Password: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestStubClient(t *testing.T) {
	recs := []types.SubmissionRecord{
		{Title: "A", AccessionNum: "88435/dsp01a"},
		{Title: "B", AccessionNum: "88435/dsp01b"},
	}
	resp, err := (&StubClient{FirstID: 10}).Submit(context.Background(), recs, types.Credentials{})
	require.NoError(t, err)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "10", resp.Records[0].OSTIID)
	assert.Equal(t, "10.11578/11", resp.Records[1].DOI)
	assert.Equal(t, "88435/dsp01b", resp.Records[1].AccessionNum)
	assert.True(t, resp.AllSucceeded())

	canned, err := (&StubClient{Response: CannedResponse()}).Submit(context.Background(), recs, types.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "1488485", canned.Records[0].OSTIID)
}

func TestNewClient(t *testing.T) {
	cfg := types.DefaultConfig().OSTI
	c, err := NewClient(ModeDryRun, cfg, nil, 0, logging.Nop)
	require.NoError(t, err)
	assert.IsType(t, &StubClient{}, c)

	c, err = NewClient(ModeProd, cfg, nil, 7, logging.Nop)
	require.NoError(t, err)
	require.IsType(t, &ELinkClient{}, c)
	assert.Equal(t, cfg.ELinkProdURL, c.(*ELinkClient).Endpoint)
	assert.Equal(t, 7, c.(*ELinkClient).MaxRetries)

	c, err = NewClient(ModeTest, cfg, nil, 2, logging.Nop)
	require.NoError(t, err)
	assert.Equal(t, cfg.ELinkTestURL, c.(*ELinkClient).Endpoint)
	assert.Equal(t, 2, c.(*ELinkClient).MaxRetries)
}

func TestELinkClientRetriesUpToMaxRetries(t *testing.T) {
	orig := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	t.Cleanup(func() { httputil.RetryBaseDelay = orig })

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := types.DefaultConfig().OSTI
	cfg.ELinkTestURL = srv.URL
	c, err := NewClient(ModeTest, cfg, srv.Client(), 1, logging.Nop)
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), []types.SubmissionRecord{{Title: "Study X"}}, types.Credentials{Username: "u", Password: "p"})
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load(), "one attempt plus one retry")
}

func TestSummarize(t *testing.T) {
	var buf bytes.Buffer
	Summarize(&buf, ModeDryRun, CannedResponse(), "r.json")
	assert.Empty(t, buf.String())

	ok := &types.SubmissionResponse{Records: []types.RecordStatus{{Title: "Good", Status: types.StatusSuccess}}}
	Summarize(&buf, ModeProd, ok, "r.json")
	assert.Equal(t, "All records posted successfully.\n", buf.String())

	buf.Reset()
	bad := &types.SubmissionResponse{Records: []types.RecordStatus{{Title: "Bad", Status: "FAILURE"}}}
	Summarize(&buf, ModeTest, bad, "r.json")
	assert.Contains(t, buf.String(), "r.json")
}

func TestReport(t *testing.T) {
	msg := "Missing sponsor"
	resp := &types.SubmissionResponse{Records: []types.RecordStatus{
		{Title: "Good", Status: types.StatusSuccess},
		{Title: "Bad", Status: "FAILURE", StatusMessage: &msg},
	}}
	var buf bytes.Buffer
	failed := Report(&buf, resp)

	assert.Equal(t, "\t✔ Good\n\t✗ Bad\n", buf.String())
	require.Len(t, failed, 1)
	assert.Equal(t, "Bad", failed[0].Title)
	assert.Equal(t, "Missing sponsor", failed[0].Message)
	assert.True(t, errors.Is(failed[0], errors.ErrSubmission))

	buf.Reset()
	require.NoError(t, PrintTable(&buf, resp))
	assert.Contains(t, buf.String(), "FAILURE")
	assert.Contains(t, buf.String(), "Good")
}

func TestWriteResponse(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := WriteResponse(dir, ModeDryRun, CannedResponse(), now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dry-run_osti_response_2026-03-04 050607.000000.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"@status": "UPDATED"`))
	assert.True(t, strings.Contains(string(data), `"status_message": null`))

	var back types.SubmissionResponse
	require.NoError(t, jsonfile.Read(path, &back))
	assert.Equal(t, CannedResponse().Records, back.Records)
}

func TestSubmissionRecordXMLOmitsEmpty(t *testing.T) {
	data, err := xml.Marshal(types.SubmissionRecord{Title: "T"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "related_identifiers")
	assert.NotContains(t, string(data), "keywords")
}
