// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package submission turns the completed entry form and the unposted
// DataSpace records into an OSTI E-Link payload, posts it, and reports the
// per-record outcome.
package submission

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/osti-sync/pkg/errors"
	"github.com/pdiddy/osti-sync/pkg/types"
)

// PublicationDateLayout is the MM/DD/YYYY form OSTI expects.
const PublicationDateLayout = "01/02/2006"

// Related identifier constants for dc.relation.isreferencedby.
const (
	RelationIsReferencedBy = "IsReferencedBy"
	IdentifierTypeDOI      = "DOI"
)

var doiPrefixes = []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"}

// Builder assembles SubmissionRecords.
type Builder struct {
	cfg types.SubmissionConfig
}

// NewBuilder returns a Builder stamping cfg's constants onto each record.
func NewBuilder(cfg types.SubmissionConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Build validates the whole form against records and, only when nothing is
// wrong, returns one SubmissionRecord per form row in form order. Every
// problem found is reported in a single errors.ValidationErrors.
func (b *Builder) Build(records []types.CatalogRecord, form types.EntryForm) ([]types.SubmissionRecord, error) {
	var verrs errors.ValidationErrors

	for _, col := range types.RequiredFormColumns {
		if !form.HasColumn(col) {
			verrs = append(verrs, errors.NewValidationError(0, col, "", "required column is missing"))
		}
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	byID := make(map[int][]types.CatalogRecord, len(records))
	for _, r := range records {
		byID[r.ID] = append(byID[r.ID], r)
	}

	dates := make(map[int]string, len(form.Rows))
	for _, row := range form.Rows {
		verrs = append(verrs, validateRow(row)...)

		matches := byID[row.DSpaceID]
		if len(matches) != 1 {
			verrs = append(verrs, errors.NewValidationError(row.DSpaceID, types.ColDSpaceID, fmt.Sprint(row.DSpaceID),
				fmt.Sprintf("matches %d catalog records, want exactly 1", len(matches))))
			continue
		}

		date, err := b.publicationDate(matches[0])
		if err != nil {
			verrs = append(verrs, err)
			continue
		}
		dates[row.DSpaceID] = date
	}
	if err := verrs.ErrOrNil(); err != nil {
		return nil, err
	}

	out := make([]types.SubmissionRecord, 0, len(form.Rows))
	for _, row := range form.Rows {
		out = append(out, b.record(byID[row.DSpaceID][0], row, dates[row.DSpaceID]))
	}
	return out, nil
}

func validateRow(row types.EntryFormRow) []*errors.ValidationError {
	var verrs []*errors.ValidationError
	for _, col := range types.RequiredFormColumns {
		if v, _ := row.Cell(col); strings.TrimSpace(v) == "" {
			verrs = append(verrs, errors.NewValidationError(row.DSpaceID, col, "", "required cell is empty"))
		}
	}
	if row.Datatype != "" && !types.DatasetType(row.Datatype).Valid() {
		verrs = append(verrs, errors.NewValidationError(row.DSpaceID, types.ColDatatype, row.Datatype,
			fmt.Sprintf("%q is not an accepted dataset type", row.Datatype)))
	}
	return verrs
}

func (b *Builder) publicationDate(r types.CatalogRecord) (string, *errors.ValidationError) {
	vals := r.Values(types.KeyDateAvailable)
	if len(vals) != 1 {
		return "", errors.NewValidationError(r.ID, types.KeyDateAvailable, "",
			fmt.Sprintf("found %d values, want exactly 1", len(vals)))
	}
	t, err := time.Parse(b.cfg.DateLayout, vals[0])
	if err != nil {
		return "", errors.NewValidationError(r.ID, types.KeyDateAvailable, vals[0], err.Error())
	}
	return t.Format(PublicationDateLayout), nil
}

func (b *Builder) record(r types.CatalogRecord, row types.EntryFormRow, date string) types.SubmissionRecord {
	rec := types.SubmissionRecord{
		Title:           r.Name,
		Creators:        strings.Join(r.Values(types.KeyAuthor), ";"),
		DatasetType:     types.DatasetType(row.Datatype),
		SiteURL:         b.cfg.SiteURLBase + r.Handle,
		ContractNos:     row.DOEContract,
		NonDOEContract:  row.NonDOEContract,
		SponsorOrg:      row.SponsorOrgs,
		ResearchOrg:     b.cfg.ResearchOrg,
		AccessionNum:    r.Handle,
		PublicationDate: date,
	}
	if abstract := r.Values(types.KeyAbstract); len(abstract) > 0 {
		rec.Description = strings.Join(abstract, "\n\n")
	}
	if keywords := r.Values(types.KeySubject); len(keywords) > 0 {
		rec.Keywords = strings.Join(keywords, "; ")
	}
	for _, v := range r.Values(types.KeyReferencedBy) {
		rec.RelatedIdentifiers = append(rec.RelatedIdentifiers, types.RelatedIdentifier{
			Identifier:     bareDOI(v),
			RelationType:   RelationIsReferencedBy,
			IdentifierType: IdentifierTypeDOI,
		})
	}
	return rec
}

func bareDOI(v string) string {
	v = strings.TrimSpace(v)
	for _, p := range doiPrefixes {
		if len(v) >= len(p) && strings.EqualFold(v[:len(p)], p) {
			return v[len(p):]
		}
	}
	return v
}

// PlaceholderRows returns the ids of rows whose Datatype is still the
// placeholder written when the row was added to the form.
func PlaceholderRows(form types.EntryForm, placeholder string) []int {
	var ids []int
	for _, row := range form.Rows {
		if placeholder != "" && row.Datatype == placeholder {
			ids = append(ids, row.DSpaceID)
		}
	}
	return ids
}
