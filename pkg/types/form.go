// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Entry form column headers, in file order.
const (
	ColDSpaceID       = "DSpace ID"
	ColIssueDate      = "Issue Date"
	ColTitle          = "Title"
	ColAuthor         = "Author"
	ColLink           = "Dataspace Link"
	ColSponsorOrgs    = "Sponsoring Organizations"
	ColDOEContract    = "DOE Contract"
	ColNonDOEContract = "Non-DOE Contract"
	ColDatatype       = "Datatype"
)

// FormColumns lists the entry form header in order.
var FormColumns = []string{
	ColDSpaceID, ColIssueDate, ColTitle, ColAuthor, ColLink,
	ColSponsorOrgs, ColDOEContract, ColNonDOEContract, ColDatatype,
}

// RequiredFormColumns must be present and non-empty before a payload is built.
var RequiredFormColumns = []string{ColSponsorOrgs, ColDOEContract, ColDatatype}

// EntryFormRow pairs a CatalogRecord's derived fields with slots a person
// fills in by hand. Rows are keyed by DSpaceID.
type EntryFormRow struct {
	DSpaceID       int
	IssueDate      string
	Title          string
	Author         string
	Link           string
	SponsorOrgs    string
	DOEContract    string
	NonDOEContract string
	Datatype       string
}

// Cell returns the value of the named column, and false for unknown columns.
func (r EntryFormRow) Cell(col string) (string, bool) {
	switch col {
	case ColIssueDate:
		return r.IssueDate, true
	case ColTitle:
		return r.Title, true
	case ColAuthor:
		return r.Author, true
	case ColLink:
		return r.Link, true
	case ColSponsorOrgs:
		return r.SponsorOrgs, true
	case ColDOEContract:
		return r.DOEContract, true
	case ColNonDOEContract:
		return r.NonDOEContract, true
	case ColDatatype:
		return r.Datatype, true
	default:
		return "", false
	}
}

// GrantSet holds grant numbers split by funder class. Both sets are keyed by
// the canonical grant string.
type GrantSet struct {
	DOE   map[string]struct{}
	Other map[string]struct{}
}

// NewGrantSet returns an empty GrantSet.
func NewGrantSet() GrantSet {
	return GrantSet{DOE: map[string]struct{}{}, Other: map[string]struct{}{}}
}

// EntryForm is an entry form as read from disk. Columns records the header
// so that missing columns can be told apart from empty cells. Cells holds
// each row's record exactly as read, aligned to Columns and keyed by
// DSpaceID, so a rewrite keeps columns and values the form does not model.
type EntryForm struct {
	Columns []string
	Rows    []EntryFormRow
	Cells   map[int][]string
}

// HasColumn reports whether the form header carries col. A form built in
// memory with no header has every column.
func (f EntryForm) HasColumn(col string) bool {
	if f.Columns == nil {
		return true
	}
	for _, c := range f.Columns {
		if c == col {
			return true
		}
	}
	return false
}
