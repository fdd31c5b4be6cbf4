// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/xml"

// DatasetType is the OSTI dataset type code.
type DatasetType string

const (
	DatasetAnimation   DatasetType = "AS"
	DatasetGenomic     DatasetType = "GD"
	DatasetImage       DatasetType = "IM"
	DatasetNumeric     DatasetType = "ND"
	DatasetInstrument  DatasetType = "IP"
	DatasetFigure      DatasetType = "FP"
	DatasetSpecialized DatasetType = "SM"
	DatasetMultimedia  DatasetType = "MM"
	DatasetInteractive DatasetType = "I"
)

// DatasetTypes lists every accepted dataset type code.
var DatasetTypes = []DatasetType{
	DatasetAnimation, DatasetGenomic, DatasetImage, DatasetNumeric,
	DatasetInstrument, DatasetFigure, DatasetSpecialized, DatasetMultimedia,
	DatasetInteractive,
}

// Valid reports whether t is one of the accepted codes.
func (t DatasetType) Valid() bool {
	for _, v := range DatasetTypes {
		if t == v {
			return true
		}
	}
	return false
}

// RelatedIdentifier links a dataset to another work.
type RelatedIdentifier struct {
	Identifier     string `json:"related_identifier" xml:"related_identifier"`
	RelationType   string `json:"relation_type" xml:"relation_type"`
	IdentifierType string `json:"related_identifier_type" xml:"related_identifier_type"`
}

// SubmissionRecord is the payload unit posted to OSTI E-Link. The JSON form
// is the on-disk payload; E-Link itself receives the XML form. Optional
// fields are omitted from both when empty.
type SubmissionRecord struct {
	Title          string      `json:"title" xml:"title"`
	Creators       string      `json:"creators" xml:"creators"`
	DatasetType    DatasetType `json:"dataset_type" xml:"dataset_type"`
	SiteURL        string      `json:"site_url" xml:"site_url"`
	ContractNos    string      `json:"contract_nos" xml:"contract_nos"`
	NonDOEContract string      `json:"othnondoe_contract_nos,omitempty" xml:"othnondoe_contract_nos,omitempty"`
	SponsorOrg     string      `json:"sponsor_org" xml:"sponsor_org"`
	ResearchOrg    string      `json:"research_org" xml:"research_org"`
	AccessionNum   string      `json:"accession_num" xml:"accession_num"`

	// PublicationDate is formatted MM/DD/YYYY.
	PublicationDate string `json:"publication_date" xml:"publication_date"`

	Description        string              `json:"description,omitempty" xml:"description,omitempty"`
	Keywords           string              `json:"keywords,omitempty" xml:"keywords,omitempty"`
	RelatedIdentifiers []RelatedIdentifier `json:"related_identifiers,omitempty" xml:"related_identifiers>related_identifier,omitempty"`
}

// StatusSuccess marks a successfully accepted record in an OSTI response.
const StatusSuccess = "SUCCESS"

// RecordStatus is one per-record entry in an OSTI response. RecordAction
// is the status attribute on the XML record element.
type RecordStatus struct {
	OSTIID              string  `json:"osti_id" xml:"osti_id"`
	AccessionNum        string  `json:"accession_num" xml:"accession_num"`
	ProductNos          string  `json:"product_nos,omitempty" xml:"product_nos,omitempty"`
	Title               string  `json:"title" xml:"title"`
	ContractNos         string  `json:"contract_nos" xml:"contract_nos"`
	OtherIdentifyingNos *string `json:"other_identifying_nos" xml:"other_identifying_nos,omitempty"`
	DOI                 string  `json:"doi" xml:"doi"`
	DOIStatus           string  `json:"doi_status,omitempty" xml:"doi_status,omitempty"`
	Status              string  `json:"status" xml:"status"`
	StatusMessage       *string `json:"status_message" xml:"status_message,omitempty"`
	RecordAction        string  `json:"@status,omitempty" xml:"status,attr,omitempty"`
}

// Succeeded reports whether OSTI accepted the record.
func (s RecordStatus) Succeeded() bool {
	return s.Status == StatusSuccess
}

// SubmissionResponse is the body returned by a submission call.
type SubmissionResponse struct {
	XMLName xml.Name       `json:"-" xml:"records"`
	Records []RecordStatus `json:"record" xml:"record"`
}

// AllSucceeded reports whether every entry has status SUCCESS.
func (r SubmissionResponse) AllSucceeded() bool {
	for _, s := range r.Records {
		if !s.Succeeded() {
			return false
		}
	}
	return true
}

// Credentials authenticate against an OSTI E-Link endpoint.
type Credentials struct {
	Username string
	Password string
}

// Empty reports whether no credentials are set.
func (c Credentials) Empty() bool {
	return c.Username == "" && c.Password == ""
}
