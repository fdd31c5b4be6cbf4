// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the osti-sync pipeline.
// The internal catalog is DataSpace (DSpace REST, handle-addressed); the
// external catalog is the OSTI Data Explorer (DOI-addressed).
package types

// Metadata keys read from DSpace items.
const (
	KeyAuthor        = "dc.contributor.author"
	KeyFunder        = "dc.contributor.funder"
	KeyDateIssued    = "dc.date.issued"
	KeyDateAvailable = "dc.date.available"
	KeyAbstract      = "dc.description.abstract"
	KeySubject       = "dc.subject"
	KeyReferencedBy  = "dc.relation.isreferencedby"
)

// MetadataEntry is one key/value tag on a DSpace item. Keys repeat for
// multi-valued fields such as authors and subjects.
type MetadataEntry struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Language string `json:"language,omitempty"`
}

// CatalogRecord is one item from the internal repository, as returned by
// /rest/collections/{id}/items?expand=metadata.
type CatalogRecord struct {
	// ID is the DSpace internal item id; it keys the entry form.
	ID int `json:"id"`

	// Name is the item title.
	Name string `json:"name"`

	// Handle is the persistent identifier, e.g. "88435/dsp01abc".
	Handle string `json:"handle"`

	// Metadata lists every tag on the item in source order.
	Metadata []MetadataEntry `json:"metadata"`

	// Collection is the configured collection name the item was fetched from.
	// It is stamped by the fetcher and absent from raw DSpace responses.
	Collection string `json:"collection,omitempty"`
}

// Values returns every metadata value stored under key, in source order.
func (r CatalogRecord) Values(key string) []string {
	var out []string
	for _, m := range r.Metadata {
		if m.Key == key {
			out = append(out, m.Value)
		}
	}
	return out
}

// First returns the first value stored under key and whether one exists.
func (r CatalogRecord) First(key string) (string, bool) {
	for _, m := range r.Metadata {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// ExternalRecord is one item from the OSTI Data Explorer records API.
type ExternalRecord struct {
	OSTIID string `json:"osti_id,omitempty"`
	DOI    string `json:"doi"`
	Title  string `json:"title"`
	Status string `json:"status,omitempty"`
}

// Anomaly is an external record that could not be matched to any internal
// record. Anomalies are reported, never raised.
type Anomaly struct {
	Record ExternalRecord `json:"record"`

	// Reason explains why the record is unmatched, e.g. "no internal match"
	// or "unresolved DOI".
	Reason string `json:"reason"`
}
