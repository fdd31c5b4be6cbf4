// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 (0 uses the default of 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// Collection names one DSpace collection to scrape.
type Collection struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	ID   int    `json:"id" yaml:"id" mapstructure:"id"`
}

// DSpaceConfig describes the internal catalog.
type DSpaceConfig struct {
	// BaseURL is the DataSpace root, e.g. "https://dataspace.princeton.edu".
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// CommunityID is the community whose countItems must equal the number of
	// items fetched across Collections.
	CommunityID int `json:"community_id" yaml:"community_id" mapstructure:"community_id"`

	// Collections lists every collection in the community.
	Collections []Collection `json:"collections" yaml:"collections" mapstructure:"collections"`
}

// OSTIConfig describes the external catalog and the submission endpoints.
type OSTIConfig struct {
	// ExplorerURL is the Data Explorer records endpoint.
	ExplorerURL string `json:"explorer_url" yaml:"explorer_url" mapstructure:"explorer_url"`

	// SiteOwnershipCode filters the Data Explorer listing.
	SiteOwnershipCode string `json:"site_ownership_code" yaml:"site_ownership_code" mapstructure:"site_ownership_code"`

	// MaxPages is the page bound; reaching it without an empty page is fatal.
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`

	// ELinkTestURL and ELinkProdURL receive submission payloads.
	ELinkTestURL string `json:"elink_test_url" yaml:"elink_test_url" mapstructure:"elink_test_url"`
	ELinkProdURL string `json:"elink_prod_url" yaml:"elink_prod_url" mapstructure:"elink_prod_url"`
}

// MatchStrategyName selects how external records are matched to internal ones.
type MatchStrategyName string

const (
	MatchByHandle MatchStrategyName = "handle"
	MatchByTitle  MatchStrategyName = "title"
)

// ResolverConfig configures DOI to handle resolution.
type ResolverConfig struct {
	// DOIBase prefixes bare DOIs before resolution.
	DOIBase string `json:"doi_base" yaml:"doi_base" mapstructure:"doi_base"`

	// HandleMarker precedes the handle in the final redirected URL.
	HandleMarker string `json:"handle_marker" yaml:"handle_marker" mapstructure:"handle_marker"`

	// BatchSize is the number of successful resolutions between cache flushes.
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
}

// Replacement is one literal substring rewrite applied to funder text.
type Replacement struct {
	Old string `json:"old" yaml:"old" mapstructure:"old"`
	New string `json:"new" yaml:"new" mapstructure:"new"`
}

// FundingConfig holds the grant extraction tables. Order of Replacements
// is significant.
type FundingConfig struct {
	Replacements   []Replacement `json:"replacements" yaml:"replacements" mapstructure:"replacements"`
	BareMentions   []string      `json:"bare_mentions" yaml:"bare_mentions" mapstructure:"bare_mentions"`
	GrantPattern   string        `json:"grant_pattern" yaml:"grant_pattern" mapstructure:"grant_pattern"`
	DOEPrefixes    []string      `json:"doe_prefixes" yaml:"doe_prefixes" mapstructure:"doe_prefixes"`
	DOEStripPrefix string        `json:"doe_strip_prefix" yaml:"doe_strip_prefix" mapstructure:"doe_strip_prefix"`

	// DefaultContract is the blanket institutional contract used when no DOE
	// grant is found.
	DefaultContract string `json:"default_contract" yaml:"default_contract" mapstructure:"default_contract"`
}

// SubmissionConfig holds constants stamped onto every payload.
type SubmissionConfig struct {
	ResearchOrg     string `json:"research_org" yaml:"research_org" mapstructure:"research_org"`
	SiteURLBase     string `json:"site_url_base" yaml:"site_url_base" mapstructure:"site_url_base"`
	DefaultSponsor  string `json:"default_sponsor" yaml:"default_sponsor" mapstructure:"default_sponsor"`
	DefaultDatatype string `json:"default_datatype" yaml:"default_datatype" mapstructure:"default_datatype"`

	// DateLayout parses dc.date.available values.
	DateLayout string `json:"date_layout" yaml:"date_layout" mapstructure:"date_layout"`
}

// PathsConfig locates persisted artifacts. Snapshot, cache, payload, and
// ledger names are relative to DataDir; the two form paths are used as given.
type PathsConfig struct {
	DataDir      string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	ResponseDir  string `json:"response_dir" yaml:"response_dir" mapstructure:"response_dir"`
	OSTIScrape   string `json:"osti_scrape" yaml:"osti_scrape" mapstructure:"osti_scrape"`
	DSpaceScrape string `json:"dspace_scrape" yaml:"dspace_scrape" mapstructure:"dspace_scrape"`
	ToUpload     string `json:"to_upload" yaml:"to_upload" mapstructure:"to_upload"`
	Redirects    string `json:"redirects" yaml:"redirects" mapstructure:"redirects"`
	Payload      string `json:"payload" yaml:"payload" mapstructure:"payload"`
	EntryForm    string `json:"entry_form" yaml:"entry_form" mapstructure:"entry_form"`
	FormInput    string `json:"form_input" yaml:"form_input" mapstructure:"form_input"`
	Ledger       string `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	MetricsFile  string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
}

// InData joins name onto DataDir. Absolute names are returned unchanged.
func (p PathsConfig) InData(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.DataDir, name)
}

// Config groups all pipeline settings.
type Config struct {
	HTTP       HTTPConfig        `json:"http" yaml:"http" mapstructure:"http"`
	DSpace     DSpaceConfig      `json:"dspace" yaml:"dspace" mapstructure:"dspace"`
	OSTI       OSTIConfig        `json:"osti" yaml:"osti" mapstructure:"osti"`
	Match      MatchStrategyName `json:"match" yaml:"match" mapstructure:"match"`
	Resolver   ResolverConfig    `json:"resolver" yaml:"resolver" mapstructure:"resolver"`
	Funding    FundingConfig     `json:"funding" yaml:"funding" mapstructure:"funding"`
	Submission SubmissionConfig  `json:"submission" yaml:"submission" mapstructure:"submission"`
	Paths      PathsConfig       `json:"paths" yaml:"paths" mapstructure:"paths"`
}

// BlanketContract is PPPL's institutional DOE prime contract.
const BlanketContract = "AC02-09CH11466"

// DefaultConfig returns the PPPL configuration.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:   60 * time.Second,
			UserAgent: "osti-sync/0.1",
		},
		DSpace: DSpaceConfig{
			BaseURL:     "https://dataspace.princeton.edu",
			CommunityID: 346,
			Collections: []Collection{
				{Name: "NSTX", ID: 1282},
				{Name: "NSTX-U", ID: 1304},
				{Name: "Stellarators", ID: 1308},
				{Name: "Plasma Science & Technology", ID: 1422},
				{Name: "Theory and Computation", ID: 2266},
				{Name: "ITER and Tokamaks PPPL Collaborations", ID: 3378},
				{Name: "Theory", ID: 3379},
				{Name: "Computational Science PPPL Collaborations", ID: 3380},
				{Name: "Engineering Research", ID: 3381},
				{Name: "ESH Technical Reports", ID: 3382},
				{Name: "IT PPPL Collaborations", ID: 3383},
				{Name: "Advanced Projects Other Projects", ID: 3386},
				{Name: "Advanced Projects System Studies", ID: 1309},
			},
		},
		OSTI: OSTIConfig{
			ExplorerURL:       "https://www.osti.gov/dataexplorer/api/v1/records",
			SiteOwnershipCode: "PPPL",
			MaxPages:          10,
			ELinkTestURL:      "https://www.osti.gov/elinktest/2416api",
			ELinkProdURL:      "https://www.osti.gov/elink/2416api",
		},
		Match: MatchByHandle,
		Resolver: ResolverConfig{
			DOIBase:      "https://doi.org/",
			HandleMarker: "handle/",
			BatchSize:    25,
		},
		Funding: FundingConfig{
			Replacements: []Replacement{
				{Old: "- ", New: "-"},
				{Old: "AC02 ", New: "AC02-"},
				{Old: "AC-02", New: "AC02"},
				{Old: "SC-0", New: "SC0"},
				{Old: "DC", New: "DE"},
				{Old: "DE ", New: "DE"},
				{Old: "DOE-", New: "DE"},
				{Old: "DOE ", New: ""},
				{Old: "DOE", New: ""},
			},
			BareMentions: []string{
				`^\s*(U\.?S\.?\s+)?Department\s+of\s+Energy\.?\s*$`,
				`^\s*FES\s*$`,
			},
			GrantPattern:    `\b(?:[A-Z0-9/\-]{6,})`,
			DOEPrefixes:     []string{"DE", "AC", "SC", "FC", "FG", "AR", "EE", "EM", "FE", "NA", "NE"},
			DOEStripPrefix:  `^(DE)+(-?)`,
			DefaultContract: BlanketContract,
		},
		Submission: SubmissionConfig{
			ResearchOrg:     "PPPL",
			SiteURLBase:     "https://dataspace.princeton.edu/handle/",
			DefaultSponsor:  "USDOE Office of Science (SC)",
			DefaultDatatype: string(DatasetAnimation),
			DateLayout:      "2006-01-02T15:04:05Z0700",
		},
		Paths: PathsConfig{
			DataDir:      "data",
			ResponseDir:  "responses",
			OSTIScrape:   "osti_scrape.json",
			DSpaceScrape: "dspace_scrape.json",
			ToUpload:     "dataset_metadata_to_upload.json",
			Redirects:    "redirects.json",
			Payload:      "osti.json",
			EntryForm:    "entry_form.tsv",
			FormInput:    "form_input.tsv",
			Ledger:       "ledger.db",
		},
	}
}
