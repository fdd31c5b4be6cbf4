// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package funding extracts grant numbers from free-text funder metadata and
// classifies them as DOE or other.
//
// Extraction runs in a fixed order: hyphen normalization, the ordered
// replacement table, the bare-mention check, and finally the grant-number
// scan. Later steps rely on the normalization done by earlier ones.
package funding

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/pdiddy/osti-sync/pkg/types"
)

// Extractor applies a FundingConfig. It holds no mutable state.
type Extractor struct {
	replacements    []types.Replacement
	bareMentions    []*regexp.Regexp
	grantPattern    *regexp.Regexp
	doePattern      *regexp.Regexp
	doeStrip        *regexp.Regexp
	defaultContract string
}

// New compiles the patterns in cfg.
func New(cfg types.FundingConfig) (*Extractor, error) {
	if cfg.DefaultContract == "" {
		return nil, fmt.Errorf("funding: default contract is required")
	}
	if len(cfg.DOEPrefixes) == 0 {
		return nil, fmt.Errorf("funding: at least one DOE prefix is required")
	}

	e := &Extractor{
		replacements:    cfg.Replacements,
		defaultContract: cfg.DefaultContract,
	}

	var err error
	if e.grantPattern, err = regexp.Compile(cfg.GrantPattern); err != nil {
		return nil, fmt.Errorf("funding: grant pattern: %w", err)
	}
	if e.doeStrip, err = regexp.Compile(cfg.DOEStripPrefix); err != nil {
		return nil, fmt.Errorf("funding: DOE strip pattern: %w", err)
	}

	quoted := make([]string, len(cfg.DOEPrefixes))
	for i, p := range cfg.DOEPrefixes {
		quoted[i] = regexp.QuoteMeta(p)
	}
	e.doePattern = regexp.MustCompile("^(" + strings.Join(quoted, "|") + ")")

	for _, pat := range cfg.BareMentions {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("funding: bare mention %q: %w", pat, err)
		}
		e.bareMentions = append(e.bareMentions, re)
	}
	return e, nil
}

// toASCIIHyphen maps Unicode dash punctuation and the minus sign to '-'.
func toASCIIHyphen(r rune) rune {
	if r == '−' || (r != '-' && unicode.Is(unicode.Pd, r)) {
		return '-'
	}
	return r
}

// Normalize rewrites text so grant numbers appear in a single canonical
// spelling.
func (e *Extractor) Normalize(text string) string {
	if out, _, err := transform.String(runes.Map(toASCIIHyphen), text); err == nil {
		text = out
	}
	for _, r := range e.replacements {
		text = strings.ReplaceAll(text, r.Old, r.New)
	}
	return text
}

// ExtractGrants returns the grant-number tokens found in text. A bare DOE
// mention with no number yields the default contract alone.
func (e *Extractor) ExtractGrants(text string) map[string]struct{} {
	grants := map[string]struct{}{}
	cleaned := e.Normalize(text)

	for _, re := range e.bareMentions {
		if re.MatchString(cleaned) {
			grants[e.defaultContract] = struct{}{}
			return grants
		}
	}

	for _, m := range e.grantPattern.FindAllString(cleaned, -1) {
		grants[m] = struct{}{}
	}
	return grants
}

// ClassifyGrants splits grants into DOE and other. DOE grants lose any
// leading "DE"/"DE-" prefix. The DOE set is never empty: when no DOE
// grant is present the default contract stands in for it.
func (e *Extractor) ClassifyGrants(grants map[string]struct{}) types.GrantSet {
	gs := types.NewGrantSet()
	for g := range grants {
		if e.doePattern.MatchString(g) {
			canonical := e.doeStrip.ReplaceAllString(g, "")
			if canonical == "" {
				continue
			}
			gs.DOE[canonical] = struct{}{}
		} else {
			gs.Other[g] = struct{}{}
		}
	}
	if len(gs.DOE) == 0 {
		gs.DOE[e.defaultContract] = struct{}{}
	}
	return gs
}

// Grants extracts and classifies every funder string of one record.
// Duplicate mentions across strings collapse.
func (e *Extractor) Grants(funderTexts []string) types.GrantSet {
	all := map[string]struct{}{}
	for _, t := range funderTexts {
		for g := range e.ExtractGrants(t) {
			all[g] = struct{}{}
		}
	}
	return e.ClassifyGrants(all)
}

// Sorted returns the members of set in lexical order.
func Sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Join renders set as a ";"-separated list in lexical order.
func Join(set map[string]struct{}) string {
	return strings.Join(Sorted(set), ";")
}
