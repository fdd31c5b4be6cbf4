// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile computes the difference between the DataSpace and OSTI
// catalogs. A MatchStrategy decides identity; the result lists internal
// records OSTI does not know about and external records with no internal
// counterpart.
package reconcile

import (
	"context"
	"fmt"
	"html"

	"github.com/pdiddy/osti-sync/internal/resolve"
	"github.com/pdiddy/osti-sync/pkg/types"
)

// Anomaly reasons.
const (
	ReasonNoMatch    = "no internal match"
	ReasonUnresolved = "unresolved DOI"
)

// Result is the outcome of a reconciliation.
type Result struct {
	// Unposted holds internal records absent from the external catalog, in
	// internal catalog order.
	Unposted []types.CatalogRecord

	// Anomalies holds external records that match nothing internally, in
	// external catalog order. They are warnings, not errors.
	Anomalies []types.Anomaly
}

// MatchStrategy identifies which internal and external records describe the
// same dataset.
type MatchStrategy interface {
	Name() types.MatchStrategyName
	FindUnposted(ctx context.Context, internal []types.CatalogRecord, external []types.ExternalRecord) (Result, error)
}

// TitleStrategy matches on exact title. External titles are HTML-entity
// decoded first since OSTI returns "&amp;" where DataSpace stores "&".
type TitleStrategy struct{}

// Name implements MatchStrategy.
func (TitleStrategy) Name() types.MatchStrategyName { return types.MatchByTitle }

// FindUnposted implements MatchStrategy.
func (TitleStrategy) FindUnposted(_ context.Context, internal []types.CatalogRecord, external []types.ExternalRecord) (Result, error) {
	externalTitles := make(map[string]struct{}, len(external))
	for _, e := range external {
		externalTitles[html.UnescapeString(e.Title)] = struct{}{}
	}
	internalTitles := make(map[string]struct{}, len(internal))
	for _, r := range internal {
		internalTitles[r.Name] = struct{}{}
	}

	var res Result
	for _, r := range internal {
		if _, ok := externalTitles[r.Name]; !ok {
			res.Unposted = append(res.Unposted, r)
		}
	}
	for _, e := range external {
		if _, ok := internalTitles[html.UnescapeString(e.Title)]; !ok {
			res.Anomalies = append(res.Anomalies, types.Anomaly{Record: e, Reason: ReasonNoMatch})
		}
	}
	return res, nil
}

// HandleStrategy matches on handle, resolving each external DOI through the
// redirect cache. Flush is called by the resolver to persist the cache and
// may be nil.
type HandleStrategy struct {
	Resolver *resolve.Resolver
	Flush    resolve.FlushFunc
}

// Name implements MatchStrategy.
func (HandleStrategy) Name() types.MatchStrategyName { return types.MatchByHandle }

// FindUnposted implements MatchStrategy. External records whose DOI cannot
// be resolved are reported as anomalies with ReasonUnresolved.
func (s HandleStrategy) FindUnposted(ctx context.Context, internal []types.CatalogRecord, external []types.ExternalRecord) (Result, error) {
	dois := make([]string, 0, len(external))
	for _, e := range external {
		dois = append(dois, e.DOI)
	}
	out, err := s.Resolver.ResolveAll(ctx, dois, s.Flush)
	if err != nil {
		return Result{}, fmt.Errorf("resolving external DOIs: %w", err)
	}

	resolved := make(map[string]struct{}, len(out.Handles))
	for _, h := range out.Handles {
		resolved[h] = struct{}{}
	}
	internalHandles := make(map[string]struct{}, len(internal))
	for _, r := range internal {
		internalHandles[r.Handle] = struct{}{}
	}

	var res Result
	for _, r := range internal {
		if _, ok := resolved[r.Handle]; !ok {
			res.Unposted = append(res.Unposted, r)
		}
	}
	for _, e := range external {
		h, ok := out.Handles[e.DOI]
		if !ok {
			res.Anomalies = append(res.Anomalies, types.Anomaly{Record: e, Reason: ReasonUnresolved})
			continue
		}
		if _, ok := internalHandles[h]; !ok {
			res.Anomalies = append(res.Anomalies, types.Anomaly{Record: e, Reason: ReasonNoMatch})
		}
	}
	return res, nil
}

// NewStrategy returns the strategy named by name. The handle strategy needs
// a resolver; the title strategy ignores it.
func NewStrategy(name types.MatchStrategyName, r *resolve.Resolver, flush resolve.FlushFunc) (MatchStrategy, error) {
	switch name {
	case types.MatchByTitle:
		return TitleStrategy{}, nil
	case types.MatchByHandle, "":
		if r == nil {
			return nil, fmt.Errorf("handle matching requires a resolver")
		}
		return HandleStrategy{Resolver: r, Flush: flush}, nil
	default:
		return nil, fmt.Errorf("unknown match strategy %q", name)
	}
}
