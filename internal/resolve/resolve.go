// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve maps external DOIs onto internal handles by following the
// DOI redirect, memoizing every successful lookup in a persistent Cache.
package resolve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/osti-sync/internal/httputil"
	"github.com/pdiddy/osti-sync/pkg/errors"
	"github.com/pdiddy/osti-sync/pkg/types"
)

// bareDOIPattern matches DOIs without a resolver prefix: "10.11578/1488485".
var bareDOIPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// Redirector follows a URL to its final destination.
type Redirector interface {
	Follow(ctx context.Context, url string) (finalURL string, status int, err error)
}

// HTTPRedirector follows redirects with an HTTP GET.
type HTTPRedirector struct {
	Client *httputil.Client
}

// Follow issues a GET and reports the URL of the last request in the
// redirect chain together with its status.
func (h HTTPRedirector) Follow(ctx context.Context, url string) (string, int, error) {
	resp, err := h.Client.Get(ctx, url)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	final := url
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return final, resp.StatusCode, nil
}

// Resolver resolves DOIs to handles through a Cache.
type Resolver struct {
	redirector Redirector
	cache      *Cache
	doiBase    string
	marker     string
	batchSize  int
	log        zerolog.Logger
}

// NewResolver builds a Resolver. The cache is mutated in place; the caller
// owns persistence.
func NewResolver(r Redirector, cache *Cache, cfg types.ResolverConfig, log zerolog.Logger) *Resolver {
	marker := cfg.HandleMarker
	if marker == "" {
		marker = "handle/"
	}
	return &Resolver{
		redirector: r,
		cache:      cache,
		doiBase:    cfg.DOIBase,
		marker:     marker,
		batchSize:  cfg.BatchSize,
		log:        log,
	}
}

// Cache returns the resolver's cache.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve returns the handle for doi. Cached DOIs never touch the network.
// Otherwise the DOI is followed and must end in HTTP 200 at a URL that
// contains the handle marker; the handle is everything after the marker.
func (r *Resolver) Resolve(ctx context.Context, doi string) (string, error) {
	if h, ok := r.cache.Get(doi); ok {
		return h, nil
	}

	final, status, err := r.redirector.Follow(ctx, r.resolvableURL(doi))
	if err != nil {
		return "", &errors.ResolutionError{DOI: doi, Err: err}
	}
	if status != http.StatusOK {
		return "", &errors.ResolutionError{DOI: doi, StatusCode: status}
	}

	handle, err := r.handleFrom(final)
	if err != nil {
		return "", &errors.ResolutionError{DOI: doi, Err: err}
	}

	r.cache.Put(doi, handle)
	r.log.Debug().Str("doi", doi).Str("handle", handle).Msg("resolved DOI")
	return handle, nil
}

func (r *Resolver) resolvableURL(doi string) string {
	if bareDOIPattern.MatchString(doi) {
		return r.doiBase + doi
	}
	return doi
}

func (r *Resolver) handleFrom(finalURL string) (string, error) {
	i := strings.LastIndex(finalURL, r.marker)
	if i < 0 {
		return "", fmt.Errorf("final URL %s has no %q segment", finalURL, r.marker)
	}
	handle := finalURL[i+len(r.marker):]
	if j := strings.IndexAny(handle, "?#"); j >= 0 {
		handle = handle[:j]
	}
	handle = strings.TrimSuffix(handle, "/")
	if handle == "" {
		return "", fmt.Errorf("final URL %s has an empty handle", finalURL)
	}
	return handle, nil
}

// FlushFunc persists the cache. ResolveAll calls it after every batch of
// newly resolved DOIs and once at the end.
type FlushFunc func(*Cache) error

// Outcome is the result of a resolution pass.
type Outcome struct {
	// Handles maps each resolved DOI to its handle.
	Handles map[string]string

	// Failures maps each DOI that could not be resolved to its error.
	Failures map[string]error
}

// ResolveAll resolves dois in order. A failed DOI is recorded and the pass
// continues; the returned error is reserved for flush failures and
// cancellation. flush may be nil.
func (r *Resolver) ResolveAll(ctx context.Context, dois []string, flush FlushFunc) (Outcome, error) {
	out := Outcome{Handles: map[string]string{}, Failures: map[string]error{}}
	pending := 0

	doFlush := func() error {
		if flush == nil || !r.cache.Dirty() {
			return nil
		}
		if err := flush(r.cache); err != nil {
			return fmt.Errorf("flushing redirect cache: %w", err)
		}
		pending = 0
		return nil
	}

	for _, doi := range dois {
		if err := ctx.Err(); err != nil {
			if ferr := doFlush(); ferr != nil {
				return out, errors.Join(err, ferr)
			}
			return out, err
		}
		if _, done := out.Handles[doi]; done {
			continue
		}

		_, cached := r.cache.Get(doi)
		handle, err := r.Resolve(ctx, doi)
		if err != nil && ctx.Err() != nil {
			if ferr := doFlush(); ferr != nil {
				return out, errors.Join(ctx.Err(), ferr)
			}
			return out, ctx.Err()
		}
		if err != nil {
			r.log.Warn().Err(err).Str("doi", doi).Msg("could not resolve DOI")
			out.Failures[doi] = err
			continue
		}
		out.Handles[doi] = handle

		if !cached {
			pending++
			if r.batchSize > 0 && pending >= r.batchSize {
				if err := doFlush(); err != nil {
					return out, err
				}
			}
		}
	}

	if err := doFlush(); err != nil {
		return out, err
	}
	return out, nil
}
