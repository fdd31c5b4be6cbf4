// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog fetches the two record catalogs: the OSTI Data Explorer
// listing of already-registered datasets and the DataSpace collections that
// make up the institution's community.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/pdiddy/osti-sync/internal/httputil"
	"github.com/pdiddy/osti-sync/pkg/errors"
	"github.com/pdiddy/osti-sync/pkg/types"
)

// SourceOSTI and SourceDSpace name the catalogs in FetchProtocolErrors.
const (
	SourceOSTI   = "OSTI Data Explorer"
	SourceDSpace = "DataSpace"
)

// OSTIClient pages through the Data Explorer records API.
type OSTIClient struct {
	HTTP *httputil.Client
	Cfg  types.OSTIConfig
}

// PageURL returns the URL of page n.
func (c *OSTIClient) PageURL(n int) string {
	q := url.Values{}
	q.Set("site_ownership_code", c.Cfg.SiteOwnershipCode)
	q.Set("page", strconv.Itoa(n))
	return c.Cfg.ExplorerURL + "?" + q.Encode()
}

// FetchPage returns the records on page n. An empty slice marks the end.
func (c *OSTIClient) FetchPage(ctx context.Context, n int) ([]types.ExternalRecord, error) {
	var page []types.ExternalRecord
	if err := c.HTTP.GetJSON(ctx, c.PageURL(n), &page); err != nil {
		return nil, fmt.Errorf("fetching OSTI page %d: %w", n, err)
	}
	return page, nil
}

// FetchAll reads pages 0, 1, ... until a page comes back empty. If MaxPages
// pages are all non-empty the listing is assumed to have changed shape and
// a FetchProtocolError is returned.
func (c *OSTIClient) FetchAll(ctx context.Context, w io.Writer) ([]types.ExternalRecord, error) {
	maxPages := c.Cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}

	var all []types.ExternalRecord
	for n := 0; n < maxPages; n++ {
		page, err := c.FetchPage(ctx, n)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			fmt.Fprintf(w, "pulled %d records from OSTI\n", len(all))
			if all == nil {
				all = []types.ExternalRecord{}
			}
			return all, nil
		}
		all = append(all, page...)
	}
	return nil, errors.NewFetchProtocolError(SourceOSTI,
		"no empty page within %d pages; raise osti.max_pages", maxPages)
}
