// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/osti-sync/internal/httputil"
	"github.com/pdiddy/osti-sync/pkg/errors"
	"github.com/pdiddy/osti-sync/pkg/types"
)

// community is the part of /rest/communities/{id} we read.
type community struct {
	Name       string `json:"name"`
	CountItems int    `json:"countItems"`
}

// DSpaceClient reads items from the DataSpace REST API.
type DSpaceClient struct {
	HTTP *httputil.Client
	Cfg  types.DSpaceConfig
}

// FetchCollection returns every item in collection c with metadata
// expanded, each stamped with the collection name.
func (d *DSpaceClient) FetchCollection(ctx context.Context, c types.Collection) ([]types.CatalogRecord, error) {
	u := fmt.Sprintf("%s/rest/collections/%d/items?expand=metadata", d.Cfg.BaseURL, c.ID)
	var items []types.CatalogRecord
	if err := d.HTTP.GetJSON(ctx, u, &items); err != nil {
		return nil, fmt.Errorf("fetching collection %q: %w", c.Name, err)
	}
	for i := range items {
		items[i].Collection = c.Name
	}
	return items, nil
}

// CommunityCount returns the community's reported item count.
func (d *DSpaceClient) CommunityCount(ctx context.Context) (int, error) {
	u := fmt.Sprintf("%s/rest/communities/%d", d.Cfg.BaseURL, d.Cfg.CommunityID)
	var c community
	if err := d.HTTP.GetJSON(ctx, u, &c); err != nil {
		return 0, fmt.Errorf("fetching community %d: %w", d.Cfg.CommunityID, err)
	}
	return c.CountItems, nil
}

// FetchAll fetches every configured collection and then checks the total
// against the community count. A mismatch means the collection list is out
// of date and is returned as a FetchProtocolError.
func (d *DSpaceClient) FetchAll(ctx context.Context, w io.Writer) ([]types.CatalogRecord, error) {
	var all []types.CatalogRecord
	for _, c := range d.Cfg.Collections {
		items, err := d.FetchCollection(ctx, c)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(w, "  %-45s %4d items\n", c.Name, len(items))
		all = append(all, items...)
	}

	count, err := d.CommunityCount(ctx)
	if err != nil {
		return nil, err
	}
	if count != len(all) {
		return nil, errors.NewFetchProtocolError(SourceDSpace,
			"community %d reports %d items but %d were fetched from %d collections; update dspace.collections",
			d.Cfg.CommunityID, count, len(all), len(d.Cfg.Collections))
	}

	fmt.Fprintf(w, "pulled %d records from DataSpace\n", len(all))
	if all == nil {
		all = []types.CatalogRecord{}
	}
	return all, nil
}
