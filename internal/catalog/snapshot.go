// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"fmt"

	"github.com/pdiddy/osti-sync/internal/jsonfile"
	"github.com/pdiddy/osti-sync/pkg/types"
)

// SaveSnapshot atomically writes v as indented JSON.
func SaveSnapshot(path string, v any) error {
	if err := jsonfile.Write(path, v); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// LoadExternal reads an OSTI snapshot.
func LoadExternal(path string) ([]types.ExternalRecord, error) {
	var recs []types.ExternalRecord
	if err := jsonfile.Read(path, &recs); err != nil {
		return nil, fmt.Errorf("loading OSTI snapshot: %w", err)
	}
	return recs, nil
}

// LoadInternal reads a DataSpace snapshot or the unposted subset.
func LoadInternal(path string) ([]types.CatalogRecord, error) {
	var recs []types.CatalogRecord
	if err := jsonfile.Read(path, &recs); err != nil {
		return nil, fmt.Errorf("loading DataSpace snapshot: %w", err)
	}
	return recs, nil
}
