// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"sort"

	"github.com/pdiddy/osti-sync/pkg/types"
)

// SyncSummary reports what SyncEntries changed. Id lists are sorted.
type SyncSummary struct {
	Common  []int
	Added   []int
	Dropped []int
}

// Changed reports whether any row was added or dropped.
func (s SyncSummary) Changed() bool {
	return len(s.Added) > 0 || len(s.Dropped) > 0
}

// SyncEntries folds a freshly generated entry form into the working form a
// person has been editing. Rows present in both are kept exactly as they
// are in existing, preserving manual edits. Rows only in existing are
// dropped (the record was posted or withdrawn). Rows only in fresh are
// appended as generated, with Datatype set to placeholder since DataSpace
// carries no dataset type.
//
// Running SyncEntries again with the same fresh rows changes nothing.
func SyncEntries(existing, fresh []types.EntryFormRow, placeholder string) ([]types.EntryFormRow, SyncSummary) {
	freshIDs := make(map[int]struct{}, len(fresh))
	for _, r := range fresh {
		freshIDs[r.DSpaceID] = struct{}{}
	}
	existingIDs := make(map[int]struct{}, len(existing))
	for _, r := range existing {
		existingIDs[r.DSpaceID] = struct{}{}
	}

	var sum SyncSummary
	updated := make([]types.EntryFormRow, 0, len(fresh))
	for _, r := range existing {
		if _, ok := freshIDs[r.DSpaceID]; ok {
			updated = append(updated, r)
			sum.Common = append(sum.Common, r.DSpaceID)
		} else {
			sum.Dropped = append(sum.Dropped, r.DSpaceID)
		}
	}

	seen := map[int]struct{}{}
	for _, r := range fresh {
		if _, ok := existingIDs[r.DSpaceID]; ok {
			continue
		}
		if _, dup := seen[r.DSpaceID]; dup {
			continue
		}
		seen[r.DSpaceID] = struct{}{}

		r.Datatype = placeholder
		updated = append(updated, r)
		sum.Added = append(sum.Added, r.DSpaceID)
	}

	sort.Ints(sum.Common)
	sort.Ints(sum.Added)
	sort.Ints(sum.Dropped)
	return updated, sum
}
