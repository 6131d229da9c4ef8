// Package reconcile computes the waypoint changes implied by a completed
// claim scan. It never touches the store: it returns an ordered diff the
// caller applies, which keeps every policy independently testable.
package reconcile

import (
	"fmt"

	"claimpoints/internal/scan"
	"claimpoints/internal/waypoint"
)

// OpKind is the type of one diff operation.
type OpKind int

const (
	OpCreate OpKind = iota
	OpDelete
	OpRelabel
)

// Op is one store mutation. Each op is independently idempotent given the
// position-keyed identity of ClaimPoints, so the caller may apply the diff
// operation-by-operation without a surrounding transaction.
type Op struct {
	Kind OpKind

	// Create
	X        int
	Z        int
	Label    string
	Alias    string
	ColorIdx int

	// Delete / Relabel
	WaypointID int64
}

// Diff is the ordered result of one reconciliation pass.
type Diff struct {
	Ops      []Op
	Creates  int
	Deletes  int
	Relabels int
}

// Empty reports whether the diff contains no operations.
func (d Diff) Empty() bool { return len(d.Ops) == 0 }

// Summary renders the user-facing result line for a scan kind.
func (d Diff) Summary(kind scan.ScanKind, world string) string {
	switch kind {
	case scan.KindAdd:
		return fmt.Sprintf("Added ClaimPoints for world '%s' (%d).", world, d.Creates)
	case scan.KindClean:
		return fmt.Sprintf("Removed ClaimPoints not matching a claim in world '%s' (%d).", world, d.Deletes)
	default:
		return fmt.Sprintf("Updated ClaimPoints for world '%s' (%d added, %d removed, %d renamed).",
			world, d.Creates, d.Deletes, d.Relabels)
	}
}

type position struct {
	x, z int
}

// claimShaped reports whether a waypoint is a ClaimPoint under the given
// pattern set, and the size its label encodes. Unrelated user waypoints
// sharing the store never pass this test and are never touched.
func claimShaped(wp waypoint.Waypoint, ps *scan.PatternSet) (uint, bool) {
	if wp.Alias != ps.Alias() || wp.ColorIdx != ps.ColorIdx() {
		return 0, false
	}
	return ps.ParseLabelSize(wp.Label)
}

// desiredSizes collapses the scan result into a position-keyed size map.
// The report may legitimately repeat a position; the first record wins so
// repeated Add passes stay idempotent.
func desiredSizes(records []scan.ClaimRecord) map[position]uint {
	desired := make(map[position]uint, len(records))
	for _, rec := range records {
		pos := position{rec.X, rec.Z}
		if _, ok := desired[pos]; !ok {
			desired[pos] = rec.Size
		}
	}
	return desired
}

// ForKind runs the reconciliation policy selected by kind.
func ForKind(kind scan.ScanKind, records []scan.ClaimRecord, ps *scan.PatternSet, wps []waypoint.Waypoint) Diff {
	switch kind {
	case scan.KindAdd:
		return Add(records, ps, wps)
	case scan.KindClean:
		return Clean(records, ps, wps)
	default:
		return Update(records, ps, wps)
	}
}

// Add creates a ClaimPoint for every claim position that does not already
// have one. Positions already materialized are left untouched, so re-running
// Add is a no-op for existing claims.
func Add(records []scan.ClaimRecord, ps *scan.PatternSet, wps []waypoint.Waypoint) Diff {
	occupied := make(map[position]bool)
	for _, wp := range wps {
		if _, ok := claimShaped(wp, ps); ok {
			occupied[position{wp.X, wp.Z}] = true
		}
	}

	var diff Diff
	handled := make(map[position]bool)
	for _, rec := range records {
		pos := position{rec.X, rec.Z}
		if occupied[pos] || handled[pos] {
			continue
		}
		handled[pos] = true
		diff.Ops = append(diff.Ops, Op{
			Kind:     OpCreate,
			X:        rec.X,
			Z:        rec.Z,
			Label:    ps.FormatLabel(rec.Size),
			Alias:    ps.Alias(),
			ColorIdx: ps.ColorIdx(),
		})
		diff.Creates++
	}
	return diff
}

// Clean deletes every ClaimPoint whose position is not backed by a claim in
// the scan result. The store is not world-scoped, so ClaimPoints created
// from other worlds are candidates too; callers are expected to run Clean
// right after a full, successful scan of the worlds they care about.
func Clean(records []scan.ClaimRecord, ps *scan.PatternSet, wps []waypoint.Waypoint) Diff {
	desired := desiredSizes(records)

	var diff Diff
	for _, wp := range wps {
		if _, ok := claimShaped(wp, ps); !ok {
			continue
		}
		if _, live := desired[position{wp.X, wp.Z}]; live {
			continue
		}
		diff.Ops = append(diff.Ops, Op{Kind: OpDelete, WaypointID: wp.ID})
		diff.Deletes++
	}
	return diff
}

// Update combines Clean and Add, then renames every surviving ClaimPoint
// whose encoded size no longer matches the reported claim size. A claim
// whose area changed yields a single relabel, not a delete and create.
func Update(records []scan.ClaimRecord, ps *scan.PatternSet, wps []waypoint.Waypoint) Diff {
	desired := desiredSizes(records)

	diff := Clean(records, ps, wps)

	add := Add(records, ps, wps)
	diff.Ops = append(diff.Ops, add.Ops...)
	diff.Creates = add.Creates

	for _, wp := range wps {
		size, ok := claimShaped(wp, ps)
		if !ok {
			continue
		}
		want, live := desired[position{wp.X, wp.Z}]
		if !live || want == size {
			continue
		}
		diff.Ops = append(diff.Ops, Op{
			Kind:       OpRelabel,
			WaypointID: wp.ID,
			Label:      ps.FormatLabel(want),
		})
		diff.Relabels++
	}
	return diff
}
