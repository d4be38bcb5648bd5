package gitx

import (
	"context"
	"sort"

	"github.com/skaphos/fleetpull/internal/model"
)

// Snapshot maps remote-tracking ref names to commit ids.
type Snapshot map[string]string

// CaptureSnapshot lists remote-tracking refs and their commit ids.
// Fails soft, returning an empty snapshot on command failure: the fetch
// step surfaces fatal transport errors itself, and an empty "before"
// snapshot merely reports every ref as newly added.
func CaptureSnapshot(ctx context.Context, r Runner, dir string) Snapshot {
	res := r.Run(ctx, dir, "for-each-ref", "refs/remotes", "--format=%(refname) %(objectname)")
	if !res.OK() {
		return Snapshot{}
	}
	return ParseRefLines(res.Output)
}

// DiffSnapshots classifies every ref present in either snapshot as
// added, advanced, deleted or unchanged. Output is sorted by ref name.
// Symbolic HEAD pointers never appear: ParseRefLines drops them.
func DiffSnapshots(before, after Snapshot) []model.RefDelta {
	names := make([]string, 0, len(after)+len(before))
	for name := range after {
		names = append(names, name)
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	deltas := make([]model.RefDelta, 0, len(names))
	for _, name := range names {
		oldID, inBefore := before[name]
		newID, inAfter := after[name]
		switch {
		case !inBefore:
			deltas = append(deltas, model.RefDelta{Name: name, NewCommit: newID, Kind: model.DeltaAdded})
		case !inAfter:
			deltas = append(deltas, model.RefDelta{Name: name, OldCommit: oldID, Kind: model.DeltaDeleted})
		case oldID != newID:
			deltas = append(deltas, model.RefDelta{Name: name, OldCommit: oldID, NewCommit: newID, Kind: model.DeltaAdvanced})
		default:
			deltas = append(deltas, model.RefDelta{Name: name, OldCommit: oldID, NewCommit: newID, Kind: model.DeltaUnchanged})
		}
	}
	return deltas
}
