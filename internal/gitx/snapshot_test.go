package gitx_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/fleetpull/internal/gitx"
	"github.com/skaphos/fleetpull/internal/model"
)

var _ = Describe("CaptureSnapshot", func() {
	const refArgs = "for-each-ref refs/remotes --format=%(refname) %(objectname)"

	It("captures remote-tracking refs", func() {
		runner := &MockRunner{Responses: map[string]gitx.Result{
			"/repo:" + refArgs: {Status: gitx.StatusOK, Output: "refs/remotes/origin/main abc\nrefs/remotes/origin/dev def"},
		}}
		snap := gitx.CaptureSnapshot(context.Background(), runner, "/repo")
		Expect(snap).To(HaveLen(2))
		Expect(snap["refs/remotes/origin/main"]).To(Equal("abc"))
	})

	It("drops the symbolic HEAD pointer", func() {
		runner := &MockRunner{Responses: map[string]gitx.Result{
			"/repo:" + refArgs: {Status: gitx.StatusOK, Output: "refs/remotes/origin/HEAD abc\nrefs/remotes/origin/main abc"},
		}}
		snap := gitx.CaptureSnapshot(context.Background(), runner, "/repo")
		Expect(snap).To(HaveLen(1))
	})

	It("fails soft to an empty snapshot", func() {
		runner := &MockRunner{Responses: map[string]gitx.Result{
			"/repo:" + refArgs: {Status: gitx.StatusFailed, Output: "fatal: not a git repository"},
		}}
		snap := gitx.CaptureSnapshot(context.Background(), runner, "/repo")
		Expect(snap).To(BeEmpty())
	})
})

var _ = Describe("DiffSnapshots", func() {
	It("classifies added refs", func() {
		before := gitx.Snapshot{}
		after := gitx.Snapshot{"refs/remotes/origin/new": "abc"}
		deltas := gitx.DiffSnapshots(before, after)
		Expect(deltas).To(HaveLen(1))
		Expect(deltas[0].Kind).To(Equal(model.DeltaAdded))
		Expect(deltas[0].NewCommit).To(Equal("abc"))
		Expect(deltas[0].OldCommit).To(Equal(""))
	})

	It("classifies advanced refs", func() {
		before := gitx.Snapshot{"refs/remotes/origin/main": "abc"}
		after := gitx.Snapshot{"refs/remotes/origin/main": "def"}
		deltas := gitx.DiffSnapshots(before, after)
		Expect(deltas).To(HaveLen(1))
		Expect(deltas[0].Kind).To(Equal(model.DeltaAdvanced))
		Expect(deltas[0].OldCommit).To(Equal("abc"))
		Expect(deltas[0].NewCommit).To(Equal("def"))
	})

	It("classifies deleted refs", func() {
		before := gitx.Snapshot{"refs/remotes/origin/gone": "abc"}
		after := gitx.Snapshot{}
		deltas := gitx.DiffSnapshots(before, after)
		Expect(deltas).To(HaveLen(1))
		Expect(deltas[0].Kind).To(Equal(model.DeltaDeleted))
	})

	It("classifies unchanged refs", func() {
		before := gitx.Snapshot{"refs/remotes/origin/main": "abc"}
		after := gitx.Snapshot{"refs/remotes/origin/main": "abc"}
		deltas := gitx.DiffSnapshots(before, after)
		Expect(deltas).To(HaveLen(1))
		Expect(deltas[0].Kind).To(Equal(model.DeltaUnchanged))
	})

	It("classifies every ref from either snapshot exactly once", func() {
		before := gitx.Snapshot{
			"refs/remotes/origin/a": "1",
			"refs/remotes/origin/b": "2",
			"refs/remotes/origin/c": "3",
		}
		after := gitx.Snapshot{
			"refs/remotes/origin/b": "2",
			"refs/remotes/origin/c": "9",
			"refs/remotes/origin/d": "4",
		}
		deltas := gitx.DiffSnapshots(before, after)
		Expect(deltas).To(HaveLen(4))

		kinds := map[string]model.RefDeltaKind{}
		for _, d := range deltas {
			Expect(kinds).NotTo(HaveKey(d.Name))
			kinds[d.Name] = d.Kind
		}
		Expect(kinds["refs/remotes/origin/a"]).To(Equal(model.DeltaDeleted))
		Expect(kinds["refs/remotes/origin/b"]).To(Equal(model.DeltaUnchanged))
		Expect(kinds["refs/remotes/origin/c"]).To(Equal(model.DeltaAdvanced))
		Expect(kinds["refs/remotes/origin/d"]).To(Equal(model.DeltaAdded))
	})

	It("sorts deltas by ref name", func() {
		before := gitx.Snapshot{"refs/remotes/origin/z": "1"}
		after := gitx.Snapshot{"refs/remotes/origin/a": "2", "refs/remotes/origin/m": "3"}
		deltas := gitx.DiffSnapshots(before, after)
		Expect(deltas).To(HaveLen(3))
		Expect(deltas[0].Name).To(Equal("refs/remotes/origin/a"))
		Expect(deltas[1].Name).To(Equal("refs/remotes/origin/m"))
		Expect(deltas[2].Name).To(Equal("refs/remotes/origin/z"))
	})

	It("returns no deltas for two empty snapshots", func() {
		Expect(gitx.DiffSnapshots(gitx.Snapshot{}, gitx.Snapshot{})).To(BeEmpty())
	})
})
