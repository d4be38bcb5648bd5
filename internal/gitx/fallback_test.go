package gitx_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/fleetpull/internal/gitx"
)

var _ = Describe("HasAuthSignature", func() {
	It("matches host key verification failures", func() {
		Expect(gitx.HasAuthSignature("Host key verification failed.\nfatal: Could not read")).To(BeTrue())
	})

	It("matches publickey permission failures case-insensitively", func() {
		Expect(gitx.HasAuthSignature("git@example.com: PERMISSION DENIED (PUBLICKEY).")).To(BeTrue())
	})

	It("matches unreadable-remote failures", func() {
		Expect(gitx.HasAuthSignature("fatal: Could not read from remote repository.")).To(BeTrue())
	})

	It("ignores unrelated failures", func() {
		Expect(gitx.HasAuthSignature("fatal: couldn't find remote ref main")).To(BeFalse())
	})
})

var _ = Describe("FallbackRunner", func() {
	const (
		authFail = "git@example.com: Permission denied (publickey).\nfatal: Could not read from remote repository."
		rewrites = "-c url.https://example.com/.insteadOf=git@example.com: " +
			"-c url.https://example.com/.insteadOf=ssh://git@example.com/ "
	)

	It("passes successful results through untouched", func() {
		inner := &MockRunner{Responses: map[string]gitx.Result{
			"/repo:fetch --all": {Status: gitx.StatusOK, Output: "Fetching origin"},
		}}
		f := &gitx.FallbackRunner{Inner: inner}
		res := f.Run(context.Background(), "/repo", "fetch", "--all")
		Expect(res.OK()).To(BeTrue())
		Expect(inner.Calls).To(HaveLen(1))
	})

	It("does not retry failures without an auth signature", func() {
		inner := &MockRunner{Responses: map[string]gitx.Result{
			"/repo:fetch --all": {Status: gitx.StatusFailed, Output: "fatal: couldn't find remote ref main"},
		}}
		f := &gitx.FallbackRunner{Inner: inner}
		res := f.Run(context.Background(), "/repo", "fetch", "--all")
		Expect(res.Status).To(Equal(gitx.StatusFailed))
		Expect(res.Output).To(Equal("fatal: couldn't find remote ref main"))
		Expect(inner.Calls).To(HaveLen(1))
	})

	It("retries once with https rewrites for hosts named in the output", func() {
		inner := &MockRunner{Responses: map[string]gitx.Result{
			"/repo:fetch --all":                 {Status: gitx.StatusFailed, Output: authFail},
			"/repo:" + rewrites + "fetch --all": {Status: gitx.StatusOK, Output: "Fetching origin"},
		}}
		f := &gitx.FallbackRunner{Inner: inner}
		res := f.Run(context.Background(), "/repo", "fetch", "--all")
		Expect(res.OK()).To(BeTrue())
		Expect(inner.Calls).To(HaveLen(2))
	})

	It("falls back to configured remotes when the output names no host", func() {
		inner := &MockRunner{Responses: map[string]gitx.Result{
			"/repo:fetch --all": {Status: gitx.StatusFailed, Output: "Host key verification failed."},
			"/repo:remote -v": {Status: gitx.StatusOK,
				Output: "origin\tgit@example.com:org/repo.git (fetch)\norigin\tgit@example.com:org/repo.git (push)"},
			"/repo:" + rewrites + "fetch --all": {Status: gitx.StatusOK, Output: "Fetching origin"},
		}}
		f := &gitx.FallbackRunner{Inner: inner}
		res := f.Run(context.Background(), "/repo", "fetch", "--all")
		Expect(res.OK()).To(BeTrue())
		Expect(inner.Calls).To(ContainElement("/repo:remote -v"))
	})

	It("falls back to recorded submodule URLs as the last host source", func() {
		dir := GinkgoT().TempDir()
		gm := "[submodule \"libs/util\"]\n\tpath = libs/util\n\turl = git@example.com:org/util.git\n"
		Expect(os.WriteFile(filepath.Join(dir, ".gitmodules"), []byte(gm), 0o644)).To(Succeed())

		inner := &MockRunner{Responses: map[string]gitx.Result{
			dir + ":fetch --all":                 {Status: gitx.StatusFailed, Output: "Host key verification failed."},
			dir + ":remote -v":                   {Status: gitx.StatusOK, Output: "origin\thttps://other.example.net/x.git (fetch)"},
			dir + ":" + rewrites + "fetch --all": {Status: gitx.StatusOK, Output: "Fetching origin"},
		}}
		f := &gitx.FallbackRunner{Inner: inner}
		res := f.Run(context.Background(), dir, "fetch", "--all")
		Expect(res.OK()).To(BeTrue())
	})

	It("returns the original failure when no host can be found", func() {
		inner := &MockRunner{Responses: map[string]gitx.Result{
			"/repo:fetch --all": {Status: gitx.StatusFailed, Output: "Host key verification failed."},
			"/repo:remote -v":   {Status: gitx.StatusOK, Output: "origin\thttps://example.com/org/repo.git (fetch)"},
		}}
		f := &gitx.FallbackRunner{Inner: inner}
		res := f.Run(context.Background(), "/repo", "fetch", "--all")
		Expect(res.Status).To(Equal(gitx.StatusFailed))
		Expect(res.Output).To(Equal("Host key verification failed."))
		Expect(inner.Calls).To(HaveLen(2))
	})

	It("concatenates both outputs when the retry also fails", func() {
		inner := &MockRunner{Responses: map[string]gitx.Result{
			"/repo:fetch --all": {Status: gitx.StatusFailed, Output: authFail},
			"/repo:" + rewrites + "fetch --all": {Status: gitx.StatusFailed,
				Output: "fatal: unable to access 'https://example.com/org/repo.git': 403"},
		}}
		f := &gitx.FallbackRunner{Inner: inner}
		res := f.Run(context.Background(), "/repo", "fetch", "--all")
		Expect(res.Status).To(Equal(gitx.StatusFailed))
		Expect(res.Output).To(ContainSubstring("Permission denied (publickey)"))
		Expect(res.Output).To(ContainSubstring("retried with https rewrite"))
		Expect(res.Output).To(ContainSubstring("403"))
		Expect(inner.Calls).To(HaveLen(2))
	})
})
