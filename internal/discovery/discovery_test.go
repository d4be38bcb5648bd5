package discovery_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/fleetpull/internal/discovery"
)

var _ = Describe("FindRepos", func() {
	It("finds repositories beneath the root", func() {
		root := GinkgoT().TempDir()
		Expect(os.MkdirAll(filepath.Join(root, "alpha", ".git"), 0o755)).To(Succeed())
		Expect(os.MkdirAll(filepath.Join(root, "team", "beta", ".git"), 0o755)).To(Succeed())

		repos, err := discovery.FindRepos(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(repos).To(Equal([]string{
			filepath.Join(root, "alpha"),
			filepath.Join(root, "team", "beta"),
		}))
	})

	It("records the root itself when it is a repository", func() {
		root := GinkgoT().TempDir()
		Expect(os.Mkdir(filepath.Join(root, ".git"), 0o755)).To(Succeed())

		repos, err := discovery.FindRepos(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(repos).To(Equal([]string{root}))
	})

	It("does not descend past a repository root", func() {
		root := GinkgoT().TempDir()
		outer := filepath.Join(root, "outer")
		Expect(os.MkdirAll(filepath.Join(outer, ".git"), 0o755)).To(Succeed())
		Expect(os.MkdirAll(filepath.Join(outer, "third_party", "inner", ".git"), 0o755)).To(Succeed())

		repos, err := discovery.FindRepos(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(repos).To(Equal([]string{outer}))
	})

	It("skips ignored directory names", func() {
		root := GinkgoT().TempDir()
		Expect(os.MkdirAll(filepath.Join(root, "node_modules", "dep", ".git"), 0o755)).To(Succeed())
		Expect(os.MkdirAll(filepath.Join(root, "vendor", "lib", ".git"), 0o755)).To(Succeed())
		Expect(os.MkdirAll(filepath.Join(root, "app", ".git"), 0o755)).To(Succeed())

		repos, err := discovery.FindRepos(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(repos).To(Equal([]string{filepath.Join(root, "app")}))
	})

	It("honors exclude globs", func() {
		root := GinkgoT().TempDir()
		Expect(os.MkdirAll(filepath.Join(root, "archive", "old", ".git"), 0o755)).To(Succeed())
		Expect(os.MkdirAll(filepath.Join(root, "active", ".git"), 0o755)).To(Succeed())

		repos, err := discovery.FindRepos(root, []string{"**/archive/**"})
		Expect(err).NotTo(HaveOccurred())
		Expect(repos).To(Equal([]string{filepath.Join(root, "active")}))
	})

	It("skips stray submodule checkouts", func() {
		root := GinkgoT().TempDir()
		stray := filepath.Join(root, "stray")
		Expect(os.Mkdir(stray, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(stray, ".git"), []byte("gitdir: ../superhost/.git/modules/stray\n"), 0o644)).To(Succeed())

		repos, err := discovery.FindRepos(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(repos).To(BeEmpty())
	})

	It("treats linked worktrees as repositories", func() {
		root := GinkgoT().TempDir()
		wt := filepath.Join(root, "feature-wt")
		Expect(os.Mkdir(wt, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(wt, ".git"), []byte("gitdir: /srv/main/.git/worktrees/feature-wt\n"), 0o644)).To(Succeed())

		repos, err := discovery.FindRepos(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(repos).To(Equal([]string{wt}))
	})
})

var _ = Describe("Validate", func() {
	It("accepts a repository directory", func() {
		dir := GinkgoT().TempDir()
		Expect(os.Mkdir(filepath.Join(dir, ".git"), 0o755)).To(Succeed())

		Expect(discovery.Validate(dir)).To(Succeed())
	})

	It("rejects a directory without a repository", func() {
		dir := GinkgoT().TempDir()

		err := discovery.Validate(dir)
		Expect(err).To(MatchError(ContainSubstring("not a git repository")))
	})

	It("rejects a missing path", func() {
		err := discovery.Validate(filepath.Join(GinkgoT().TempDir(), "gone"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects a submodule checkout", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: ../../.git/modules/lib\n"), 0o644)).To(Succeed())

		err := discovery.Validate(dir)
		Expect(err).To(MatchError(ContainSubstring("superproject")))
	})
})

var _ = Describe("IsNestedCheckout", func() {
	It("detects a gitdir pointer into a modules store", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: ../../.git/modules/lib\n"), 0o644)).To(Succeed())

		Expect(discovery.IsNestedCheckout(dir)).To(BeTrue())
	})

	It("is false for a normal repository", func() {
		dir := GinkgoT().TempDir()
		Expect(os.Mkdir(filepath.Join(dir, ".git"), 0o755)).To(Succeed())

		Expect(discovery.IsNestedCheckout(dir)).To(BeFalse())
	})
})

var _ = Describe("MatchesExclude", func() {
	It("matches exclude patterns", func() {
		Expect(discovery.MatchesExclude("/code/repo/.git", []string{"**/.git/**"})).To(BeTrue())
		Expect(discovery.MatchesExclude("/code/repo", []string{"**/node_modules/**"})).To(BeFalse())
	})

	It("ignores malformed patterns", func() {
		Expect(discovery.MatchesExclude("/code/repo", []string{"[", "**/repo"})).To(BeTrue())
	})
})
