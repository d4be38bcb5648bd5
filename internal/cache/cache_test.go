package cache_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/fleetpull/internal/cache"
)

func makeRepo(root, name string) string {
	dir := filepath.Join(root, name)
	ExpectWithOffset(1, os.MkdirAll(filepath.Join(dir, ".git"), 0o755)).To(Succeed())
	return dir
}

var _ = Describe("Cache", func() {
	It("round-trips a repository list", func() {
		root := GinkgoT().TempDir()
		a := makeRepo(root, "alpha")
		b := makeRepo(root, "beta")

		Expect(cache.Save(root, []string{b, a})).To(Succeed())

		repos, err := cache.Load(root)
		Expect(err).NotTo(HaveOccurred())
		Expect(repos).To(Equal([]string{a, b}))
	})

	It("reports a missing cache file", func() {
		_, err := cache.Load(GinkgoT().TempDir())
		Expect(err).To(MatchError(os.ErrNotExist))
	})

	It("rejects the whole cache when one entry disappears", func() {
		root := GinkgoT().TempDir()
		a := makeRepo(root, "alpha")
		b := makeRepo(root, "beta")
		Expect(cache.Save(root, []string{a, b})).To(Succeed())
		Expect(os.RemoveAll(b)).To(Succeed())

		repos, err := cache.Load(root)
		Expect(err).To(MatchError(cache.ErrStale))
		Expect(repos).To(BeNil())
	})

	It("rejects the whole cache when an entry turns into a submodule checkout", func() {
		root := GinkgoT().TempDir()
		a := makeRepo(root, "alpha")
		Expect(cache.Save(root, []string{a})).To(Succeed())

		Expect(os.RemoveAll(filepath.Join(a, ".git"))).To(Succeed())
		Expect(os.WriteFile(filepath.Join(a, ".git"), []byte("gitdir: ../.git/modules/alpha\n"), 0o644)).To(Succeed())

		_, err := cache.Load(root)
		Expect(err).To(MatchError(cache.ErrStale))
	})

	It("rejects unparseable cache content", func() {
		root := GinkgoT().TempDir()
		Expect(os.WriteFile(cache.Path(root), []byte("{not json"), 0o644)).To(Succeed())

		_, err := cache.Load(root)
		Expect(err).To(MatchError(cache.ErrStale))
	})
})
