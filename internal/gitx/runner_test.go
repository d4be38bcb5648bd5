package gitx_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/fleetpull/internal/gitx"
)

var _ = Describe("ExecRunner.Run", func() {
	var runner *gitx.ExecRunner

	BeforeEach(func() {
		runner = &gitx.ExecRunner{}
	})

	It("runs git version successfully", func() {
		res := runner.Run(context.Background(), "", "version")
		Expect(res.OK()).To(BeTrue())
		Expect(res.Output).To(ContainSubstring("git version"))
	})

	It("reports a start error for a nonexistent directory", func() {
		res := runner.Run(context.Background(), "/nonexistent/path/xyz", "status")
		Expect(res.Status).To(Equal(gitx.StatusStartError))
		Expect(res.Output).NotTo(BeEmpty())
	})

	It("reports a start error for a missing binary", func() {
		runner.GitBin = "/nonexistent/git-binary"
		res := runner.Run(context.Background(), "", "version")
		Expect(res.Status).To(Equal(gitx.StatusStartError))
	})

	It("reports failed status with output for a bad subcommand", func() {
		res := runner.Run(context.Background(), "", "definitely-not-a-subcommand")
		Expect(res.Status).To(Equal(gitx.StatusFailed))
		Expect(res.Output).NotTo(BeEmpty())
	})

	It("honors an already-expired deadline as a timeout", func() {
		runner.Timeout = time.Nanosecond
		res := runner.Run(context.Background(), "", "version")
		Expect(res.Status).To(Equal(gitx.StatusTimeout))
		Expect(res.Output).To(Equal("Timeout (0s)"))
	})
})
