package model_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/fleetpull/internal/model"
)

var _ = Describe("CommitRecord", func() {
	It("renders the single-line display form", func() {
		c := model.CommitRecord{Hash: "a1b2c3d", Subject: "fix flaky retry", Author: "Dana Ortiz"}
		Expect(c.String()).To(Equal("a1b2c3d fix flaky retry (Dana Ortiz)"))
	})
})

var _ = Describe("RepoResult", func() {
	It("returns the first error entry text", func() {
		r := model.RepoResult{Entries: []model.LogEntry{
			{Kind: model.EntryPlain, Text: "remote branch deleted: origin/old"},
			{Kind: model.EntryError, Text: "fetch failed: connection refused"},
			{Kind: model.EntryError, Text: "later error"},
		}}
		Expect(r.FirstError()).To(Equal("fetch failed: connection refused"))
	})

	It("returns empty string when no error entry exists", func() {
		r := model.RepoResult{Entries: []model.LogEntry{
			{Kind: model.EntryCommit, Text: "a1b2c3d add thing (Someone)"},
		}}
		Expect(r.FirstError()).To(Equal(""))
	})

	It("counts warning entries", func() {
		r := model.RepoResult{Entries: []model.LogEntry{
			{Kind: model.EntryWarning, Text: "submodule sync failed"},
			{Kind: model.EntryCommit, Text: "a1b2c3d add thing (Someone)"},
			{Kind: model.EntryWarning, Text: "uninitialized submodule: libs/vendor"},
		}}
		Expect(r.Warnings()).To(Equal(2))
	})
})

var _ = Describe("Run JSON", func() {
	It("round-trips RepoResult JSON", func() {
		result := model.RepoResult{
			Path:       "/srv/checkouts/api",
			Name:       "api",
			Failed:     false,
			NewCommits: 2,
			Entries: []model.LogEntry{
				{Kind: model.EntryCommit, Text: "a1b2c3d add endpoint (Dana Ortiz)"},
				{Kind: model.EntryCommit, Text: "e4f5a6b tighten validation (Lee Chan)"},
			},
		}

		data, err := json.Marshal(result)
		Expect(err).NotTo(HaveOccurred())

		var decoded model.RepoResult
		Expect(json.Unmarshal(data, &decoded)).To(Succeed())
		Expect(decoded.Name).To(Equal("api"))
		Expect(decoded.NewCommits).To(Equal(2))
		Expect(decoded.Entries).To(HaveLen(2))
		Expect(decoded.Entries[0].Kind).To(Equal(model.EntryCommit))
	})

	It("round-trips RunSummary JSON", func() {
		summary := model.RunSummary{
			RunID:      "3f1d2c5e-0000-4000-8000-000000000000",
			Root:       "/srv/checkouts",
			Started:    time.Now().UTC(),
			Elapsed:    90 * time.Second,
			Processed:  12,
			Succeeded:  10,
			Failed:     2,
			NewCommits: 7,
		}
		data, err := json.Marshal(summary)
		Expect(err).NotTo(HaveOccurred())

		var decoded model.RunSummary
		Expect(json.Unmarshal(data, &decoded)).To(Succeed())
		Expect(decoded.Processed).To(Equal(12))
		Expect(decoded.Elapsed).To(Equal(90 * time.Second))
	})
})
