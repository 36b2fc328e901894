package stats_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/stats"
	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/timing/processor"
)

var _ = Describe("Stats", func() {
	It("builds a report from per-core stats", func() {
		procStats := []processor.Stats{
			{Cycles: 100, ComputeCycles: 10, Loads: 3, Stores: 2, IdleCycles: 20},
		}
		cacheStats := []cache.Statistics{
			{Hits: 4, Misses: 1, PrivateAccesses: 3, SharedAccesses: 1},
		}

		report := stats.Build(100, procStats, cacheStats, 256, 2)
		Expect(report.TotalCycles).To(Equal(uint64(100)))
		Expect(report.BusTrafficBytes).To(Equal(uint64(256)))
		Expect(report.InvalidationsOrUpdates).To(Equal(uint64(2)))
		Expect(report.Cores).To(HaveLen(1))
		Expect(report.Cores[0].MissRate()).To(BeNumerically("~", 0.2, 1e-9))
	})

	It("reports a zero miss rate when a core never accessed memory", func() {
		c := stats.CoreStats{}
		Expect(c.MissRate()).To(Equal(0.0))
	})

	It("renders a human-readable breakdown", func() {
		report := stats.Build(
			100,
			[]processor.Stats{{Cycles: 100, Loads: 1}},
			[]cache.Statistics{{Hits: 1}},
			32, 0,
		)
		out := report.String()
		Expect(out).To(ContainSubstring("Total cycles: 100"))
		Expect(out).To(ContainSubstring("Core 0:"))
		Expect(strings.Count(out, "Core ")).To(Equal(1))
	})
})
