// Package stats assembles the final simulation report: total cycles,
// per-core counters, and bus-wide aggregates.
package stats

import (
	"fmt"
	"strings"

	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/timing/processor"
)

// CoreStats is one processor/cache pair's contribution to the report.
type CoreStats struct {
	ID              int
	Cycles          uint64
	ComputeCycles   uint64
	Loads           uint64
	Stores          uint64
	IdleCycles      uint64
	Hits            uint64
	Misses          uint64
	PrivateAccesses uint64
	SharedAccesses  uint64
}

// MissRate returns misses / (hits+misses), or 0 if the core never
// issued a memory access.
func (c CoreStats) MissRate() float64 {
	total := c.Hits + c.Misses
	if total == 0 {
		return 0
	}
	return float64(c.Misses) / float64(total)
}

// Report is the complete end-of-run output.
type Report struct {
	TotalCycles            uint64
	Cores                  []CoreStats
	BusTrafficBytes        uint64
	InvalidationsOrUpdates uint64
}

// Build assembles a Report from the scheduler's per-component state.
func Build(totalCycles uint64, procStats []processor.Stats, cacheStats []cache.Statistics, busTrafficBytes, invalidationsOrUpdates uint64) *Report {
	cores := make([]CoreStats, len(procStats))
	for i := range procStats {
		ps := procStats[i]
		cs := cacheStats[i]
		cores[i] = CoreStats{
			ID:              i,
			Cycles:          ps.Cycles,
			ComputeCycles:   ps.ComputeCycles,
			Loads:           ps.Loads,
			Stores:          ps.Stores,
			IdleCycles:      ps.IdleCycles,
			Hits:            cs.Hits,
			Misses:          cs.Misses,
			PrivateAccesses: cs.PrivateAccesses,
			SharedAccesses:  cs.SharedAccesses,
		}
	}
	return &Report{
		TotalCycles:            totalCycles,
		Cores:                  cores,
		BusTrafficBytes:        busTrafficBytes,
		InvalidationsOrUpdates: invalidationsOrUpdates,
	}
}

// String renders the report as a human-readable breakdown table.
func (r *Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total cycles: %d\n", r.TotalCycles)
	fmt.Fprintf(&b, "Bus traffic (bytes): %d\n", r.BusTrafficBytes)
	fmt.Fprintf(&b, "Invalidations/updates: %d\n", r.InvalidationsOrUpdates)
	fmt.Fprintf(&b, "\n")

	for _, c := range r.Cores {
		fmt.Fprintf(&b, "Core %d:\n", c.ID)
		fmt.Fprintf(&b, "  Cycles:           %d\n", c.Cycles)
		fmt.Fprintf(&b, "  Compute cycles:   %d\n", c.ComputeCycles)
		fmt.Fprintf(&b, "  Idle cycles:      %d\n", c.IdleCycles)
		fmt.Fprintf(&b, "  Loads:            %d\n", c.Loads)
		fmt.Fprintf(&b, "  Stores:           %d\n", c.Stores)
		fmt.Fprintf(&b, "  Hits:             %d\n", c.Hits)
		fmt.Fprintf(&b, "  Misses:           %d (%.1f%%)\n", c.Misses, 100.0*c.MissRate())
		fmt.Fprintf(&b, "  Private accesses: %d\n", c.PrivateAccesses)
		fmt.Fprintf(&b, "  Shared accesses:  %d\n", c.SharedAccesses)
	}

	return b.String()
}
