// Package scheduler drives the variable-stride top loop: it owns every
// Processor, Cache, and the shared Bus, and advances them in lockstep
// by the minimum residual timer across the whole system.
package scheduler

import (
	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/simerr"
	"github.com/sarchlab/cachesim/stats"
	"github.com/sarchlab/cachesim/store"
	"github.com/sarchlab/cachesim/timing/bus"
	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/timing/latency"
	"github.com/sarchlab/cachesim/timing/processor"
	"github.com/sarchlab/cachesim/trace"
)

// Scheduler owns the full set of per-core components plus the shared
// bus and advances them together. The scheduler, not any component, is
// the place back-references resolve to stable integer ids.
type Scheduler struct {
	procs  []*processor.Processor
	caches []*cache.Cache
	bus    *bus.Bus

	cycle uint64
}

// New wires a Scheduler for one streams-per-processor trace set under
// cfg. streams[i] becomes processor/cache id i; trace files should
// already have been sorted and assigned by the caller (trace.Discover).
func New(cfg *config.Config, streams [][]trace.Instruction) *Scheduler {
	lat := latency.NewTable(cfg)
	b := bus.New(lat.AskOtherCaches(), lat.AddressBytes(), lat.BlockBytes())

	procs := make([]*processor.Processor, len(streams))
	caches := make([]*cache.Cache, len(streams))

	for pid, stream := range streams {
		st := store.New(cfg.Protocol, cfg.NumSets(), cfg.Assoc)
		proc := processor.New(pid, stream)
		c := cache.New(pid, cfg.Protocol, st, b, lat, proc)
		proc.Bind(c)
		b.AddCache(c)

		procs[pid] = proc
		caches[pid] = c
	}

	return &Scheduler{procs: procs, caches: caches, bus: b}
}

// allDone reports whether every processor has retired its stream.
func (s *Scheduler) allDone() bool {
	for _, p := range s.procs {
		if !p.Done() {
			return false
		}
	}
	return true
}

// stride computes k = max(1, min over all components of residual
// timer).
func (s *Scheduler) stride() int {
	k := -1
	consider := func(t int, active bool) {
		if !active {
			t = 1
		}
		if k == -1 || t < k {
			k = t
		}
	}

	for _, p := range s.procs {
		consider(p.ResidualTimer())
	}
	for _, c := range s.caches {
		consider(c.ResidualTimer())
	}
	busy, remaining := s.bus.Busy()
	consider(remaining, busy)

	if k < 1 {
		k = 1
	}
	return k
}

// Run executes the scheduler to completion and returns the final
// report. An internal invariant violation (simerr.InvariantError)
// halts the run and is returned as err rather than crashing the
// process.
func (s *Scheduler) Run() (report *stats.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*simerr.InvariantError); ok {
				err = ie
				return
			}
			panic(r)
		}
	}()

	for !s.allDone() {
		k := s.stride()

		for _, p := range s.procs {
			p.Tick(k)
		}
		for _, c := range s.caches {
			c.Tick(k)
		}
		s.bus.Tick(k)

		s.cycle += uint64(k)

		s.bus.Prepare()
		for _, c := range s.caches {
			c.Prepare()
		}
		for _, p := range s.procs {
			p.Prepare()
		}
	}

	if busy, t := s.bus.Busy(); busy {
		s.cycle += uint64(t)
	}

	return s.report(), nil
}

func (s *Scheduler) report() *stats.Report {
	procStats := make([]processor.Stats, len(s.procs))
	cacheStats := make([]cache.Statistics, len(s.caches))
	for i, p := range s.procs {
		procStats[i] = p.Stats()
	}
	for i, c := range s.caches {
		cacheStats[i] = c.Stats()
	}
	return stats.Build(s.cycle, procStats, cacheStats, s.bus.TrafficBytes(), s.bus.InvalidationsOrUpdates())
}

// CheckInvariants walks every cache's tag store and reports the first
// broken invariant, for post-run assertions.
func (s *Scheduler) CheckInvariants() error {
	for _, c := range s.caches {
		if err := c.Store().CheckInvariants(); err != nil {
			return err
		}
	}
	return nil
}
