// Package processor implements the per-core instruction-stream driver:
// it walks a trace and turns each instruction into a cache request or a
// compute stall, wrapped in the same Tick/Prepare phase discipline as
// Cache and Bus.
package processor

import (
	"github.com/sarchlab/cachesim/coherence"
	"github.com/sarchlab/cachesim/trace"
)

// runState is the Processor's own state machine.
type runState int

const (
	Ready runState = iota
	ExecutingOther
	WaitingForCache
	ReadyToProceed
	Done
)

// Requester is the subset of timing/cache.Cache a Processor needs: the
// ability to issue a request. Declared locally so this package need not
// import timing/cache.
type Requester interface {
	PrSig(event coherence.Event, addr uint64)
}

// Stats are the per-core counters the final report requires.
type Stats struct {
	Cycles        uint64
	ComputeCycles uint64
	Loads         uint64
	Stores        uint64
	IdleCycles    uint64
}

// Processor drives one core's instruction stream against its cache.
type Processor struct {
	id     int
	stream []trace.Instruction
	next   int // index of the next instruction to fetch
	cache  Requester

	state     runState
	otherLeft int // remaining cycles of ExecutingOther

	stats Stats
}

// New builds a Processor over stream. Its cache is supplied after
// construction via Bind because the Cache itself needs a back
// reference to call Proceed, mirroring the Bus/Cache wiring order in
// timing/bus and timing/cache.
func New(id int, stream []trace.Instruction) *Processor {
	p := &Processor{id: id, stream: stream}
	if len(stream) == 0 {
		p.state = Done
	}
	return p
}

// Bind attaches the cache this processor issues requests to. Must be
// called once, before the first Tick.
func (p *Processor) Bind(cache Requester) {
	p.cache = cache
}

// ID returns the processor's stable id (== its cache's id == its index
// in the scheduler's component arrays).
func (p *Processor) ID() int { return p.id }

// State returns the processor's current run state, mainly for tests.
func (p *Processor) State() runState { return p.state }

// Done reports whether the processor has retired its entire stream.
func (p *Processor) Done() bool { return p.state == Done }

// ResidualTimer reports the processor's own running countdown, for the
// scheduler's variable-stride computation. Only ExecutingOther carries
// one; every other state contributes the default of 1 cycle.
func (p *Processor) ResidualTimer() (t int, active bool) {
	if p.state == ExecutingOther {
		return p.otherLeft, true
	}
	return 0, false
}

// Stats returns the processor's accumulated counters.
func (p *Processor) Stats() Stats { return p.stats }

// Proceed is called by the Cache when a request this processor issued
// has completed; it posts ReadyToProceed. The explicit ReadyToProceed
// state exists so that, in the tick where the cache request finishes,
// the processor does not also issue its next instruction in the same
// tick — it first observes completion, then becomes Ready next tick.
func (p *Processor) Proceed() {
	p.state = ReadyToProceed
}

// Tick is the time-accounting phase for a scheduler stride of k cycles.
func (p *Processor) Tick(k int) {
	p.stats.Cycles += uint64(k)

	switch p.state {
	case ExecutingOther:
		p.otherLeft -= k
		return

	case WaitingForCache, Done:
		p.stats.IdleCycles += uint64(k)
		return

	case Ready:
		if k != 1 {
			return
		}
		p.fetchAndDispatch()

	case ReadyToProceed:
		// Nothing to do on tick; Prepare handles the transition.
	}
}

// fetchAndDispatch fetches the next instruction (if any remain) and
// dispatches it, possibly chaining through a zero-cost Other.
func (p *Processor) fetchAndDispatch() {
	if p.next >= len(p.stream) {
		p.state = Done
		return
	}

	inst := p.stream[p.next]
	p.next++

	switch inst.Op {
	case trace.OpRead:
		p.stats.Loads++
		p.state = WaitingForCache
		p.cache.PrSig(coherence.PrRead, inst.Value)

	case trace.OpWrite:
		p.stats.Stores++
		p.state = WaitingForCache
		p.cache.PrSig(coherence.PrWrite, inst.Value)

	case trace.OpOther:
		p.stats.ComputeCycles += inst.Value
		if inst.Value > 0 {
			p.state = ExecutingOther
			p.otherLeft = int(inst.Value) - 1
		} else {
			// Other(0) does not consume a cycle of its own: remain
			// Ready and immediately dispatch the following instruction
			// in the same tick.
			p.state = Ready
			p.fetchAndDispatch()
		}
	}
}

// Prepare is the end-of-tick normalisation phase.
func (p *Processor) Prepare() {
	switch p.state {
	case ReadyToProceed:
		p.state = Ready
	case ExecutingOther:
		if p.otherLeft <= 0 {
			p.state = Ready
		}
	}

	if p.state == Ready && p.next >= len(p.stream) {
		p.state = Done
	}
}
