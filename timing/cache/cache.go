// Package cache implements the per-processor coherent cache state
// machine: three entry points driven by the Processor, the Bus's grant,
// and a peer's broadcast, plus the Tick/Prepare pair every component in
// the simulator exposes.
package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/coherence"
	"github.com/sarchlab/cachesim/simerr"
	"github.com/sarchlab/cachesim/store"
	"github.com/sarchlab/cachesim/timing/bus"
	"github.com/sarchlab/cachesim/timing/latency"
)

// Proceeder is the subset of timing/processor.Processor a Cache needs:
// the ability to wake its owning processor once a request has resolved.
// Declared locally, rather than imported, so timing/processor can
// depend on timing/cache without a cycle.
type Proceeder interface {
	Proceed()
}

// runState is the Cache's own three-way state machine, independent of
// the coherence State of any particular block.
type runState int

const (
	csIdle runState = iota
	csWaitingForBus
	csResolving
)

// Statistics are the per-cache counters the final report requires:
// hit/miss counts split by whether the access found the block held
// privately or shared by a peer.
type Statistics struct {
	Hits            uint64
	Misses          uint64
	PrivateAccesses uint64
	SharedAccesses  uint64
}

// Cache is one processor's private coherent cache.
type Cache struct {
	id       int
	protocol coherence.Protocol
	store    *store.Store
	bus      *bus.Bus
	latency  *latency.Table
	proc     Proceeder

	state        runState
	waitingEvent coherence.Event
	waitingAddr  uint64
	resolvingT   int

	stats Statistics
}

// New builds a Cache. id must equal the owning Processor's pid and the
// index this Cache occupies in the Bus's cache slice — arbitration
// order relies on this.
func New(id int, protocol coherence.Protocol, st *store.Store, b *bus.Bus, lat *latency.Table, proc Proceeder) *Cache {
	return &Cache{
		id:       id,
		protocol: protocol,
		store:    st,
		bus:      b,
		latency:  lat,
		proc:     proc,
	}
}

// ID satisfies timing/bus.Cache.
func (c *Cache) ID() int { return c.id }

// StateOf satisfies timing/bus.Cache: a peer's view of this cache's
// coherence state for addr.
func (c *Cache) StateOf(addr uint64) coherence.State {
	return c.store.StateOf(addr)
}

// Stats returns the cache's accumulated hit/miss counters.
func (c *Cache) Stats() Statistics { return c.stats }

// Store exposes the underlying tag store, for tests that walk
// CheckInvariants across a whole run.
func (c *Cache) Store() *store.Store { return c.store }

// ResidualTimer reports the cache's own running countdown, for the
// scheduler's variable-stride computation. Only ResolvingRequest
// carries one; Idle and WaitingForBus contribute the default of 1
// cycle (either could act on the very next tick).
func (c *Cache) ResidualTimer() (t int, active bool) {
	if c.state == csResolving {
		return c.resolvingT, true
	}
	return 0, false
}

// PrSig is the Processor-issued entry point: a load or store request
// for addr.
func (c *Cache) PrSig(event coherence.Event, addr uint64) {
	s := c.store.StateOf(addr)

	if s == coherence.I {
		c.stats.Misses++
	} else {
		c.stats.Hits++
		if coherence.IsPrivate(s) {
			c.stats.PrivateAccesses++
		}
		if coherence.IsShared(s) {
			c.stats.SharedAccesses++
		}
	}

	writeFromShared := event == coherence.PrWrite &&
		((c.protocol == coherence.MESI && s == coherence.S) ||
			(c.protocol == coherence.Dragon && (s == coherence.Sc || s == coherence.Sm)))
	if writeFromShared {
		n := 0
		for _, p := range c.bus.Peers(c.id) {
			if p.StateOf(addr) != coherence.I {
				n++
			}
		}
		c.bus.CountInvalidationOrUpdate(n)
	}

	switch c.protocol {
	case coherence.MESI:
		c.prSigMESI(s, event, addr)
	case coherence.Dragon:
		c.prSigDragon(s, event, addr)
	default:
		panic(simerr.New("cache.PrSig", addr, s.String(), "unknown protocol"))
	}
}

func (c *Cache) prSigMESI(s coherence.State, event coherence.Event, addr uint64) {
	switch s {
	case coherence.I:
		if event == coherence.PrRead {
			c.acquireBus(event, addr)
			return
		}
		// PrWrite: only go through the bus if inserting requires an
		// eviction; otherwise the write proceeds immediately and the
		// resulting invalidation is merely broadcast.
		if c.store.Full(addr) {
			c.acquireBus(event, addr)
			return
		}
		c.bus.QueueSignal(c, coherence.BusRdX, addr)
		c.store.Insert(addr, coherence.M, c.latency.Flush())
		c.proc.Proceed()
		c.state = csIdle

	case coherence.S:
		if event == coherence.PrRead {
			c.hit(addr, coherence.S)
			return
		}
		c.bus.QueueSignal(c, coherence.BusRdX, addr)
		c.hit(addr, coherence.M)

	case coherence.E:
		if event == coherence.PrRead {
			c.hit(addr, coherence.E)
			return
		}
		c.hit(addr, coherence.M)

	case coherence.M:
		c.hit(addr, coherence.M)

	default:
		panic(simerr.New("cache.PrSig", addr, s.String(), fmt.Sprintf("illegal MESI state for event %s", event)))
	}
}

func (c *Cache) prSigDragon(s coherence.State, event coherence.Event, addr uint64) {
	switch s {
	case coherence.I:
		c.acquireBus(event, addr)

	case coherence.E:
		if event == coherence.PrRead {
			c.hit(addr, coherence.E)
			return
		}
		c.hit(addr, coherence.M)

	case coherence.Sc, coherence.Sm:
		if event == coherence.PrRead {
			c.hit(addr, s)
			return
		}
		c.acquireBus(event, addr)

	case coherence.M:
		c.hit(addr, coherence.M)

	default:
		panic(simerr.New("cache.PrSig", addr, s.String(), fmt.Sprintf("illegal Dragon state for event %s", event)))
	}
}

// acquireBus queues a request that must wait for the bus before it can
// resolve, and parks the cache in WaitingForBus.
func (c *Cache) acquireBus(event coherence.Event, addr uint64) {
	c.waitingEvent = event
	c.waitingAddr = addr
	c.state = csWaitingForBus
	c.bus.Acquire(c)
}

// hit services an immediate hit: it updates LRU recency, applies any
// state transition, and either resolves instantly (zero hit latency)
// or parks in ResolvingRequest for CACHE_HIT_LAT cycles.
func (c *Cache) hit(addr uint64, newState coherence.State) {
	c.store.Touch(addr)
	if cur := c.store.StateOf(addr); cur != newState {
		c.store.SetState(addr, newState)
	}

	t := c.latency.CacheHit()
	if t <= 0 {
		c.proc.Proceed()
		c.state = csIdle
		return
	}
	c.state = csResolving
	c.resolvingT = t
}

// BusReady is the bus-grant continuation, invoked synchronously and
// exactly once when the bus grants this cache's queued request. It
// satisfies timing/bus.Cache.
func (c *Cache) BusReady() int {
	event, addr := c.waitingEvent, c.waitingAddr
	s := c.store.StateOf(addr)

	t := 0
	if s != coherence.I {
		c.store.Touch(addr)
	} else {
		// A transient placeholder state; the dispatch below overwrites
		// it via SetState before this function returns, so the store
		// never observably holds an entry inconsistent with the
		// eventual transition.
		t = c.store.Insert(addr, coherence.S, c.latency.Flush())
	}

	othersHaveBlock := false
	for _, p := range c.bus.Peers(c.id) {
		if p.StateOf(addr) != coherence.I {
			othersHaveBlock = true
			break
		}
	}

	var newState coherence.State
	switch c.protocol {
	case coherence.MESI:
		newState, t = c.busReadyMESI(s, event, addr, othersHaveBlock, t)
	case coherence.Dragon:
		newState, t = c.busReadyDragon(s, event, addr, othersHaveBlock, t)
	default:
		panic(simerr.New("cache.BusReady", addr, s.String(), "unknown protocol"))
	}

	c.store.SetState(addr, newState)

	t--
	c.state = csResolving
	c.resolvingT = t
	return t
}

func (c *Cache) busReadyMESI(s coherence.State, event coherence.Event, addr uint64, othersHaveBlock bool, t int) (coherence.State, int) {
	if s == coherence.I {
		switch event {
		case coherence.PrRead:
			if othersHaveBlock {
				t += c.latency.AskOtherCaches() + c.latency.CacheToCacheTransfer()
				t += c.bus.Snoop(c, coherence.BusRd, addr)
				return coherence.S, t
			}
			t += c.latency.AskOtherCaches() + c.latency.MemFetch()
			t += c.bus.Snoop(c, coherence.BusRd, addr)
			return coherence.E, t
		case coherence.PrWrite:
			t += c.latency.AskOtherCaches() + c.latency.MemFetch()
			t += c.bus.Snoop(c, coherence.BusRdX, addr)
			return coherence.M, t
		}
	}
	panic(simerr.New("cache.BusReady", addr, s.String(), fmt.Sprintf("illegal MESI bus-ready combination (event=%s)", event)))
}

func (c *Cache) busReadyDragon(s coherence.State, event coherence.Event, addr uint64, othersHaveBlock bool, t int) (coherence.State, int) {
	switch s {
	case coherence.I:
		switch event {
		case coherence.PrRead:
			if othersHaveBlock {
				t += c.latency.AskOtherCaches() + c.latency.CacheToCacheTransfer()
				t += c.bus.Snoop(c, coherence.BusRd, addr)
				return coherence.Sc, t
			}
			t += c.latency.AskOtherCaches() + c.latency.MemFetch()
			t += c.bus.Snoop(c, coherence.BusRd, addr)
			return coherence.E, t
		case coherence.PrWrite:
			if othersHaveBlock {
				t += c.latency.AskOtherCaches() + c.latency.CacheToCacheTransfer()
				t += c.bus.Snoop(c, coherence.BusRd, addr)
				t += c.bus.Snoop(c, coherence.BusUpd, addr)
				return coherence.Sm, t
			}
			t += c.latency.AskOtherCaches() + c.latency.MemFetch()
			t += c.bus.Snoop(c, coherence.BusRd, addr)
			return coherence.M, t
		}
	case coherence.Sc, coherence.Sm:
		if event == coherence.PrWrite {
			t += c.latency.AskOtherCaches()
			t += c.bus.Snoop(c, coherence.BusUpd, addr)
			if othersHaveBlock {
				return coherence.Sm, t
			}
			return coherence.M, t
		}
	}
	panic(simerr.New("cache.BusReady", addr, s.String(), fmt.Sprintf("illegal Dragon bus-ready combination (event=%s)", event)))
}

// Snoop is the peer-broadcast entry point: another cache's granted
// transaction, or a queued signal, reacting against this cache's copy
// of addr. It satisfies timing/bus.Cache.
func (c *Cache) Snoop(txn coherence.BusTxn, addr uint64) int {
	s := c.store.StateOf(addr)
	switch c.protocol {
	case coherence.MESI:
		return c.snoopMESI(s, txn, addr)
	case coherence.Dragon:
		return c.snoopDragon(s, txn, addr)
	default:
		panic(simerr.New("cache.Snoop", addr, s.String(), "unknown protocol"))
	}
}

func (c *Cache) snoopMESI(s coherence.State, txn coherence.BusTxn, addr uint64) int {
	switch s {
	case coherence.I:
		return 0
	case coherence.S:
		switch txn {
		case coherence.BusRd:
			return 0
		case coherence.BusRdX:
			c.store.SetState(addr, coherence.I)
			return 0
		}
	case coherence.E:
		switch txn {
		case coherence.BusRd:
			c.store.SetState(addr, coherence.S)
			return 0
		case coherence.BusRdX:
			c.store.SetState(addr, coherence.I)
			return c.latency.Flush()
		}
	case coherence.M:
		switch txn {
		case coherence.BusRd:
			c.store.SetState(addr, coherence.S)
			return c.latency.Flush()
		case coherence.BusRdX:
			c.store.SetState(addr, coherence.I)
			return c.latency.Flush()
		}
	}
	panic(simerr.New("cache.Snoop", addr, s.String(), fmt.Sprintf("illegal MESI snoop (txn=%s)", txn)))
}

func (c *Cache) snoopDragon(s coherence.State, txn coherence.BusTxn, addr uint64) int {
	switch s {
	case coherence.I:
		return 0
	case coherence.E:
		if txn == coherence.BusRd {
			c.store.SetState(addr, coherence.Sc)
			return 0
		}
	case coherence.Sc:
		return 0
	case coherence.Sm:
		switch txn {
		case coherence.BusRd:
			return c.latency.Flush()
		case coherence.BusUpd:
			c.store.SetState(addr, coherence.Sc)
			return 0
		}
	case coherence.M:
		if txn == coherence.BusRd {
			c.store.SetState(addr, coherence.Sm)
			return 0
		}
	}
	panic(simerr.New("cache.Snoop", addr, s.String(), fmt.Sprintf("illegal Dragon snoop (txn=%s)", txn)))
}

// Tick advances the cache's own busy countdown by k cycles. WaitingForBus
// carries no local timer of its own — it resolves only when the Bus
// grants BusReady — so Tick has nothing to do in that state.
func (c *Cache) Tick(k int) {
	if c.state == csResolving {
		c.resolvingT -= k
	}
}

// Prepare settles a drained ResolvingRequest(0) back to Idle and wakes
// the owning processor, mirroring Bus.Prepare and Processor.Prepare.
func (c *Cache) Prepare() {
	if c.state == csResolving && c.resolvingT <= 0 {
		c.state = csIdle
		c.proc.Proceed()
	}
}
