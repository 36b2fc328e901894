// Package bus implements the shared snoopy bus: a single serialisation
// point that grants one cache's request at a time and broadcasts snoop
// signals to every other cache, never interleaving two transactions.
//
// A cache can always answer a snoop immediately (no backpressure), the
// system always prefers cache-to-cache transfer when any peer holds the
// line, ties between simultaneous requesters are broken by processor id
// (lowest first, via FIFO enqueue order and the Processor-Cache-Bus tick
// ordering), and memory is only updated on eviction/flush.
package bus

import "github.com/sarchlab/cachesim/coherence"

// Cache is the subset of timing/cache.Cache the Bus needs to drive a
// transaction end-to-end. Kept as an interface here so this package
// does not import timing/cache — timing/cache imports timing/bus to
// call Acquire/QueueSignal/Snoop/Peers instead.
type Cache interface {
	// ID is the cache's stable index == its processor's pid, which also
	// defines arbitration priority (lowest first).
	ID() int

	// StateOf reports this cache's coherence state for addr, used by a
	// peer to decide whether it can service a read via cache-to-cache
	// transfer.
	StateOf(addr uint64) coherence.State

	// BusReady is invoked exactly once, synchronously, when this cache's
	// queued request is granted. It performs the full §4.3.2 transition
	// and returns the resolution time the cache will now count down.
	BusReady() int

	// Snoop is invoked synchronously on every peer cache of a
	// transaction's originator, for both a granted cache's own protocol
	// broadcast and a queued signal. It performs the §4.3.3 transition
	// and returns any added busy time (a flush).
	Snoop(txn coherence.BusTxn, addr uint64) int
}

type signal struct {
	originID int
	txn      coherence.BusTxn
	addr     uint64
}

// Bus is the single-transaction-at-a-time shared bus. At most one of a
// grant or a snoop broadcast is in flight at any logical instant; the
// Non-goal "no interleaved bus transactions" holds by construction
// because Tick only ever starts one new transaction per Idle cycle.
type Bus struct {
	caches []Cache // index == pid == arbitration priority, lowest first

	busy int // remaining cycles of the current transaction; 0 means Idle

	requestQ []Cache
	signalQ  []signal

	askOtherCaches int // ask_other_caches() cycle cost, from latency.Table
	addressBytes   int
	blockBytes     int

	trafficBytes           uint64
	invalidationsOrUpdates uint64
}

// New builds an empty Bus. askOtherCaches is the cycle cost of a pure
// address-broadcast transaction (latency.Table.AskOtherCaches);
// addressBytes/blockBytes are its per-transaction byte counts
// (latency.Table.AddressBytes/BlockBytes). Caches must be registered
// afterwards via AddCache, in pid order — a Cache needs its owning
// Bus at construction time, so the two cannot be built in one step.
func New(askOtherCaches, addressBytes, blockBytes int) *Bus {
	return &Bus{
		askOtherCaches: askOtherCaches,
		addressBytes:   addressBytes,
		blockBytes:     blockBytes,
	}
}

// AddCache registers c on the bus. c's ID must equal its index in
// registration order (== its processor's pid), which also defines
// arbitration priority.
func (b *Bus) AddCache(c Cache) {
	b.caches = append(b.caches, c)
}

// Busy reports whether the bus is mid-transaction, and if so the
// remaining cycle count.
func (b *Bus) Busy() (busy bool, remaining int) {
	return b.busy > 0, b.busy
}

// TrafficBytes returns the cumulative bus traffic in bytes.
func (b *Bus) TrafficBytes() uint64 {
	return b.trafficBytes
}

// InvalidationsOrUpdates returns the aggregate count of peer-cache
// invalidations/updates caused by writes, as reported by Cache.PrSig via
// CountInvalidationOrUpdate.
func (b *Bus) InvalidationsOrUpdates() uint64 {
	return b.invalidationsOrUpdates
}

// CountInvalidationOrUpdate lets a Cache report, at the moment it issues
// a write from a shared state, how many peers it invalidated/updated.
func (b *Bus) CountInvalidationOrUpdate(n int) {
	b.invalidationsOrUpdates += uint64(n)
}

// Acquire enqueues c on the request queue, awaiting a grant. Used for
// the protocol paths that must wait for the bus before resolving.
func (b *Bus) Acquire(c Cache) {
	b.requestQ = append(b.requestQ, c)
}

// QueueSignal enqueues a snoop broadcast signal originating from c, to
// be serviced the next time the bus is Idle. Used only for the two
// protocol paths that proceed immediately without waiting for the bus
// (MESI's I→PrWrite-without-eviction and S→PrWrite shortcuts) — the
// writer does not wait, but the peer invalidation it triggers still
// consumes bus time, serialised like any other transaction.
func (b *Bus) QueueSignal(c Cache, txn coherence.BusTxn, addr uint64) {
	b.signalQ = append(b.signalQ, signal{originID: c.ID(), txn: txn, addr: addr})
}

// Peers returns every cache other than the one with originID, in
// arbitration order.
func (b *Bus) Peers(originID int) []Cache {
	peers := make([]Cache, 0, len(b.caches)-1)
	for _, c := range b.caches {
		if c.ID() != originID {
			peers = append(peers, c)
		}
	}
	return peers
}

// Snoop synchronously broadcasts txn to every peer of origin and returns
// the summed added busy time (flushes). Called from within a Cache's own
// BusReady while it is still computing its transaction's total time —
// this is part of the SAME transaction the bus is about to commit to,
// not a separately queued one.
func (b *Bus) Snoop(origin Cache, txn coherence.BusTxn, addr uint64) int {
	total := 0
	for _, peer := range b.Peers(origin.ID()) {
		total += peer.Snoop(txn, addr)
	}
	return total
}

// Tick is the Bus's time-accounting phase, run after every Processor and
// every Cache in the same scheduler cycle.
func (b *Bus) Tick(k int) {
	if b.busy > 0 {
		b.busy -= k
		return
	}

	if k != 1 {
		return
	}

	// Signals take precedence over new grants in the same Idle tick.
	if len(b.signalQ) > 0 {
		sig := b.signalQ[0]
		b.signalQ = b.signalQ[1:]

		acc := b.askOtherCaches
		for _, peer := range b.Peers(sig.originID) {
			acc += peer.Snoop(sig.txn, sig.addr)
		}

		b.trafficBytes += uint64(b.addressBytes)
		b.busy = acc - 1
		return
	}

	if len(b.requestQ) > 0 {
		c := b.requestQ[0]
		b.requestQ = b.requestQ[1:]

		t := c.BusReady()
		b.trafficBytes += uint64(b.addressBytes + b.blockBytes)
		b.busy = t
	}
}

// Prepare is the Bus's end-of-tick normalisation phase: Busy(0) settles
// back to Idle. Tick already leaves b.busy at exactly 0 when a
// transaction's last cycle elapses, so Prepare has nothing to adjust; it
// exists for symmetry with Cache.Prepare and Processor.Prepare.
func (b *Bus) Prepare() {}
