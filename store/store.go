// Package store implements the per-cache set-associative tag store: a
// fixed array of sets, each an ordered array of at most ASSOC (tag,
// state) entries where order encodes LRU recency (front =
// least-recently-used, back = most-recently-used).
//
// ASSOC is small enough in practice (single digits) that a linear scan
// over a plain slice beats any balanced tree or map, and a slice gives
// the deterministic, stable ordering the simulator's determinism
// property depends on.
package store

import (
	"github.com/sarchlab/cachesim/coherence"
	"github.com/sarchlab/cachesim/simerr"
)

// entry is one occupied way within a set.
type entry struct {
	tag   uint64
	state coherence.State
}

// Set is one set's ordered recency list. entries[0] is the LRU entry;
// entries[len-1] is the MRU entry. No two entries share a tag, and no
// entry has state coherence.I — such an entry is simply absent.
type Set struct {
	entries []entry
	assoc   int
}

// Store is the fixed array of sets indexed by word_addr mod NumSets.
type Store struct {
	protocol coherence.Protocol
	numSets  int
	assoc    int
	sets     []Set
}

// New builds a Store with the given number of sets and associativity.
func New(protocol coherence.Protocol, numSets, assoc int) *Store {
	sets := make([]Set, numSets)
	for i := range sets {
		sets[i] = Set{assoc: assoc}
	}
	return &Store{protocol: protocol, numSets: numSets, assoc: assoc, sets: sets}
}

// Index returns the set index for a word address.
func (st *Store) Index(addr uint64) int {
	return int(addr % uint64(st.numSets))
}

// Tag returns the tag for a word address.
func (st *Store) Tag(addr uint64) uint64 {
	return addr / uint64(st.numSets)
}

func (s *Set) find(tag uint64) int {
	for i, e := range s.entries {
		if e.tag == tag {
			return i
		}
	}
	return -1
}

// StateOf returns the coherence state of addr's block, or coherence.I
// if the block is not present.
func (st *Store) StateOf(addr uint64) coherence.State {
	set := &st.sets[st.Index(addr)]
	tag := st.Tag(addr)
	if i := set.find(tag); i >= 0 {
		return set.entries[i].state
	}
	return coherence.I
}

// SetState overwrites the state of an already-present entry in place,
// without affecting LRU order. Setting state to coherence.I removes the
// entry. The entry must already be present; absence is an internal
// invariant violation.
func (st *Store) SetState(addr uint64, s coherence.State) {
	set := &st.sets[st.Index(addr)]
	tag := st.Tag(addr)
	i := set.find(tag)
	if i < 0 {
		panic(simerr.New("store.SetState", addr, s.String(), "entry not present"))
	}
	if s == coherence.I {
		set.entries = append(set.entries[:i], set.entries[i+1:]...)
		return
	}
	set.entries[i].state = s
}

// Touch moves addr's entry to the MRU end without changing its state.
// The entry must already be present.
func (st *Store) Touch(addr uint64) {
	set := &st.sets[st.Index(addr)]
	tag := st.Tag(addr)
	i := set.find(tag)
	if i < 0 {
		panic(simerr.New("store.Touch", addr, "", "entry not present"))
	}
	e := set.entries[i]
	set.entries = append(set.entries[:i], set.entries[i+1:]...)
	set.entries = append(set.entries, e)
}

// Insert adds a new MRU entry (tag(addr), s) to addr's set. tag(addr)
// must not already be present in the set. If the set is already full,
// the LRU entry is evicted first; if that entry's state was dirty under
// the store's protocol, the returned evictCost is the flush latency the
// caller must account for on the bus, otherwise it is 0.
func (st *Store) Insert(addr uint64, s coherence.State, flushLatency int) (evictCost int) {
	set := &st.sets[st.Index(addr)]
	tag := st.Tag(addr)
	if i := set.find(tag); i >= 0 {
		panic(simerr.New("store.Insert", addr, s.String(), "tag already present"))
	}

	if len(set.entries) >= set.assoc {
		lru := set.entries[0]
		set.entries = set.entries[1:]
		if coherence.IsDirty(st.protocol, lru.state) {
			evictCost = flushLatency
		}
	}

	set.entries = append(set.entries, entry{tag: tag, state: s})
	return evictCost
}

// Len returns the number of occupied ways in addr's set.
func (st *Store) Len(addr uint64) int {
	return len(st.sets[st.Index(addr)].entries)
}

// Full reports whether addr's set already has ASSOC occupied ways.
func (st *Store) Full(addr uint64) bool {
	return st.Len(addr) >= st.assoc
}

// NumSets returns the number of sets in the store.
func (st *Store) NumSets() int {
	return st.numSets
}

// Assoc returns the associativity of the store.
func (st *Store) Assoc() int {
	return st.assoc
}

// CheckInvariants verifies, for every set, that no two entries share a
// tag, no entry has state coherence.I, and length does not exceed
// ASSOC. Intended for tests.
func (st *Store) CheckInvariants() error {
	for idx := range st.sets {
		set := &st.sets[idx]
		if len(set.entries) > set.assoc {
			return simerr.New("store", 0, "", "set exceeds associativity")
		}
		seen := make(map[uint64]bool, len(set.entries))
		for _, e := range set.entries {
			if e.state == coherence.I {
				return simerr.New("store", e.tag, "I", "stored entry has state I")
			}
			if seen[e.tag] {
				return simerr.New("store", e.tag, e.state.String(), "duplicate tag in set")
			}
			seen[e.tag] = true
		}
	}
	return nil
}
