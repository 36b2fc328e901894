package store_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/coherence"
	"github.com/sarchlab/cachesim/store"
)

var _ = Describe("Store", func() {
	var st *store.Store

	BeforeEach(func() {
		st = store.New(coherence.MESI, 4, 2)
	})

	It("reports I for an absent block", func() {
		Expect(st.StateOf(0)).To(Equal(coherence.I))
	})

	It("inserts and finds a block", func() {
		evict := st.Insert(0, coherence.E, 100)
		Expect(evict).To(Equal(0))
		Expect(st.StateOf(0)).To(Equal(coherence.E))
	})

	It("touch preserves the pre-existing state (round-trip property)", func() {
		st.Insert(0, coherence.S, 100)
		before := st.StateOf(0)
		st.Touch(0)
		Expect(st.StateOf(0)).To(Equal(before))
	})

	It("panics inserting an already-present tag", func() {
		st.Insert(0, coherence.S, 100)
		Expect(func() { st.Insert(0, coherence.S, 100) }).To(Panic())
	})

	It("panics setting state on an absent entry", func() {
		Expect(func() { st.SetState(0, coherence.S) }).To(Panic())
	})

	It("panics touching an absent entry", func() {
		Expect(func() { st.Touch(0) }).To(Panic())
	})

	It("removes the entry when set to I", func() {
		st.Insert(0, coherence.S, 100)
		st.SetState(0, coherence.I)
		Expect(st.StateOf(0)).To(Equal(coherence.I))
		Expect(st.Len(0)).To(Equal(0))
	})

	It("evicts the LRU entry with no cost when clean", func() {
		// Two addresses mapping to set 0 (numSets=4): 0 and 4.
		st.Insert(0, coherence.S, 100)
		st.Insert(4, coherence.S, 100)
		Expect(st.Full(0)).To(BeTrue())

		evict := st.Insert(8, coherence.S, 100)
		Expect(evict).To(Equal(0))
		Expect(st.StateOf(0)).To(Equal(coherence.I)) // evicted (LRU)
		Expect(st.StateOf(4)).To(Equal(coherence.S))
		Expect(st.StateOf(8)).To(Equal(coherence.S))
	})

	It("evicts the LRU entry with a flush cost when dirty (MESI M)", func() {
		st.Insert(0, coherence.M, 100)
		st.Insert(4, coherence.S, 100)

		evict := st.Insert(8, coherence.S, 100)
		Expect(evict).To(Equal(100))
	})

	It("touch moves an entry to the MRU end, changing eviction order", func() {
		st.Insert(0, coherence.M, 100)
		st.Insert(4, coherence.S, 100)
		st.Touch(0) // 0 becomes MRU, 4 becomes LRU

		evict := st.Insert(8, coherence.S, 100)
		Expect(evict).To(Equal(0)) // 4 (clean) evicted, not 0 (dirty)
		Expect(st.StateOf(4)).To(Equal(coherence.I))
		Expect(st.StateOf(0)).To(Equal(coherence.M))
	})

	It("flags Sm as dirty under Dragon", func() {
		dst := store.New(coherence.Dragon, 4, 2)
		dst.Insert(0, coherence.Sm, 100)
		dst.Insert(4, coherence.S, 100)
		evict := dst.Insert(8, coherence.S, 100)
		Expect(evict).To(Equal(100))
	})

	It("passes CheckInvariants on a populated store", func() {
		st.Insert(0, coherence.S, 100)
		st.Insert(4, coherence.M, 100)
		Expect(st.CheckInvariants()).To(Succeed())
	})
})
