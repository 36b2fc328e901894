package processor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/coherence"
	"github.com/sarchlab/cachesim/timing/processor"
	"github.com/sarchlab/cachesim/trace"
)

type fakeCache struct {
	calls []coherence.Event
}

func (f *fakeCache) PrSig(event coherence.Event, addr uint64) {
	f.calls = append(f.calls, event)
}

var _ = Describe("Processor", func() {
	It("is immediately Done for an empty instruction stream", func() {
		p := processor.New(0, nil)
		Expect(p.Done()).To(BeTrue())
	})

	It("fetches and issues a PrRead on the first Ready tick", func() {
		c := &fakeCache{}
		p := processor.New(0, []trace.Instruction{{Op: trace.OpRead, Value: 0x10}})
		p.Bind(c)

		p.Tick(1)
		Expect(c.calls).To(Equal([]coherence.Event{coherence.PrRead}))
		Expect(p.Stats().Loads).To(Equal(uint64(1)))
	})

	It("issues a PrWrite and counts it as a store", func() {
		c := &fakeCache{}
		p := processor.New(0, []trace.Instruction{{Op: trace.OpWrite, Value: 0x10}})
		p.Bind(c)

		p.Tick(1)
		Expect(c.calls).To(Equal([]coherence.Event{coherence.PrWrite}))
		Expect(p.Stats().Stores).To(Equal(uint64(1)))
	})

	It("does not issue the next instruction in the same tick a cache request resolves", func() {
		c := &fakeCache{}
		p := processor.New(0, []trace.Instruction{
			{Op: trace.OpRead, Value: 0},
			{Op: trace.OpRead, Value: 4},
		})
		p.Bind(c)

		p.Tick(1) // issues the first read, WaitingForCache
		p.Proceed() // cache completes synchronously -> ReadyToProceed
		p.Tick(1) // ReadyToProceed does nothing on tick
		Expect(c.calls).To(HaveLen(1))

		p.Prepare() // ReadyToProceed -> Ready
		p.Tick(1)   // now issues the second read
		Expect(c.calls).To(HaveLen(2))
	})

	It("chains a zero-cost Other within the same tick", func() {
		c := &fakeCache{}
		p := processor.New(0, []trace.Instruction{
			{Op: trace.OpOther, Value: 0},
			{Op: trace.OpRead, Value: 0},
		})
		p.Bind(c)

		p.Tick(1)
		Expect(c.calls).To(HaveLen(1)) // the read fired in the same tick
	})

	It("holds ExecutingOther for its full duration before the next Ready tick", func() {
		c := &fakeCache{}
		p := processor.New(0, []trace.Instruction{
			{Op: trace.OpOther, Value: 3},
			{Op: trace.OpRead, Value: 0},
		})
		p.Bind(c)

		p.Tick(1) // dispatch Other(3) -> ExecutingOther(2)
		p.Prepare()
		Expect(c.calls).To(BeEmpty())

		p.Tick(1) // ExecutingOther(2) -> ExecutingOther(1)
		p.Prepare()
		p.Tick(1) // ExecutingOther(1) -> ExecutingOther(0)
		p.Prepare()
		Expect(c.calls).To(BeEmpty())

		p.Tick(1) // now Ready, issues the read
		Expect(c.calls).To(HaveLen(1))
		Expect(p.Stats().ComputeCycles).To(Equal(uint64(3)))
	})

	It("becomes Done once the stream is exhausted", func() {
		c := &fakeCache{}
		p := processor.New(0, []trace.Instruction{{Op: trace.OpOther, Value: 0}})
		p.Bind(c)

		p.Tick(1)
		p.Prepare()
		Expect(p.Done()).To(BeTrue())
	})

	It("accumulates idle cycles while WaitingForCache", func() {
		c := &fakeCache{}
		p := processor.New(0, []trace.Instruction{{Op: trace.OpRead, Value: 0}})
		p.Bind(c)

		p.Tick(1) // issues read, WaitingForCache
		p.Tick(5) // still waiting
		Expect(p.Stats().IdleCycles).To(Equal(uint64(5)))
	})
})
