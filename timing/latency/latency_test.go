package latency_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/timing/latency"
)

var _ = Describe("Latency", func() {
	var table *latency.Table

	BeforeEach(func() {
		cfg := config.Default()
		Expect(cfg.Validate()).To(Succeed())
		table = latency.NewTable(cfg)
	})

	It("derives ask_other_caches from defaults", func() {
		// BUS_WORD_TF_LAT(2) * ADDRESS_SIZE(4) / WORD_SIZE(4) = 2
		Expect(table.AskOtherCaches()).To(Equal(2))
	})

	It("derives cache_to_cache_transf from defaults", func() {
		// BUS_WORD_TF_LAT(2) * BLOCK_SIZE(32) / WORD_SIZE(4) = 16
		Expect(table.CacheToCacheTransfer()).To(Equal(16))
	})

	It("derives mem_fetch and flush as MEM_LAT", func() {
		Expect(table.MemFetch()).To(Equal(100))
		Expect(table.Flush()).To(Equal(100))
	})

	It("derives cache_hit as CACHE_HIT_LAT", func() {
		Expect(table.CacheHit()).To(Equal(1))
	})

	It("tracks address vs block byte counts", func() {
		Expect(table.AddressBytes()).To(Equal(4))
		Expect(table.BlockBytes()).To(Equal(32))
	})
})
