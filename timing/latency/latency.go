// Package latency derives the handful of cycle counts the coherence
// protocols need from cache/bus geometry: a small Table wrapping a
// config, with named accessor methods instead of inline arithmetic
// scattered through the cache and bus.
package latency

import "github.com/sarchlab/cachesim/config"

// Table exposes the derived bus/cache latencies.
type Table struct {
	cfg *config.Config
}

// NewTable builds a latency Table from a resolved, validated Config.
func NewTable(cfg *config.Config) *Table {
	return &Table{cfg: cfg}
}

// AskOtherCaches is the time to broadcast an address on the bus and get
// peer caches' responses: BUS_WORD_TF_LAT * ADDRESS_SIZE / WORD_SIZE.
func (t *Table) AskOtherCaches() int {
	return t.cfg.BusWordTfLat * t.cfg.AddressSize / t.cfg.WordSize
}

// CacheToCacheTransfer is the time for one cache to ship a full block to
// another over the bus: BUS_WORD_TF_LAT * BLOCK_SIZE / WORD_SIZE.
func (t *Table) CacheToCacheTransfer() int {
	return t.cfg.BusWordTfLat * t.cfg.BlockSize / t.cfg.WordSize
}

// MemFetch is the time to pull a block in from main memory: MEM_LAT.
func (t *Table) MemFetch() int {
	return t.cfg.MemLat
}

// Flush is the time to write a dirty block back to memory: MEM_LAT.
func (t *Table) Flush() int {
	return t.cfg.MemLat
}

// CacheHit is the latency of an immediate cache hit: CACHE_HIT_LAT.
func (t *Table) CacheHit() int {
	return t.cfg.CacheHitLat
}

// AddressBytes is the byte count of a pure address-phase (signal-only)
// bus transaction.
func (t *Table) AddressBytes() int {
	return t.cfg.AddressSize
}

// BlockBytes is the byte count of a transaction with a data phase: a
// cache-to-cache transfer, a memory fetch, or an update that carries the
// block itself.
func (t *Table) BlockBytes() int {
	return t.cfg.BlockSize
}
