// Package cache provides an optional, off-by-default L1/L2 hit/miss
// instrumentation layer sitting behind the dcache SRAM (spec §3/§6 model
// icache/dcache as plain one-port SRAMs, and spec §1 lists "precise cache
// miss modelling" as a Non-goal). Since the timing model's architectural
// correctness never depends on this layer, it only records statistics: it
// never changes the cycle count the Tomasulo model actually commits.
//
// Adapted from the teacher's timing/cache/cache.go, which wraps Akita's
// mem/cache directory/victim-finder components around a byte-addressed
// backing store; this version backs onto a word-addressed
// timing/memory.SRAM instead of an Apple-M2-style memory hierarchy.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes.
	Size int
	// Associativity (number of ways).
	Associativity int
	// BlockSize in bytes (cache line size). Must be a multiple of 4 so
	// blocks align with the backing SRAM's word granularity.
	BlockSize int
	// HitLatency in cycles. Recorded for statistics only; it is never
	// added to the Tomasulo model's committed cycle count.
	HitLatency uint64
	// MissLatency in cycles, inclusive of the backing-store access.
	MissLatency uint64
}

// DefaultL1Config returns a small, direct-mapped-ish L1 configuration
// sized for the single-issue word-addressed SRAMs spec §6 describes: 4KB,
// 4-way, 16-byte (4-word) lines.
func DefaultL1Config() Config {
	return Config{
		Size:          4 * 1024,
		Associativity: 4,
		BlockSize:     16,
		HitLatency:    1,
		MissLatency:   8,
	}
}

// DefaultL2Config returns a larger, unified second-level configuration
// that a DefaultL1Config instance can miss into.
func DefaultL2Config() Config {
	return Config{
		Size:          64 * 1024,
		Associativity: 8,
		BlockSize:     32,
		HitLatency:    8,
		MissLatency:   40,
	}
}

// AccessResult reports the outcome of one cache access.
type AccessResult struct {
	Hit         bool
	Latency     uint64
	Data        uint32
	Evicted     bool
	EvictedAddr uint64
}

// StoreForwardLatency is the extra recorded latency when a read hits the
// address this cache most recently stored to. It is a statistic only; the
// LSQ (timing/tomasulo/lsq.go) has no store-to-load forwarding path.
const StoreForwardLatency uint64 = 1

// BackingStore is the next level a Cache fetches from on a miss and
// writes back dirty blocks to.
type BackingStore interface {
	Read(addr uint32, size int) []byte
	Write(addr uint32, data []byte)
}

// Statistics holds cache performance counters.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// Cache is an L1/L2 hit-miss instrumentation layer built on Akita's
// directory/victim-finder components.
type Cache struct {
	config Config

	directory *akitacache.DirectoryImpl
	dataStore [][]byte

	stats   Statistics
	backing BackingStore

	recentStoreAddr  uint32
	recentStoreValid bool
}

// New creates a Cache of the given configuration, backed by backing.
func New(config Config, backing BackingStore) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the cache's configuration.
func (c *Cache) Config() Config { return c.config }

// Stats returns the cache's performance counters.
func (c *Cache) Stats() Statistics { return c.stats }

// ResetStats clears the performance counters without invalidating lines.
func (c *Cache) ResetStats() { c.stats = Statistics{} }

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint32) uint64 {
	return uint64(addr/uint32(c.config.BlockSize)) * uint64(c.config.BlockSize)
}

// Read records a 4-byte word access at addr, returning whether it hit and
// the recorded latency. The actual word value always comes from the
// caller's own SRAM read; Data mirrors the backing store's view only to
// let tests assert fetched content matches.
func (c *Cache) Read(addr uint32) AccessResult {
	c.stats.Reads++

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr)

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		offset := uint64(addr) % uint64(c.config.BlockSize)
		data := extractWord(c.dataStore[c.blockIndex(block)], offset)

		latency := c.config.HitLatency
		if c.recentStoreValid && c.recentStoreAddr == addr {
			latency += StoreForwardLatency
			c.recentStoreValid = false
		}

		return AccessResult{Hit: true, Latency: latency, Data: data}
	}

	c.stats.Misses++
	return c.handleMiss(addr, false, 0)
}

// Write records a 4-byte word store at addr, value, using a
// write-allocate policy: a miss fetches the block before writing into it.
func (c *Cache) Write(addr uint32, value uint32) AccessResult {
	c.stats.Writes++

	c.recentStoreAddr = addr
	c.recentStoreValid = true

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr)

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		offset := uint64(addr) % uint64(c.config.BlockSize)
		storeWord(c.dataStore[c.blockIndex(block)], offset, value)
		block.IsDirty = true

		return AccessResult{Hit: true, Latency: c.config.HitLatency}
	}

	c.stats.Misses++
	return c.handleMiss(addr, true, value)
}

func (c *Cache) handleMiss(addr uint32, isWrite bool, writeValue uint32) AccessResult {
	result := AccessResult{Hit: false, Latency: c.config.MissLatency}

	blockAddr := c.blockAddr(addr)
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return result
	}

	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = victim.Tag

		if victim.IsDirty && c.backing != nil {
			c.stats.Writebacks++
			c.backing.Write(uint32(victim.Tag), victimData)
		}
	}

	if c.backing != nil {
		newData := c.backing.Read(uint32(blockAddr), c.config.BlockSize)
		copy(victimData, newData)
	} else {
		for i := range victimData {
			victimData[i] = 0
		}
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false

	offset := uint64(addr) % uint64(c.config.BlockSize)
	if isWrite {
		storeWord(victimData, offset, writeValue)
		victim.IsDirty = true
	} else {
		result.Data = extractWord(victimData, offset)
	}

	c.directory.Visit(victim)

	return result
}

// Invalidate drops addr's line without writing it back.
func (c *Cache) Invalidate(addr uint32) {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back every dirty line and invalidates the cache.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty && c.backing != nil {
				c.backing.Write(uint32(block.Tag), c.dataStore[c.blockIndex(block)])
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates every line without writeback and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
	c.recentStoreValid = false
	c.recentStoreAddr = 0
}

func extractWord(data []byte, offset uint64) uint32 {
	if int(offset)+4 > len(data) {
		return 0
	}
	return uint32(data[offset]) | uint32(data[offset+1])<<8 |
		uint32(data[offset+2])<<16 | uint32(data[offset+3])<<24
}

func storeWord(data []byte, offset uint64, value uint32) {
	if int(offset)+4 > len(data) {
		return
	}
	data[offset] = byte(value)
	data[offset+1] = byte(value >> 8)
	data[offset+2] = byte(value >> 16)
	data[offset+3] = byte(value >> 24)
}
