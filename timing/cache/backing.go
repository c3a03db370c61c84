package cache

import "github.com/sarchlab/rv32tomasulo/timing/memory"

// SRAMBackingStore adapts a word-addressed timing/memory.SRAM into the
// byte-addressed BackingStore a Cache fetches from and writes back to.
// addr/size are always block-aligned multiples of 4 bytes, since every
// Config here uses a word-multiple BlockSize.
type SRAMBackingStore struct {
	sram *memory.SRAM
}

// NewSRAMBackingStore wraps sram as a cache backing store.
func NewSRAMBackingStore(sram *memory.SRAM) *SRAMBackingStore {
	return &SRAMBackingStore{sram: sram}
}

// Read returns size bytes starting at addr, little-endian per word.
func (b *SRAMBackingStore) Read(addr uint32, size int) []byte {
	out := make([]byte, size)
	for i := 0; i < size; i += 4 {
		word := b.sram.Peek((addr + uint32(i)) >> 2)
		out[i] = byte(word)
		out[i+1] = byte(word >> 8)
		out[i+2] = byte(word >> 16)
		out[i+3] = byte(word >> 24)
	}
	return out
}

// Write stores data at addr, little-endian per word.
func (b *SRAMBackingStore) Write(addr uint32, data []byte) {
	for i := 0; i+4 <= len(data); i += 4 {
		word := uint32(data[i]) | uint32(data[i+1])<<8 |
			uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		b.sram.Poke((addr+uint32(i))>>2, word)
	}
}

// BackingCache adapts a *Cache into another Cache's BackingStore, letting
// an L1 Cache miss into an L2 Cache rather than straight into the SRAM.
type BackingCache struct {
	next *Cache
}

// NewBackingCache wraps next as a backing store for a smaller, closer
// cache.
func NewBackingCache(next *Cache) *BackingCache {
	return &BackingCache{next: next}
}

// Read fetches size bytes starting at addr through next's own Read path,
// so an L1 miss that hits in L2 is reflected in L2's statistics too.
func (b *BackingCache) Read(addr uint32, size int) []byte {
	out := make([]byte, size)
	for i := 0; i+4 <= size; i += 4 {
		word := b.next.Read(addr + uint32(i)).Data
		out[i] = byte(word)
		out[i+1] = byte(word >> 8)
		out[i+2] = byte(word >> 16)
		out[i+3] = byte(word >> 24)
	}
	return out
}

// Write stores data at addr through next's own Write path.
func (b *BackingCache) Write(addr uint32, data []byte) {
	for i := 0; i+4 <= len(data); i += 4 {
		word := uint32(data[i]) | uint32(data[i+1])<<8 |
			uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		b.next.Write(addr+uint32(i), word)
	}
}
