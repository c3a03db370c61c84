package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32tomasulo/timing/cache"
	"github.com/sarchlab/rv32tomasulo/timing/memory"
)

var _ = Describe("Cache", func() {
	var (
		c       *cache.Cache
		sram    *memory.SRAM
		backing *cache.SRAMBackingStore
	)

	BeforeEach(func() {
		sram = memory.NewSRAM(12) // 4096 words, plenty for these addresses
		backing = cache.NewSRAMBackingStore(sram)
		c = cache.New(cache.DefaultL1Config(), backing)
	})

	Describe("Read operations", func() {
		It("misses on a cold cache", func() {
			sram.Poke(0x1000>>2, 0xDEADBEEF)

			result := c.Read(0x1000)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(8)))
			Expect(result.Data).To(Equal(uint32(0xDEADBEEF)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("hits on already-cached data", func() {
			sram.Poke(0x1000>>2, 0xCAFEBABE)

			c.Read(0x1000) // miss, fills the line
			result := c.Read(0x1000)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))
			Expect(result.Data).To(Equal(uint32(0xCAFEBABE)))
		})

		It("hits on a different word in the same line", func() {
			sram.Poke(0x1000>>2, 0x11111111)
			sram.Poke(0x1004>>2, 0x22222222)

			c.Read(0x1000) // miss, loads the whole 16-byte line

			result := c.Read(0x1004)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Data).To(Equal(uint32(0x22222222)))
		})
	})

	Describe("Write operations", func() {
		It("write-allocates on a miss", func() {
			result := c.Write(0x1000, 0x12345678)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(8)))

			readResult := c.Read(0x1000)
			Expect(readResult.Hit).To(BeTrue())
			Expect(readResult.Data).To(Equal(uint32(0x12345678)))
		})

		It("hits on a subsequent write to the same line", func() {
			c.Write(0x1000, 0x11111111)

			result := c.Write(0x1000, 0x22222222)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))
			Expect(c.Read(0x1000).Data).To(Equal(uint32(0x22222222)))
		})
	})

	Describe("Eviction", func() {
		It("evicts the LRU way when a set fills up", func() {
			// 64 sets, so addresses 1024 apart map to the same set.
			c.Write(0x0000, 0x11111111)
			c.Write(0x0400, 0x22222222)
			c.Write(0x0800, 0x33333333)
			c.Write(0x0C00, 0x44444444)

			Expect(c.Read(0x0000).Hit).To(BeTrue())
			Expect(c.Read(0x0400).Hit).To(BeTrue())
			Expect(c.Read(0x0800).Hit).To(BeTrue())
			Expect(c.Read(0x0C00).Hit).To(BeTrue())

			result := c.Write(0x1000, 0x55555555)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Evicted).To(BeTrue())
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
		})

		It("writes back a dirty evicted block", func() {
			c.Write(0x0000, 0x11111111)
			c.Write(0x0400, 0x22222222)
			c.Write(0x0800, 0x33333333)
			c.Write(0x0C00, 0x44444444)

			// Touch the other three so 0x0000 becomes LRU.
			c.Read(0x0400)
			c.Read(0x0800)
			c.Read(0x0C00)

			c.Write(0x1000, 0x55555555)

			Expect(sram.Peek(0x0000 >> 2)).To(Equal(uint32(0x11111111)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(1)))
		})
	})

	Describe("Flush", func() {
		It("writes back every dirty block", func() {
			c.Write(0x0000, 0x11111111)
			c.Write(0x1000, 0x22222222)

			Expect(sram.Peek(0x0000 >> 2)).To(Equal(uint32(0)))
			Expect(sram.Peek(0x1000 >> 2)).To(Equal(uint32(0)))

			c.Flush()

			Expect(sram.Peek(0x0000 >> 2)).To(Equal(uint32(0x11111111)))
			Expect(sram.Peek(0x1000 >> 2)).To(Equal(uint32(0x22222222)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(2)))
		})
	})

	Describe("Default configurations", func() {
		It("builds the L1 config", func() {
			config := cache.DefaultL1Config()
			Expect(config.Size).To(Equal(4 * 1024))
			Expect(config.Associativity).To(Equal(4))
			Expect(config.BlockSize).To(Equal(16))
		})

		It("builds the L2 config", func() {
			config := cache.DefaultL2Config()
			Expect(config.Size).To(Equal(64 * 1024))
			Expect(config.Associativity).To(Equal(8))
			Expect(config.BlockSize).To(Equal(32))
		})
	})
})
