package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32tomasulo/timing/cache"
	"github.com/sarchlab/rv32tomasulo/timing/core"
	"github.com/sarchlab/rv32tomasulo/timing/memory"
)

func iType(imm int32, rs1, funct3, rd, opcode uint32) uint32 {
	return (uint32(imm)&0xfff)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}
func rType(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}
func sType(imm int32, rs2, rs1, funct3 uint32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7f)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (u&0x1f)<<7 | 0b0100011
}

func addi(rd, rs1 uint32, imm int32) uint32 { return iType(imm, rs1, 0b000, rd, 0b0010011) }
func add(rd, rs1, rs2 uint32) uint32        { return rType(0, rs2, rs1, 0b000, rd, 0b0110011) }
func sw(rs1, rs2 uint32, imm int32) uint32  { return sType(imm, rs2, rs1, 0b010) }

const ebreak uint32 = 0x00100073

func newCore(program []uint32, opts ...core.Option) (*core.Core, *memory.SRAM) {
	icache := memory.NewSRAM(8)
	dcache := memory.NewSRAM(8)
	for i, w := range program {
		icache.Poke(uint32(i), w)
	}
	c := core.NewCore(icache, dcache, opts...)
	c.SetPC(0)
	return c, dcache
}

var _ = Describe("Core", func() {
	It("is not halted initially", func() {
		c, _ := newCore([]uint32{ebreak})
		Expect(c.Halted()).To(BeFalse())
	})

	It("executes instructions through Tick and halts on ebreak", func() {
		c, _ := newCore([]uint32{
			addi(5, 0, 1),
			addi(5, 5, 1),
			addi(5, 5, 1),
			ebreak,
		})

		for i := 0; i < 20 && !c.Halted(); i++ {
			c.Tick()
		}

		Expect(c.Halted()).To(BeTrue())
		Expect(c.HaltReason()).To(Equal("ebreak"))
		Expect(c.RegisterFile()[5]).To(Equal(uint32(3)))
	})

	It("reports running stats", func() {
		c, _ := newCore([]uint32{
			addi(5, 0, 1),
			ebreak,
		})

		Expect(c.Run(50)).To(Succeed())
		Expect(c.Stats().Committed).To(Equal(uint64(2)))
		Expect(c.Stats().Cycles).To(BeNumerically(">", 0))
	})

	It("errors from Run when the idle threshold is exceeded", func() {
		c, _ := newCore([]uint32{
			addi(5, 0, 1),
			addi(5, 0, 1),
		})
		// The first commit lands on cycle 3 (fetch, then decode+issue,
		// then commit), so a two-cycle idle threshold is exceeded first.
		Expect(c.Run(2)).To(HaveOccurred())
	})

	Describe("cache hierarchy instrumentation", func() {
		It("records no cache statistics without an attached hierarchy by default", func() {
			c, _ := newCore([]uint32{
				addi(10, 0, 7),
				sw(0, 10, 0),
				ebreak,
			})
			Expect(c.Run(50)).To(Succeed())

			l1, l2 := c.CacheStats()
			Expect(l1).To(Equal(cache.Statistics{}))
			Expect(l2).To(Equal(cache.Statistics{}))
		})

		It("mirrors dcache stores into L1/L2 statistics when attached", func() {
			c, _ := newCore([]uint32{
				addi(10, 0, 7),
				sw(0, 10, 0),
				ebreak,
			}, core.WithCacheHierarchy(cache.DefaultL1Config(), cache.DefaultL2Config()))

			Expect(c.Run(50)).To(Succeed())

			l1, _ := c.CacheStats()
			Expect(l1.Writes).To(Equal(uint64(1)))
		})
	})
})
