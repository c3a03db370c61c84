package tomasulo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32tomasulo/timing/memory"
	"github.com/sarchlab/rv32tomasulo/timing/tomasulo"
)

// newMachine builds an icache preloaded with program (one word per
// instruction, starting at address 0) and an empty dcache, and wires a
// Processor over both with the default sizing.
func newMachine(program []uint32, opts ...tomasulo.Option) (*tomasulo.Processor, *memory.SRAM) {
	icache := memory.NewSRAM(8)
	for i, w := range program {
		icache.Poke(uint32(i), w)
	}
	dcache := memory.NewSRAM(8)
	p := tomasulo.NewProcessor(icache, dcache, opts...)
	p.SetPC(0)
	return p, dcache
}

var _ = Describe("Processor", func() {
	const idleLimit = 10000

	It("accumulates through a dependent ADDI chain (scenario: ADDI accumulation)", func() {
		program := []uint32{
			addi(5, 0, 1),
			addi(5, 5, 1),
			addi(5, 5, 1),
			ebreak,
		}
		p, _ := newMachine(program)
		Expect(p.Run(idleLimit)).To(Succeed())
		Expect(p.Halted()).To(BeTrue())
		Expect(p.HaltReason()).To(Equal("ebreak"))
		Expect(p.RegisterFile()[5]).To(Equal(uint32(3)))
	})

	It("forwards a value through its ROB recorder before commit (scenario: forwarding through recorder)", func() {
		program := []uint32{
			addi(6, 0, 7),
			add(7, 6, 6),
			ebreak,
		}
		p, _ := newMachine(program)
		Expect(p.Run(idleLimit)).To(Succeed())
		Expect(p.RegisterFile()[7]).To(Equal(uint32(14)))
	})

	It("runs a predicted-taken loop to completion (scenario: predicted-taken loop)", func() {
		// addi x5,x0,0 ; addi x6,x0,20
		// L: addi x5,x5,1 ; blt x5,x6,L
		// ebreak
		program := []uint32{
			addi(5, 0, 0),
			addi(6, 0, 20),
			addi(5, 5, 1),
			blt(5, 6, -4),
			ebreak,
		}
		p, _ := newMachine(program)
		Expect(p.Run(idleLimit)).To(Succeed())
		Expect(p.RegisterFile()[5]).To(Equal(uint32(20)))
	})

	It("forwards a load's result into a dependent ADDI (scenario: load-use)", func() {
		program := []uint32{
			lw(10, 0, 0),
			addi(11, 10, 1),
			ebreak,
		}
		p, dcache := newMachine(program)
		dcache.Poke(0, 0x12345678)
		Expect(p.Run(idleLimit)).To(Succeed())
		Expect(p.RegisterFile()[10]).To(Equal(uint32(0x12345678)))
		Expect(p.RegisterFile()[11]).To(Equal(uint32(0x12345679)))
	})

	It("loads back exactly what it just stored (scenario: store-then-load same address)", func() {
		program := []uint32{
			addi(10, 0, 42),
			sw(0, 10, 0),
			lw(11, 0, 0),
			ebreak,
		}
		p, _ := newMachine(program)
		Expect(p.Run(idleLimit)).To(Succeed())
		Expect(p.RegisterFile()[11]).To(Equal(uint32(42)))
	})

	It("recovers from a single misprediction on a branch taken on its only dynamic occurrence (scenario: mispredict recovery)", func() {
		// addi x5,x0,0 ; beq x5,x0,8 (taken, to the addi at +8)
		// addi x6,x0,99   -- on the fall-through path, must be flushed
		// addi x7,x0,7    -- the real target
		// ebreak
		program := []uint32{
			addi(5, 0, 0),
			beq(5, 0, 8),
			addi(6, 0, 99),
			addi(7, 0, 7),
			ebreak,
		}
		p, _ := newMachine(program)
		Expect(p.Run(idleLimit)).To(Succeed())
		Expect(p.RegisterFile()[6]).To(Equal(uint32(0)))
		Expect(p.RegisterFile()[7]).To(Equal(uint32(7)))
		Expect(p.Stats().Flushes).To(Equal(uint64(1)))
	})
})
