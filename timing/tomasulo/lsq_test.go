package tomasulo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32tomasulo/insts"
	"github.com/sarchlab/rv32tomasulo/timing/memory"
	"github.com/sarchlab/rv32tomasulo/timing/tomasulo"
)

var _ = Describe("LSQ", func() {
	var rf tomasulo.RegFile
	var rob *tomasulo.ROB
	var dcache *memory.SRAM

	BeforeEach(func() {
		rf = tomasulo.RegFile{}
		rob = tomasulo.NewROB(8)
		dcache = memory.NewSRAM(8)
	})

	It("executes a ready store at head and writes the result back immediately", func() {
		lsq := tomasulo.NewLSQ(8)
		rf.Commit(1, 0, 0)  // x1 = 0 (base address)
		rf.Commit(2, 42, 0) // x2 = 42 (store data)

		inst := &insts.Instruction{
			Rs1: 1, Rs1Valid: true, Rs2: 2, Rs2Valid: true,
			Imm: 0, ImmValid: true, IsMemoryWrite: true, IsLoadOrStore: true,
			Op: insts.OpSW,
		}
		robIdx := rob.Allocate(&rf, &insts.Instruction{IsLoadOrStore: true}, 0x100, false)
		lsq.Allocate(robIdx, inst, &rf, 0x100, tomasulo.CommitInfo{})

		lsq.Step(rob, dcache, false)
		Expect(dcache.Peek(0)).To(Equal(uint32(42)))
		Expect(rob.ComputeCommit().Valid).To(BeTrue())
	})

	It("defers a load's writeback to the cycle after its dcache request", func() {
		lsq := tomasulo.NewLSQ(8)
		dcache.Poke(0, 0xdeadbeef)
		rf.Commit(1, 0, 0)

		inst := &insts.Instruction{
			Rs1: 1, Rs1Valid: true, Imm: 0, ImmValid: true,
			IsLoadOrStore: true, Op: insts.OpLW, MemExt: insts.MemExtNone,
		}
		robIdx := rob.Allocate(&rf, &insts.Instruction{IsLoadOrStore: true}, 0x100, false)
		lsq.Allocate(robIdx, inst, &rf, 0x100, tomasulo.CommitInfo{})

		lsq.Step(rob, dcache, false) // cycle 1: issues the dcache read
		Expect(rob.ComputeCommit().Valid).To(BeFalse())

		lsq.Step(rob, dcache, false) // cycle 2: drains the registered read
		info := rob.ComputeCommit()
		Expect(info.Valid).To(BeTrue())
		Expect(info.ModifyValue).To(Equal(uint32(0xdeadbeef)))
	})

	It("stalls a ready store while an older branch is unresolved", func() {
		lsq := tomasulo.NewLSQ(8)
		rf.Commit(1, 0, 0)
		rf.Commit(2, 7, 0)

		inst := &insts.Instruction{
			Rs1: 1, Rs1Valid: true, Rs2: 2, Rs2Valid: true,
			Imm: 0, ImmValid: true, IsMemoryWrite: true, IsLoadOrStore: true,
			Op: insts.OpSW,
		}
		robIdx := rob.Allocate(&rf, &insts.Instruction{IsLoadOrStore: true}, 0x100, false)
		lsq.Allocate(robIdx, inst, &rf, 0x100, tomasulo.CommitInfo{})

		lsq.Step(rob, dcache, true) // an unresolved branch is still in the ROB
		Expect(rob.ComputeCommit().Valid).To(BeFalse())

		lsq.Step(rob, dcache, false) // the branch has since resolved
		Expect(rob.ComputeCommit().Valid).To(BeTrue())
	})

	It("merges a byte store without disturbing the rest of the word", func() {
		lsq := tomasulo.NewLSQ(8)
		dcache.Poke(0, 0xaabbccdd)
		rf.Commit(1, 1, 0)  // base address 1 (byte offset into word 0)
		rf.Commit(2, 0xff, 0)

		inst := &insts.Instruction{
			Rs1: 1, Rs1Valid: true, Rs2: 2, Rs2Valid: true,
			Imm: 0, ImmValid: true, IsMemoryWrite: true, IsLoadOrStore: true,
			Op: insts.OpSB,
		}
		robIdx := rob.Allocate(&rf, &insts.Instruction{IsLoadOrStore: true}, 0x100, false)
		lsq.Allocate(robIdx, inst, &rf, 0x100, tomasulo.CommitInfo{})

		lsq.Step(rob, dcache, false)
		Expect(dcache.Peek(0)).To(Equal(uint32(0xaabbffdd)))
	})
})
