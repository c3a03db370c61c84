package tomasulo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32tomasulo/insts"
	"github.com/sarchlab/rv32tomasulo/timing/tomasulo"
)

var _ = Describe("ROB", func() {
	var rf tomasulo.RegFile
	var pred *tomasulo.Predictor

	BeforeEach(func() {
		rf = tomasulo.RegFile{}
		pred = tomasulo.NewPredictor(tomasulo.DefaultPredictorConfig())
	})

	It("reports not-ready commit info for an unwritten-back entry", func() {
		rob := tomasulo.NewROB(8)
		inst := insts.Decode(0) // opcode 0 decodes as an unsupported, is_final entry
		rob.Allocate(&rf, inst, 0, false)
		Expect(rob.ComputeCommit().Valid).To(BeFalse())
	})

	It("commits a writeback in program order and advances head", func() {
		rob := tomasulo.NewROB(8)
		inst := &insts.Instruction{Rd: 5, RdValid: true, IsRegWrite: true, Alu: insts.AluAdd, Cond: insts.CondTrue}
		idx := rob.Allocate(&rf, inst, 0x100, false)
		rob.Writeback(idx, 99, 0x104)

		info := rob.ComputeCommit()
		Expect(info.Valid).To(BeTrue())
		Expect(info.Rd).To(Equal(uint8(5)))
		Expect(info.ModifyValue).To(Equal(uint32(99)))
		Expect(info.Misprediction).To(BeFalse())

		rob.ApplyCommit(&rf, pred, info)
		Expect(rf.Read(5)).To(Equal(uint32(99)))
		Expect(rob.Size()).To(Equal(0))
	})

	It("flags a misprediction when a branch's actual direction disagrees with predicted_taken", func() {
		rob := tomasulo.NewROB(8)
		inst := &insts.Instruction{IsBranch: true, Alu: insts.AluAdd, Cond: insts.CondTrue}
		idx := rob.Allocate(&rf, inst, 0x10, false) // predicted not-taken
		rob.Writeback(idx, 0x20, 0x20)              // actually jumps to 0x20, not falling through to 0x14

		info := rob.ComputeCommit()
		Expect(info.Misprediction).To(BeTrue())
		Expect(info.ActualTaken).To(BeTrue())
	})

	It("does not flag a misprediction when the branch resolves as predicted", func() {
		rob := tomasulo.NewROB(8)
		inst := &insts.Instruction{IsBranch: true, Alu: insts.AluAdd, Cond: insts.CondTrue}
		idx := rob.Allocate(&rf, inst, 0x10, false) // predicted not-taken
		rob.Writeback(idx, 0x20, 0x14)               // falls through as predicted

		info := rob.ComputeCommit()
		Expect(info.Misprediction).To(BeFalse())
	})

	It("reports PhysFull and FullForFetcher at their respective thresholds", func() {
		rob := tomasulo.NewROB(4)
		inst := &insts.Instruction{}
		for i := 0; i < 2; i++ {
			rob.Allocate(&rf, inst, 0, false)
		}
		Expect(rob.FullForFetcher()).To(BeTrue()) // size 2 >= n-2 (2)
		Expect(rob.PhysFull()).To(BeFalse())
		rob.Allocate(&rf, inst, 0, false)
		rob.Allocate(&rf, inst, 0, false)
		Expect(rob.PhysFull()).To(BeTrue())
	})

	It("clears every entry and rewinds head/tail/size on Reset", func() {
		rob := tomasulo.NewROB(8)
		inst := &insts.Instruction{}
		rob.Allocate(&rf, inst, 0, false)
		rob.Allocate(&rf, inst, 0, false)
		rob.Reset()
		Expect(rob.Size()).To(Equal(0))
		Expect(rob.Head()).To(Equal(0))
		Expect(rob.Tail()).To(Equal(0))
	})
})
