package tomasulo

import "github.com/sarchlab/rv32tomasulo/insts"

// aluInput bundles everything the stateless ALU needs for one issued RS
// entry (spec §4.6): raw operands (a, b) for comparisons, shaped operands
// (aluA, aluB) for arithmetic/logic, and the control bits that select
// overrides.
type aluInput struct {
	a, b       uint32
	aluA, aluB uint32
	op         insts.AluOp
	cond       insts.Cond
	flip       bool
	isBranch   bool
	isJalr     bool
	linkPC     bool
	pcAddr     uint32
}

// aluOutput is what goes out on the ALU->ROB bus.
type aluOutput struct {
	result   uint32 // written to calc_result / rd
	newPC    uint32 // written to pc_result
	condTrue bool   // actual_taken, for branches
}

// aluCompute evaluates the stateless ALU (spec §4.6). All 16 one-hot ops
// are computed in parallel via insts.Compute; link_pc overrides the Rd
// value to pc+4 but new_pc is always derived from the PRE-override select
// (calc_result), since JAL/JALR's jump target and a branch's computed
// target are the same one-hot add result that link_pc discards for Rd.
func aluCompute(in aluInput) aluOutput {
	results := insts.Compute(in.a, in.b, in.aluA, in.aluB)
	calcResult := results.Select(in.op)

	if in.isJalr {
		// JALR target = (rs1 + imm) & ~1; aluA was already remapped to
		// the raw rs1 value by the caller's input shaping.
		calcResult &^= 1
	}

	condTrue := insts.ConditionTrue(results, in.cond, in.flip)

	result := calcResult
	if in.linkPC {
		result = in.pcAddr + 4
	}

	newPC := in.pcAddr + 4
	if in.isBranch && condTrue {
		newPC = calcResult
	}

	return aluOutput{result: result, newPC: newPC, condTrue: condTrue}
}
