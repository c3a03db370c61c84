// Package emu provides a straight-line functional RV32I interpreter: a
// golden model used only by tests to compute the expected architectural
// end-state of a program, independent of the cycle-accurate out-of-order
// timing model in timing/tomasulo (spec §8 SUPPLEMENTED FEATURES).
package emu

import (
	"fmt"

	"github.com/sarchlab/rv32tomasulo/insts"
)

// StepResult reports what Step did.
type StepResult struct {
	Halted     bool
	HaltReason string
	Err        error
}

// Emulator executes RV32I instructions one at a time, in program order,
// with no speculation or renaming: decode, compute the whole one-hot ALU
// result array via insts.Compute (the same stateless ALU the timing model
// uses), then commit the architectural effect immediately.
type Emulator struct {
	regs             RegFile
	mem              *Memory
	pc               uint32
	instructionCount uint64
	maxInstructions  uint64
}

// Option configures an Emulator at construction time.
type Option func(*Emulator)

// WithMaxInstructions caps the number of instructions Run will execute
// before giving up (0, the default, means no limit).
func WithMaxInstructions(max uint64) Option {
	return func(e *Emulator) { e.maxInstructions = max }
}

// NewEmulator builds an Emulator over mem, with PC at 0.
func NewEmulator(mem *Memory, opts ...Option) *Emulator {
	e := &Emulator{mem: mem}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetPC sets the program counter, used before the first Step/Run.
func (e *Emulator) SetPC(pc uint32) { e.pc = pc }

// RegisterFile returns the current architectural register values.
func (e *Emulator) RegisterFile() [32]uint32 { return e.regs.Snapshot() }

// PC returns the current program counter.
func (e *Emulator) PC() uint32 { return e.pc }

// InstructionCount returns the number of instructions executed so far.
func (e *Emulator) InstructionCount() uint64 { return e.instructionCount }

// Step fetches, decodes, and executes exactly one instruction.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: fmt.Errorf("emu: max instructions (%d) reached", e.maxInstructions)}
	}

	word := e.mem.ReadWord(e.pc)
	inst := insts.Decode(word)
	e.instructionCount++

	if inst.IsFinal {
		reason := "unsupported opcode"
		if inst.Op == insts.OpEBREAK {
			reason = "ebreak"
		} else if inst.Op == insts.OpECALL {
			reason = "ecall"
		}
		return StepResult{Halted: true, HaltReason: reason}
	}

	e.execute(inst)
	return StepResult{}
}

// Run steps until Step reports Halted or Err, or idleLimit instructions
// have executed without halting (spec §6 "idle threshold").
func (e *Emulator) Run(idleLimit uint64) error {
	for i := uint64(0); i < idleLimit; i++ {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Halted {
			return nil
		}
	}
	return fmt.Errorf("emu: did not halt within %d instructions, pc=0x%08x", idleLimit, e.pc)
}

// execute computes one instruction's architectural effect: the rd write
// (if any), the memory effect (if any), and the next PC.
func (e *Emulator) execute(inst *insts.Instruction) {
	var rs1, rs2 uint32
	if inst.Rs1Valid {
		rs1 = e.regs.Read(inst.Rs1)
	}
	if inst.Rs2Valid {
		rs2 = e.regs.Read(inst.Rs2)
	}

	aluA := rs1
	if inst.IsBranch || inst.IsPCCalc {
		aluA = e.pc
	}
	if inst.IsJalr {
		aluA = rs1
	}
	aluB := rs2
	if inst.ImmValid {
		aluB = uint32(inst.Imm)
	}

	results := insts.Compute(rs1, rs2, aluA, aluB)
	calcResult := results.Select(inst.Alu)
	if inst.IsJalr {
		calcResult &^= 1 // JALR target = (rs1 + imm) & ~1
	}
	condTrue := insts.ConditionTrue(results, inst.Cond, inst.Flip)

	if inst.IsLoadOrStore {
		addr := rs1 + uint32(inst.Imm)
		if inst.IsMemoryWrite {
			e.mem.Store(addr, rs2, inst.Op)
		} else if inst.RdValid {
			e.regs.Write(inst.Rd, e.mem.Load(addr, inst.MemExt))
		}
	} else if inst.RdValid {
		rd := calcResult
		if inst.LinkPC {
			rd = e.pc + 4
		}
		e.regs.Write(inst.Rd, rd)
	}

	nextPC := e.pc + 4
	if inst.IsBranch && condTrue {
		nextPC = calcResult
	}
	e.pc = nextPC
}
