package insts

// Op identifies the decoded RV32I operation. It exists mainly for
// logging/disassembly; the timing model drives off the control bundle
// fields below, except that store width (SB/SH/SW) is taken from Op.
type Op uint8

// RV32I operations recognized by Decode.
const (
	OpUnknown Op = iota

	OpLUI
	OpAUIPC
	OpJAL
	OpJALR

	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU

	OpSB
	OpSH
	OpSW

	OpADDI
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI

	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	OpECALL
	OpEBREAK
)

// AluOp is a one-hot selector across the 16 ALU op codes of spec §4.1/§4.6.
type AluOp uint8

// One-hot ALU operation codes. ORI/ANDI are named separately from OR/AND
// per the control-bundle layout in spec §4.1, even though they compute the
// identical function over (rs1, imm) instead of (rs1, rs2); keeping them
// distinct preserves the 16-entry one-hot table the spec describes.
const (
	AluNone AluOp = iota
	AluAdd
	AluSub
	AluXor
	AluOr
	AluOri
	AluAnd
	AluAndi
	AluSll
	AluSrl
	AluSra
	AluSraU
	AluCmpEq
	AluCmpLt
	AluCmpLtu
	AluTrue

	aluOpCount = 16
)

// OneHot returns the bit for this op within the 16-wide one-hot selector.
func (a AluOp) OneHot() uint16 {
	return 1 << uint16(a)
}

// Cond is the one-hot branch-condition selector. It reuses the ALU's
// comparison outputs (CMP_EQ / CMP_LT / CMP_LTU / TRUE) rather than
// introducing a parallel comparator, per spec §4.6.
type Cond = AluOp

// Branch condition values, restricted to the comparison-producing subset
// of AluOp.
const (
	CondEq   = AluCmpEq
	CondLt   = AluCmpLt
	CondLtu  = AluCmpLtu
	CondTrue = AluTrue
)

// MemAccess is the 2-bit read/write mask for memory instructions.
type MemAccess uint8

const (
	MemNone  MemAccess = 0
	MemRead  MemAccess = 1 << 0
	MemWrite MemAccess = 1 << 1
)

// MemExt describes how a loaded value should be extended into 32 bits.
type MemExt uint8

const (
	MemExtNone MemExt = iota
	MemExtByteSigned
	MemExtByteUnsigned
	MemExtHalfSigned
	MemExtHalfUnsigned
)

// Instruction is the control bundle produced by Decode: everything
// downstream components (ROB, RS, LSQ, ALU) need to dispatch and execute
// one RV32I instruction.
type Instruction struct {
	Op Op

	Rs1      uint8
	Rs1Valid bool
	Rs2      uint8
	Rs2Valid bool
	Rd       uint8
	RdValid  bool

	Imm      int32
	ImmValid bool

	Alu   AluOp
	Cond  Cond
	Flip  bool

	IsBranch       bool
	IsRegWrite     bool
	IsMemoryWrite  bool
	IsLoadOrStore  bool
	IsJalr         bool
	LinkPC         bool
	IsOffsetBr     bool
	IsPCCalc       bool
	Memory         MemAccess
	MemExt         MemExt

	// IsFinal marks ebreak/ecall-class terminators and unsupported
	// opcodes alike: both decode to Alu=AluNone, Cond=CondTrue. Commit
	// of such an entry halts the simulation (spec §4.1, §4.3, §7).
	IsFinal bool

	// Raw is the undecoded instruction word, kept for diagnostics when
	// IsFinal fires on an unsupported opcode (spec §7).
	Raw uint32
}

func bits(word uint32, hi, lo uint) uint32 {
	mask := uint32(1)<<(hi-lo+1) - 1
	return (word >> lo) & mask
}

func signExtend(value uint32, signBit uint) int32 {
	shift := 31 - signBit
	return int32(value<<shift) >> shift
}

// Decode maps a 32-bit RV32I instruction word to its control bundle. It is
// a pure function: identical input always produces an identical bundle.
func Decode(word uint32) *Instruction {
	opcode := bits(word, 6, 0)
	funct3 := bits(word, 14, 12)
	funct7 := bits(word, 31, 25)
	rd := uint8(bits(word, 11, 7))
	rs1 := uint8(bits(word, 19, 15))
	rs2 := uint8(bits(word, 24, 20))

	inst := &Instruction{Raw: word}

	switch opcode {
	case 0b0110111: // LUI
		inst.Op = OpLUI
		inst.Rd, inst.RdValid = rd, true
		inst.Imm, inst.ImmValid = int32(bits(word, 31, 12)<<12), true
		// rs1 is absent (Rs1Valid=false), which reads as x0 (zero) during
		// dispatch, so AluAdd over (0, imm) yields the immediate itself.
		inst.Alu, inst.Cond = AluAdd, CondTrue
		inst.IsRegWrite = true

	case 0b0010111: // AUIPC
		inst.Op = OpAUIPC
		inst.Rd, inst.RdValid = rd, true
		inst.Imm, inst.ImmValid = int32(bits(word, 31, 12)<<12), true
		inst.Alu, inst.Cond = AluAdd, CondTrue
		inst.IsRegWrite = true
		inst.IsPCCalc = true

	case 0b1101111: // JAL
		inst.Op = OpJAL
		inst.Rd, inst.RdValid = rd, true
		raw := bits(word, 31, 31)<<20 | bits(word, 19, 12)<<12 |
			bits(word, 20, 20)<<11 | bits(word, 30, 21)<<1
		inst.Imm, inst.ImmValid = signExtend(raw, 20), true
		// is_branch + AluAdd over (pc_addr, imm) computes the jump target,
		// which new_pc needs even though link_pc overrides the Rd value.
		inst.Alu, inst.Cond = AluAdd, CondTrue
		inst.IsBranch = true
		inst.IsOffsetBr = true
		inst.LinkPC = true
		inst.IsRegWrite = inst.Rd != 0

	case 0b1100111: // JALR
		if funct3 == 0b000 {
			inst.Op = OpJALR
			inst.Rd, inst.RdValid = rd, true
			inst.Rs1, inst.Rs1Valid = rs1, true
			inst.Imm, inst.ImmValid = signExtend(bits(word, 31, 20), 11), true
			inst.Alu, inst.Cond = AluAdd, CondTrue
			inst.IsBranch = true
			inst.IsJalr = true
			inst.LinkPC = true
			inst.IsRegWrite = inst.Rd != 0
		} else {
			return unsupported(word)
		}

	case 0b1100011: // BRANCH
		inst.Rs1, inst.Rs1Valid = rs1, true
		inst.Rs2, inst.Rs2Valid = rs2, true
		raw := bits(word, 31, 31)<<12 | bits(word, 7, 7)<<11 |
			bits(word, 30, 25)<<5 | bits(word, 11, 8)<<1
		inst.Imm, inst.ImmValid = signExtend(raw, 12), true
		inst.IsBranch = true
		inst.IsOffsetBr = true
		inst.Alu = AluAdd
		switch funct3 {
		case 0b000:
			inst.Op, inst.Cond, inst.Flip = OpBEQ, CondEq, false
		case 0b001:
			inst.Op, inst.Cond, inst.Flip = OpBNE, CondEq, true
		case 0b100:
			inst.Op, inst.Cond, inst.Flip = OpBLT, CondLt, false
		case 0b101:
			inst.Op, inst.Cond, inst.Flip = OpBGE, CondLt, true
		case 0b110:
			inst.Op, inst.Cond, inst.Flip = OpBLTU, CondLtu, false
		case 0b111:
			inst.Op, inst.Cond, inst.Flip = OpBGEU, CondLtu, true
		default:
			return unsupported(word)
		}

	case 0b0000011: // LOAD
		inst.Rs1, inst.Rs1Valid = rs1, true
		inst.Rd, inst.RdValid = rd, true
		inst.Imm, inst.ImmValid = signExtend(bits(word, 31, 20), 11), true
		inst.Alu, inst.Cond = AluAdd, CondTrue
		inst.IsLoadOrStore = true
		inst.IsRegWrite = inst.Rd != 0
		inst.Memory = MemRead
		switch funct3 {
		case 0b000:
			inst.Op, inst.MemExt = OpLB, MemExtByteSigned
		case 0b001:
			inst.Op, inst.MemExt = OpLH, MemExtHalfSigned
		case 0b010:
			inst.Op, inst.MemExt = OpLW, MemExtNone
		case 0b100:
			inst.Op, inst.MemExt = OpLBU, MemExtByteUnsigned
		case 0b101:
			inst.Op, inst.MemExt = OpLHU, MemExtHalfUnsigned
		default:
			return unsupported(word)
		}

	case 0b0100011: // STORE
		inst.Rs1, inst.Rs1Valid = rs1, true
		inst.Rs2, inst.Rs2Valid = rs2, true
		raw := bits(word, 31, 25)<<5 | bits(word, 11, 7)
		inst.Imm, inst.ImmValid = signExtend(raw, 11), true
		inst.Alu, inst.Cond = AluAdd, CondTrue
		inst.IsLoadOrStore = true
		inst.IsMemoryWrite = true
		inst.Memory = MemWrite
		switch funct3 {
		case 0b000:
			inst.Op = OpSB
		case 0b001:
			inst.Op = OpSH
		case 0b010:
			inst.Op = OpSW
		default:
			return unsupported(word)
		}

	case 0b0010011: // OP-IMM
		inst.Rs1, inst.Rs1Valid = rs1, true
		inst.Rd, inst.RdValid = rd, true
		inst.Imm, inst.ImmValid = signExtend(bits(word, 31, 20), 11), true
		inst.Cond = CondTrue
		inst.IsRegWrite = inst.Rd != 0
		switch funct3 {
		case 0b000:
			inst.Op, inst.Alu = OpADDI, AluAdd
		case 0b010, 0b011:
			// SLTI/SLTIU are unsupported: the ALU's comparison ops read
			// the raw rs1/rs2 operands, never the immediate-shaped aluB,
			// so an I-type compare has no way to see its immediate. The
			// original reference implementation has the same limitation
			// and likewise never lists slti/sltiu as supported opcodes.
			return unsupported(word)
		case 0b100:
			inst.Op, inst.Alu = OpXORI, AluXor
		case 0b110:
			inst.Op, inst.Alu = OpORI, AluOri
		case 0b111:
			inst.Op, inst.Alu = OpANDI, AluAndi
		case 0b001:
			if funct7 != 0b0000000 {
				return unsupported(word)
			}
			inst.Op, inst.Alu = OpSLLI, AluSll
			inst.Imm = int32(bits(word, 24, 20))
		case 0b101:
			shamt := int32(bits(word, 24, 20))
			switch funct7 {
			case 0b0000000:
				inst.Op, inst.Alu, inst.Imm = OpSRLI, AluSrl, shamt
			case 0b0100000:
				inst.Op, inst.Alu, inst.Imm = OpSRAI, AluSra, shamt
			default:
				return unsupported(word)
			}
		default:
			return unsupported(word)
		}

	case 0b0110011: // OP
		inst.Rs1, inst.Rs1Valid = rs1, true
		inst.Rs2, inst.Rs2Valid = rs2, true
		inst.Rd, inst.RdValid = rd, true
		inst.Cond = CondTrue
		inst.IsRegWrite = inst.Rd != 0
		switch {
		case funct3 == 0b000 && funct7 == 0b0000000:
			inst.Op, inst.Alu = OpADD, AluAdd
		case funct3 == 0b000 && funct7 == 0b0100000:
			inst.Op, inst.Alu = OpSUB, AluSub
		case funct3 == 0b001 && funct7 == 0b0000000:
			inst.Op, inst.Alu = OpSLL, AluSll
		case funct3 == 0b010 && funct7 == 0b0000000:
			inst.Op, inst.Alu = OpSLT, AluCmpLt
		case funct3 == 0b011 && funct7 == 0b0000000:
			inst.Op, inst.Alu = OpSLTU, AluCmpLtu
		case funct3 == 0b100 && funct7 == 0b0000000:
			inst.Op, inst.Alu = OpXOR, AluXor
		case funct3 == 0b101 && funct7 == 0b0000000:
			inst.Op, inst.Alu = OpSRL, AluSrl
		case funct3 == 0b101 && funct7 == 0b0100000:
			inst.Op, inst.Alu = OpSRA, AluSra
		case funct3 == 0b110 && funct7 == 0b0000000:
			inst.Op, inst.Alu = OpOR, AluOr
		case funct3 == 0b111 && funct7 == 0b0000000:
			inst.Op, inst.Alu = OpAND, AluAnd
		default:
			return unsupported(word)
		}

	case 0b1110011: // SYSTEM: ECALL / EBREAK
		imm := bits(word, 31, 20)
		if funct3 != 0 || rd != 0 || rs1 != 0 {
			return unsupported(word)
		}
		switch imm {
		case 0:
			inst.Op = OpECALL
		case 1:
			inst.Op = OpEBREAK
		default:
			return unsupported(word)
		}
		inst.Alu, inst.Cond, inst.IsFinal = AluNone, CondTrue, true

	default:
		return unsupported(word)
	}

	return inst
}

// unsupported produces the sentinel bundle for an unrecognized opcode:
// alu = NONE, cond = TRUE, which commit treats as a terminator (spec §4.1,
// §7 "Decoder miss").
func unsupported(word uint32) *Instruction {
	return &Instruction{
		Op:      OpUnknown,
		Alu:     AluNone,
		Cond:    CondTrue,
		IsFinal: true,
		Raw:     word,
	}
}
