// Package insts provides RV32I instruction definitions and decoding.
//
// This package implements decoding of RV32I machine code into a control
// bundle: source/destination register ids, a sign-extended immediate, and
// one-hot selectors for the ALU operation and branch condition. The
// decoder is a pure function with no state, mirroring the combinational
// decode stage of the hardware this model is based on.
//
// Usage:
//
//	inst := insts.Decode(0x00150513) // ADDI X10, X10, 1
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
package insts
