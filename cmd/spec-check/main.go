// Package main runs spec.md §8's six concrete end-to-end scenarios
// against the Tomasulo core as a standalone acceptance gate, independent
// of the test suite.
package main

import (
	"fmt"
	"os"

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
func bType(imm int32, rs2, rs1, funct3 uint32) uint32 {
	u := uint32(imm)
	return (u>>12&1)<<31 | (u>>5&0x3f)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (u>>1&0xf)<<8 | (u>>11&1)<<7 | 0b1100011
}

func addi(rd, rs1 uint32, imm int32) uint32 { return iType(imm, rs1, 0b000, rd, 0b0010011) }
func add(rd, rs1, rs2 uint32) uint32        { return rType(0, rs2, rs1, 0b000, rd, 0b0110011) }
func lw(rd, rs1 uint32, imm int32) uint32   { return iType(imm, rs1, 0b010, rd, 0b0000011) }
func sw(rs1, rs2 uint32, imm int32) uint32  { return sType(imm, rs2, rs1, 0b010) }
func beq(rs1, rs2 uint32, imm int32) uint32 { return bType(imm, rs2, rs1, 0b000) }
func blt(rs1, rs2 uint32, imm int32) uint32 { return bType(imm, rs2, rs1, 0b100) }

const ebreak uint32 = 0x00100073

const idleThreshold = 4000

type scenario struct {
	name    string
	program []uint32
	preset  func(icache, dcache *memory.SRAM)
	check   func(c *core.Core) error
}

func main() {
	scenarios := []scenario{
		{
			name:    "1. ADDI accumulation",
			program: []uint32{addi(5, 0, 1), addi(5, 5, 1), addi(5, 5, 1), ebreak},
			check: func(c *core.Core) error {
				return expect("RF[5]", uint64(c.RegisterFile()[5]), 3)
			},
		},
		{
			name:    "2. Forwarding through recorder",
			program: []uint32{addi(6, 0, 7), add(7, 6, 6), ebreak},
			check: func(c *core.Core) error {
				return expect("RF[7]", uint64(c.RegisterFile()[7]), 14)
			},
		},
		{
			name: "3. Predicted-taken loop",
			program: []uint32{
				addi(5, 0, 0),
				addi(6, 0, 20),
				addi(5, 5, 1),  // L:
				blt(5, 6, -4),  // branch back to L while x5 < x6
				ebreak,
			},
			check: func(c *core.Core) error {
				return expect("RF[5]", uint64(c.RegisterFile()[5]), 20)
			},
		},
		{
			name:    "4. Load-use",
			program: []uint32{lw(10, 0, 0), addi(11, 10, 1), ebreak},
			preset: func(_, dcache *memory.SRAM) {
				dcache.Poke(0, 0x12345678)
			},
			check: func(c *core.Core) error {
				if err := expect("RF[10]", uint64(c.RegisterFile()[10]), 0x12345678); err != nil {
					return err
				}
				return expect("RF[11]", uint64(c.RegisterFile()[11]), 0x12345679)
			},
		},
		{
			name:    "5. Store then load same address",
			program: []uint32{addi(10, 0, 42), sw(0, 10, 0), lw(11, 0, 0), ebreak},
			check: func(c *core.Core) error {
				return expect("RF[11]", uint64(c.RegisterFile()[11]), 42)
			},
		},
		{
			name:    "6. Mispredict recovery",
			program: []uint32{addi(5, 0, 0), beq(5, 0, 8), addi(6, 0, 99), addi(7, 0, 7), ebreak},
			check: func(c *core.Core) error {
				if err := expect("RF[6]", uint64(c.RegisterFile()[6]), 0); err != nil {
					return err
				}
				if err := expect("RF[7]", uint64(c.RegisterFile()[7]), 7); err != nil {
					return err
				}
				return expect("Flushes", c.Stats().Flushes, 1)
			},
		},
	}

	failures := 0
	for _, s := range scenarios {
		if err := runScenario(s); err != nil {
			fmt.Printf("FAIL %s: %v\n", s.name, err)
			failures++
		} else {
			fmt.Printf("PASS %s\n", s.name)
		}
	}

	if failures > 0 {
		fmt.Printf("\n%d of %d scenarios failed\n", failures, len(scenarios))
		os.Exit(1)
	}
	fmt.Printf("\nall %d scenarios passed\n", len(scenarios))
}

func runScenario(s scenario) error {
	icache := memory.NewSRAM(8)
	dcache := memory.NewSRAM(8)
	for i, w := range s.program {
		icache.Poke(uint32(i), w)
	}
	if s.preset != nil {
		s.preset(icache, dcache)
	}

	c := core.NewCore(icache, dcache)
	c.SetPC(0)
	if err := c.Run(idleThreshold); err != nil {
		return err
	}
	return s.check(c)
}

func expect(label string, got, want uint64) error {
	if got != want {
		return fmt.Errorf("%s = %d, want %d", label, got, want)
	}
	return nil
}
