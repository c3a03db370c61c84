package emu

import "github.com/sarchlab/rv32tomasulo/insts"

// Memory is a flat, word-addressed byte-addressable address space: the
// functional model's counterpart to the timing model's two SRAMs (spec
// §6), except unified (icache and dcache alias the same backing store
// here, since the golden model never needs to model their separate
// latencies).
type Memory struct {
	words []uint32
}

// NewMemory creates a zeroed Memory of 2^depthLog words.
func NewMemory(depthLog uint) *Memory {
	return &Memory{words: make([]uint32, 1<<depthLog)}
}

func (m *Memory) wordIndex(addr uint32) uint32 {
	return (addr >> 2) & (uint32(len(m.words)) - 1)
}

// ReadWord reads the word at a word-aligned byte address.
func (m *Memory) ReadWord(addr uint32) uint32 {
	return m.words[m.wordIndex(addr)]
}

// WriteWord writes the word at a word-aligned byte address.
func (m *Memory) WriteWord(addr, value uint32) {
	m.words[m.wordIndex(addr)] = value
}

// Load reads a byte-addressed value of the width and extension ext
// describes, straddling into the containing word exactly as the timing
// model's LSQ does (spec §4.5, §6), via the shared insts.ExtractLoad.
func (m *Memory) Load(addr uint32, ext insts.MemExt) uint32 {
	word := m.words[m.wordIndex(addr)]
	return insts.ExtractLoad(word, addr&3, ext)
}

// Store writes a byte-addressed value of op's width into the containing
// word via the shared insts.MergeStore.
func (m *Memory) Store(addr uint32, value uint32, op insts.Op) {
	idx := m.wordIndex(addr)
	m.words[idx] = insts.MergeStore(m.words[idx], addr&3, value, op)
}

// Poke preloads a word directly, used to seed data memory before Run.
func (m *Memory) Poke(addr uint32, value uint32) { m.WriteWord(addr, value) }
