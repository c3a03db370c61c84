// Package memory implements the single-port SRAM contract of spec §6: a
// word-addressed array with one read/write port, one cycle of read
// latency, and hex-file initialization. Both icache and dcache are
// instances of the same SRAM type.
package memory

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SRAM is a word-addressed (32-bit words), single-port memory of 2^DepthLog
// entries. Reads are registered: a Cycle with re set latches the addressed
// word, and RData returns it until the next Cycle call, matching
// the one-cycle latency the fetch/LSQ units already account for by
// pipelining their own requests one stage ahead (spec §4.2, §4.5, §6).
type SRAM struct {
	depthLog uint
	words    []uint32

	pending    bool
	pendingOut uint32

	observe func(we, re bool, addr, wdata uint32)
}

// SetObserver attaches fn to be called with the (we, re, addr, wdata) of
// every Cycle invocation, in addition to the SRAM's own read/write
// behavior. Used by timing/cache to mirror dcache traffic into an
// optional, off-by-default hit/miss instrumentation layer without
// changing this SRAM's single-cycle timing. A nil fn (the default)
// disables observation.
func (s *SRAM) SetObserver(fn func(we, re bool, addr, wdata uint32)) {
	s.observe = fn
}

// NewSRAM creates a zero-initialized SRAM with 2^depthLog words.
func NewSRAM(depthLog uint) *SRAM {
	return &SRAM{
		depthLog: depthLog,
		words:    make([]uint32, 1<<depthLog),
	}
}

// LoadHexFile initializes the SRAM from a file containing one hex word per
// line (no "0x" prefix, leading zeros optional), per spec §6.
func (s *SRAM) LoadHexFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sram: opening init file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	i := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if i >= len(s.words) {
			return fmt.Errorf("sram: init file %s has more words than depth 2^%d", path, s.depthLog)
		}
		v, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return fmt.Errorf("sram: parsing hex word %q at line %d: %w", line, i+1, err)
		}
		s.words[i] = uint32(v)
		i++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("sram: reading init file %s: %w", path, err)
	}
	return nil
}

// Cycle advances the SRAM's registered read port by one cycle: if re was
// asserted, addr's current contents latch into the output register,
// readable on the NEXT call to RData. If we was asserted, wdata commits to
// addr immediately (writes are not pipelined, matching the original
// hardware's single-cycle write port).
func (s *SRAM) Cycle(we, re bool, addr uint32, wdata uint32) {
	idx := addr & (uint32(len(s.words)) - 1)
	if s.observe != nil {
		s.observe(we, re, idx, wdata)
	}
	if we {
		s.words[idx] = wdata
	}
	if re {
		s.pending = true
		s.pendingOut = s.words[idx]
	} else {
		s.pending = false
	}
}

// RData returns the word latched by the most recent Cycle call that
// asserted re, and whether a value is available at all (false the very
// first cycle after reset, before any read has been issued).
func (s *SRAM) RData() (uint32, bool) {
	return s.pendingOut, s.pending
}

// Peek reads a word directly, bypassing the one-cycle read-latency
// register. Used by loaders and tests to inspect memory contents without
// driving the synchronous port.
func (s *SRAM) Peek(addr uint32) uint32 {
	return s.words[addr&(uint32(len(s.words))-1)]
}

// Poke writes a word directly, bypassing the synchronous port. Used to
// preload memory from a workload file.
func (s *SRAM) Poke(addr uint32, value uint32) {
	s.words[addr&(uint32(len(s.words))-1)] = value
}

// PeekObserved is Peek, but also notifies any attached observer. Used by
// the LSQ's store path (a direct Peek/Poke read-modify-write rather than
// a Cycle, since stores commit same-cycle) so that runtime store traffic
// still reaches an attached cache-hierarchy observer.
func (s *SRAM) PeekObserved(addr uint32) uint32 {
	idx := addr & (uint32(len(s.words)) - 1)
	if s.observe != nil {
		s.observe(false, true, idx, 0)
	}
	return s.words[idx]
}

// PokeObserved is Poke, but also notifies any attached observer.
func (s *SRAM) PokeObserved(addr uint32, value uint32) {
	idx := addr & (uint32(len(s.words)) - 1)
	if s.observe != nil {
		s.observe(true, false, idx, value)
	}
	s.words[idx] = value
}

// DepthLog returns the log2 of the word count, as used to size address
// fields elsewhere (spec §6).
func (s *SRAM) DepthLog() uint {
	return s.depthLog
}
