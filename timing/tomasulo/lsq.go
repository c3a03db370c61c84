package tomasulo

import (
	"github.com/sarchlab/rv32tomasulo/insts"
	"github.com/sarchlab/rv32tomasulo/timing/memory"
)

// lsqEntry is one load/store-queue slot (spec §3 "LSQ entry").
type lsqEntry struct {
	allocated bool
	robIndex  int
	isStore   bool
	op        insts.Op
	memExt    insts.MemExt

	rs1Value    uint32
	rs1Pending  bool
	rs1Recorder int

	rs2Value    uint32 // store data
	rs2Pending  bool
	rs2Recorder int

	imm  int32
	addr uint32 // PC of this instruction, for pc_result = addr+4
}

func (e *lsqEntry) ready() bool {
	return e.allocated && !e.rs1Pending && !e.rs2Pending
}

// pendingLoad tracks a load whose dcache read was issued last cycle and
// whose data is readable on dcache this cycle (spec §4.5: "the load
// result arrives on the dcache output ... one cycle later").
type pendingLoad struct {
	valid      bool
	robIndex   int
	op         insts.Op
	memExt     insts.MemExt
	byteOffset uint32
	pcResult   uint32
}

// LSQ is the load/store queue: L entries in decode-order ring buffer,
// head-only execution (spec §4.5).
type LSQ struct {
	l       int
	entries []lsqEntry
	head    int
	tail    int
	size    int

	pending pendingLoad
}

// NewLSQ creates an empty load/store queue with l slots.
func NewLSQ(l int) *LSQ {
	return &LSQ{l: l, entries: make([]lsqEntry, l)}
}

// Full reports whether the queue has no free slot for dispatch.
func (q *LSQ) Full() bool { return q.size == q.l }

// Size returns the number of allocated entries.
func (q *LSQ) Size() int { return q.size }

// Allocate appends a new entry at tail for inst, renamed against rf with
// the same-cycle commit bypass applied (spec §4.4's resolution rule
// applies identically to LSQ operand resolution, per §4.5 "Operand
// resolution works as in RS").
func (q *LSQ) Allocate(robIndex int, inst *insts.Instruction, rf *RegFile, pc uint32, bypass CommitInfo) {
	var rs1Value uint32
	var rs1Pending bool
	var rs1Recorder int
	if inst.Rs1Valid {
		rs1Value, rs1Pending, rs1Recorder = rf.Lookup(inst.Rs1)
	}

	var rs2Value uint32
	var rs2Pending bool
	var rs2Recorder int
	if inst.Rs2Valid {
		rs2Value, rs2Pending, rs2Recorder = rf.Lookup(inst.Rs2)
	}

	if bypass.Valid {
		if rs1Pending && rs1Recorder == bypass.HeadIndex {
			rs1Value, rs1Pending = bypass.ModifyValue, false
		}
		if rs2Pending && rs2Recorder == bypass.HeadIndex {
			rs2Value, rs2Pending = bypass.ModifyValue, false
		}
	}

	q.entries[q.tail] = lsqEntry{
		allocated:   true,
		robIndex:    robIndex,
		isStore:     inst.IsMemoryWrite,
		op:          inst.Op,
		memExt:      inst.MemExt,
		rs1Value:    rs1Value,
		rs1Pending:  rs1Pending,
		rs1Recorder: rs1Recorder,
		rs2Value:    rs2Value,
		rs2Pending:  rs2Pending,
		rs2Recorder: rs2Recorder,
		imm:         inst.Imm,
		addr:        pc,
	}
	q.tail = (q.tail + 1) % q.l
	q.size++
}

// Snoop latches bypass.ModifyValue into any allocated entry whose pending
// rs1/rs2 recorder matches the committing tag (spec §4.5, §4.4 "as in
// RS").
func (q *LSQ) Snoop(bypass CommitInfo) {
	if !bypass.Valid {
		return
	}
	for i := 0; i < q.size; i++ {
		idx := (q.head + i) % q.l
		e := &q.entries[idx]
		if e.rs1Pending && e.rs1Recorder == bypass.HeadIndex {
			e.rs1Value, e.rs1Pending = bypass.ModifyValue, false
		}
		if e.rs2Pending && e.rs2Recorder == bypass.HeadIndex {
			e.rs2Value, e.rs2Pending = bypass.ModifyValue, false
		}
	}
}

// Step drains any load whose dcache result is ready this cycle, then
// attempts to execute the new head if it is ready and nothing else is
// outstanding on the single-ported dcache (spec §4.5, §5 "one outstanding
// request"). hasUnresolvedBranch is the stall_for_store guard, evaluated
// by the caller against the ROB snapshot from BEFORE this cycle's commit
// (spec §4.5 "stall_for_store = has_unresolved_branch ∧ is_memory_write").
func (q *LSQ) Step(rob *ROB, dcache *memory.SRAM, hasUnresolvedBranch bool) {
	if q.pending.valid {
		word, ok := dcache.RData()
		if ok {
			value := insts.ExtractLoad(word, q.pending.byteOffset, q.pending.memExt)
			rob.WritebackLoad(q.pending.robIndex, value, q.pending.pcResult)
			q.pending = pendingLoad{}
		}
	}

	if q.size == 0 || q.pending.valid {
		return
	}
	e := &q.entries[q.head]
	if !e.ready() {
		return
	}
	if e.isStore && hasUnresolvedBranch {
		return
	}

	byteAddr := e.rs1Value + uint32(e.imm)
	wordAddr := byteAddr >> 2
	byteOffset := byteAddr & 3
	pcResult := e.addr + 4

	if e.isStore {
		old := dcache.PeekObserved(wordAddr)
		dcache.PokeObserved(wordAddr, insts.MergeStore(old, byteOffset, e.rs2Value, e.op))
		rob.WritebackLoad(e.robIndex, 0, pcResult)
	} else {
		dcache.Cycle(false, true, wordAddr, 0)
		q.pending = pendingLoad{
			valid: true, robIndex: e.robIndex, op: e.op,
			memExt: e.memExt, byteOffset: byteOffset, pcResult: pcResult,
		}
	}

	q.entries[q.head] = lsqEntry{}
	q.head = (q.head + 1) % q.l
	q.size--
}

// Reset empties the queue and drops any in-flight pending load (spec
// §4.5 "On clear, LSQ head, tail, size, and all allocated bits reset to
// zero").
func (q *LSQ) Reset() {
	for i := range q.entries {
		q.entries[i] = lsqEntry{}
	}
	q.head, q.tail, q.size = 0, 0, 0
	q.pending = pendingLoad{}
}
