package tomasulo

import "github.com/sarchlab/rv32tomasulo/insts"

// robEntry is one slot of the reorder buffer (spec §3 "ROB entry").
type robEntry struct {
	allocated bool
	ready     bool
	isFinal   bool

	isRegWrite    bool
	isMemoryWrite bool
	isBranch      bool
	isLoadOrStore bool

	rd  uint8
	rs1 uint8
	rs2 uint8

	imm      int32
	immValid bool

	predictedTaken bool
	addr           uint32 // PC of this instruction

	calcResult uint32
	loadResult uint32
	pcResult   uint32

	raw uint32 // diagnostic: undecoded instruction word, set on every entry
}

// CommitInfo is the combinational commit-bus output computed from the
// current (pre-update) head entry (spec §4.3). It is consumed the same
// cycle by RS/LSQ snoop and by the next dispatch's bypass.
type CommitInfo struct {
	Valid bool

	HeadIndex      int
	Rd             uint8
	ModifyValue    uint32
	IsLoadOrStore  bool
	IsBranch       bool
	PredictedTaken bool
	ActualTaken    bool
	Misprediction  bool
	IsFinal        bool
	Addr           uint32
	PCResult       uint32
	Raw            uint32
}

// ROB is the reorder buffer: N power-of-two entries in a ring buffer,
// committing at head and allocating at tail (spec §3, §4.3).
type ROB struct {
	n       int
	entries []robEntry
	head    int
	tail    int
	size    int
}

// NewROB creates an empty ROB with n entries; n must be a power of two
// (spec §9 "Non-power-of-two sizes").
func NewROB(n int) *ROB {
	return &ROB{n: n, entries: make([]robEntry, n)}
}

// Size returns the number of allocated entries.
func (r *ROB) Size() int { return r.size }

// Head returns the current head index.
func (r *ROB) Head() int { return r.head }

// Tail returns the current tail index.
func (r *ROB) Tail() int { return r.tail }

// PhysFull reports size == N, the hard allocation limit (spec §3).
func (r *ROB) PhysFull() bool { return r.size == r.n }

// FullForFetcher reports the tighter back-pressure threshold that stalls
// fetch (spec §3, §4.3: size >= N-2).
func (r *ROB) FullForFetcher() bool { return r.size >= r.n-2 }

// FullForDecode reports the conservative back-pressure threshold (spec
// §3: size >= N/2). Exposed for introspection/stats; this model's
// should_receive gate uses PhysFull directly, per spec §4.3.
func (r *ROB) FullForDecode() bool { return r.size >= r.n/2 }

// HasUnresolvedBranch reports whether any currently allocated entry is a
// branch, used by the LSQ's stall_for_store guard (spec §4.5). Taking
// this snapshot before ComputeCommit's head advance means the branch
// about to commit this very cycle still counts as unresolved, closing the
// same-cycle race between a branch's commit and a trailing store's
// execution.
func (r *ROB) HasUnresolvedBranch() bool {
	for i := 0; i < r.size; i++ {
		idx := (r.head + i) % r.n
		if r.entries[idx].allocated && r.entries[idx].isBranch {
			return true
		}
	}
	return false
}

// ComputeCommit evaluates the combinational commit signals from the
// current head entry (spec §4.3): commit, pc_seq, actual_taken,
// misprediction. It does not mutate state.
func (r *ROB) ComputeCommit() CommitInfo {
	if r.size == 0 {
		return CommitInfo{}
	}
	e := &r.entries[r.head]
	if !e.ready {
		return CommitInfo{}
	}

	pcSeq := e.addr + 4
	actualTaken := e.pcResult != pcSeq
	misprediction := e.isBranch && actualTaken != e.predictedTaken

	modifyValue := e.calcResult
	if e.isLoadOrStore {
		modifyValue = e.loadResult
	}

	return CommitInfo{
		Valid:          true,
		HeadIndex:      r.head,
		Rd:             e.rd,
		ModifyValue:    modifyValue,
		IsLoadOrStore:  e.isLoadOrStore,
		IsBranch:       e.isBranch,
		PredictedTaken: e.predictedTaken,
		ActualTaken:    actualTaken,
		Misprediction:  misprediction,
		IsFinal:        e.isFinal,
		Addr:           e.addr,
		PCResult:       e.pcResult,
		Raw:            e.raw,
	}
}

// ApplyCommit retires the head entry described by info: architectural
// write-back, predictor update, and head advance (spec §4.3 commit path
// and predictor update). Recorder clearing happens inside RegFile.Commit.
// No-op if info is not Valid.
func (r *ROB) ApplyCommit(rf *RegFile, pred *Predictor, info CommitInfo) {
	if !info.Valid {
		return
	}
	rf.Commit(info.Rd, info.ModifyValue, info.HeadIndex)
	if info.IsBranch {
		pred.Update(info.Addr, info.ActualTaken, info.PCResult)
	}
	r.entries[r.head] = robEntry{}
	r.head = (r.head + 1) % r.n
	r.size--
}

// Allocate writes a new entry at tail for inst, fetched from pc with
// predictedTaken captured at fetch time, renames its destination register
// if any, and returns the new entry's ROB index (spec §4.3 "Allocation").
// Callers must have already checked should_receive.
func (r *ROB) Allocate(rf *RegFile, inst *insts.Instruction, pc uint32, predictedTaken bool) int {
	idx := r.tail

	rd := uint8(0)
	if inst.RdValid {
		rd = inst.Rd
	}

	r.entries[idx] = robEntry{
		allocated:      true,
		isFinal:        inst.IsFinal,
		isRegWrite:     inst.IsRegWrite,
		isMemoryWrite:  inst.IsMemoryWrite,
		isBranch:       inst.IsBranch,
		isLoadOrStore:  inst.IsLoadOrStore,
		rd:             rd,
		rs1:            inst.Rs1,
		rs2:            inst.Rs2,
		imm:            inst.Imm,
		immValid:       inst.ImmValid,
		predictedTaken: predictedTaken,
		addr:           pc,
		raw:            inst.Raw,
	}

	if rd != 0 {
		rf.Rename(rd, idx)
	}

	r.tail = (r.tail + 1) % r.n
	r.size++
	return idx
}

// Writeback stores an ALU result into entry idx and marks it ready (spec
// §4.3 "Writeback from ALU"). A no-op if idx is not currently allocated
// (e.g. it was flushed the same cycle the ALU fired on stale state).
func (r *ROB) Writeback(idx int, calcResult, pcResult uint32) {
	e := &r.entries[idx]
	if !e.allocated {
		return
	}
	e.calcResult = calcResult
	e.pcResult = pcResult
	e.ready = true
}

// WritebackLoad stores an LSQ result into entry idx (spec §4.3 "Same for
// LSQ, into load_result").
func (r *ROB) WritebackLoad(idx int, loadResult, pcResult uint32) {
	e := &r.entries[idx]
	if !e.allocated {
		return
	}
	e.loadResult = loadResult
	e.pcResult = pcResult
	e.ready = true
}

// Reset clears every entry and rewinds head/tail/size to zero, used on
// misprediction recovery (spec §4.3 "Recovery on misprediction").
func (r *ROB) Reset() {
	for i := range r.entries {
		r.entries[i] = robEntry{}
	}
	r.head, r.tail, r.size = 0, 0, 0
}
