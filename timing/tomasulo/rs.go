package tomasulo

import "github.com/sarchlab/rv32tomasulo/insts"

// rsEntry is one reservation-station slot (spec §3 "RS entry", §4.4).
type rsEntry struct {
	allocated bool
	robIndex  int

	rs1Value    uint32
	rs1Pending  bool
	rs1Recorder int

	rs2Value    uint32
	rs2Pending  bool
	rs2Recorder int

	imm    int32
	hasImm bool

	op     insts.AluOp
	cond   insts.Cond
	flip   bool
	isBranch bool
	isPCCalc bool
	isJalr   bool
	linkPC   bool
	pcAddr   uint32
}

// RS is the reservation station: M fixed slots, no internal ordering,
// indexed by the dispatching ROB entry's low log2(M) bits (spec §4.4,
// §9 "RS/LSQ slot indexing by ROB index"). With M == N this indexing is
// collision-free: a slot is only ever reused after its previous occupant
// has issued or been flushed.
type RS struct {
	m       int
	entries []rsEntry
}

// NewRS creates an empty reservation station with m slots.
func NewRS(m int) *RS {
	return &RS{m: m, entries: make([]rsEntry, m)}
}

// Allocate fills the slot for robIndex with inst's operands, renamed
// against rf at dispatch time, with an immediate bypass against the
// commit happening the very same cycle (spec §4.3 "receives the
// just-about-to-commit writeback ... so newly dispatched consumers of
// that tag resolve immediately", §4.4 "dispatched operands are
// transparently forwarded by the commit bus").
func (rs *RS) Allocate(robIndex int, inst *insts.Instruction, rf *RegFile, pc uint32, bypass CommitInfo) {
	idx := robIndex & (rs.m - 1)

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

	rs.entries[idx] = rsEntry{
		allocated:   true,
		robIndex:    robIndex,
		rs1Value:    rs1Value,
		rs1Pending:  rs1Pending,
		rs1Recorder: rs1Recorder,
		rs2Value:    rs2Value,
		rs2Pending:  rs2Pending,
		rs2Recorder: rs2Recorder,
		imm:         inst.Imm,
		hasImm:      inst.ImmValid,
		op:          inst.Alu,
		cond:        inst.Cond,
		flip:        inst.Flip,
		isBranch:    inst.IsBranch,
		isPCCalc:    inst.IsPCCalc,
		isJalr:      inst.IsJalr,
		linkPC:      inst.LinkPC,
		pcAddr:      pc,
	}
}

// Snoop latches bypass.ModifyValue into any entry whose pending rs1/rs2
// recorder matches the committing tag (spec §4.4 "Commit-bus snoop").
func (rs *RS) Snoop(bypass CommitInfo) {
	if !bypass.Valid {
		return
	}
	for i := range rs.entries {
		e := &rs.entries[i]
		if !e.allocated {
			continue
		}
		if e.rs1Pending && e.rs1Recorder == bypass.HeadIndex {
			e.rs1Value, e.rs1Pending = bypass.ModifyValue, false
		}
		if e.rs2Pending && e.rs2Recorder == bypass.HeadIndex {
			e.rs2Value, e.rs2Pending = bypass.ModifyValue, false
		}
	}
}

// SelectIssue picks one ready entry (both operands resolved), ties broken
// by highest-index-wins (spec §4.4 "Issue selection"), shapes its ALU
// input per spec §4.4 "ALU input shaping", and frees the slot. Returns ok
// = false if no entry is ready.
func (rs *RS) SelectIssue() (ok bool, robIndex int, in aluInput) {
	send := -1
	for i := 0; i < rs.m; i++ {
		e := &rs.entries[i]
		if e.allocated && !e.rs1Pending && !e.rs2Pending {
			send = i
		}
	}
	if send == -1 {
		return false, 0, aluInput{}
	}

	e := rs.entries[send]

	aluA := e.rs1Value
	if e.isBranch || e.isPCCalc {
		aluA = e.pcAddr
	}
	if e.isJalr {
		aluA = e.rs1Value
	}
	aluB := e.rs2Value
	if e.hasImm {
		aluB = uint32(e.imm)
	}

	in = aluInput{
		a: e.rs1Value, b: e.rs2Value,
		aluA: aluA, aluB: aluB,
		op: e.op, cond: e.cond, flip: e.flip,
		isBranch: e.isBranch, isJalr: e.isJalr, linkPC: e.linkPC,
		pcAddr: e.pcAddr,
	}
	robIndex = e.robIndex

	rs.entries[send] = rsEntry{}
	return true, robIndex, in
}

// Reset clears every slot (spec §4.4 "On clear, every allocated is
// zeroed").
func (rs *RS) Reset() {
	for i := range rs.entries {
		rs.entries[i] = rsEntry{}
	}
}
