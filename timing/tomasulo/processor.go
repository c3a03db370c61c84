// Package tomasulo implements the out-of-order RV32I execution core: a
// speculatively-fetched front end (PC register + BHT/BTB predictor) and a
// Tomasulo-style back end (ROB, reservation station, load/store queue,
// stateless ALU) described in spec §2-§5.
package tomasulo

import (
	"fmt"
	"io"

	"github.com/sarchlab/rv32tomasulo/insts"
	"github.com/sarchlab/rv32tomasulo/timing/memory"
)

// Sizes configures the entry counts of every Tomasulo structure. Spec §9
// requires power-of-two sizes and M == L == N for the ROB-index slotting
// scheme to be collision-free.
type Sizes struct {
	ROBSize int
	RSSize  int
	LSQSize int
}

// DefaultSizes returns the spec's authoritative sizing (§3, §9: N=8,
// overriding the early draft's ROB_SIZE=5).
func DefaultSizes() Sizes {
	return Sizes{ROBSize: 8, RSSize: 8, LSQSize: 8}
}

// Option configures a Processor at construction time, following the
// functional-options pattern the teacher uses throughout (e.g.
// timing/pipeline.NewPipeline).
type Option func(*Processor)

// WithSizes overrides the default ROB/RS/LSQ sizing.
func WithSizes(s Sizes) Option {
	return func(p *Processor) { p.sizes = s }
}

// WithPredictorConfig overrides the default BHT/BTB sizing.
func WithPredictorConfig(cfg PredictorConfig) Option {
	return func(p *Processor) { p.predictorConfig = cfg }
}

// WithTrace attaches a sink that receives one line per committed
// instruction and one line per flush, in the same spirit as the
// original's log(...) calls (spec §7). No logging library is introduced;
// a nil writer (the default) disables tracing entirely.
func WithTrace(w io.Writer) Option {
	return func(p *Processor) { p.trace = w }
}

// Stats mirrors the teacher's Stats-struct convention
// (timing/pipeline.BranchPredictorStats): plain counters plus small
// derived-metric methods.
type Stats struct {
	Cycles       uint64
	Committed    uint64
	Flushes      uint64
	Mispredicted uint64
}

// IPC returns committed instructions per cycle.
func (s Stats) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Committed) / float64(s.Cycles)
}

// pendingFetch is the one-deep register between fetch-issue and decode,
// modelling the icache's one-cycle read latency (spec §4.2 "one-deep FIFO
// discipline").
type pendingFetch struct {
	valid          bool
	pc             uint32
	predictedTaken bool
}

// Processor is the complete Tomasulo machine: PC + predictor, ROB, RS,
// LSQ, and the icache/dcache ports, advanced one cycle at a time by Tick
// (spec §2 "Driver").
type Processor struct {
	sizes           Sizes
	predictorConfig PredictorConfig
	trace           io.Writer

	regs      RegFile
	rob       *ROB
	rs        *RS
	lsq       *LSQ
	predictor *Predictor

	icache *memory.SRAM
	dcache *memory.SRAM

	pc      uint32
	pending pendingFetch

	halted     bool
	haltReason string

	stats Stats
}

// NewProcessor builds a Processor wired to icache/dcache, applying opts
// over DefaultSizes()/DefaultPredictorConfig().
func NewProcessor(icache, dcache *memory.SRAM, opts ...Option) *Processor {
	p := &Processor{
		sizes:           DefaultSizes(),
		predictorConfig: DefaultPredictorConfig(),
		icache:          icache,
		dcache:          dcache,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.rob = NewROB(p.sizes.ROBSize)
	p.rs = NewRS(p.sizes.RSSize)
	p.lsq = NewLSQ(p.sizes.LSQSize)
	p.predictor = NewPredictor(p.predictorConfig)
	return p
}

// SetPC sets the initial program counter, used before the first Tick.
func (p *Processor) SetPC(pc uint32) { p.pc = pc }

// Halted reports whether the processor has committed an is_final entry.
func (p *Processor) Halted() bool { return p.halted }

// HaltReason describes why the processor halted ("ebreak", "ecall", or
// "unsupported opcode"), empty while still running.
func (p *Processor) HaltReason() string { return p.haltReason }

// Stats returns the running cycle/commit/flush counters.
func (p *Processor) Stats() Stats { return p.stats }

// RegisterFile exposes the architectural register values, for tests and
// CLI reporting.
func (p *Processor) RegisterFile() [32]uint32 { return p.regs.Snapshot() }

// PC returns the current program counter.
func (p *Processor) PC() uint32 { return p.pc }

// Tick advances the processor by exactly one logical clock cycle (spec
// §2, §5). It is a no-op once Halted().
func (p *Processor) Tick() {
	if p.halted {
		return
	}
	p.stats.Cycles++

	// ---- stall_for_store snapshot, taken before this cycle's commit
	// advances the ROB head (spec §4.5). ----
	hadUnresolvedBranch := p.rob.HasUnresolvedBranch()

	// ---- 1. Commit (reads state as of the start of this cycle). ----
	commitInfo := p.rob.ComputeCommit()
	if commitInfo.Valid {
		p.rob.ApplyCommit(&p.regs, p.predictor, commitInfo)
		p.stats.Committed++
		p.traceCommit(commitInfo)
		if commitInfo.IsFinal {
			p.halted = true
			p.haltReason = haltReason(commitInfo)
			return
		}
	}
	misprediction := commitInfo.Valid && commitInfo.Misprediction
	if misprediction {
		p.stats.Mispredicted++
	}

	// ---- 2. Decode the fetch issued last cycle, dispatch to ROB. ----
	if p.pending.valid && !misprediction {
		word, _ := p.icache.RData()
		inst := insts.Decode(word)

		shouldReceive := !p.rob.PhysFull()
		if shouldReceive {
			robIdx := p.rob.Allocate(&p.regs, inst, p.pending.pc, p.pending.predictedTaken)
			if inst.IsLoadOrStore {
				p.lsq.Allocate(robIdx, inst, &p.regs, p.pending.pc, commitInfo)
			} else {
				p.rs.Allocate(robIdx, inst, &p.regs, p.pending.pc, commitInfo)
			}
		}
	}

	// ---- 3. RS: snoop + issue one entry through the ALU. ----
	p.rs.Snoop(commitInfo)
	if ok, robIdx, in := p.rs.SelectIssue(); ok {
		out := aluCompute(in)
		p.rob.Writeback(robIdx, out.result, out.newPC)
	}

	// ---- 4. LSQ: snoop + drain pending load + head execute. ----
	p.lsq.Snoop(commitInfo)
	p.lsq.Step(p.rob, p.dcache, hadUnresolvedBranch)

	// ---- 5. Fetch: issue (PC, predicted_taken) for next cycle's decode.
	predictedTaken, predictedTarget := p.predictor.Predict(p.pc)
	fetchValid := !p.rob.FullForFetcher() && !misprediction
	if fetchValid {
		p.icache.Cycle(false, true, p.pc>>2, 0)
		p.pending = pendingFetch{valid: true, pc: p.pc, predictedTaken: predictedTaken}
	} else {
		p.pending = pendingFetch{}
	}

	// ---- 6. PC update. ----
	switch {
	case misprediction:
		p.pc = commitInfo.PCResult
	case fetchValid:
		if predictedTaken {
			p.pc = predictedTarget
		} else {
			p.pc += 4
		}
	}

	// ---- 7. Recovery: flush on misprediction (spec §4.3, §9). ----
	if misprediction {
		p.rob.Reset()
		p.rs.Reset()
		p.lsq.Reset()
		p.regs.ClearRecorders()
		p.pending = pendingFetch{}
		p.stats.Flushes++
		p.traceFlush(commitInfo)
	}
}

// Run ticks the processor until it halts or idleLimit consecutive cycles
// pass without a commit (spec §6 "idle threshold", SUPPLEMENTED
// FEATURES). Returns an error if the idle limit is hit first.
func (p *Processor) Run(idleLimit uint64) error {
	var idle uint64
	lastCommitted := p.stats.Committed
	for !p.halted {
		p.Tick()
		if p.stats.Committed != lastCommitted {
			idle = 0
			lastCommitted = p.stats.Committed
		} else {
			idle++
			if idle >= idleLimit {
				return fmt.Errorf("tomasulo: no instruction committed in %d cycles (idle threshold), pc=0x%08x", idleLimit, p.pc)
			}
		}
	}
	return nil
}

func haltReason(info CommitInfo) string {
	switch insts.Decode(info.Raw).Op {
	case insts.OpEBREAK:
		return "ebreak"
	case insts.OpECALL:
		return "ecall"
	}
	return "unsupported opcode"
}

func (p *Processor) traceCommit(info CommitInfo) {
	if p.trace == nil {
		return
	}
	fmt.Fprintf(p.trace, "commit rob=%d pc=0x%08x word=0x%08x rd=%d value=0x%08x\n",
		info.HeadIndex, info.Addr, info.Raw, info.Rd, info.ModifyValue)
}

func (p *Processor) traceFlush(info CommitInfo) {
	if p.trace == nil {
		return
	}
	fmt.Fprintf(p.trace, "flush rob=%d pc=0x%08x target=0x%08x\n",
		info.HeadIndex, info.Addr, info.PCResult)
}
