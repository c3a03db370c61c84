// Package core provides the top-level CPU model: it wires a
// timing/tomasulo.Processor to its icache/dcache SRAMs, the loader, and
// an optional cache-hierarchy instrumentation layer, the way the
// teacher's timing/core wraps a 5-stage pipeline.
package core

import (
	"io"

	"github.com/sarchlab/rv32tomasulo/loader"
	"github.com/sarchlab/rv32tomasulo/timing/cache"
	"github.com/sarchlab/rv32tomasulo/timing/memory"
	"github.com/sarchlab/rv32tomasulo/timing/tomasulo"
)

// Option configures a Core at construction time.
type Option func(*Core)

// WithSizes overrides the Tomasulo machine's default ROB/RS/LSQ sizing.
func WithSizes(s tomasulo.Sizes) Option {
	return func(c *Core) { c.procOpts = append(c.procOpts, tomasulo.WithSizes(s)) }
}

// WithPredictorConfig overrides the default BHT/BTB sizing.
func WithPredictorConfig(cfg tomasulo.PredictorConfig) Option {
	return func(c *Core) { c.procOpts = append(c.procOpts, tomasulo.WithPredictorConfig(cfg)) }
}

// WithTrace attaches a commit/flush trace sink, forwarded to the
// underlying Processor.
func WithTrace(w io.Writer) Option {
	return func(c *Core) { c.procOpts = append(c.procOpts, tomasulo.WithTrace(w)) }
}

// WithCacheHierarchy attaches an off-by-default L1/L2 hit-miss
// instrumentation layer behind the dcache SRAM (spec §1 lists precise
// cache-miss modelling as a Non-goal, so this never changes the
// Processor's committed cycle count; it only mirrors dcache traffic into
// Akita-backed directories for CacheStats to report).
func WithCacheHierarchy(l1, l2 cache.Config) Option {
	return func(c *Core) {
		c.l2 = cache.New(l2, cache.NewSRAMBackingStore(c.dcache))
		c.l1 = cache.New(l1, cache.NewBackingCache(c.l2))
		c.dcache.SetObserver(c.observeDCache)
	}
}

// Core is the complete machine: a Processor plus its backing SRAMs and,
// optionally, cache-hierarchy instrumentation.
type Core struct {
	icache, dcache *memory.SRAM
	proc           *tomasulo.Processor
	procOpts       []tomasulo.Option

	l1, l2 *cache.Cache
}

// NewCore builds a Core over icache/dcache, applying opts.
func NewCore(icache, dcache *memory.SRAM, opts ...Option) *Core {
	c := &Core{icache: icache, dcache: dcache}
	for _, opt := range opts {
		opt(c)
	}
	c.proc = tomasulo.NewProcessor(icache, dcache, c.procOpts...)
	return c
}

func (c *Core) observeDCache(we, re bool, addr, wdata uint32) {
	if c.l1 == nil {
		return
	}
	byteAddr := addr * 4
	switch {
	case we:
		c.l1.Write(byteAddr, wdata)
	case re:
		c.l1.Read(byteAddr)
	}
}

// LoadWorkload stages w into the core's icache/dcache via the loader
// package, before the first Tick.
func (c *Core) LoadWorkload(w loader.Workload) (loader.Config, error) {
	return loader.Load(w, c.icache, c.dcache)
}

// SetPC sets the initial program counter.
func (c *Core) SetPC(pc uint32) { c.proc.SetPC(pc) }

// Tick advances the machine by one cycle.
func (c *Core) Tick() { c.proc.Tick() }

// Halted reports whether the machine has committed a halting instruction.
func (c *Core) Halted() bool { return c.proc.Halted() }

// HaltReason describes why the machine halted.
func (c *Core) HaltReason() string { return c.proc.HaltReason() }

// Stats returns the Processor's cycle/commit/flush counters.
func (c *Core) Stats() tomasulo.Stats { return c.proc.Stats() }

// CacheStats returns the L1/L2 hit-miss counters recorded by an attached
// cache hierarchy (zero values if WithCacheHierarchy was never applied).
func (c *Core) CacheStats() (l1, l2 cache.Statistics) {
	if c.l1 != nil {
		l1 = c.l1.Stats()
	}
	if c.l2 != nil {
		l2 = c.l2.Stats()
	}
	return l1, l2
}

// RegisterFile exposes the architectural register values.
func (c *Core) RegisterFile() [32]uint32 { return c.proc.RegisterFile() }

// PC returns the current program counter.
func (c *Core) PC() uint32 { return c.proc.PC() }

// Run ticks the machine until it halts or idleLimit consecutive cycles
// pass with no commit.
func (c *Core) Run(idleLimit uint64) error { return c.proc.Run(idleLimit) }
