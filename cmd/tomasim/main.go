// Package main provides the tomasim CLI: a driver that loads a workload
// into the Tomasulo core's icache/dcache and runs it to completion,
// mirroring the teacher's cmd/m2sim flag-based driver.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/rv32tomasulo/loader"
	"github.com/sarchlab/rv32tomasulo/timing/cache"
	"github.com/sarchlab/rv32tomasulo/timing/core"
	"github.com/sarchlab/rv32tomasulo/timing/memory"
)

var (
	idleThreshold = flag.Uint64("idle-threshold", 4000, "cycles without a commit before giving up (original_source's idle_threshold)")
	depthLog      = flag.Uint("depth-log", 16, "log2 of icache/dcache word depth")
	trace         = flag.Bool("trace", false, "print one line per commit and flush")
	cacheStats    = flag.Bool("cache-stats", false, "attach L1/L2 hit-miss instrumentation and report it at exit")
	verbose       = flag.Bool("v", false, "verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: tomasim [options] <case-path-prefix>\n")
		fmt.Fprintf(os.Stderr, "  <case-path-prefix> names <prefix>.exe, <prefix>.data, and\n")
		fmt.Fprintf(os.Stderr, "  optionally <prefix>.config, per spec §6 \"Workload files\".\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	casePrefix := flag.Arg(0)

	icache := memory.NewSRAM(*depthLog)
	dcache := memory.NewSRAM(*depthLog)

	var opts []core.Option
	if *trace {
		opts = append(opts, core.WithTrace(os.Stdout))
	}
	if *cacheStats {
		opts = append(opts, core.WithCacheHierarchy(cache.DefaultL1Config(), cache.DefaultL2Config()))
	}
	c := core.NewCore(icache, dcache, opts...)

	workload := loader.Workload{
		ExePath:  casePrefix + ".exe",
		DataPath: casePrefix + ".data",
	}
	if _, err := os.Stat(casePrefix + ".config"); err == nil {
		workload.ConfigPath = casePrefix + ".config"
		workload.InitPath = casePrefix + ".init"
	}

	cfg, err := c.LoadWorkload(workload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tomasim: loading workload: %v\n", err)
		os.Exit(1)
	}
	if *verbose && workload.ConfigPath != "" {
		fmt.Printf("offset=0x%x data_offset=0x%x\n", cfg.Offset, cfg.DataOffset)
	}

	c.SetPC(0)
	if err := c.Run(*idleThreshold); err != nil {
		fmt.Fprintf(os.Stderr, "tomasim: %v\n", err)
		os.Exit(1)
	}

	stats := c.Stats()
	fmt.Printf("Halted: %s\n", c.HaltReason())
	fmt.Printf("Cycles: %d\n", stats.Cycles)
	fmt.Printf("Committed: %d\n", stats.Committed)
	fmt.Printf("IPC: %.3f\n", stats.IPC())
	fmt.Printf("Flushes: %d\n", stats.Flushes)
	fmt.Printf("Mispredicted: %d\n", stats.Mispredicted)

	if *cacheStats {
		l1, l2 := c.CacheStats()
		fmt.Printf("L1 dcache: reads=%d writes=%d hits=%d misses=%d\n", l1.Reads, l1.Writes, l1.Hits, l1.Misses)
		fmt.Printf("L2:        reads=%d writes=%d hits=%d misses=%d\n", l2.Reads, l2.Writes, l2.Hits, l2.Misses)
	}

	if *verbose {
		rf := c.RegisterFile()
		for i, v := range rf {
			fmt.Printf("x%-2d = 0x%08x\n", i, v)
		}
	}
}
