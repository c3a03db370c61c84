// Package loader stages a workload's hex image files into the timing
// model's icache/dcache and, when a config file is given, writes
// abs(data_offset) to workload.init (grounded on original_source/main.py's
// build_cpu/init_workspace). The preload does not read workload.init back:
// dcache is always filled from DataPath starting at word 0.
package loader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/rv32tomasulo/timing/memory"
)

// Config is the parsed contents of a workload.config file: `offset` is
// the program's load address (unused by this model, since icache/dcache
// are always addressed from zero, but kept for parity with the original
// and for diagnostics); `dataOffset`'s absolute value is what gets
// hex-encoded into workload.init.
type Config struct {
	Offset     int64
	DataOffset int64
}

// ParseConfig reads a single `offset: <hex>, data_offset: <hex>` line
// (spec §6 "Workload configuration").
func ParseConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("loader: opening config %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return Config{}, fmt.Errorf("loader: config %s is empty", path)
	}
	line := scanner.Text()

	var cfg Config
	for _, field := range strings.Split(line, ",") {
		parts := strings.SplitN(field, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		val = strings.TrimPrefix(val, "0x")
		n, err := strconv.ParseInt(val, 16, 64)
		if err != nil {
			return Config{}, fmt.Errorf("loader: parsing %s field %q: %w", path, key, err)
		}
		switch key {
		case "offset":
			cfg.Offset = n
		case "data_offset":
			cfg.DataOffset = n
		}
	}
	return cfg, nil
}

// WriteInit writes the absolute value of DataOffset as a bare hex string
// (no "0x", no sign) to path, matching original_source/main.py's
// build_cpu: "value = hex(offsets['data_offset']); ...; write(value)".
func (c Config) WriteInit(path string) error {
	abs := c.DataOffset
	if abs < 0 {
		abs = -abs
	}
	if err := os.WriteFile(path, []byte(fmt.Sprintf("%x", abs)), 0o644); err != nil {
		return fmt.Errorf("loader: writing %s: %w", path, err)
	}
	return nil
}

// Workload names the three per-case input files (spec §6 "Workload
// files"): DataPath is a required hex image file; ExePath is preloaded
// into icache only when non-empty; ConfigPath is optional (a case with no
// I/O offsets to report may omit it).
type Workload struct {
	ExePath    string
	DataPath   string
	ConfigPath string

	// InitPath, if non-empty, receives the hex-encoded abs(data_offset)
	// derived from ConfigPath (spec §6, §8 "workload.init generation").
	// Left empty (as when ConfigPath is empty) this step is skipped.
	InitPath string
}

// Load stages w into icache/dcache: parses ConfigPath (if set) and writes
// InitPath (if both are set), then preloads icache from ExePath and
// dcache from DataPath. Returns the parsed Config (zero if ConfigPath was
// empty).
func Load(w Workload, icache, dcache *memory.SRAM) (Config, error) {
	var cfg Config
	if w.ConfigPath != "" {
		var err error
		cfg, err = ParseConfig(w.ConfigPath)
		if err != nil {
			return Config{}, err
		}
		if w.InitPath != "" {
			if err := cfg.WriteInit(w.InitPath); err != nil {
				return Config{}, err
			}
		}
	}

	if w.ExePath != "" {
		if err := icache.LoadHexFile(w.ExePath); err != nil {
			return Config{}, err
		}
	}
	if err := dcache.LoadHexFile(w.DataPath); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
