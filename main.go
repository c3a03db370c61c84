// Package main provides a short banner pointing at the real CLIs.
// tomasim is a cycle-accurate RV32I out-of-order (Tomasulo) CPU
// simulator.
//
// For the full CLI, use: go run ./cmd/tomasim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rv32tomasulo - RV32I out-of-order (Tomasulo) CPU simulator")
	fmt.Println("")
	fmt.Println("Usage: tomasim [options] <case-path-prefix>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -idle-threshold   cycles without a commit before giving up")
	fmt.Println("  -depth-log        log2 of icache/dcache word depth")
	fmt.Println("  -trace            print one line per commit and flush")
	fmt.Println("  -cache-stats      attach L1/L2 hit-miss instrumentation")
	fmt.Println("  -v                verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tomasim' for the full CLI, or")
	fmt.Println("'go run ./cmd/spec-check' to run the acceptance scenarios.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tomasim' instead.")
	}
}
