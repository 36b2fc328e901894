// Package main provides a pointer to cachesim's real entry point.
// cachesim is a cycle-accurate shared-bus multiprocessor cache
// coherence simulator supporting the MESI and Dragon protocols.
//
// For the full CLI, use: go run ./cmd/cachesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("cachesim - shared-bus multiprocessor cache coherence simulator")
	fmt.Println("")
	fmt.Println("Usage: cachesim -trace <glob-pattern> [options]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -protocol  Coherence protocol: mesi or dragon")
	fmt.Println("  -trace     Glob pattern matching one trace file per processor")
	fmt.Println("  -config    Path to a JSON config file")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cachesim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cachesim' instead.")
	}
}
