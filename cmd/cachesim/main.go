// Package main provides the entry point for cachesim.
// cachesim is a cycle-accurate shared-bus multiprocessor cache
// coherence simulator supporting the MESI and Dragon protocols.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/timing/scheduler"
	"github.com/sarchlab/cachesim/trace"
)

var (
	protocolName = flag.String("protocol", "mesi", "Coherence protocol: mesi or dragon")
	tracePattern = flag.String("trace", "", "Glob pattern matching one trace file per processor")
	configPath   = flag.String("config", "", "Path to a JSON config file (explicitly given flags override its values)")
	wordSize     = flag.Int("word-size", 0, "WORD_SIZE in bytes (0 = config default)")
	addressSize  = flag.Int("address-size", 0, "ADDRESS_SIZE in bytes (0 = config default)")
	memLat       = flag.Int("mem-lat", 0, "MEM_LAT in cycles (0 = config default)")
	cacheHitLat  = flag.Int("cache-hit-lat", 0, "CACHE_HIT_LAT in cycles (0 = config default)")
	busWordTfLat = flag.Int("bus-word-tf-lat", 0, "BUS_WORD_TF_LAT in cycles (0 = config default)")
	blockSize    = flag.Int("block-size", 0, "BLOCK_SIZE in bytes (0 = config default)")
	cacheSize    = flag.Int("cache-size", 0, "CACHE_SIZE in bytes (0 = config default)")
	assoc        = flag.Int("assoc", 0, "Set associativity (0 = config default)")
	verbose      = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	cfg, err := buildConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building config: %v\n", err)
		os.Exit(1)
	}

	if *tracePattern == "" {
		fmt.Fprintln(os.Stderr, "Usage: cachesim -trace <glob-pattern> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	paths, err := trace.Discover(*tracePattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering trace files: %v\n", err)
		os.Exit(1)
	}

	streams, err := trace.LoadAll(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading traces: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Protocol: %s\n", cfg.ProtocolName)
		for i, p := range paths {
			fmt.Printf("Core %d <- %s (%d instructions)\n", i, p, len(streams[i]))
		}
	}

	sched := scheduler.New(cfg, streams)
	report, err := sched.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Simulation halted: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(report.String())
}

// buildConfig resolves a Config from -config (if given) overlaid with
// any non-zero geometry flags and an explicitly given -protocol, then
// the library defaults.
func buildConfig() (*config.Config, error) {
	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadJSON(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	protocolGiven := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "protocol" {
			protocolGiven = true
		}
	})
	if *configPath == "" || protocolGiven {
		cfg.ProtocolName = *protocolName
	}
	if *wordSize != 0 {
		cfg.WordSize = *wordSize
	}
	if *addressSize != 0 {
		cfg.AddressSize = *addressSize
	}
	if *memLat != 0 {
		cfg.MemLat = *memLat
	}
	if *cacheHitLat != 0 {
		cfg.CacheHitLat = *cacheHitLat
	}
	if *busWordTfLat != 0 {
		cfg.BusWordTfLat = *busWordTfLat
	}
	if *blockSize != 0 {
		cfg.BlockSize = *blockSize
	}
	if *cacheSize != 0 {
		cfg.CacheSize = *cacheSize
	}
	if *assoc != 0 {
		cfg.Assoc = *assoc
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
