// Package trace discovers and parses the per-processor instruction
// trace files: one file per processor, each line a decimal opcode and
// a hexadecimal value.
package trace

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/coherence"
)

// Op is the instruction kind a trace line encodes.
type Op int

const (
	OpRead  Op = 0
	OpWrite Op = 1
	OpOther Op = 2
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "PrRead"
	case OpWrite:
		return "PrWrite"
	case OpOther:
		return "Other"
	default:
		return "?"
	}
}

// Instruction is one parsed trace line. For OpRead/OpWrite, Value holds
// the word address; for OpOther, Value holds the compute cycle count.
type Instruction struct {
	Op    Op
	Value uint64
}

// Event reports the coherence event this instruction issues, and
// whether it is a memory op at all (false for OpOther).
func (i Instruction) Event() (coherence.Event, bool) {
	switch i.Op {
	case OpRead:
		return coherence.PrRead, true
	case OpWrite:
		return coherence.PrWrite, true
	default:
		return 0, false
	}
}

// Discover finds trace files matching pattern (a glob, e.g.
// "traces/app_*.data") and returns their paths sorted lexicographically —
// the pid assignment order, pid 0 first.
func Discover(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid trace pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no trace files match pattern %q", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

// LoadAll parses every file in paths, in order, into one instruction
// stream per processor.
func LoadAll(paths []string) ([][]Instruction, error) {
	streams := make([][]Instruction, len(paths))
	for i, p := range paths {
		s, err := Load(p)
		if err != nil {
			return nil, fmt.Errorf("trace file %q (pid %d): %w", p, i, err)
		}
		streams[i] = s
	}
	return streams, nil
}

// Load parses a single trace file. Each non-blank line holds two
// whitespace-separated tokens: a decimal opcode in {0,1,2} and a
// hexadecimal value. Malformed lines are reported with their line
// number so a bad trace is easy to locate.
func Load(path string) ([]Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var stream []Instruction
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 fields, got %d", lineNo, len(fields))
		}

		opVal, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid opcode %q: %w", lineNo, fields[0], err)
		}
		if opVal < 0 || opVal > 2 {
			return nil, fmt.Errorf("line %d: opcode %d out of range [0,2]", lineNo, opVal)
		}

		value, err := strconv.ParseUint(fields[1], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid hex value %q: %w", lineNo, fields[1], err)
		}

		stream = append(stream, Instruction{Op: Op(opVal), Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading trace file: %w", err)
	}
	return stream, nil
}
