// Package sim wires RAM, cache, and processor into per-policy pipelines
// and runs the same program image under every replacement policy.
package sim

import (
	"fmt"
	"io"
	"sync"

	"github.com/vazgensoghoyan/riscv-cache-emulator/pkg/cache"
	"github.com/vazgensoghoyan/riscv-cache-emulator/pkg/cpu"
	"github.com/vazgensoghoyan/riscv-cache-emulator/pkg/image"
	"github.com/vazgensoghoyan/riscv-cache-emulator/pkg/isa"
	"github.com/vazgensoghoyan/riscv-cache-emulator/pkg/mem"
)

// PolicyKind selects a cache replacement policy for a pipeline.
type PolicyKind int

const (
	LRU PolicyKind = iota
	TreeLRU
)

// Kinds lists every policy a full run covers, in report order.
var Kinds = []PolicyKind{LRU, TreeLRU}

func (k PolicyKind) String() string {
	switch k {
	case LRU:
		return "LRU"
	case TreeLRU:
		return "bpLRU"
	}
	return fmt.Sprintf("PolicyKind(%d)", int(k))
}

func (k PolicyKind) newPolicy() cache.Policy {
	if k == TreeLRU {
		return cache.NewTreeLRU()
	}
	return cache.NewLRU()
}

// Result is the outcome of one pipeline: final architectural state, cache
// statistics, and the RAM the run committed its stores to.
type Result struct {
	Policy   PolicyKind
	Regs     [32]uint32
	Stats    cache.Stats
	Executed uint64
	RAM      *mem.RAM
}

// Options adjusts how pipelines run.
type Options struct {
	// Trace receives a disassembled line per executed instruction. When
	// set, pipelines run sequentially so the trace stays ordered.
	Trace io.Writer
}

// Run executes the image under one policy over completely fresh state.
func Run(kind PolicyKind, in *image.Input, opts Options) (*Result, error) {
	ram := mem.New(cache.MemorySize)
	if err := in.LoadInto(ram); err != nil {
		return nil, err
	}

	c := cache.New(ram, kind.newPolicy())
	p := cpu.New(c, in.Regs)
	if opts.Trace != nil {
		w := opts.Trace
		p.Trace = func(pc uint32, in isa.Inst) {
			fmt.Fprintf(w, "[%s] %08X: %s\n", kind, pc, isa.Disassemble(in))
		}
	}

	if err := p.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	return &Result{
		Policy:   kind,
		Regs:     p.Registers(),
		Stats:    c.Stats(),
		Executed: p.Executed(),
		RAM:      ram,
	}, nil
}

// RunAll executes the image once per policy. The pipelines share nothing,
// so without a trace writer they run concurrently; results come back in
// Kinds order either way.
func RunAll(in *image.Input, opts Options) ([]*Result, error) {
	results := make([]*Result, len(Kinds))
	errs := make([]error, len(Kinds))

	if opts.Trace != nil {
		for i, k := range Kinds {
			results[i], errs[i] = Run(k, in, opts)
		}
	} else {
		var wg sync.WaitGroup
		for i, k := range Kinds {
			wg.Add(1)
			go func(i int, k PolicyKind) {
				defer wg.Done()
				results[i], errs[i] = Run(k, in, opts)
			}(i, k)
		}
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
