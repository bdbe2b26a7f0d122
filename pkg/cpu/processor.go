// Package cpu implements the RV32IM interpreter: a 32-entry register
// file, a program counter, and the fetch/decode/execute loop driving all
// memory traffic through a cache.
package cpu

import (
	"errors"
	"fmt"

	"github.com/vazgensoghoyan/riscv-cache-emulator/pkg/cache"
	"github.com/vazgensoghoyan/riscv-cache-emulator/pkg/isa"
)

// Failure kinds that abort a run. Memory errors propagate from the cache
// and RAM layers unchanged.
var (
	ErrInvalidOpcode   = errors.New("cpu: invalid opcode")
	ErrInvalidMemSize  = errors.New("cpu: invalid memory access size")
	ErrInvalidRegister = errors.New("cpu: invalid register index")
)

// Processor executes instructions against a cache until the program
// counter reaches the halt-return address or an ECALL/EBREAK retires.
// x[0] reads as zero no matter what is written to it.
type Processor struct {
	cache    *cache.Cache
	pc       uint32
	x        [32]uint32
	haltRA   uint32
	halted   bool
	executed uint64

	// Trace, when non-nil, observes every instruction after decode and
	// before execution.
	Trace func(pc uint32, in isa.Inst)
}

// New creates a processor over c with the initial register file regs.
// By convention regs[0] is the initial PC and regs[1] the halt-return
// address.
func New(c *cache.Cache, regs [32]uint32) *Processor {
	p := &Processor{
		cache:  c,
		x:      regs,
		pc:     regs[0],
		haltRA: regs[1],
	}
	p.x[0] = 0
	return p
}

// Run drives the fetch/decode/execute loop. The halt check happens before
// each fetch, so a program entered at the halt address executes nothing.
// On termination the cache is flushed so RAM holds all committed stores.
func (p *Processor) Run() error {
	for !p.halted && p.pc != p.haltRA {
		raw, err := p.cache.Read32(p.pc, cache.Instruction)
		if err != nil {
			return err
		}
		in := isa.Decode(raw)
		if !isa.Valid(in.Opcode) {
			return fmt.Errorf("%w: 0x%02X at pc=0x%08X", ErrInvalidOpcode, in.Opcode, p.pc)
		}
		if p.Trace != nil {
			p.Trace(p.pc, in)
		}
		if err := p.execute(in); err != nil {
			return err
		}
		p.executed++
	}
	return p.cache.Flush()
}

// PC returns the current program counter.
func (p *Processor) PC() uint32 { return p.pc }

// Halted reports whether the run ended via ECALL/EBREAK.
func (p *Processor) Halted() bool { return p.halted }

// Executed returns how many instructions have retired.
func (p *Processor) Executed() uint64 { return p.executed }

// Registers returns a copy of the register file.
func (p *Processor) Registers() [32]uint32 { return p.x }

// Reg returns register i, rejecting out-of-range indices.
func (p *Processor) Reg(i int) (uint32, error) {
	if i < 0 || i >= len(p.x) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRegister, i)
	}
	return p.x[i], nil
}

// writeReg is the single register write path; it re-zeroes x0 so the
// hardwired register survives any write, including one targeting it.
func (p *Processor) writeReg(rd uint8, v uint32) {
	p.x[rd] = v
	p.x[0] = 0
}

// readMem loads size bytes from the cache as data traffic, sign- or
// zero-extending to 32 bits.
func (p *Processor) readMem(addr, size uint32, signed bool) (uint32, error) {
	switch size {
	case 1:
		v, err := p.cache.Read8(addr, cache.Data)
		if err != nil {
			return 0, err
		}
		if signed {
			return uint32(int32(int8(v))), nil
		}
		return uint32(v), nil
	case 2:
		v, err := p.cache.Read16(addr, cache.Data)
		if err != nil {
			return 0, err
		}
		if signed {
			return uint32(int32(int16(v))), nil
		}
		return uint32(v), nil
	case 4:
		return p.cache.Read32(addr, cache.Data)
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidMemSize, size)
}

// writeMem stores the low size bytes of value through the cache.
func (p *Processor) writeMem(addr, value, size uint32) error {
	switch size {
	case 1:
		return p.cache.Write8(addr, uint8(value))
	case 2:
		return p.cache.Write16(addr, uint16(value))
	case 4:
		return p.cache.Write32(addr, value)
	}
	return fmt.Errorf("%w: %d", ErrInvalidMemSize, size)
}
