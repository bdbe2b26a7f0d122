package mem

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by RAM accesses. Callers match with errors.Is.
var (
	ErrOutOfBounds = errors.New("mem: access out of bounds")
	ErrUndefined   = errors.New("mem: read of undefined memory")
)

// RAM is a flat byte-addressable memory with per-byte definedness tracking.
// A byte is defined once it has been written or loaded from a program image;
// reading a byte that was never defined is an error, which catches programs
// that consume garbage memory.
type RAM struct {
	data    []byte
	defined []bool
}

// New creates a zeroed RAM of the given size with every byte undefined.
func New(size uint32) *RAM {
	return &RAM{
		data:    make([]byte, size),
		defined: make([]bool, size),
	}
}

// Size returns the total memory size in bytes.
func (r *RAM) Size() uint32 {
	return uint32(len(r.data))
}

func (r *RAM) checkBounds(addr, n uint32) error {
	if uint64(addr)+uint64(n) > uint64(len(r.data)) {
		return fmt.Errorf("%w: addr=0x%X len=%d", ErrOutOfBounds, addr, n)
	}
	return nil
}

func (r *RAM) checkDefined(addr, n uint32) error {
	for i := uint32(0); i < n; i++ {
		if !r.defined[addr+i] {
			return fmt.Errorf("%w: addr=0x%X", ErrUndefined, addr+i)
		}
	}
	return nil
}

// Read8 returns the byte at addr. The byte must have been written or
// loaded before.
func (r *RAM) Read8(addr uint32) (uint8, error) {
	if err := r.checkBounds(addr, 1); err != nil {
		return 0, err
	}
	if err := r.checkDefined(addr, 1); err != nil {
		return 0, err
	}
	return r.data[addr], nil
}

// Write8 stores one byte at addr and marks it defined.
func (r *RAM) Write8(addr uint32, v uint8) error {
	if err := r.checkBounds(addr, 1); err != nil {
		return err
	}
	r.data[addr] = v
	r.defined[addr] = true
	return nil
}

// LoadFragment copies a program image fragment into memory at addr,
// marking every copied byte defined.
func (r *RAM) LoadFragment(addr uint32, b []byte) error {
	if err := r.checkBounds(addr, uint32(len(b))); err != nil {
		return err
	}
	copy(r.data[addr:], b)
	for i := range b {
		r.defined[addr+uint32(i)] = true
	}
	return nil
}

// Dump returns a copy of size bytes starting at addr. Definedness is not
// required; never-touched bytes dump as zero.
func (r *RAM) Dump(addr, size uint32) ([]byte, error) {
	if err := r.checkBounds(addr, size); err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, r.data[addr:addr+size])
	return out, nil
}
