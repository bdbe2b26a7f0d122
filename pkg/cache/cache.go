// Package cache models a single-level set-associative write-back,
// write-allocate cache over a flat RAM, with the replacement decision
// factored out behind the Policy interface.
package cache

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/vazgensoghoyan/riscv-cache-emulator/pkg/mem"
)

// ErrLineCross reports a multi-byte access whose span leaves its cache
// line. Naturally aligned 16/32-bit accesses never trigger it.
var ErrLineCross = errors.New("cache: access crosses a line boundary")

// AccessKind classifies an access for the statistics counters.
type AccessKind int

const (
	Instruction AccessKind = iota
	Data
)

type line struct {
	data  [LineSize]byte
	valid bool
	dirty bool
	tag   uint32
}

// Cache owns its line storage and borrows a RAM that must outlive it.
// Line fills and write-backs move whole lines byte-wise through the RAM;
// everything above operates on the line buffers.
type Cache struct {
	ram    *mem.RAM
	policy Policy
	lines  [SetCount][Ways]line
	stats  Stats
}

// New creates a cold cache over ram using the given replacement policy.
func New(ram *mem.RAM, policy Policy) *Cache {
	return &Cache{ram: ram, policy: policy}
}

// Policy returns the replacement policy the cache was built with.
func (c *Cache) Policy() Policy { return c.policy }

// Stats returns a snapshot of the access counters.
func (c *Cache) Stats() Stats { return c.stats }

func (c *Cache) countAccess(kind AccessKind) {
	if kind == Instruction {
		c.stats.InstrAccess++
	} else {
		c.stats.DataAccess++
	}
}

func (c *Cache) countHit(kind AccessKind) {
	if kind == Instruction {
		c.stats.InstrHit++
	} else {
		c.stats.DataHit++
	}
}

// fetchLine resolves addr to a resident line, filling one on a miss.
// countHits is false for writes: a write-hit still updates the policy
// metadata but does not advance the hit counters.
func (c *Cache) fetchLine(addr uint32, kind AccessKind, countHits bool) (*line, error) {
	set := indexOf(addr)
	tag := tagOf(addr)

	for way := uint32(0); way < Ways; way++ {
		ln := &c.lines[set][way]
		if ln.valid && ln.tag == tag {
			if countHits {
				c.countHit(kind)
			}
			c.policy.OnHit(set, way)
			return ln, nil
		}
	}

	// Miss: prefer an invalid way, else ask the policy for a victim.
	way := uint32(Ways)
	for w := uint32(0); w < Ways; w++ {
		if !c.lines[set][w].valid {
			way = w
			break
		}
	}
	if way == Ways {
		way = c.policy.ChooseVictim(set)
	}
	ln := &c.lines[set][way]

	if ln.valid && ln.dirty {
		if err := c.writeBack(ln, set); err != nil {
			return nil, err
		}
	}

	base := addr &^ (LineSize - 1)
	for i := uint32(0); i < LineSize; i++ {
		b, err := c.ram.Read8(base + i)
		if err != nil {
			return nil, fmt.Errorf("cache: line fill at 0x%X: %w", base, err)
		}
		ln.data[i] = b
	}
	ln.valid = true
	ln.dirty = false
	ln.tag = tag

	c.policy.OnFill(set, way)
	return ln, nil
}

func (c *Cache) writeBack(ln *line, set uint32) error {
	base := lineBase(ln.tag, set)
	for i := uint32(0); i < LineSize; i++ {
		if err := c.ram.Write8(base+i, ln.data[i]); err != nil {
			return fmt.Errorf("cache: write-back at 0x%X: %w", base, err)
		}
	}
	return nil
}

func checkSpan(addr, size uint32) error {
	if offsetOf(addr)+size > LineSize {
		return fmt.Errorf("%w: addr=0x%X size=%d", ErrLineCross, addr, size)
	}
	return nil
}

// Read8 reads one byte through the cache.
func (c *Cache) Read8(addr uint32, kind AccessKind) (uint8, error) {
	c.countAccess(kind)
	ln, err := c.fetchLine(addr, kind, true)
	if err != nil {
		return 0, err
	}
	return ln.data[offsetOf(addr)], nil
}

// Read16 reads a little-endian halfword. The access must stay within one
// line.
func (c *Cache) Read16(addr uint32, kind AccessKind) (uint16, error) {
	c.countAccess(kind)
	if err := checkSpan(addr, 2); err != nil {
		return 0, err
	}
	ln, err := c.fetchLine(addr, kind, true)
	if err != nil {
		return 0, err
	}
	off := offsetOf(addr)
	return binary.LittleEndian.Uint16(ln.data[off : off+2]), nil
}

// Read32 reads a little-endian word. The access must stay within one line.
func (c *Cache) Read32(addr uint32, kind AccessKind) (uint32, error) {
	c.countAccess(kind)
	if err := checkSpan(addr, 4); err != nil {
		return 0, err
	}
	ln, err := c.fetchLine(addr, kind, true)
	if err != nil {
		return 0, err
	}
	off := offsetOf(addr)
	return binary.LittleEndian.Uint32(ln.data[off : off+4]), nil
}

// Write8 stores one byte. The store allocates the line on a miss and
// patches it in place; RAM is updated only on eviction or Flush.
func (c *Cache) Write8(addr uint32, v uint8) error {
	c.countAccess(Data)
	ln, err := c.fetchLine(addr, Data, false)
	if err != nil {
		return err
	}
	ln.data[offsetOf(addr)] = v
	ln.dirty = true
	return nil
}

// Write16 stores a little-endian halfword within one line.
func (c *Cache) Write16(addr uint32, v uint16) error {
	c.countAccess(Data)
	if err := checkSpan(addr, 2); err != nil {
		return err
	}
	ln, err := c.fetchLine(addr, Data, false)
	if err != nil {
		return err
	}
	off := offsetOf(addr)
	binary.LittleEndian.PutUint16(ln.data[off:off+2], v)
	ln.dirty = true
	return nil
}

// Write32 stores a little-endian word within one line.
func (c *Cache) Write32(addr uint32, v uint32) error {
	c.countAccess(Data)
	if err := checkSpan(addr, 4); err != nil {
		return err
	}
	ln, err := c.fetchLine(addr, Data, false)
	if err != nil {
		return err
	}
	off := offsetOf(addr)
	binary.LittleEndian.PutUint32(ln.data[off:off+4], v)
	ln.dirty = true
	return nil
}

// Flush writes every dirty line back to RAM and clears its dirty bit.
// Idempotent; lines stay resident.
func (c *Cache) Flush() error {
	for set := uint32(0); set < SetCount; set++ {
		for way := uint32(0); way < Ways; way++ {
			ln := &c.lines[set][way]
			if !ln.valid || !ln.dirty {
				continue
			}
			if err := c.writeBack(ln, set); err != nil {
				return err
			}
			ln.dirty = false
		}
	}
	return nil
}
