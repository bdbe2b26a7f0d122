package cache

import (
	"errors"
	"testing"

	"github.com/vazgensoghoyan/riscv-cache-emulator/pkg/mem"
)

// newTestCache returns a cold LRU cache over a RAM whose first `defined`
// bytes are zeroed and defined, so line fills inside that arena succeed.
func newTestCache(t *testing.T, defined uint32) (*Cache, *mem.RAM) {
	t.Helper()
	ram := mem.New(MemorySize)
	if defined > 0 {
		if err := ram.LoadFragment(0, make([]byte, defined)); err != nil {
			t.Fatalf("LoadFragment: %v", err)
		}
	}
	return New(ram, NewLRU()), ram
}

// setAddr builds an address that maps to the given set with the given tag.
func setAddr(tag, set, offset uint32) uint32 {
	return tag<<(OffsetLen+IndexLen) | set<<OffsetLen | offset
}

func TestWriteFlushReadBack(t *testing.T) {
	c, ram := newTestCache(t, 4096)
	const addr = 0x40

	if err := c.Write32(addr, 0xCAFEBABE); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	// RAM sees the bytes little-endian after the flush.
	want := []byte{0xBE, 0xBA, 0xFE, 0xCA}
	for i, wb := range want {
		b, err := ram.Read8(addr + uint32(i))
		if err != nil {
			t.Fatalf("ram.Read8: %v", err)
		}
		if b != wb {
			t.Errorf("ram[%#X] = %#02X, want %#02X", addr+uint32(i), b, wb)
		}
	}

	v, err := c.Read32(addr, Data)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if v != 0xCAFEBABE {
		t.Errorf("Read32 = %#08X, want 0xCAFEBABE", v)
	}

	// One write (miss, no hit counted) and one read (hit).
	s := c.Stats()
	if s.DataAccess != 2 || s.DataHit != 1 {
		t.Errorf("stats = %+v, want DataAccess=2 DataHit=1", s)
	}
}

func TestWriteHitsNotCounted(t *testing.T) {
	c, _ := newTestCache(t, 4096)

	// Second write hits the line filled by the first, but only accesses
	// are counted for writes.
	if err := c.Write8(0x10, 1); err != nil {
		t.Fatalf("Write8: %v", err)
	}
	if err := c.Write8(0x11, 2); err != nil {
		t.Fatalf("Write8: %v", err)
	}
	s := c.Stats()
	if s.DataAccess != 2 {
		t.Errorf("DataAccess = %d, want 2", s.DataAccess)
	}
	if s.DataHit != 0 {
		t.Errorf("DataHit = %d, want 0", s.DataHit)
	}
}

func TestKindSelectsCounters(t *testing.T) {
	c, _ := newTestCache(t, 4096)

	if _, err := c.Read32(0x00, Instruction); err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if _, err := c.Read32(0x00, Instruction); err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if _, err := c.Read8(0x00, Data); err != nil {
		t.Fatalf("Read8: %v", err)
	}

	s := c.Stats()
	if s.InstrAccess != 2 || s.InstrHit != 1 {
		t.Errorf("instr counters = %d/%d, want 2/1", s.InstrAccess, s.InstrHit)
	}
	if s.DataAccess != 1 || s.DataHit != 1 {
		t.Errorf("data counters = %d/%d, want 1/1", s.DataAccess, s.DataHit)
	}
}

func TestWriteBackOnEviction(t *testing.T) {
	// Arena must cover tag values 0..Ways for one set.
	c, ram := newTestCache(t, (Ways+1)*SetCount*LineSize+LineSize)
	const set = 3

	// Dirty the line with tag 0, then touch Ways more tags of the same
	// set to force its eviction.
	dirtyAddr := setAddr(0, set, 4)
	if err := c.Write8(dirtyAddr, 0x5A); err != nil {
		t.Fatalf("Write8: %v", err)
	}
	for tag := uint32(1); tag <= Ways; tag++ {
		if _, err := c.Read8(setAddr(tag, set, 0), Data); err != nil {
			t.Fatalf("Read8 tag %d: %v", tag, err)
		}
	}

	// No flush happened; the write-back on eviction must have committed
	// the dirty byte.
	b, err := ram.Read8(dirtyAddr)
	if err != nil {
		t.Fatalf("ram.Read8: %v", err)
	}
	if b != 0x5A {
		t.Errorf("ram[%#X] = %#02X, want 0x5A after eviction", dirtyAddr, b)
	}
}

func TestLineCross(t *testing.T) {
	c, _ := newTestCache(t, 4096)

	// Offset 29 + 4 bytes leaves the 32-byte line.
	if _, err := c.Read32(29, Data); !errors.Is(err, ErrLineCross) {
		t.Errorf("Read32 across line: err = %v, want ErrLineCross", err)
	}
	if err := c.Write16(31, 0); !errors.Is(err, ErrLineCross) {
		t.Errorf("Write16 across line: err = %v, want ErrLineCross", err)
	}

	// Unaligned but line-contained accesses are fine.
	if _, err := c.Read32(25, Data); err != nil {
		t.Errorf("unaligned in-line Read32: %v", err)
	}
}

func TestTightLoopHitRate(t *testing.T) {
	c, _ := newTestCache(t, (Ways+1)*SetCount*LineSize)
	const set = 0

	// Ways distinct lines in one set: Ways cold misses, then every
	// access hits.
	const rounds = 50
	for i := 0; i < rounds; i++ {
		for tag := uint32(0); tag < Ways; tag++ {
			if _, err := c.Read32(setAddr(tag, set, 0), Data); err != nil {
				t.Fatalf("Read32: %v", err)
			}
		}
	}

	s := c.Stats()
	wantAccess := uint64(rounds * Ways)
	wantHit := wantAccess - Ways
	if s.DataAccess != wantAccess || s.DataHit != wantHit {
		t.Errorf("stats = %d/%d, want %d/%d", s.DataHit, s.DataAccess, wantHit, wantAccess)
	}
}

func TestFlushIdempotent(t *testing.T) {
	c, ram := newTestCache(t, 4096)

	if err := c.Write32(0x80, 0x11223344); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	before, err := ram.Dump(0, 4096)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}

	if err := c.Flush(); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	after, err := ram.Dump(0, 4096)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("RAM changed by idempotent flush at %d", i)
		}
	}
}

func TestFillOfUndefinedMemory(t *testing.T) {
	c, _ := newTestCache(t, LineSize) // only the first line is defined

	if _, err := c.Read8(LineSize, Data); !errors.Is(err, mem.ErrUndefined) {
		t.Errorf("fill from undefined RAM: err = %v, want mem.ErrUndefined", err)
	}
}

func TestHitNeverExceedsAccess(t *testing.T) {
	c, _ := newTestCache(t, 16*1024)

	addrs := []uint32{0, 4, 64, 100, 0x400, 0x800, 0x400, 4, 0}
	for _, a := range addrs {
		if _, err := c.Read32(a&^3, Data); err != nil {
			t.Fatalf("Read32: %v", err)
		}
		if err := c.Write8(a, uint8(a)); err != nil {
			t.Fatalf("Write8: %v", err)
		}
	}
	s := c.Stats()
	if s.DataHit > s.DataAccess {
		t.Errorf("DataHit %d > DataAccess %d", s.DataHit, s.DataAccess)
	}
	if s.InstrHit > s.InstrAccess {
		t.Errorf("InstrHit %d > InstrAccess %d", s.InstrHit, s.InstrAccess)
	}
}
