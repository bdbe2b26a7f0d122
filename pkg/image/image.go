// Package image reads and writes the binary program image formats: an
// input image carrying the initial register file plus memory fragments,
// and an output image carrying the final registers plus a RAM slice.
// Everything on the wire is little-endian.
package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vazgensoghoyan/riscv-cache-emulator/pkg/mem"
)

// ErrCorrupt reports a truncated or malformed input image.
var ErrCorrupt = errors.New("image: corrupt input")

// Fragment is one memory region of the input image.
type Fragment struct {
	Addr uint32
	Data []byte
}

// Input is a parsed program image. By convention Regs[0] is the initial
// PC, Regs[1] the halt-return address, Regs[2] the initial stack pointer.
type Input struct {
	Regs      [32]uint32
	Fragments []Fragment
}

// ReadInput parses an input image: 32 register words, then fragments of
// the form (addr, size, size bytes) until EOF. EOF exactly where the next
// fragment header would begin is a clean end; EOF inside a header or body
// is corruption.
func ReadInput(r io.Reader) (*Input, error) {
	in := &Input{}
	if err := binary.Read(r, binary.LittleEndian, &in.Regs); err != nil {
		return nil, fmt.Errorf("%w: cannot read register block: %v", ErrCorrupt, err)
	}

	var hdr [4]byte
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if err == io.EOF {
				return in, nil
			}
			return nil, fmt.Errorf("%w: truncated fragment header", ErrCorrupt)
		}
		addr := binary.LittleEndian.Uint32(hdr[:])

		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, fmt.Errorf("%w: fragment at 0x%X: size missing", ErrCorrupt, addr)
		}
		size := binary.LittleEndian.Uint32(hdr[:])

		data := make([]byte, size)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("%w: fragment at 0x%X: truncated body", ErrCorrupt, addr)
		}
		in.Fragments = append(in.Fragments, Fragment{Addr: addr, Data: data})
	}
}

// LoadFile opens and parses an input image file.
func LoadFile(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("image: cannot open input file: %w", err)
	}
	defer f.Close()
	return ReadInput(f)
}

// LoadInto copies every fragment into ram in file order, so later
// fragments overwrite overlapping bytes of earlier ones.
func (in *Input) LoadInto(ram *mem.RAM) error {
	for _, fr := range in.Fragments {
		if err := ram.LoadFragment(fr.Addr, fr.Data); err != nil {
			return fmt.Errorf("image: fragment at 0x%X: %w", fr.Addr, err)
		}
	}
	return nil
}

// WriteOutput writes the final register file followed by the requested
// RAM slice header and bytes.
func WriteOutput(w io.Writer, regs [32]uint32, ram *mem.RAM, startAddr, size uint32) error {
	if startAddr >= ram.Size() {
		return fmt.Errorf("image: start address 0x%X out of RAM bounds", startAddr)
	}
	if size == 0 || uint64(startAddr)+uint64(size) > uint64(ram.Size()) {
		return fmt.Errorf("image: dump of %d bytes at 0x%X out of RAM bounds", size, startAddr)
	}

	if err := binary.Write(w, binary.LittleEndian, regs); err != nil {
		return fmt.Errorf("image: write registers: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, startAddr); err != nil {
		return fmt.Errorf("image: write dump header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, size); err != nil {
		return fmt.Errorf("image: write dump header: %w", err)
	}
	data, err := ram.Dump(startAddr, size)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("image: write dump body: %w", err)
	}
	return nil
}
