package cpu

import (
	"fmt"
	"math"

	"github.com/vazgensoghoyan/riscv-cache-emulator/pkg/isa"
)

// execute dispatches one decoded instruction to its handler. Handlers set
// the final PC themselves: sequential instructions advance by 4, branches
// and jumps write the target directly.
func (p *Processor) execute(in isa.Inst) error {
	switch in.Opcode {
	case isa.OpReg:
		p.execRType(in)
	case isa.OpImm:
		p.execImmArith(in)
	case isa.OpLoad:
		return p.execLoad(in)
	case isa.OpStore:
		return p.execStore(in)
	case isa.OpBranch:
		p.execBranch(in)
	case isa.OpLui:
		p.writeReg(in.Rd, uint32(in.Imm))
		p.pc += 4
	case isa.OpAuipc:
		p.writeReg(in.Rd, p.pc+uint32(in.Imm))
		p.pc += 4
	case isa.OpJal:
		p.writeReg(in.Rd, p.pc+4)
		p.pc += uint32(in.Imm)
	case isa.OpJalr:
		t := p.pc + 4
		p.pc = (p.x[in.Rs1] + uint32(in.Imm)) &^ 1
		p.writeReg(in.Rd, t)
	case isa.OpSystem:
		p.execSystem(in)
	}
	return nil
}

func (p *Processor) execRType(in isa.Inst) {
	a := p.x[in.Rs1]
	b := p.x[in.Rs2]

	var v uint32
	ok := true
	switch in.Funct3 {
	case 0x0:
		switch in.Funct7 {
		case isa.Funct7Base:
			v = a + b
		case isa.Funct7Alt:
			v = a - b
		case isa.Funct7MExt:
			v = uint32(uint64(a) * uint64(b)) // MUL: low 32 bits
		default:
			ok = false
		}
	case 0x1:
		if in.Funct7 == isa.Funct7MExt { // MULH
			v = uint32(uint64(int64(int32(a))*int64(int32(b))) >> 32)
		} else {
			v = a << (b & 0x1F)
		}
	case 0x2:
		v = boolTo32(int32(a) < int32(b))
	case 0x3:
		v = boolTo32(a < b)
	case 0x4:
		if in.Funct7 == isa.Funct7MExt {
			v = div(a, b)
		} else {
			v = a ^ b
		}
	case 0x5:
		switch in.Funct7 {
		case isa.Funct7Base:
			v = a >> (b & 0x1F)
		case isa.Funct7Alt:
			v = uint32(int32(a) >> (b & 0x1F))
		case isa.Funct7MExt:
			v = divu(a, b)
		default:
			ok = false
		}
	case 0x6:
		if in.Funct7 == isa.Funct7MExt {
			v = rem(a, b)
		} else {
			v = a | b
		}
	case 0x7:
		if in.Funct7 == isa.Funct7MExt {
			v = remu(a, b)
		} else {
			v = a & b
		}
	}
	if ok {
		p.writeReg(in.Rd, v)
	}
	p.pc += 4
}

// div implements RV32M DIV: division by zero yields -1, and the one
// overflowing case INT_MIN / -1 yields INT_MIN.
func div(a, b uint32) uint32 {
	sa, sb := int32(a), int32(b)
	switch {
	case sb == 0:
		return 0xFFFF_FFFF
	case sa == math.MinInt32 && sb == -1:
		return a
	default:
		return uint32(sa / sb)
	}
}

func divu(a, b uint32) uint32 {
	if b == 0 {
		return 0xFFFF_FFFF
	}
	return a / b
}

// rem follows the DIV sentinel table: zero divisor yields the dividend,
// the overflow case yields zero.
func rem(a, b uint32) uint32 {
	sa, sb := int32(a), int32(b)
	switch {
	case sb == 0:
		return a
	case sa == math.MinInt32 && sb == -1:
		return 0
	default:
		return uint32(sa % sb)
	}
}

func remu(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return a % b
}

func (p *Processor) execImmArith(in isa.Inst) {
	a := p.x[in.Rs1]
	imm := uint32(in.Imm)

	var v uint32
	switch in.Funct3 {
	case 0x0:
		v = a + imm
	case 0x1:
		v = a << (imm & 0x1F)
	case 0x2:
		v = boolTo32(int32(a) < in.Imm)
	case 0x3:
		v = boolTo32(a < imm)
	case 0x4:
		v = a ^ imm
	case 0x5:
		if in.Funct7&isa.Funct7Alt != 0 {
			v = uint32(int32(a) >> (imm & 0x1F))
		} else {
			v = a >> (imm & 0x1F)
		}
	case 0x6:
		v = a | imm
	case 0x7:
		v = a & imm
	}
	p.writeReg(in.Rd, v)
	p.pc += 4
}

func (p *Processor) execLoad(in isa.Inst) error {
	addr := p.x[in.Rs1] + uint32(in.Imm)

	var size uint32
	var signed bool
	switch in.Funct3 {
	case 0x0:
		size, signed = 1, true
	case 0x1:
		size, signed = 2, true
	case 0x2:
		size, signed = 4, false
	case 0x4:
		size, signed = 1, false
	case 0x5:
		size, signed = 2, false
	default:
		return fmt.Errorf("%w: load funct3=%d", ErrInvalidMemSize, in.Funct3)
	}

	v, err := p.readMem(addr, size, signed)
	if err != nil {
		return err
	}
	p.writeReg(in.Rd, v)
	p.pc += 4
	return nil
}

func (p *Processor) execStore(in isa.Inst) error {
	addr := p.x[in.Rs1] + uint32(in.Imm)

	var size uint32
	switch in.Funct3 {
	case 0x0:
		size = 1
	case 0x1:
		size = 2
	case 0x2:
		size = 4
	default:
		return fmt.Errorf("%w: store funct3=%d", ErrInvalidMemSize, in.Funct3)
	}

	if err := p.writeMem(addr, p.x[in.Rs2], size); err != nil {
		return err
	}
	p.pc += 4
	return nil
}

func (p *Processor) execBranch(in isa.Inst) {
	a := p.x[in.Rs1]
	b := p.x[in.Rs2]

	take := false
	switch in.Funct3 {
	case 0x0:
		take = a == b
	case 0x1:
		take = a != b
	case 0x4:
		take = int32(a) < int32(b)
	case 0x5:
		take = int32(a) >= int32(b)
	case 0x6:
		take = a < b
	case 0x7:
		take = a >= b
	}
	if take {
		p.pc += uint32(in.Imm)
	} else {
		p.pc += 4
	}
}

// execSystem halts on ECALL/EBREAK; every other SYSTEM encoding is a
// no-op that advances the PC.
func (p *Processor) execSystem(in isa.Inst) {
	if in.Funct3 == 0 && (in.Funct12 == 0 || in.Funct12 == 1) {
		p.halted = true
		return
	}
	p.pc += 4
}

func boolTo32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
