package isa

import "fmt"

// Disassemble renders a decoded instruction as assembly text. Words that
// decode to no known operation render as a .word directive so traces stay
// readable.
func Disassemble(in Inst) string {
	switch in.Opcode {
	case OpReg:
		if name := rTypeName(in.Funct3, in.Funct7); name != "" {
			return fmt.Sprintf("%s x%d, x%d, x%d", name, in.Rd, in.Rs1, in.Rs2)
		}
	case OpImm:
		return disasmImmArith(in)
	case OpLoad:
		if name := loadName(in.Funct3); name != "" {
			return fmt.Sprintf("%s x%d, %d(x%d)", name, in.Rd, in.Imm, in.Rs1)
		}
	case OpStore:
		if name := storeName(in.Funct3); name != "" {
			return fmt.Sprintf("%s x%d, %d(x%d)", name, in.Rs2, in.Imm, in.Rs1)
		}
	case OpBranch:
		if name := branchName(in.Funct3); name != "" {
			return fmt.Sprintf("%s x%d, x%d, %d", name, in.Rs1, in.Rs2, in.Imm)
		}
	case OpLui:
		return fmt.Sprintf("lui x%d, 0x%X", in.Rd, uint32(in.Imm)>>12)
	case OpAuipc:
		return fmt.Sprintf("auipc x%d, 0x%X", in.Rd, uint32(in.Imm)>>12)
	case OpJal:
		return fmt.Sprintf("jal x%d, %d", in.Rd, in.Imm)
	case OpJalr:
		return fmt.Sprintf("jalr x%d, %d(x%d)", in.Rd, in.Imm, in.Rs1)
	case OpSystem:
		if in.Funct3 == 0 {
			switch in.Funct12 {
			case 0:
				return "ecall"
			case 1:
				return "ebreak"
			}
		}
	}
	return fmt.Sprintf(".word 0x%08X", in.Raw)
}

func disasmImmArith(in Inst) string {
	switch in.Funct3 {
	case 0x0:
		return fmt.Sprintf("addi x%d, x%d, %d", in.Rd, in.Rs1, in.Imm)
	case 0x1:
		return fmt.Sprintf("slli x%d, x%d, %d", in.Rd, in.Rs1, in.Imm&0x1F)
	case 0x2:
		return fmt.Sprintf("slti x%d, x%d, %d", in.Rd, in.Rs1, in.Imm)
	case 0x3:
		return fmt.Sprintf("sltiu x%d, x%d, %d", in.Rd, in.Rs1, in.Imm)
	case 0x4:
		return fmt.Sprintf("xori x%d, x%d, %d", in.Rd, in.Rs1, in.Imm)
	case 0x5:
		if in.Funct7&Funct7Alt != 0 {
			return fmt.Sprintf("srai x%d, x%d, %d", in.Rd, in.Rs1, in.Imm&0x1F)
		}
		return fmt.Sprintf("srli x%d, x%d, %d", in.Rd, in.Rs1, in.Imm&0x1F)
	case 0x6:
		return fmt.Sprintf("ori x%d, x%d, %d", in.Rd, in.Rs1, in.Imm)
	case 0x7:
		return fmt.Sprintf("andi x%d, x%d, %d", in.Rd, in.Rs1, in.Imm)
	}
	return fmt.Sprintf(".word 0x%08X", in.Raw)
}

func rTypeName(funct3, funct7 uint8) string {
	if funct7 == Funct7MExt {
		switch funct3 {
		case 0x0:
			return "mul"
		case 0x1:
			return "mulh"
		case 0x4:
			return "div"
		case 0x5:
			return "divu"
		case 0x6:
			return "rem"
		case 0x7:
			return "remu"
		}
		return ""
	}
	switch funct3 {
	case 0x0:
		if funct7 == Funct7Alt {
			return "sub"
		}
		return "add"
	case 0x1:
		return "sll"
	case 0x2:
		return "slt"
	case 0x3:
		return "sltu"
	case 0x4:
		return "xor"
	case 0x5:
		if funct7 == Funct7Alt {
			return "sra"
		}
		return "srl"
	case 0x6:
		return "or"
	case 0x7:
		return "and"
	}
	return ""
}

func loadName(funct3 uint8) string {
	switch funct3 {
	case 0x0:
		return "lb"
	case 0x1:
		return "lh"
	case 0x2:
		return "lw"
	case 0x4:
		return "lbu"
	case 0x5:
		return "lhu"
	}
	return ""
}

func storeName(funct3 uint8) string {
	switch funct3 {
	case 0x0:
		return "sb"
	case 0x1:
		return "sh"
	case 0x2:
		return "sw"
	}
	return ""
}

func branchName(funct3 uint8) string {
	switch funct3 {
	case 0x0:
		return "beq"
	case 0x1:
		return "bne"
	case 0x4:
		return "blt"
	case 0x5:
		return "bge"
	case 0x6:
		return "bltu"
	case 0x7:
		return "bgeu"
	}
	return ""
}
