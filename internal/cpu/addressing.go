package cpu

import (
	"github.com/pkg/errors"

	"go6502/internal/memory"
	"go6502/internal/opcode"
)

const pageMask = 0xFF00

// operand is the result of addressing-mode resolution.
type operand struct {
	address     uint16
	pageCrossed bool
	present     bool // false for Implicit and Accumulator
}

// resolve computes the effective address for mode. pc points at the byte
// after the opcode. Resolution reads memory but never changes registers,
// so resolving twice over the same state gives the same answer.
func (cpu *CPU) resolve(mode opcode.Mode, pc uint16) (operand, error) {
	bus := cpu.bus

	switch mode {
	case opcode.Implicit, opcode.Accumulator:
		return operand{}, nil

	case opcode.Immediate, opcode.Relative:
		// The operand is the byte itself; branches decode the offset.
		return operand{address: pc, present: true}, nil

	case opcode.ZeroPage:
		return operand{address: uint16(bus.Read(pc)), present: true}, nil

	case opcode.ZeroPageX:
		base := bus.Read(pc)
		return operand{address: uint16(base + cpu.reg.X), present: true}, nil

	case opcode.ZeroPageY:
		base := bus.Read(pc)
		return operand{address: uint16(base + cpu.reg.Y), present: true}, nil

	case opcode.Absolute:
		return operand{address: memory.ReadWord(bus, pc), present: true}, nil

	case opcode.AbsoluteX:
		return indexed(memory.ReadWord(bus, pc), cpu.reg.X), nil

	case opcode.AbsoluteY:
		return indexed(memory.ReadWord(bus, pc), cpu.reg.Y), nil

	case opcode.Indirect:
		// JMP ($xxFF) fetches the high byte from $xx00, not the next page.
		ptr := memory.ReadWord(bus, pc)
		return operand{address: memory.ReadWordPageWrapped(bus, ptr), present: true}, nil

	case opcode.IndirectX:
		ptr := bus.Read(pc) + cpu.reg.X
		return operand{address: memory.ReadZeroPageWord(bus, ptr), present: true}, nil

	case opcode.IndirectY:
		base := memory.ReadZeroPageWord(bus, bus.Read(pc))
		return indexed(base, cpu.reg.Y), nil
	}

	return operand{}, errors.Wrapf(ErrAddressingModeMismatch, "unknown mode %s", mode)
}

// indexed adds an index register to a 16-bit base, noting whether the
// high byte changed.
func indexed(base uint16, index uint8) operand {
	address := base + uint16(index)
	return operand{
		address:     address,
		pageCrossed: !samePage(base, address),
		present:     true,
	}
}

func samePage(a, b uint16) bool {
	return a&pageMask == b&pageMask
}
