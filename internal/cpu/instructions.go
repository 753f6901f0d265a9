package cpu

import (
	"github.com/pkg/errors"

	"go6502/internal/memory"
	"go6502/internal/opcode"
)

// step carries one instruction through execution.
type step struct {
	op      opcode.Opcode
	operand operand
	pc      uint16 // address of the opcode byte
	next    uint16 // address of the following instruction

	jumped       bool   // handler set PC itself
	halt         bool   // stop after this instruction
	branchCycles uint64 // extra cycles charged by a taken branch
}

// modeSet is a bitset of addressing modes an instruction accepts.
type modeSet uint16

func modes(ms ...opcode.Mode) modeSet {
	var set modeSet
	for _, m := range ms {
		set |= 1 << m
	}
	return set
}

func (m modeSet) has(mode opcode.Mode) bool {
	return mode < 16 && m&(1<<mode) != 0
}

var (
	memoryModes = modes(opcode.ZeroPage, opcode.ZeroPageX, opcode.ZeroPageY,
		opcode.Absolute, opcode.AbsoluteX, opcode.AbsoluteY,
		opcode.IndirectX, opcode.IndirectY)
	readModes    = memoryModes | modes(opcode.Immediate)
	shiftModes   = memoryModes | modes(opcode.Accumulator)
	impliedModes = modes(opcode.Implicit)
	branchModes  = modes(opcode.Relative)
	jumpModes    = modes(opcode.Absolute, opcode.Indirect)
	nopModes     = readModes | modes(opcode.Implicit)
)

type instruction struct {
	exec  func(*CPU, *step)
	modes modeSet
}

var instructions = map[opcode.Mnemonic]instruction{
	// Load/store
	opcode.LDA: {(*CPU).lda, readModes},
	opcode.LDX: {(*CPU).ldx, readModes},
	opcode.LDY: {(*CPU).ldy, readModes},
	opcode.STA: {(*CPU).sta, memoryModes},
	opcode.STX: {(*CPU).stx, memoryModes},
	opcode.STY: {(*CPU).sty, memoryModes},

	// Arithmetic and logic
	opcode.ADC: {(*CPU).adc, readModes},
	opcode.SBC: {(*CPU).sbc, readModes},
	opcode.AND: {(*CPU).and, readModes},
	opcode.ORA: {(*CPU).ora, readModes},
	opcode.EOR: {(*CPU).eor, readModes},
	opcode.BIT: {(*CPU).bit, readModes},
	opcode.CMP: {(*CPU).cmp, readModes},
	opcode.CPX: {(*CPU).cpx, readModes},
	opcode.CPY: {(*CPU).cpy, readModes},

	// Read-modify-write
	opcode.ASL: {(*CPU).asl, shiftModes},
	opcode.LSR: {(*CPU).lsr, shiftModes},
	opcode.ROL: {(*CPU).rol, shiftModes},
	opcode.ROR: {(*CPU).ror, shiftModes},
	opcode.INC: {(*CPU).inc, memoryModes},
	opcode.DEC: {(*CPU).dec, memoryModes},

	// Registers
	opcode.INX: {(*CPU).inx, impliedModes},
	opcode.INY: {(*CPU).iny, impliedModes},
	opcode.DEX: {(*CPU).dex, impliedModes},
	opcode.DEY: {(*CPU).dey, impliedModes},
	opcode.TAX: {(*CPU).tax, impliedModes},
	opcode.TAY: {(*CPU).tay, impliedModes},
	opcode.TXA: {(*CPU).txa, impliedModes},
	opcode.TYA: {(*CPU).tya, impliedModes},
	opcode.TSX: {(*CPU).tsx, impliedModes},
	opcode.TXS: {(*CPU).txs, impliedModes},

	// Stack
	opcode.PHA: {(*CPU).pha, impliedModes},
	opcode.PHP: {(*CPU).php, impliedModes},
	opcode.PLA: {(*CPU).pla, impliedModes},
	opcode.PLP: {(*CPU).plp, impliedModes},

	// Flags
	opcode.CLC: {(*CPU).clc, impliedModes},
	opcode.SEC: {(*CPU).sec, impliedModes},
	opcode.CLI: {(*CPU).cli, impliedModes},
	opcode.SEI: {(*CPU).sei, impliedModes},
	opcode.CLD: {(*CPU).cld, impliedModes},
	opcode.SED: {(*CPU).sed, impliedModes},
	opcode.CLV: {(*CPU).clv, impliedModes},

	// Control flow
	opcode.JMP: {(*CPU).jmp, jumpModes},
	opcode.JSR: {(*CPU).jsr, modes(opcode.Absolute)},
	opcode.RTS: {(*CPU).rts, impliedModes},
	opcode.RTI: {(*CPU).rti, impliedModes},
	opcode.BRK: {(*CPU).brk, impliedModes},
	opcode.BCC: {(*CPU).bcc, branchModes},
	opcode.BCS: {(*CPU).bcs, branchModes},
	opcode.BEQ: {(*CPU).beq, branchModes},
	opcode.BNE: {(*CPU).bne, branchModes},
	opcode.BMI: {(*CPU).bmi, branchModes},
	opcode.BPL: {(*CPU).bpl, branchModes},
	opcode.BVC: {(*CPU).bvc, branchModes},
	opcode.BVS: {(*CPU).bvs, branchModes},
	opcode.NOP: {(*CPU).nop, nopModes},

	// Undocumented
	opcode.LAX: {(*CPU).lax, memoryModes},
	opcode.SAX: {(*CPU).sax, memoryModes},
	opcode.DCP: {(*CPU).dcp, memoryModes},
	opcode.ISB: {(*CPU).isb, memoryModes},
	opcode.SLO: {(*CPU).slo, memoryModes},
	opcode.RLA: {(*CPU).rla, memoryModes},
	opcode.SRE: {(*CPU).sre, memoryModes},
	opcode.RRA: {(*CPU).rra, memoryModes},
}

func mismatch(op opcode.Opcode) error {
	return errors.Wrapf(ErrAddressingModeMismatch, "%s does not accept %s (opcode $%02X)",
		op.Mnemonic, op.Mode, op.Code)
}

// value reads the instruction's operand. Accumulator mode operates on A.
func (cpu *CPU) value(s *step) uint8 {
	if s.op.Mode == opcode.Accumulator {
		return cpu.reg.A
	}
	return cpu.bus.Read(s.operand.address)
}

// store writes a result back to wherever value read it from.
func (cpu *CPU) store(s *step, v uint8) {
	if s.op.Mode == opcode.Accumulator {
		cpu.reg.A = v
		return
	}
	cpu.bus.Write(s.operand.address, v)
}

func (cpu *CPU) decimalActive() bool {
	return cpu.decimal && cpu.reg.P.Has(Decimal)
}

// Stack helpers. The stack lives in page $01 and grows down.

func (cpu *CPU) push(v uint8) {
	cpu.bus.Write(stackBase|uint16(cpu.reg.SP), v)
	cpu.reg.SP--
}

func (cpu *CPU) pull() uint8 {
	cpu.reg.SP++
	return cpu.bus.Read(stackBase | uint16(cpu.reg.SP))
}

func (cpu *CPU) pushWord(v uint16) {
	cpu.push(uint8(v >> 8))
	cpu.push(uint8(v))
}

func (cpu *CPU) pullWord() uint16 {
	lo := uint16(cpu.pull())
	hi := uint16(cpu.pull())
	return hi<<8 | lo
}

// pullStatus restores P from the stack. Break and Unused exist only in
// the pushed copy.
func (cpu *CPU) pullStatus() {
	cpu.reg.P = Status(cpu.pull()) &^ (Break | Unused)
}

func (cpu *CPU) jumpTo(s *step, address uint16) {
	cpu.reg.PC = address
	s.jumped = true
}

// Load/store

func (cpu *CPU) lda(s *step) {
	cpu.reg.A = cpu.value(s)
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.A)
}

func (cpu *CPU) ldx(s *step) {
	cpu.reg.X = cpu.value(s)
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.X)
}

func (cpu *CPU) ldy(s *step) {
	cpu.reg.Y = cpu.value(s)
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.Y)
}

func (cpu *CPU) sta(s *step) { cpu.store(s, cpu.reg.A) }
func (cpu *CPU) stx(s *step) { cpu.store(s, cpu.reg.X) }
func (cpu *CPU) sty(s *step) { cpu.store(s, cpu.reg.Y) }

// Arithmetic and logic

func (cpu *CPU) adc(s *step) {
	cpu.reg.A, cpu.reg.P = addWithCarry(cpu.reg.P, cpu.reg.A, cpu.value(s), cpu.decimalActive())
}

func (cpu *CPU) sbc(s *step) {
	cpu.reg.A, cpu.reg.P = subtractWithBorrow(cpu.reg.P, cpu.reg.A, cpu.value(s), cpu.decimalActive())
}

func (cpu *CPU) and(s *step) {
	cpu.reg.A &= cpu.value(s)
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.A)
}

func (cpu *CPU) ora(s *step) {
	cpu.reg.A |= cpu.value(s)
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.A)
}

func (cpu *CPU) eor(s *step) {
	cpu.reg.A ^= cpu.value(s)
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.A)
}

func (cpu *CPU) bit(s *step) {
	cpu.reg.P = bitTest(cpu.reg.P, cpu.reg.A, cpu.value(s))
}

func (cpu *CPU) cmp(s *step) { cpu.reg.P = compare(cpu.reg.P, cpu.reg.A, cpu.value(s)) }
func (cpu *CPU) cpx(s *step) { cpu.reg.P = compare(cpu.reg.P, cpu.reg.X, cpu.value(s)) }
func (cpu *CPU) cpy(s *step) { cpu.reg.P = compare(cpu.reg.P, cpu.reg.Y, cpu.value(s)) }

// Read-modify-write

func (cpu *CPU) asl(s *step) {
	var v uint8
	v, cpu.reg.P = shiftLeft(cpu.reg.P, cpu.value(s))
	cpu.store(s, v)
}

func (cpu *CPU) lsr(s *step) {
	var v uint8
	v, cpu.reg.P = shiftRight(cpu.reg.P, cpu.value(s))
	cpu.store(s, v)
}

func (cpu *CPU) rol(s *step) {
	var v uint8
	v, cpu.reg.P = rotateLeft(cpu.reg.P, cpu.value(s))
	cpu.store(s, v)
}

func (cpu *CPU) ror(s *step) {
	var v uint8
	v, cpu.reg.P = rotateRight(cpu.reg.P, cpu.value(s))
	cpu.store(s, v)
}

func (cpu *CPU) inc(s *step) {
	v := cpu.value(s) + 1
	cpu.store(s, v)
	cpu.reg.P = setZN(cpu.reg.P, v)
}

func (cpu *CPU) dec(s *step) {
	v := cpu.value(s) - 1
	cpu.store(s, v)
	cpu.reg.P = setZN(cpu.reg.P, v)
}

// Registers

func (cpu *CPU) inx(*step) {
	cpu.reg.X++
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.X)
}

func (cpu *CPU) iny(*step) {
	cpu.reg.Y++
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.Y)
}

func (cpu *CPU) dex(*step) {
	cpu.reg.X--
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.X)
}

func (cpu *CPU) dey(*step) {
	cpu.reg.Y--
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.Y)
}

func (cpu *CPU) tax(*step) {
	cpu.reg.X = cpu.reg.A
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.X)
}

func (cpu *CPU) tay(*step) {
	cpu.reg.Y = cpu.reg.A
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.Y)
}

func (cpu *CPU) txa(*step) {
	cpu.reg.A = cpu.reg.X
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.A)
}

func (cpu *CPU) tya(*step) {
	cpu.reg.A = cpu.reg.Y
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.A)
}

func (cpu *CPU) tsx(*step) {
	cpu.reg.X = cpu.reg.SP
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.X)
}

// TXS is the only transfer that leaves flags alone.
func (cpu *CPU) txs(*step) {
	cpu.reg.SP = cpu.reg.X
}

// Stack

func (cpu *CPU) pha(*step) { cpu.push(cpu.reg.A) }

func (cpu *CPU) php(*step) {
	cpu.push(uint8(cpu.reg.P | Break | Unused))
}

func (cpu *CPU) pla(*step) {
	cpu.reg.A = cpu.pull()
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.A)
}

func (cpu *CPU) plp(*step) { cpu.pullStatus() }

// Flags

func (cpu *CPU) clc(*step) { cpu.reg.P = cpu.reg.P.With(Carry, false) }
func (cpu *CPU) sec(*step) { cpu.reg.P = cpu.reg.P.With(Carry, true) }
func (cpu *CPU) cli(*step) { cpu.reg.P = cpu.reg.P.With(InterruptDisable, false) }
func (cpu *CPU) sei(*step) { cpu.reg.P = cpu.reg.P.With(InterruptDisable, true) }
func (cpu *CPU) cld(*step) { cpu.reg.P = cpu.reg.P.With(Decimal, false) }
func (cpu *CPU) sed(*step) { cpu.reg.P = cpu.reg.P.With(Decimal, true) }
func (cpu *CPU) clv(*step) { cpu.reg.P = cpu.reg.P.With(Overflow, false) }

// Control flow

func (cpu *CPU) jmp(s *step) { cpu.jumpTo(s, s.operand.address) }

// JSR pushes the address of its own last byte; RTS adds one back.
func (cpu *CPU) jsr(s *step) {
	cpu.pushWord(s.next - 1)
	cpu.jumpTo(s, s.operand.address)
}

func (cpu *CPU) rts(s *step) {
	cpu.jumpTo(s, cpu.pullWord()+1)
}

func (cpu *CPU) rti(s *step) {
	cpu.pullStatus()
	cpu.jumpTo(s, cpu.pullWord())
}

// BRK either stops the CPU or behaves as a software IRQ. The pushed
// return address skips the padding byte after the opcode.
func (cpu *CPU) brk(s *step) {
	if cpu.haltOnBreak {
		s.halt = true
		return
	}
	cpu.pushWord(s.pc + 2)
	cpu.push(uint8(cpu.reg.P | Break | Unused))
	cpu.reg.P = cpu.reg.P.With(InterruptDisable, true)
	cpu.jumpTo(s, memory.ReadWord(cpu.bus, irqVector))
}

// branch moves PC by the signed offset when taken. Taken branches cost
// one cycle, plus one more when the target is on another page than the
// next instruction.
func (cpu *CPU) branch(s *step, taken bool) {
	offset := int8(cpu.bus.Read(s.operand.address))
	if !taken {
		return
	}
	target := s.next + uint16(offset)
	s.branchCycles = 1
	if !samePage(s.next, target) {
		s.branchCycles++
	}
	cpu.jumpTo(s, target)
}

func (cpu *CPU) bcc(s *step) { cpu.branch(s, !cpu.reg.P.Has(Carry)) }
func (cpu *CPU) bcs(s *step) { cpu.branch(s, cpu.reg.P.Has(Carry)) }
func (cpu *CPU) beq(s *step) { cpu.branch(s, cpu.reg.P.Has(Zero)) }
func (cpu *CPU) bne(s *step) { cpu.branch(s, !cpu.reg.P.Has(Zero)) }
func (cpu *CPU) bmi(s *step) { cpu.branch(s, cpu.reg.P.Has(Negative)) }
func (cpu *CPU) bpl(s *step) { cpu.branch(s, !cpu.reg.P.Has(Negative)) }
func (cpu *CPU) bvc(s *step) { cpu.branch(s, !cpu.reg.P.Has(Overflow)) }
func (cpu *CPU) bvs(s *step) { cpu.branch(s, cpu.reg.P.Has(Overflow)) }

// NOP still performs its operand read, so unmapped operands fault.
func (cpu *CPU) nop(s *step) {
	if s.operand.present {
		cpu.bus.Read(s.operand.address)
	}
}

// Undocumented combinations

func (cpu *CPU) lax(s *step) {
	cpu.reg.A = cpu.value(s)
	cpu.reg.X = cpu.reg.A
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.A)
}

func (cpu *CPU) sax(s *step) { cpu.store(s, cpu.reg.A&cpu.reg.X) }

func (cpu *CPU) dcp(s *step) {
	v := cpu.value(s) - 1
	cpu.store(s, v)
	cpu.reg.P = compare(cpu.reg.P, cpu.reg.A, v)
}

func (cpu *CPU) isb(s *step) {
	v := cpu.value(s) + 1
	cpu.store(s, v)
	cpu.reg.A, cpu.reg.P = subtractWithBorrow(cpu.reg.P, cpu.reg.A, v, cpu.decimalActive())
}

func (cpu *CPU) slo(s *step) {
	var v uint8
	v, cpu.reg.P = shiftLeft(cpu.reg.P, cpu.value(s))
	cpu.store(s, v)
	cpu.reg.A |= v
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.A)
}

func (cpu *CPU) rla(s *step) {
	var v uint8
	v, cpu.reg.P = rotateLeft(cpu.reg.P, cpu.value(s))
	cpu.store(s, v)
	cpu.reg.A &= v
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.A)
}

func (cpu *CPU) sre(s *step) {
	var v uint8
	v, cpu.reg.P = shiftRight(cpu.reg.P, cpu.value(s))
	cpu.store(s, v)
	cpu.reg.A ^= v
	cpu.reg.P = setZN(cpu.reg.P, cpu.reg.A)
}

func (cpu *CPU) rra(s *step) {
	var v uint8
	v, cpu.reg.P = rotateRight(cpu.reg.P, cpu.value(s))
	cpu.store(s, v)
	cpu.reg.A, cpu.reg.P = addWithCarry(cpu.reg.P, cpu.reg.A, v, cpu.decimalActive())
}
