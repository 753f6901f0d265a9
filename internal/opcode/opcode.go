// Package opcode holds the static 6502 opcode metadata consumed by the CPU:
// mnemonic, instruction length, base cycle cost and addressing mode per
// opcode byte.
package opcode

import (
	"fmt"

	"github.com/pkg/errors"
)

// Mode is an operand addressing mode.
type Mode uint8

const (
	Implicit    Mode = iota
	Accumulator      // operand is A, no memory access
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative // signed branch offset
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect  // JMP ($nnnn) only
	IndirectX // (zp,X)
	IndirectY // (zp),Y
)

var modeNames = [...]string{
	Implicit:    "Implicit",
	Accumulator: "Accumulator",
	Immediate:   "Immediate",
	ZeroPage:    "ZeroPage",
	ZeroPageX:   "ZeroPageX",
	ZeroPageY:   "ZeroPageY",
	Relative:    "Relative",
	Absolute:    "Absolute",
	AbsoluteX:   "AbsoluteX",
	AbsoluteY:   "AbsoluteY",
	Indirect:    "Indirect",
	IndirectX:   "IndirectX",
	IndirectY:   "IndirectY",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return int(m) < len(modeNames)
}

// OperandBytes returns how many bytes follow the opcode for this mode.
func (m Mode) OperandBytes() int {
	switch m {
	case Implicit, Accumulator:
		return 0
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 2
	default:
		return 1
	}
}

// Indexed reports whether the mode adds an index register to a 16-bit
// base, which is where a page crossing can occur.
func (m Mode) Indexed() bool {
	return m == AbsoluteX || m == AbsoluteY || m == IndirectY
}

// Mnemonic is the assembler name of an instruction.
type Mnemonic string

// Documented instructions
// https://www.nesdev.org/obelisk-6502-guide/reference.html
const (
	ADC Mnemonic = "ADC" // Add with Carry
	AND Mnemonic = "AND" // Logical AND
	ASL Mnemonic = "ASL" // Arithmetic Shift Left
	BCC Mnemonic = "BCC" // Branch if Carry Clear
	BCS Mnemonic = "BCS" // Branch if Carry Set
	BEQ Mnemonic = "BEQ" // Branch if Equal
	BIT Mnemonic = "BIT" // Bit Test
	BMI Mnemonic = "BMI" // Branch if Minus
	BNE Mnemonic = "BNE" // Branch if Not Equal
	BPL Mnemonic = "BPL" // Branch if Positive
	BRK Mnemonic = "BRK" // Force Interrupt
	BVC Mnemonic = "BVC" // Branch if Overflow Clear
	BVS Mnemonic = "BVS" // Branch if Overflow Set
	CLC Mnemonic = "CLC" // Clear Carry Flag
	CLD Mnemonic = "CLD" // Clear Decimal Mode
	CLI Mnemonic = "CLI" // Clear Interrupt Disable
	CLV Mnemonic = "CLV" // Clear Overflow Flag
	CMP Mnemonic = "CMP" // Compare
	CPX Mnemonic = "CPX" // Compare X Register
	CPY Mnemonic = "CPY" // Compare Y Register
	DEC Mnemonic = "DEC" // Decrement Memory
	DEX Mnemonic = "DEX" // Decrement X Register
	DEY Mnemonic = "DEY" // Decrement Y Register
	EOR Mnemonic = "EOR" // Exclusive OR
	INC Mnemonic = "INC" // Increment Memory
	INX Mnemonic = "INX" // Increment X Register
	INY Mnemonic = "INY" // Increment Y Register
	JMP Mnemonic = "JMP" // Jump
	JSR Mnemonic = "JSR" // Jump to Subroutine
	LDA Mnemonic = "LDA" // Load Accumulator
	LDX Mnemonic = "LDX" // Load X Register
	LDY Mnemonic = "LDY" // Load Y Register
	LSR Mnemonic = "LSR" // Logical Shift Right
	NOP Mnemonic = "NOP" // No Operation
	ORA Mnemonic = "ORA" // Logical Inclusive OR
	PHA Mnemonic = "PHA" // Push Accumulator
	PHP Mnemonic = "PHP" // Push Processor Status
	PLA Mnemonic = "PLA" // Pull Accumulator
	PLP Mnemonic = "PLP" // Pull Processor Status
	ROL Mnemonic = "ROL" // Rotate Left
	ROR Mnemonic = "ROR" // Rotate Right
	RTI Mnemonic = "RTI" // Return from Interrupt
	RTS Mnemonic = "RTS" // Return from Subroutine
	SBC Mnemonic = "SBC" // Subtract with Carry
	SEC Mnemonic = "SEC" // Set Carry Flag
	SED Mnemonic = "SED" // Set Decimal Flag
	SEI Mnemonic = "SEI" // Set Interrupt Disable
	STA Mnemonic = "STA" // Store Accumulator
	STX Mnemonic = "STX" // Store X Register
	STY Mnemonic = "STY" // Store Y Register
	TAX Mnemonic = "TAX" // Transfer Accumulator to X
	TAY Mnemonic = "TAY" // Transfer Accumulator to Y
	TSX Mnemonic = "TSX" // Transfer Stack Pointer to X
	TXA Mnemonic = "TXA" // Transfer X to Accumulator
	TXS Mnemonic = "TXS" // Transfer X to Stack Pointer
	TYA Mnemonic = "TYA" // Transfer Y to Accumulator
)

// Undocumented but stable NMOS instructions
// https://www.nesdev.org/6502_cpu.txt
const (
	LAX Mnemonic = "LAX" // LDA + LDX
	SAX Mnemonic = "SAX" // store A & X
	DCP Mnemonic = "DCP" // DEC + CMP
	ISB Mnemonic = "ISB" // INC + SBC
	SLO Mnemonic = "SLO" // ASL + ORA
	RLA Mnemonic = "RLA" // ROL + AND
	SRE Mnemonic = "SRE" // LSR + EOR
	RRA Mnemonic = "RRA" // ROR + ADC
)

// Opcode describes one opcode byte.
type Opcode struct {
	Code     uint8
	Mnemonic Mnemonic
	Length   uint8 // total bytes including the opcode
	Cycles   uint8 // base cost, before penalties
	Mode     Mode
}

func (o Opcode) String() string {
	return fmt.Sprintf("{$%02X %s %s}", o.Code, o.Mnemonic, o.Mode)
}

var (
	// ErrAddressingModeMismatch marks an opcode whose mode cannot be
	// used with its length or instruction semantics.
	ErrAddressingModeMismatch = errors.New("addressing mode mismatch")

	// ErrDuplicateOpcode is returned when a table defines a code twice.
	ErrDuplicateOpcode = errors.New("duplicate opcode")
)

// Table is an immutable opcode lookup. The zero value is an empty table.
type Table struct {
	entries [256]Opcode
	present [256]bool
	count   int
}

// NewTable builds a table from entries. Codes must be unique and every
// entry's length must match its mode.
func NewTable(entries ...Opcode) (*Table, error) {
	t := &Table{}
	for _, e := range entries {
		if t.present[e.Code] {
			return nil, errors.Wrapf(ErrDuplicateOpcode, "$%02X", e.Code)
		}
		if err := check(e); err != nil {
			return nil, err
		}
		t.entries[e.Code] = e
		t.present[e.Code] = true
		t.count++
	}
	return t, nil
}

func check(e Opcode) error {
	if e.Mnemonic == "" {
		return errors.Errorf("opcode $%02X: empty mnemonic", e.Code)
	}
	if !e.Mode.Valid() {
		return errors.Wrapf(ErrAddressingModeMismatch, "opcode $%02X: unknown mode %d", e.Code, e.Mode)
	}
	if int(e.Length) != 1+e.Mode.OperandBytes() {
		return errors.Wrapf(ErrAddressingModeMismatch, "opcode %s: length %d", e, e.Length)
	}
	return nil
}

// Lookup returns the metadata for code. The boolean is false when the
// code is not assigned.
func (t *Table) Lookup(code uint8) (Opcode, bool) {
	return t.entries[code], t.present[code]
}

// Len returns the number of assigned opcodes.
func (t *Table) Len() int {
	return t.count
}

// Codes returns the assigned opcode bytes in ascending order.
func (t *Table) Codes() []uint8 {
	codes := make([]uint8, 0, t.count)
	for i := range t.present {
		if t.present[i] {
			codes = append(codes, uint8(i))
		}
	}
	return codes
}

// Entries returns the assigned opcodes ordered by code.
func (t *Table) Entries() []Opcode {
	out := make([]Opcode, 0, t.count)
	for _, c := range t.Codes() {
		out = append(out, t.entries[c])
	}
	return out
}
