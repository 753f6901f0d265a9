package cpu

import "go6502/internal/opcode"

// penalty is the rule for cycles charged on top of an opcode's base cost.
type penalty uint8

const (
	penaltyNone      penalty = iota
	penaltyPageCross         // +1 when an indexed read crosses a page
	penaltyBranch            // +1 taken, +1 more across a page
)

// penalties lists every instruction whose cost varies. Stores and
// read-modify-write instructions always take the fixed cost because the
// hardware performs the extra cycle unconditionally; it is already in
// the table's base count.
var penalties = map[opcode.Mnemonic]penalty{
	opcode.ADC: penaltyPageCross,
	opcode.AND: penaltyPageCross,
	opcode.CMP: penaltyPageCross,
	opcode.EOR: penaltyPageCross,
	opcode.LDA: penaltyPageCross,
	opcode.LDX: penaltyPageCross,
	opcode.LDY: penaltyPageCross,
	opcode.ORA: penaltyPageCross,
	opcode.SBC: penaltyPageCross,
	opcode.LAX: penaltyPageCross,
	opcode.NOP: penaltyPageCross,

	opcode.BCC: penaltyBranch,
	opcode.BCS: penaltyBranch,
	opcode.BEQ: penaltyBranch,
	opcode.BNE: penaltyBranch,
	opcode.BMI: penaltyBranch,
	opcode.BPL: penaltyBranch,
	opcode.BVC: penaltyBranch,
	opcode.BVS: penaltyBranch,
}

// cycles returns the extra cycles the executed step incurred.
func (p penalty) cycles(mode opcode.Mode, s *step) uint64 {
	switch p {
	case penaltyPageCross:
		if mode.Indexed() && s.operand.pageCrossed {
			return 1
		}
	case penaltyBranch:
		return s.branchCycles
	}
	return 0
}
