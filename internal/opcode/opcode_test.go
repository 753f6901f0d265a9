package opcode

import (
	"testing"

	"github.com/pkg/errors"
)

func TestDocumentedTableSize(t *testing.T) {
	table := Documented()
	if table.Len() != 151 {
		t.Errorf("Expected 151 documented opcodes, got %d", table.Len())
	}

	full := Undocumented()
	if full.Len() != 231 {
		t.Errorf("Expected 231 opcodes with undocumented set, got %d", full.Len())
	}
}

func TestLookup(t *testing.T) {
	table := Documented()

	tests := []struct {
		Name     string
		Code     uint8
		Present  bool
		Mnemonic Mnemonic
		Length   uint8
		Cycles   uint8
		Mode     Mode
	}{
		{"LDA_Immediate", 0xA9, true, LDA, 2, 2, Immediate},
		{"LDA_IndirectY", 0xB1, true, LDA, 2, 5, IndirectY},
		{"STA_AbsoluteX", 0x9D, true, STA, 3, 5, AbsoluteX},
		{"JMP_Indirect", 0x6C, true, JMP, 3, 5, Indirect},
		{"BRK", 0x00, true, BRK, 1, 7, Implicit},
		{"ASL_Accumulator", 0x0A, true, ASL, 1, 2, Accumulator},
		{"Unassigned_02", 0x02, false, "", 0, 0, 0},
		{"Undocumented_LAX_Absent", 0xA7, false, "", 0, 0, 0},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			op, ok := table.Lookup(test.Code)
			if ok != test.Present {
				t.Fatalf("Lookup($%02X) present=%v, want %v", test.Code, ok, test.Present)
			}
			if !ok {
				return
			}
			if op.Code != test.Code || op.Mnemonic != test.Mnemonic || op.Length != test.Length ||
				op.Cycles != test.Cycles || op.Mode != test.Mode {
				t.Errorf("Lookup($%02X) = %+v", test.Code, op)
			}
		})
	}
}

func TestLookupDistinguishesAbsence(t *testing.T) {
	table, err := NewTable(Opcode{0x00, BRK, 1, 0, Implicit})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	if _, ok := table.Lookup(0x00); !ok {
		t.Error("Zero-cost opcode $00 should be present")
	}
	if _, ok := table.Lookup(0x01); ok {
		t.Error("Opcode $01 should be absent")
	}
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	_, err := NewTable(
		Opcode{0xA9, LDA, 2, 2, Immediate},
		Opcode{0xA9, LDX, 2, 2, Immediate},
	)
	if errors.Cause(err) != ErrDuplicateOpcode {
		t.Errorf("Expected ErrDuplicateOpcode, got %v", err)
	}
}

func TestNewTableRejectsLengthModeMismatch(t *testing.T) {
	tests := []Opcode{
		{0xA9, LDA, 3, 2, Immediate},
		{0xAD, LDA, 2, 4, Absolute},
		{0xEA, NOP, 2, 2, Implicit},
		{0x6C, JMP, 3, 5, Mode(99)},
	}

	for _, op := range tests {
		if _, err := NewTable(op); errors.Cause(err) != ErrAddressingModeMismatch {
			t.Errorf("NewTable(%v) error = %v, want ErrAddressingModeMismatch", op, err)
		}
	}
}

func TestNewTableRejectsEmptyMnemonic(t *testing.T) {
	if _, err := NewTable(Opcode{Code: 0x01, Length: 1}); err == nil {
		t.Error("Expected error for empty mnemonic")
	}
}

func TestTablesAreIndependent(t *testing.T) {
	a := Documented()
	b := Documented()
	if a == b {
		t.Error("Documented() should return a fresh table each call")
	}
}

func TestCodesAscending(t *testing.T) {
	codes := Undocumented().Codes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("Codes not ascending at %d: $%02X >= $%02X", i, codes[i-1], codes[i])
		}
	}

	entries := Undocumented().Entries()
	if len(entries) != len(codes) {
		t.Fatalf("Entries() len %d != Codes() len %d", len(entries), len(codes))
	}
	for i, e := range entries {
		if e.Code != codes[i] {
			t.Errorf("Entries()[%d].Code = $%02X, want $%02X", i, e.Code, codes[i])
		}
	}
}

func TestModeOperandBytes(t *testing.T) {
	tests := map[Mode]int{
		Implicit:    0,
		Accumulator: 0,
		Immediate:   1,
		ZeroPage:    1,
		ZeroPageX:   1,
		ZeroPageY:   1,
		Relative:    1,
		Absolute:    2,
		AbsoluteX:   2,
		AbsoluteY:   2,
		Indirect:    2,
		IndirectX:   1,
		IndirectY:   1,
	}

	for mode, want := range tests {
		if got := mode.OperandBytes(); got != want {
			t.Errorf("%s.OperandBytes() = %d, want %d", mode, got, want)
		}
	}
}

func TestModeString(t *testing.T) {
	if IndirectY.String() != "IndirectY" {
		t.Errorf("IndirectY.String() = %q", IndirectY.String())
	}
	if Mode(200).String() != "Mode(200)" {
		t.Errorf("Mode(200).String() = %q", Mode(200).String())
	}
}
