package cpu

import (
	"github.com/pkg/errors"

	"go6502/internal/opcode"
)

// Fatal conditions. Each stops the fetch-decode-execute loop at the
// instruction boundary where it occurred; test with errors.Cause.
var (
	// ErrIllegalOpcode is returned when the fetched byte has no entry in
	// the opcode table.
	ErrIllegalOpcode = errors.New("illegal opcode")

	// ErrAddressingModeMismatch is returned when an instruction is paired
	// with a mode its semantics cannot use. A correct table never
	// produces it at run time; New rejects such tables up front.
	ErrAddressingModeMismatch = opcode.ErrAddressingModeMismatch

	// ErrMemoryFault is returned when an access falls outside the
	// address space a bounded memory backs.
	ErrMemoryFault = errors.New("memory fault")

	// ErrHalted is reported by Step after the CPU stopped on an explicit
	// halt (BRK with halt-on-break enabled).
	ErrHalted = errors.New("cpu halted")

	// ErrUnknownMnemonic is returned by New when the table names an
	// instruction the dispatcher cannot execute.
	ErrUnknownMnemonic = errors.New("unknown mnemonic")
)

// IsFault reports whether err stopped the CPU because something went
// wrong, as opposed to a clean halt.
func IsFault(err error) bool {
	return err != nil && errors.Cause(err) != ErrHalted
}
