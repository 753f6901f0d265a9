// Package cpu implements a cycle-counting 6502 interpreter: operand
// resolution, the status flag engine and the fetch-decode-execute loop.
package cpu

import (
	"log/slog"

	"github.com/pkg/errors"

	"go6502/internal/logging"
	"go6502/internal/memory"
	"go6502/internal/opcode"
)

// Phase is the dispatcher's position in the instruction cycle.
type Phase uint8

const (
	Fetching Phase = iota
	Decoding
	Resolving
	Executing
	Advancing
	Halted
)

func (p Phase) String() string {
	switch p {
	case Fetching:
		return "fetching"
	case Decoding:
		return "decoding"
	case Resolving:
		return "resolving"
	case Executing:
		return "executing"
	case Advancing:
		return "advancing"
	case Halted:
		return "halted"
	}
	return "unknown"
}

const (
	stackBase = 0x0100

	// Interrupt vectors
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE

	defaultStackTop    = 0xFD
	defaultResetCycles = 7
	interruptCycles    = 7
)

// Registers is a snapshot of the register file.
type Registers struct {
	A  uint8  // Accumulator
	X  uint8  // X index
	Y  uint8  // Y index
	SP uint8  // Stack pointer, offset into page $01
	PC uint16 // Program counter
	P  Status // Processor status
}

// StepResult reports what a single Step did.
type StepResult struct {
	Cycles uint64
	Halted bool
}

// decoded is the per-opcode dispatch entry built once by New.
type decoded struct {
	op      opcode.Opcode
	inst    instruction
	penalty penalty
}

// CPU is a 6502 core. It is not safe for concurrent use; drivers that
// share memory with peripherals must serialise around whole steps.
type CPU struct {
	reg    Registers
	cycles uint64
	phase  Phase
	err    error // why the CPU halted

	mem    memory.Memory
	bus    *transaction
	decode [256]*decoded

	// Interrupt lines
	nmiPending bool
	nmiLine    bool
	irqLine    bool

	resetVector uint16
	stackTop    uint8
	resetCycles uint64
	haltOnBreak bool
	decimal     bool

	// Debug and loop detection
	log                 *slog.Logger
	enableDebugLogging  bool
	enableLoopDetection bool
	loopThreshold       int
	lastPC              uint16
	pcStayCount         int
}

// Option configures a CPU at construction.
type Option func(*CPU)

// WithResetVector moves the location the reset sequence loads PC from.
func WithResetVector(address uint16) Option {
	return func(cpu *CPU) { cpu.resetVector = address }
}

// WithStackTop sets the stack pointer value after reset.
func WithStackTop(sp uint8) Option {
	return func(cpu *CPU) { cpu.stackTop = sp }
}

// WithResetCycles sets the cycle count charged for the reset sequence.
func WithResetCycles(n uint64) Option {
	return func(cpu *CPU) { cpu.resetCycles = n }
}

// WithHaltOnBreak makes BRK stop the CPU instead of entering the IRQ
// handler. It is on by default.
func WithHaltOnBreak(on bool) Option {
	return func(cpu *CPU) { cpu.haltOnBreak = on }
}

// WithDecimalMode enables BCD arithmetic for ADC/SBC while the Decimal
// flag is set. Off by default, as on the NES's 2A03.
func WithDecimalMode(on bool) Option {
	return func(cpu *CPU) { cpu.decimal = on }
}

// WithLogger routes CPU logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(cpu *CPU) {
		if l != nil {
			cpu.log = l
		}
	}
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(on bool) Option {
	return func(cpu *CPU) { cpu.enableDebugLogging = on }
}

// WithLoopDetection warns when PC stays put for more than threshold
// consecutive steps. A threshold of zero or less disables it.
func WithLoopDetection(threshold int) Option {
	return func(cpu *CPU) {
		cpu.enableLoopDetection = threshold > 0
		if threshold > 0 {
			cpu.loopThreshold = threshold
		}
	}
}

// New creates a CPU executing from mem using table for decoding. Every
// table entry is checked against the instruction set: an unsupported
// mnemonic/mode pairing fails here rather than mid-program.
func New(mem memory.Memory, table *opcode.Table, opts ...Option) (*CPU, error) {
	if mem == nil {
		return nil, errors.New("cpu: nil memory")
	}
	if table == nil {
		return nil, errors.New("cpu: nil opcode table")
	}

	cpu := &CPU{
		mem:           mem,
		bus:           newTransaction(mem),
		resetVector:   resetVector,
		stackTop:      defaultStackTop,
		resetCycles:   defaultResetCycles,
		haltOnBreak:   true,
		log:           logging.Discard(),
		loopThreshold: 100,
	}
	for _, opt := range opts {
		opt(cpu)
	}

	for _, op := range table.Entries() {
		inst, ok := instructions[op.Mnemonic]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownMnemonic, "opcode %s", op)
		}
		if !inst.modes.has(op.Mode) {
			return nil, mismatch(op)
		}
		cpu.decode[op.Code] = &decoded{op: op, inst: inst, penalty: penalties[op.Mnemonic]}
	}

	cpu.reg = Registers{SP: cpu.stackTop, P: InterruptDisable}
	return cpu, nil
}

// Reset puts the CPU in its power-on state and loads PC from the reset
// vector. It clears any halt. An error means the vector could not be
// read; the CPU is left halted.
func (cpu *CPU) Reset() error {
	cpu.reg = Registers{SP: cpu.stackTop, P: InterruptDisable}
	cpu.cycles = 0
	cpu.phase = Fetching
	cpu.err = nil
	cpu.nmiPending = false
	cpu.pcStayCount = 0
	cpu.bus.reset()

	pc := memory.ReadWord(cpu.bus, cpu.resetVector)
	if fault := cpu.bus.fault; fault != nil {
		cpu.bus.reset()
		return cpu.halt(errors.Wrap(fault, "reset vector"))
	}

	cpu.reg.PC = pc
	cpu.cycles = cpu.resetCycles
	cpu.log.Info("reset", logging.Hex16("pc", pc), logging.Hex16("vector", cpu.resetVector))
	return nil
}

// Step runs one instruction, or enters a pending interrupt, to
// completion. A fatal error halts the CPU and leaves registers and
// memory as they were before the step. Once halted, Step does nothing
// and returns the halting error.
func (cpu *CPU) Step() (StepResult, error) {
	if cpu.phase == Halted {
		return StepResult{Halted: true}, cpu.err
	}
	if cpu.nmiPending || (cpu.irqLine && !cpu.reg.P.Has(InterruptDisable)) {
		return cpu.serviceInterrupt()
	}

	saved := cpu.reg
	pc := cpu.reg.PC

	// Fetch
	cpu.phase = Fetching
	code := cpu.bus.Read(pc)
	if cpu.bus.fault != nil {
		return cpu.abort(saved, errors.Wrap(cpu.bus.fault, "fetch"))
	}

	// Decode
	cpu.phase = Decoding
	d := cpu.decode[code]
	cpu.observe(pc, code, d)
	if d == nil {
		return cpu.abort(saved, errors.Wrapf(ErrIllegalOpcode, "$%02X at $%04X", code, pc))
	}
	if !d.inst.modes.has(d.op.Mode) {
		return cpu.abort(saved, mismatch(d.op))
	}

	// Resolve
	cpu.phase = Resolving
	opnd, err := cpu.resolve(d.op.Mode, pc+1)
	if err == nil && cpu.bus.fault != nil {
		err = cpu.bus.fault
	}
	if err != nil {
		return cpu.abort(saved, errors.Wrapf(err, "%s at $%04X", d.op.Mnemonic, pc))
	}

	// Execute
	cpu.phase = Executing
	s := &step{op: d.op, operand: opnd, pc: pc, next: pc + uint16(d.op.Length)}
	d.inst.exec(cpu, s)
	if cpu.bus.fault != nil {
		return cpu.abort(saved, errors.Wrapf(cpu.bus.fault, "%s at $%04X", d.op.Mnemonic, pc))
	}

	// Advance
	cpu.phase = Advancing
	if !s.jumped {
		cpu.reg.PC = s.next
	}
	cpu.bus.commit()

	cycles := uint64(d.op.Cycles) + d.penalty.cycles(d.op.Mode, s)
	cpu.cycles += cycles

	if s.halt {
		cpu.halt(errors.Wrapf(ErrHalted, "%s at $%04X", d.op.Mnemonic, pc))
		return StepResult{Cycles: cycles, Halted: true}, nil
	}
	cpu.phase = Fetching
	return StepResult{Cycles: cycles}, nil
}

// abort rolls back a failed step and halts.
func (cpu *CPU) abort(saved Registers, err error) (StepResult, error) {
	cpu.reg = saved
	cpu.bus.reset()
	return StepResult{Halted: true}, cpu.halt(err)
}

func (cpu *CPU) halt(err error) error {
	failedIn := cpu.phase
	cpu.phase = Halted
	cpu.err = err
	if IsFault(err) {
		cpu.log.Error("cpu halted", "err", err, "phase", failedIn.String(),
			logging.Hex16("pc", cpu.reg.PC), slog.Uint64("cycles", cpu.cycles))
	} else {
		cpu.log.Info("cpu halted", logging.Hex16("pc", cpu.reg.PC), slog.Uint64("cycles", cpu.cycles))
	}
	return err
}

// Registers returns a copy of the register file.
func (cpu *CPU) Registers() Registers {
	return cpu.reg
}

// Cycles returns the number of cycles elapsed since reset, including the
// reset sequence itself.
func (cpu *CPU) Cycles() uint64 {
	return cpu.cycles
}

// Halted reports whether the CPU has stopped.
func (cpu *CPU) Halted() bool {
	return cpu.phase == Halted
}

// Phase returns the dispatcher state. Between steps it is Fetching or
// Halted.
func (cpu *CPU) Phase() Phase {
	return cpu.phase
}

// Err returns the error that halted the CPU, or nil while running.
func (cpu *CPU) Err() error {
	return cpu.err
}

// Lookup returns the decode entry for code as seen by this CPU.
func (cpu *CPU) Lookup(code uint8) (opcode.Opcode, bool) {
	if d := cpu.decode[code]; d != nil {
		return d.op, true
	}
	return opcode.Opcode{}, false
}
