package cpu

import (
	"github.com/pkg/errors"

	"go6502/internal/logging"
	"go6502/internal/memory"
)

// SetNMI drives the NMI line. NMI is edge-triggered: a high-to-low
// transition latches a request that is serviced before the next
// instruction, regardless of the I flag.
func (cpu *CPU) SetNMI(state bool) {
	if cpu.nmiLine && !state {
		cpu.nmiPending = true
	}
	cpu.nmiLine = state
}

// TriggerNMI latches an NMI request directly.
func (cpu *CPU) TriggerNMI() {
	cpu.nmiPending = true
}

// SetIRQ drives the IRQ line. IRQ is level-triggered: it is serviced at
// every instruction boundary while held and the I flag is clear.
func (cpu *CPU) SetIRQ(state bool) {
	cpu.irqLine = state
}

// InterruptPending reports whether the next Step will enter an
// interrupt handler rather than fetch an instruction.
func (cpu *CPU) InterruptPending() bool {
	return cpu.nmiPending || (cpu.irqLine && !cpu.reg.P.Has(InterruptDisable))
}

// serviceInterrupt runs the hardware interrupt sequence in place of an
// instruction. NMI wins over IRQ. The pushed status has Break clear.
func (cpu *CPU) serviceInterrupt() (StepResult, error) {
	saved := cpu.reg
	vector, kind := uint16(irqVector), "irq"
	if cpu.nmiPending {
		vector, kind = nmiVector, "nmi"
	}

	cpu.phase = Executing
	cpu.pushWord(cpu.reg.PC)
	cpu.push(uint8(cpu.reg.P&^Break | Unused))
	cpu.reg.P = cpu.reg.P.With(InterruptDisable, true)
	handler := memory.ReadWord(cpu.bus, vector)
	if cpu.bus.fault != nil {
		return cpu.abort(saved, errors.Wrapf(cpu.bus.fault, "%s sequence", kind))
	}

	if kind == "nmi" {
		cpu.nmiPending = false
	}
	cpu.reg.PC = handler
	cpu.bus.commit()
	cpu.cycles += interruptCycles
	cpu.phase = Fetching

	if cpu.enableDebugLogging {
		cpu.log.Debug("interrupt", "kind", kind,
			logging.Hex16("from", saved.PC), logging.Hex16("handler", handler))
	}
	return StepResult{Cycles: interruptCycles}, nil
}
