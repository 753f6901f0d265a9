package cpu

import (
	"log/slog"

	"go6502/internal/logging"
)

// EnableDebugLogging turns per-instruction tracing on or off.
func (cpu *CPU) EnableDebugLogging(enable bool) {
	cpu.enableDebugLogging = enable
}

// EnableLoopDetection turns stuck-PC warnings on or off.
func (cpu *CPU) EnableLoopDetection(enable bool) {
	cpu.enableLoopDetection = enable
	cpu.pcStayCount = 0
}

// observe runs the debug hooks for an instruction about to execute. d is
// nil for an opcode missing from the table.
func (cpu *CPU) observe(pc uint16, code uint8, d *decoded) {
	if cpu.enableLoopDetection {
		cpu.detectInfiniteLoop(pc, code, d)
	}
	if cpu.enableDebugLogging {
		cpu.logInstruction(pc, code, d)
	}
}

// detectInfiniteLoop warns when the CPU keeps executing at the same PC,
// as with a JMP to itself. It reports once at the threshold and then
// every 1000 steps.
func (cpu *CPU) detectInfiniteLoop(pc uint16, code uint8, d *decoded) {
	if pc != cpu.lastPC {
		cpu.pcStayCount = 0
		cpu.lastPC = pc
		return
	}

	cpu.pcStayCount++
	if cpu.pcStayCount == cpu.loopThreshold || (cpu.pcStayCount > cpu.loopThreshold && cpu.pcStayCount%1000 == 0) {
		cpu.log.Warn("pc stuck", append(cpu.stateAttrs(pc, code, d),
			slog.Int("steps", cpu.pcStayCount),
			slog.Uint64("cycles", cpu.cycles))...)
	}
}

func (cpu *CPU) logInstruction(pc uint16, code uint8, d *decoded) {
	cpu.log.Debug("instruction", append(cpu.stateAttrs(pc, code, d),
		slog.Uint64("cycles", cpu.cycles))...)
}

func (cpu *CPU) stateAttrs(pc uint16, code uint8, d *decoded) []any {
	name := "UNK"
	if d != nil {
		name = string(d.op.Mnemonic)
	}
	attrs := []any{
		logging.Hex16("pc", pc),
		slog.String("op", name),
		logging.Hex8("opcode", code),
	}
	return append(attrs,
		logging.Hex8("a", cpu.reg.A),
		logging.Hex8("x", cpu.reg.X),
		logging.Hex8("y", cpu.reg.Y),
		logging.Hex8("sp", cpu.reg.SP),
		slog.String("flags", cpu.reg.P.String()),
	)
}
