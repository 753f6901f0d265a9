package cpu

import "context"

// RunResult summarises a Run or RunUntil call.
type RunResult struct {
	Cycles uint64 // cycles consumed by this call
	Steps  uint64 // instructions and interrupt entries completed
	Halted bool
}

// RunUntil steps until at least budget cycles have elapsed or the CPU
// halts. The instruction that crosses the budget runs to completion, so
// Cycles may exceed budget. A clean halt is not an error.
func (cpu *CPU) RunUntil(budget uint64) (RunResult, error) {
	return cpu.Run(context.Background(), budget)
}

// Run is RunUntil with cancellation, checked between instructions. When
// ctx is done Run returns ctx.Err() with the CPU intact and resumable.
func (cpu *CPU) Run(ctx context.Context, budget uint64) (RunResult, error) {
	var res RunResult
	if cpu.Halted() {
		res.Halted = true
		if IsFault(cpu.err) {
			return res, cpu.err
		}
		return res, nil
	}

	for res.Cycles < budget {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		sr, err := cpu.Step()
		if err != nil {
			res.Halted = true
			return res, err
		}
		res.Cycles += sr.Cycles
		res.Steps++
		if sr.Halted {
			res.Halted = true
			break
		}
	}
	return res, nil
}
