// Package system couples a CPU with its address space and serialises
// access to both, so peripherals running on other goroutines can inspect
// and modify memory between instructions.
package system

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/pkg/errors"

	"go6502/internal/config"
	"go6502/internal/cpu"
	"go6502/internal/logging"
	"go6502/internal/memory"
	"go6502/internal/version"
)

// Machine owns a CPU, its RAM and the bus they sit on.
type Machine struct {
	mu sync.Mutex

	config *config.Config
	ram    *memory.RAM
	bus    *memory.Bus
	cpu    *cpu.CPU
	log    *slog.Logger
}

// New builds a machine from cfg. RAM of cfg.Memory.Size bytes is mapped
// from $0000; the rest of the address space is free for Attach. The CPU
// is not reset: load an image, then call Reset.
func New(cfg *config.Config, logger *slog.Logger) (*Machine, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if logger == nil {
		logger = logging.New(os.Stderr, cfg.LogLevel())
	}

	ram, err := memory.NewRAM(cfg.Memory.Size)
	if err != nil {
		return nil, err
	}
	bus := memory.NewBus()
	if err := bus.Map(0, uint16(cfg.Memory.Size-1), ram); err != nil {
		return nil, errors.Wrap(err, "failed to map ram")
	}

	c, err := cpu.New(bus, cfg.OpcodeTable(), cfg.CPUOptions(logger)...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cpu")
	}

	m := &Machine{
		config: cfg,
		ram:    ram,
		bus:    bus,
		cpu:    c,
		log:    logger,
	}
	logger.Info("machine created",
		append(version.LogAttrs(), slog.Int("ram", cfg.Memory.Size))...)
	return m, nil
}

// Attach maps a peripheral at start..end. The range must not overlap RAM
// or another device; the device sees offsets from start.
func (m *Machine) Attach(start, end uint16, device memory.Memory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bus.Map(start, end, device)
}

// Load copies image into RAM at address.
func (m *Machine) Load(address uint16, image []uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ram.Load(address, image)
}

// Peek reads one byte through the bus. Unmapped addresses report
// memory.ErrOutOfRange.
func (m *Machine) Peek(address uint16) (uint8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.bus.Contains(address) {
		return 0, errors.Wrapf(memory.ErrOutOfRange, "peek $%04X", address)
	}
	return m.bus.Read(address), nil
}

// Poke writes one byte through the bus.
func (m *Machine) Poke(address uint16, value uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.bus.Contains(address) {
		return errors.Wrapf(memory.ErrOutOfRange, "poke $%04X", address)
	}
	m.bus.Write(address, value)
	return nil
}

// Reset resets the CPU from the configured reset vector.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.Reset()
}

// Step executes one instruction or interrupt entry.
func (m *Machine) Step() (cpu.StepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.Step()
}

// RunUntil runs for at least budget cycles without releasing the lock.
func (m *Machine) RunUntil(budget uint64) (cpu.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.RunUntil(budget)
}

// Run runs for at least budget cycles, taking the lock per instruction so
// Peek, Poke and interrupt lines can interleave. Cancellation is checked
// between instructions.
func (m *Machine) Run(ctx context.Context, budget uint64) (cpu.RunResult, error) {
	var res cpu.RunResult
	for res.Cycles < budget {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		m.mu.Lock()
		r, err := m.cpu.RunUntil(1)
		m.mu.Unlock()

		res.Cycles += r.Cycles
		res.Steps += r.Steps
		if err != nil || r.Halted {
			res.Halted = r.Halted
			return res, err
		}
	}
	return res, nil
}

// SetIRQ drives the IRQ line.
func (m *Machine) SetIRQ(level bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cpu.SetIRQ(level)
}

// SetNMI drives the NMI line; a high-to-low edge latches an NMI.
func (m *Machine) SetNMI(level bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cpu.SetNMI(level)
}

// Registers returns a snapshot of the CPU registers.
func (m *Machine) Registers() cpu.Registers {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.Registers()
}

// Cycles returns the CPU cycle counter.
func (m *Machine) Cycles() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.Cycles()
}

// Halted reports whether the CPU has stopped.
func (m *Machine) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.Halted()
}

// Phase returns the CPU's execution phase.
func (m *Machine) Phase() cpu.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.Phase()
}

// Err returns the error that halted the CPU, if any.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.Err()
}

// Config returns a copy of the machine's configuration.
func (m *Machine) Config() *config.Config {
	return m.config.Clone()
}
