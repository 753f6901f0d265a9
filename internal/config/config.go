// Package config provides configuration management for the emulator core.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"go6502/internal/cpu"
	"go6502/internal/logging"
	"go6502/internal/memory"
	"go6502/internal/opcode"
)

// Config holds all core configuration
type Config struct {
	CPU    CPUConfig    `json:"cpu"`
	Memory MemoryConfig `json:"memory"`
	Debug  DebugConfig  `json:"debug"`

	// Internal state
	configPath string
	loaded     bool
}

// CPUConfig contains processor behaviour settings
type CPUConfig struct {
	ResetVector         uint16 `json:"reset_vector"`
	StackTop            uint8  `json:"stack_top"`
	ResetCycles         uint64 `json:"reset_cycles"`
	HaltOnBreak         bool   `json:"halt_on_break"`
	DecimalMode         bool   `json:"decimal_mode"`
	UndocumentedOpcodes bool   `json:"undocumented_opcodes"`
}

// MemoryConfig describes the RAM backing the address space
type MemoryConfig struct {
	Size int `json:"size"` // bytes, 1..65536; addresses past the end fault
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	LogLevel      string `json:"log_level"` // "DEBUG", "INFO", "WARN", "ERROR"
	CPUTracing    bool   `json:"cpu_tracing"`
	LoopDetection bool   `json:"loop_detection"`
	LoopThreshold int    `json:"loop_threshold"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		CPU: CPUConfig{
			ResetVector:         0xFFFC,
			StackTop:            0xFD,
			ResetCycles:         7,
			HaltOnBreak:         true,
			DecimalMode:         false,
			UndocumentedOpcodes: false,
		},
		Memory: MemoryConfig{
			Size: memory.Size,
		},
		Debug: DebugConfig{
			LogLevel:      "INFO",
			CPUTracing:    false,
			LoopDetection: false,
			LoopThreshold: 100,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// created with the current values.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config file")
	}

	if err := json.Unmarshal(data, c); err != nil {
		return errors.Wrap(err, "failed to parse config file")
	}

	if err := c.validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

// Validate checks the configuration, resetting out-of-range soft values
// to their defaults. It is exported for configurations built in code.
func (c *Config) Validate() error {
	return c.validate()
}

func (c *Config) validate() error {
	if c.Memory.Size <= 0 || c.Memory.Size > memory.Size {
		return &ConfigError{Field: "memory.size", Value: c.Memory.Size, Err: memory.ErrOutOfRange}
	}

	if _, err := logging.ParseLevel(c.Debug.LogLevel); err != nil {
		return &ConfigError{Field: "debug.log_level", Value: c.Debug.LogLevel, Err: err}
	}

	if c.Debug.LoopThreshold <= 0 {
		c.Debug.LoopThreshold = 100
	}

	return nil
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// LogLevel returns the parsed debug log level
func (c *Config) LogLevel() slog.Level {
	level, err := logging.ParseLevel(c.Debug.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// OpcodeTable returns a fresh decode table for the configured opcode set
func (c *Config) OpcodeTable() *opcode.Table {
	if c.CPU.UndocumentedOpcodes {
		return opcode.Undocumented()
	}
	return opcode.Documented()
}

// CPUOptions translates the configuration into CPU construction options
func (c *Config) CPUOptions(logger *slog.Logger) []cpu.Option {
	opts := []cpu.Option{
		cpu.WithResetVector(c.CPU.ResetVector),
		cpu.WithStackTop(c.CPU.StackTop),
		cpu.WithResetCycles(c.CPU.ResetCycles),
		cpu.WithHaltOnBreak(c.CPU.HaltOnBreak),
		cpu.WithDecimalMode(c.CPU.DecimalMode),
		cpu.WithTrace(c.Debug.CPUTracing),
	}
	if logger != nil {
		opts = append(opts, cpu.WithLogger(logger))
	}
	if c.Debug.LoopDetection {
		opts = append(opts, cpu.WithLoopDetection(c.Debug.LoopThreshold))
	}
	return opts
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/go6502.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

// Cause lets errors.Cause see through to the underlying error.
func (e *ConfigError) Cause() error {
	return e.Err
}
