// Package memory implements the byte-addressable memory seen by the CPU:
// flat RAM, a region-mapped bus for attaching peripherals, and the
// little-endian word helpers used by operand resolution.
package memory

import "github.com/pkg/errors"

// Size of the 16-bit address space.
const Size = 0x10000

const pageMask = 0xFF00

// ErrOutOfRange is returned when an access or load does not fit the
// memory it targets.
var ErrOutOfRange = errors.New("address out of range")

// Memory is the read/write capability the CPU is given. Implementations
// own their storage; the CPU never holds raw slices.
type Memory interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Bounded is implemented by memories that do not back the whole address
// space. The CPU faults on any access to an address Contains rejects.
type Bounded interface {
	Contains(address uint16) bool
}

// ReadWord reads a little-endian word at address. The high byte comes
// from address+1, wrapping at $FFFF.
func ReadWord(m Memory, address uint16) uint16 {
	low := uint16(m.Read(address))
	high := uint16(m.Read(address + 1))
	return (high << 8) | low
}

// ReadWordPageWrapped reads a little-endian word whose high byte is taken
// from the same page as the low byte. This reproduces the NMOS JMP ($xxFF)
// bug: the carry out of the low address byte is dropped.
func ReadWordPageWrapped(m Memory, address uint16) uint16 {
	low := uint16(m.Read(address))
	high := uint16(m.Read((address & pageMask) | ((address + 1) & 0x00FF)))
	return (high << 8) | low
}

// ReadZeroPageWord reads a pointer stored in page zero. The high byte at
// zp+1 wraps within page zero.
func ReadZeroPageWord(m Memory, zp uint8) uint16 {
	low := uint16(m.Read(uint16(zp)))
	high := uint16(m.Read(uint16(zp + 1)))
	return (high << 8) | low
}

// WriteWord stores value at address, low byte first.
func WriteWord(m Memory, address, value uint16) {
	m.Write(address, uint8(value&0x00FF))
	m.Write(address+1, uint8(value>>8))
}

// Contains reports whether m backs address. Memories that do not
// implement Bounded back the whole address space.
func Contains(m Memory, address uint16) bool {
	if b, ok := m.(Bounded); ok {
		return b.Contains(address)
	}
	return true
}
