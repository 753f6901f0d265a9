package memory

import "github.com/pkg/errors"

// RAM is a flat block of memory starting at address $0000.
type RAM struct {
	data []uint8
}

// NewRAM allocates size bytes. size must be in 1..65536.
func NewRAM(size int) (*RAM, error) {
	if size <= 0 || size > Size {
		return nil, errors.Wrapf(ErrOutOfRange, "ram size %d", size)
	}
	return &RAM{data: make([]uint8, size)}, nil
}

// NewFullRAM returns RAM covering the whole 64 KiB address space.
func NewFullRAM() *RAM {
	return &RAM{data: make([]uint8, Size)}
}

// Size returns the number of bytes backed by r.
func (r *RAM) Size() int {
	return len(r.data)
}

// Contains implements Bounded.
func (r *RAM) Contains(address uint16) bool {
	return int(address) < len(r.data)
}

// Read returns 0 for addresses outside r; the CPU checks Contains first.
func (r *RAM) Read(address uint16) uint8 {
	if int(address) >= len(r.data) {
		return 0
	}
	return r.data[address]
}

// Write ignores addresses outside r.
func (r *RAM) Write(address uint16, value uint8) {
	if int(address) >= len(r.data) {
		return
	}
	r.data[address] = value
}

// Load copies image into r starting at address.
func (r *RAM) Load(address uint16, image []uint8) error {
	end := int(address) + len(image)
	if end > len(r.data) {
		return errors.Wrapf(ErrOutOfRange, "image of %d bytes at $%04X exceeds %d bytes of ram",
			len(image), address, len(r.data))
	}
	copy(r.data[address:end], image)
	return nil
}

// Clear zeroes all of r.
func (r *RAM) Clear() {
	for i := range r.data {
		r.data[i] = 0
	}
}
