package memory

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrOverlap is returned when a new region intersects an existing one.
var ErrOverlap = errors.New("region overlaps existing mapping")

// region routes an inclusive address range to a device. Devices see the
// offset into the region, folded by mirror when it is non-zero.
type region struct {
	start, end uint16
	mirror     uint32
	device     Memory
}

func (r region) offset(address uint16) uint16 {
	off := uint32(address - r.start)
	if r.mirror != 0 {
		off %= r.mirror
	}
	return uint16(off)
}

// Bus is an address space assembled from mapped devices, in the style of
// a console memory map: RAM, mirrored RAM, I/O registers and ROM each own
// a range. Reads from unmapped addresses return the open-bus value, the
// last byte that crossed the bus.
type Bus struct {
	regions []region
	openBus uint8
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Map routes start..end (inclusive) to device.
func (b *Bus) Map(start, end uint16, device Memory) error {
	return b.mapRegion(region{start: start, end: end, device: device})
}

// MapMirrored routes start..end to device, repeating every size bytes.
// A 2 KiB RAM mirrored across $0000-$1FFF is MapMirrored(0, 0x1FFF, 0x800, ram).
func (b *Bus) MapMirrored(start, end uint16, size int, device Memory) error {
	if size <= 0 || size > Size {
		return errors.Wrapf(ErrOutOfRange, "mirror size %d", size)
	}
	return b.mapRegion(region{start: start, end: end, mirror: uint32(size), device: device})
}

func (b *Bus) mapRegion(r region) error {
	if r.device == nil {
		return errors.Errorf("nil device for $%04X-$%04X", r.start, r.end)
	}
	if r.end < r.start {
		return errors.Wrapf(ErrOutOfRange, "region $%04X-$%04X", r.start, r.end)
	}
	for _, existing := range b.regions {
		if r.start <= existing.end && existing.start <= r.end {
			return errors.Wrapf(ErrOverlap, "$%04X-$%04X intersects $%04X-$%04X",
				r.start, r.end, existing.start, existing.end)
		}
	}
	b.regions = append(b.regions, r)
	sort.Slice(b.regions, func(i, j int) bool { return b.regions[i].start < b.regions[j].start })
	return nil
}

func (b *Bus) find(address uint16) (region, bool) {
	i := sort.Search(len(b.regions), func(i int) bool { return b.regions[i].end >= address })
	if i < len(b.regions) && b.regions[i].start <= address {
		return b.regions[i], true
	}
	return region{}, false
}

// Contains implements Bounded: only mapped addresses are backed.
func (b *Bus) Contains(address uint16) bool {
	_, ok := b.find(address)
	return ok
}

func (b *Bus) Read(address uint16) uint8 {
	r, ok := b.find(address)
	if !ok {
		return b.openBus
	}
	value := r.device.Read(r.offset(address))
	b.openBus = value
	return value
}

// Write to an unmapped address only updates the open-bus latch.
func (b *Bus) Write(address uint16, value uint8) {
	b.openBus = value
	if r, ok := b.find(address); ok {
		r.device.Write(r.offset(address), value)
	}
}

// OpenBus returns the last value seen on the bus.
func (b *Bus) OpenBus() uint8 {
	return b.openBus
}
