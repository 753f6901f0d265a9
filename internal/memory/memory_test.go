package memory

import (
	"testing"

	"github.com/pkg/errors"
)

// MockDevice records register traffic for mapped-region tests
type MockDevice struct {
	registers  [8]uint8
	readCalls  []uint16
	writeCalls []RegisterWrite
}

type RegisterWrite struct {
	Address uint16
	Value   uint8
}

func (m *MockDevice) Read(address uint16) uint8 {
	m.readCalls = append(m.readCalls, address)
	return m.registers[address&0x7]
}

func (m *MockDevice) Write(address uint16, value uint8) {
	m.writeCalls = append(m.writeCalls, RegisterWrite{Address: address, Value: value})
	m.registers[address&0x7] = value
}

func TestRAM_New(t *testing.T) {
	ram, err := NewRAM(0x800)
	if err != nil {
		t.Fatalf("NewRAM failed: %v", err)
	}
	if ram.Size() != 0x800 {
		t.Errorf("Size() = %d, want %d", ram.Size(), 0x800)
	}

	for _, size := range []int{0, -1, Size + 1} {
		if _, err := NewRAM(size); errors.Cause(err) != ErrOutOfRange {
			t.Errorf("NewRAM(%d) error = %v, want ErrOutOfRange", size, err)
		}
	}

	if NewFullRAM().Size() != Size {
		t.Errorf("NewFullRAM().Size() = %d, want %d", NewFullRAM().Size(), Size)
	}
}

func TestRAM_ReadWrite(t *testing.T) {
	ram, _ := NewRAM(0x1000)

	testCases := []struct {
		name    string
		address uint16
		value   uint8
		backed  bool
	}{
		{"First byte", 0x0000, 0x11, true},
		{"Last byte", 0x0FFF, 0x22, true},
		{"Just past end", 0x1000, 0x33, false},
		{"Top of address space", 0xFFFF, 0x44, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if ram.Contains(tc.address) != tc.backed {
				t.Errorf("Contains(%04X) = %v, want %v", tc.address, !tc.backed, tc.backed)
			}
			ram.Write(tc.address, tc.value)
			want := tc.value
			if !tc.backed {
				want = 0
			}
			if got := ram.Read(tc.address); got != want {
				t.Errorf("Read(%04X) = %02X, want %02X", tc.address, got, want)
			}
		})
	}
}

func TestRAM_Load(t *testing.T) {
	ram, _ := NewRAM(0x100)

	if err := ram.Load(0xF0, []uint8{1, 2, 3}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for i, want := range []uint8{1, 2, 3} {
		if got := ram.Read(0xF0 + uint16(i)); got != want {
			t.Errorf("Read(%04X) = %02X, want %02X", 0xF0+i, got, want)
		}
	}

	if err := ram.Load(0xFF, []uint8{1, 2}); errors.Cause(err) != ErrOutOfRange {
		t.Errorf("Load past end error = %v, want ErrOutOfRange", err)
	}

	ram.Clear()
	if ram.Read(0xF0) != 0 {
		t.Error("Clear() left data behind")
	}
}

func TestReadWord(t *testing.T) {
	ram := NewFullRAM()
	ram.Write(0x1234, 0xCD)
	ram.Write(0x1235, 0xAB)

	if got := ReadWord(ram, 0x1234); got != 0xABCD {
		t.Errorf("ReadWord = %04X, want ABCD", got)
	}

	// High byte wraps to $0000
	ram.Write(0xFFFF, 0x34)
	ram.Write(0x0000, 0x12)
	if got := ReadWord(ram, 0xFFFF); got != 0x1234 {
		t.Errorf("ReadWord($FFFF) = %04X, want 1234", got)
	}
}

func TestReadWordPageWrapped(t *testing.T) {
	ram := NewFullRAM()
	ram.Write(0x02FF, 0x00)
	ram.Write(0x0300, 0x04) // would be used without the bug
	ram.Write(0x0200, 0x80)

	if got := ReadWordPageWrapped(ram, 0x02FF); got != 0x8000 {
		t.Errorf("ReadWordPageWrapped($02FF) = %04X, want 8000", got)
	}

	ram.Write(0x0210, 0x34)
	ram.Write(0x0211, 0x12)
	if got := ReadWordPageWrapped(ram, 0x0210); got != 0x1234 {
		t.Errorf("ReadWordPageWrapped($0210) = %04X, want 1234", got)
	}
}

func TestReadZeroPageWord(t *testing.T) {
	ram := NewFullRAM()
	ram.Write(0x00FF, 0x78)
	ram.Write(0x0000, 0x56)
	ram.Write(0x0100, 0x99) // must not be read

	if got := ReadZeroPageWord(ram, 0xFF); got != 0x5678 {
		t.Errorf("ReadZeroPageWord($FF) = %04X, want 5678", got)
	}
}

func TestWriteWord(t *testing.T) {
	ram := NewFullRAM()
	WriteWord(ram, 0x4000, 0xBEEF)
	if ram.Read(0x4000) != 0xEF || ram.Read(0x4001) != 0xBE {
		t.Errorf("WriteWord stored %02X %02X", ram.Read(0x4000), ram.Read(0x4001))
	}
}

func TestContains(t *testing.T) {
	small, _ := NewRAM(0x10)
	if Contains(small, 0x10) {
		t.Error("Contains should defer to Bounded")
	}

	var unbounded Memory = &MockDevice{}
	if !Contains(unbounded, 0xFFFF) {
		t.Error("Memory without Bounded should back every address")
	}
}

func TestBus_MirroredRAM(t *testing.T) {
	ram, _ := NewRAM(0x800)
	bus := NewBus()
	if err := bus.MapMirrored(0x0000, 0x1FFF, 0x800, ram); err != nil {
		t.Fatalf("MapMirrored failed: %v", err)
	}

	testCases := []struct {
		name             string
		address          uint16
		expectedRAMIndex uint16
	}{
		{"Direct RAM access", 0x0000, 0x0000},
		{"Direct RAM access end", 0x07FF, 0x07FF},
		{"First mirror", 0x0800, 0x0000},
		{"First mirror end", 0x0FFF, 0x07FF},
		{"Third mirror end", 0x1FFF, 0x07FF},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			value := uint8(tc.address>>8) ^ uint8(tc.address)
			bus.Write(tc.address, value)

			if result := bus.Read(tc.address); result != value {
				t.Errorf("Read(%04X) = %02X, want %02X", tc.address, result, value)
			}
			if ram.Read(tc.expectedRAMIndex) != value {
				t.Errorf("RAM[%04X] = %02X, want %02X", tc.expectedRAMIndex, ram.Read(tc.expectedRAMIndex), value)
			}
		})
	}
}

func TestBus_DeviceSeesOffset(t *testing.T) {
	dev := &MockDevice{}
	bus := NewBus()
	if err := bus.MapMirrored(0x2000, 0x3FFF, 8, dev); err != nil {
		t.Fatalf("MapMirrored failed: %v", err)
	}

	bus.Write(0x2009, 0x5A)
	if len(dev.writeCalls) != 1 || dev.writeCalls[0].Address != 1 {
		t.Fatalf("Device writes = %+v, want offset 1", dev.writeCalls)
	}
	if got := bus.Read(0x3FF9); got != 0x5A {
		t.Errorf("Read($3FF9) = %02X, want 5A", got)
	}
	if dev.readCalls[0] != 1 {
		t.Errorf("Device read offset = %d, want 1", dev.readCalls[0])
	}
}

func TestBus_OpenBus(t *testing.T) {
	ram, _ := NewRAM(0x100)
	bus := NewBus()
	if err := bus.Map(0x0000, 0x00FF, ram); err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	ram.Write(0x0010, 0x42)
	bus.Read(0x0010)

	if bus.Contains(0x5000) {
		t.Error("Unmapped address reported as contained")
	}
	if got := bus.Read(0x5000); got != 0x42 {
		t.Errorf("Unmapped read = %02X, want open bus 42", got)
	}

	bus.Write(0x6000, 0x99)
	if bus.OpenBus() != 0x99 {
		t.Errorf("OpenBus() = %02X, want 99", bus.OpenBus())
	}
}

func TestBus_RejectsOverlap(t *testing.T) {
	ram, _ := NewRAM(0x1000)
	bus := NewBus()
	if err := bus.Map(0x1000, 0x1FFF, ram); err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	tests := []struct {
		start, end uint16
	}{
		{0x0000, 0x1000},
		{0x1FFF, 0x2FFF},
		{0x1800, 0x1900},
		{0x0000, 0xFFFF},
	}
	for _, tc := range tests {
		if err := bus.Map(tc.start, tc.end, ram); errors.Cause(err) != ErrOverlap {
			t.Errorf("Map(%04X, %04X) error = %v, want ErrOverlap", tc.start, tc.end, err)
		}
	}

	if err := bus.Map(0x2000, 0x2FFF, ram); err != nil {
		t.Errorf("Adjacent region rejected: %v", err)
	}
}

func TestBus_InvalidRegions(t *testing.T) {
	ram, _ := NewRAM(0x10)
	bus := NewBus()

	if err := bus.Map(0x2000, 0x1000, ram); errors.Cause(err) != ErrOutOfRange {
		t.Errorf("Reversed region error = %v, want ErrOutOfRange", err)
	}
	if err := bus.Map(0x0000, 0x000F, nil); err == nil {
		t.Error("Expected error for nil device")
	}
	if err := bus.MapMirrored(0x0000, 0x00FF, 0, ram); errors.Cause(err) != ErrOutOfRange {
		t.Errorf("Zero mirror error = %v, want ErrOutOfRange", err)
	}
}

func TestBus_FullSpace(t *testing.T) {
	ram := NewFullRAM()
	bus := NewBus()
	if err := bus.Map(0x0000, 0xFFFF, ram); err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	bus.Write(0xFFFF, 0x7E)
	if got := bus.Read(0xFFFF); got != 0x7E {
		t.Errorf("Read($FFFF) = %02X, want 7E", got)
	}
	if !bus.Contains(0x8000) {
		t.Error("Full mapping should contain every address")
	}
}
