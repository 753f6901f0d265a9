package cpu

// Status is the processor status register P.
type Status uint8

// Status register bits
const (
	Carry Status = 1 << iota
	Zero
	InterruptDisable
	Decimal
	Break  // only exists in copies pushed by BRK/PHP
	Unused // always reads back as 1 when pushed
	Overflow
	Negative
)

// Has reports whether every bit in f is set.
func (s Status) Has(f Status) bool {
	return s&f == f
}

// With returns s with f set or cleared.
func (s Status) With(f Status, on bool) Status {
	if on {
		return s | f
	}
	return s &^ f
}

// String renders the flags in NV-BDIZC order, '-' for clear bits.
func (s Status) String() string {
	const names = "NV-BDIZC"
	out := []byte("--------")
	for i := 0; i < 8; i++ {
		bit := Status(0x80 >> i)
		if bit != Unused && s&bit != 0 {
			out[i] = names[i]
		}
	}
	return string(out)
}

// Flag engine. These are pure: the only outputs are the returned values.

// setZN sets Zero when v is zero and Negative from bit 7 of v.
func setZN(s Status, v uint8) Status {
	return s.With(Zero, v == 0).With(Negative, v&0x80 != 0)
}

// compare implements CMP/CPX/CPY: Carry when reg >= operand, then ZN of
// the truncated difference.
func compare(s Status, reg, operand uint8) Status {
	return setZN(s.With(Carry, reg >= operand), reg-operand)
}

// addWithCarry implements ADC. In binary mode the 9-bit sum gives Carry,
// and Overflow is set when both operands share a sign the result lacks.
func addWithCarry(s Status, a, operand uint8, decimal bool) (uint8, Status) {
	carry := uint16(0)
	if s.Has(Carry) {
		carry = 1
	}
	sum := uint16(a) + uint16(operand) + carry
	result := uint8(sum)

	if !decimal {
		s = s.With(Carry, sum > 0xFF)
		s = s.With(Overflow, (a^result)&(operand^result)&0x80 != 0)
		return result, setZN(s, result)
	}

	// NMOS decimal mode: Z follows the binary sum, N and V the
	// intermediate high nibble before the final adjust.
	lo := uint16(a&0x0F) + uint16(operand&0x0F) + carry
	if lo > 0x09 {
		lo += 0x06
	}
	hi := uint16(a>>4) + uint16(operand>>4)
	if lo > 0x0F {
		hi++
	}
	intermediate := uint8(hi << 4)
	s = s.With(Zero, result == 0)
	s = s.With(Negative, intermediate&0x80 != 0)
	s = s.With(Overflow, (a^intermediate)&(operand^intermediate)&0x80 != 0)
	if hi > 0x09 {
		hi += 0x06
	}
	s = s.With(Carry, hi > 0x0F)
	return uint8(hi<<4) | uint8(lo&0x0F), s
}

// subtractWithBorrow implements SBC as ADC of the inverted operand. In
// decimal mode the flags still come from the binary subtraction.
func subtractWithBorrow(s Status, a, operand uint8, decimal bool) (uint8, Status) {
	result, flags := addWithCarry(s, a, ^operand, false)
	if !decimal {
		return result, flags
	}

	borrow := 0
	if !s.Has(Carry) {
		borrow = 1
	}
	lo := int(a&0x0F) - int(operand&0x0F) - borrow
	hi := int(a>>4) - int(operand>>4)
	if lo < 0 {
		lo -= 0x06
		hi--
	}
	if hi < 0 {
		hi -= 0x06
	}
	return uint8(hi<<4) | uint8(lo&0x0F), flags
}

func shiftLeft(s Status, v uint8) (uint8, Status) {
	s = s.With(Carry, v&0x80 != 0)
	v <<= 1
	return v, setZN(s, v)
}

func shiftRight(s Status, v uint8) (uint8, Status) {
	s = s.With(Carry, v&0x01 != 0)
	v >>= 1
	return v, setZN(s, v)
}

func rotateLeft(s Status, v uint8) (uint8, Status) {
	in := uint8(0)
	if s.Has(Carry) {
		in = 0x01
	}
	s = s.With(Carry, v&0x80 != 0)
	v = v<<1 | in
	return v, setZN(s, v)
}

func rotateRight(s Status, v uint8) (uint8, Status) {
	in := uint8(0)
	if s.Has(Carry) {
		in = 0x80
	}
	s = s.With(Carry, v&0x01 != 0)
	v = v>>1 | in
	return v, setZN(s, v)
}

// bitTest implements BIT: N and V copy bits 7 and 6 of m, Z is set when
// a & m is zero.
func bitTest(s Status, a, m uint8) Status {
	s = s.With(Negative, m&0x80 != 0).With(Overflow, m&0x40 != 0)
	return s.With(Zero, a&m == 0)
}
