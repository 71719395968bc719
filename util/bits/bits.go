package bits

// Unsigned is the set of raw word types the bit helpers operate on.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// GetBits returns the bits of n in the inclusive interval [start, end].
// Position 0 refers to the LSB and the result is aligned to bit 0.
func GetBits[T Unsigned](n T, start, end uint) T {
	// shifting past the width of T yields 0, so a full-width mask wraps to all ones
	mask := T(1)<<(end-start+1) - 1
	return (n >> start) & mask
}

// SignExtend treats the low `width` bits of value as a two's complement
// number and widens it to 64 bits.
func SignExtend(value uint64, width uint) int64 {
	shift := 64 - width
	return int64(value<<shift) >> shift
}

// SignExtend32 is SignExtend narrowed to the 32-bit immediates carried by
// decoded instructions.
func SignExtend32(value uint32, width uint) int32 {
	shift := 32 - width
	return int32(value<<shift) >> shift
}
