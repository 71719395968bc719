package interfaces

// Size is the width of a single memory access in bytes.
// It is a value, not just a tag: devices add it to the address when checking
// that the whole access window is mapped.
type Size uint64

const (
	Byte       Size = 1
	HalfWord   Size = 2
	Word       Size = 4
	DoubleWord Size = 8
)

func (s Size) String() string {
	switch s {
	case Byte:
		return "byte"
	case HalfWord:
		return "halfword"
	case Word:
		return "word"
	case DoubleWord:
		return "doubleword"
	}
	return "invalid size"
}

// Addressable is implemented by every participant of the physical address
// space: the boot ROM, DRAM, and the bus that routes between them.
// Failures are returned as trap.Trap values.
type Addressable interface {
	// Contains reports whether addr belongs to this address space.
	Contains(addr uint64) bool
	// Size is the number of addresses the space spans.
	Size() uint64
	// Read returns the little-endian value of `size` bytes at addr.
	Read(addr uint64, size Size) (uint64, error)
	// Write stores data at addr. len(data) must equal size.
	Write(addr uint64, size Size, data []byte) error
}
