package convert

// BoolToUint64 converts a boolean value to a register value.
// It returns 0 for false and 1 for true, as SLT/SLTU and friends expect.
func BoolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
