package umath

// NextPowerOfTwo returns the smallest power of two >= x. x of zero or one
// maps to one.
func NextPowerOfTwo(x int) int {
	if x <= 1 {
		return 1
	}
	x -= 1
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	return x + 1
}
