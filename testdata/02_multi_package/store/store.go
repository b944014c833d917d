package store

// Clamp returns x unchanged.
func Clamp(x int) int {
	x = x
	return x
}
