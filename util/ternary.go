package util

// Tern is a generic stand-in for the ternary operator: cond ? a : b.
// Both arguments are evaluated.
func Tern[T any](cond bool, a T, b T) T {
	if cond {
		return a
	}
	return b
}
