// Package utils holds small helpers shared across packages.
package utils

// Ptr returns a pointer to the given value. Handy for building patch
// structs in code and tests.
func Ptr[T any](v T) *T {
	return &v
}
