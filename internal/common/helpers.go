package common

// ToPointer returns a pointer to p. Handy for the optional session fields
// (score, timestamps) where &literal does not compile.
func ToPointer[T any](p T) *T {
	return &p
}
