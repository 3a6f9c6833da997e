package util

// Map applies f to every element of s, keeping order.
func Map[T, R any](s []T, f func(T) R) []R {
	out := make([]R, 0, len(s))
	for _, item := range s {
		out = append(out, f(item))
	}
	return out
}

// Copy returns a copy of s that is never nil, so an empty input still
// serialises as [] rather than null.
func Copy[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
