package pointer

import "time"

// Pointer returns a pointer to a copy of v.
func Pointer[T any](v T) *T {
	return &v
}

// Time returns a pointer to a copy of t.
func Time(t time.Time) *time.Time {
	return &t
}

// Format renders the value p points to, or the empty string when p is nil.
func Format[T any](p *T, format func(T) string) string {
	if p == nil {
		return ""
	}
	return format(*p)
}
