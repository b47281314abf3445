package domain

// Field is the outcome of extracting one value: either resolved or
// unresolved with a reason. It replaces "catch and ignore" per field so
// callers can tell a failed extraction from a value that resolved to a
// sentinel.
type Field[T any] struct {
	value  T
	ok     bool
	reason string
}

func Resolved[T any](v T) Field[T] {
	return Field[T]{value: v, ok: true}
}

func Unresolved[T any](reason string) Field[T] {
	return Field[T]{reason: reason}
}

func (f Field[T]) Get() (T, bool) { return f.value, f.ok }

func (f Field[T]) OK() bool { return f.ok }

// Reason is empty for resolved fields.
func (f Field[T]) Reason() string { return f.reason }

// Or returns the value, or def when unresolved.
func (f Field[T]) Or(def T) T {
	if f.ok {
		return f.value
	}
	return def
}

// FirstResolved runs strategies in order and returns the first resolved
// result. When none resolves, the reasons are joined.
func FirstResolved[T any](strategies ...func() Field[T]) Field[T] {
	var reasons []string
	for _, s := range strategies {
		f := s()
		if f.ok {
			return f
		}
		if f.reason != "" {
			reasons = append(reasons, f.reason)
		}
	}
	reason := "no strategy matched"
	if len(reasons) > 0 {
		reason = joinReasons(reasons)
	}
	return Unresolved[T](reason)
}

func joinReasons(rs []string) string {
	out := rs[0]
	for _, r := range rs[1:] {
		out += "; " + r
	}
	return out
}
