package types

// Optional holds either a value or an explicit Unsupported marker.
type Optional[T any] struct {
	value   T
	present bool
}

// Present wraps a value that was successfully read.
func Present[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// Unsupported marks a value the platform or process could not provide.
func Unsupported[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// IsPresent reports whether a value is held.
func (o Optional[T]) IsPresent() bool {
	return o.present
}

// OrElse returns the value, or fallback when unsupported.
func (o Optional[T]) OrElse(fallback T) T {
	if !o.present {
		return fallback
	}
	return o.value
}
