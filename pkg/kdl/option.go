package kdl

// Optional is a value that may be absent. Unlike a pointer it always
// encodes through SerializeNone/SerializeSome, so it follows the
// OptionAsEnum policy regardless of its type parameter.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns a present Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsZero reports whether o is absent. Fields tagged omitempty skip absent
// Optionals.
func (o Optional[T]) IsZero() bool {
	return !o.ok
}

func (o Optional[T]) MarshalKDL(s Serializer) error {
	if !o.ok {
		return s.SerializeNone()
	}

	return s.SerializeSome(o.value)
}
