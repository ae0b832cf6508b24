package indicator

// Optional represents a value that may be undefined during an indicator's
// warm-up period. Spec design note "Optionals over sentinels": warm-up
// entries are an explicit variant, never a sentinel float like NaN.
type Optional[T any] struct {
	defined bool
	value   T
}

// Some wraps a defined value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{defined: true, value: v}
}

// None is the zero value of Optional[T]; it reads as undefined.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Defined reports whether the value is present.
func (o Optional[T]) Defined() bool { return o.defined }

// Get returns the wrapped value and whether it was defined, mirroring the
// Go "comma ok" idiom.
func (o Optional[T]) Get() (T, bool) { return o.value, o.defined }

// MustGet panics if the value is undefined; callers must check Defined
// first unless warm-up has already been ruled out.
func (o Optional[T]) MustGet() T {
	if !o.defined {
		panic("indicator: MustGet on undefined Optional")
	}
	return o.value
}

// OrZero returns the wrapped value, or the zero value of T when undefined.
func (o Optional[T]) OrZero() T { return o.value }

// Series is a per-bar sequence of optional indicator readings, one entry
// per input bar, aligned by index.
type Series = []Optional[float64]
