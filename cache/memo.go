// Package cache provides one-shot lazy computation and an interned
// resource registry, grounded on util/CheckedCallables.java's memoized
// supplier pattern and reshaped around sync.Once plus generics.
package cache

import "sync"

// Outcome is the cached result of a one-shot computation: either a Value or
// an Err, never both meaningfully set.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Memo lazily runs a producer exactly once and caches whichever outcome —
// value or error — it returns; every later call replays the same Outcome
// without re-invoking the producer. The zero value is not usable; use New.
type Memo[T any] struct {
	once    sync.Once
	produce func() (T, error)
	outcome Outcome[T]
}

// New returns a Memo that will call produce on its first Get.
func New[T any](produce func() (T, error)) *Memo[T] {
	return &Memo[T]{produce: produce}
}

// Get runs the producer on the first call and returns its cached Outcome on
// every call thereafter, including a cached failure.
func (m *Memo[T]) Get() (T, error) {
	m.once.Do(func() {
		m.outcome.Value, m.outcome.Err = m.produce()
	})
	return m.outcome.Value, m.outcome.Err
}
