package stringdb

import "sync"

// immediateLoader is a LazyLoader that already holds its value, used by
// MemoryDatabase to satisfy the LazyLoader contract for values that are in
// fact materialized eagerly (COMPONENT DESIGN, MemoryDatabase).
type immediateLoader[V any] struct {
	value V
}

func newImmediateLoader[V any](value V) LazyLoader[V] {
	return immediateLoader[V]{value: value}
}

func (l immediateLoader[V]) Load() (V, error) { return l.value, nil }

// memoizingLoader wraps an inner LazyLoader so that only the first call to
// Load pays the inner cost; subsequent calls return the cached result. Used
// by CacheDatabase to give repeated Load calls on the same cached handle
// the single-materialization guarantee described in the CacheDatabase
// component design and exercised by the CACHE MEMOIZATION testable
// property.
type memoizingLoader[V any] struct {
	once  sync.Once
	inner LazyLoader[V]
	value V
	err   error
}

func newMemoizingLoader[V any](inner LazyLoader[V]) *memoizingLoader[V] {
	return &memoizingLoader[V]{inner: inner}
}

func (l *memoizingLoader[V]) Load() (V, error) {
	l.once.Do(func() {
		l.value, l.err = l.inner.Load()
	})
	return l.value, l.err
}
