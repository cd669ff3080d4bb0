package stringdb

// ReadOnlyDatabase wraps any Database, forwarding reads and failing every
// write with ErrReadOnlyViolation (COMPONENT DESIGN §ReadOnlyDatabase).
type ReadOnlyDatabase[K any, V any] struct {
	inner        Database[K, V]
	disposeInner bool
}

// NewReadOnlyDatabase wraps inner. If disposeInner is true, Dispose also
// disposes inner; otherwise Dispose is a no-op, matching the
// construction-time flag described in the Database lifecycle.
func NewReadOnlyDatabase[K any, V any](inner Database[K, V], disposeInner bool) *ReadOnlyDatabase[K, V] {
	return &ReadOnlyDatabase[K, V]{inner: inner, disposeInner: disposeInner}
}

// InnerDatabase exposes the wrapped database for introspection.
func (r *ReadOnlyDatabase[K, V]) InnerDatabase() Database[K, V] { return r.inner }

func (r *ReadOnlyDatabase[K, V]) Insert(key K, value V) error {
	return ErrReadOnlyViolation
}

func (r *ReadOnlyDatabase[K, V]) InsertRange(pairs []KeyValue[K, V]) error {
	return ErrReadOnlyViolation
}

func (r *ReadOnlyDatabase[K, V]) Get(key K) (V, error) { return r.inner.Get(key) }

func (r *ReadOnlyDatabase[K, V]) TryGet(key K) (V, bool, error) { return r.inner.TryGet(key) }

func (r *ReadOnlyDatabase[K, V]) GetAll(key K) ([]LazyLoader[V], error) { return r.inner.GetAll(key) }

func (r *ReadOnlyDatabase[K, V]) Enumerate() ([]KeyValue[K, V], error) { return r.inner.Enumerate() }

func (r *ReadOnlyDatabase[K, V]) First() (KeyValue[K, V], error) { return r.inner.First() }

func (r *ReadOnlyDatabase[K, V]) Dispose() error {
	if r.disposeInner {
		return r.inner.Dispose()
	}
	return nil
}

var _ Database[string, string] = (*ReadOnlyDatabase[string, string])(nil)
