package stringdb

import "sync"

// MemoryDatabase is the in-RAM implementation of Database: an ordered
// sequence of (key, value) pairs preserving insertion order, as described
// in COMPONENT DESIGN §MemoryDatabase. Values are materialized eagerly; the
// LazyLoader wrapper exists only to satisfy the Database contract.
type MemoryDatabase[K any, V any] struct {
	mu       sync.Mutex
	pairs    []memPair[K, V]
	keyEqual func(a, b K) bool
	disposed bool
}

type memPair[K any, V any] struct {
	key   K
	value V
}

// NewMemoryDatabase constructs an empty MemoryDatabase. keyEqual determines
// key matching for Get/TryGet/GetAll and must not be nil; when K is
// comparable, NewMemoryDatabaseComparable supplies Go's built-in equality.
func NewMemoryDatabase[K any, V any](keyEqual func(a, b K) bool) *MemoryDatabase[K, V] {
	return &MemoryDatabase[K, V]{keyEqual: keyEqual}
}

// NewMemoryDatabaseComparable constructs an empty MemoryDatabase for a
// comparable key type, using == for key matching.
func NewMemoryDatabaseComparable[K comparable, V any]() *MemoryDatabase[K, V] {
	return NewMemoryDatabase[K, V](func(a, b K) bool { return a == b })
}

func (m *MemoryDatabase[K, V]) Insert(key K, value V) error {
	return m.InsertRange([]KeyValue[K, V]{{Key: key, Value: newImmediateLoader(value)}})
}

func (m *MemoryDatabase[K, V]) InsertRange(pairs []KeyValue[K, V]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return ErrUseAfterDispose
	}
	for _, p := range pairs {
		v, err := p.Value.Load()
		if err != nil {
			return err
		}
		m.pairs = append(m.pairs, memPair[K, V]{key: p.Key, value: v})
	}
	return nil
}

func (m *MemoryDatabase[K, V]) Get(key K) (V, error) {
	v, ok, err := m.TryGet(key)
	if err != nil {
		var zero V
		return zero, err
	}
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	return v, nil
}

func (m *MemoryDatabase[K, V]) TryGet(key K) (V, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero V
	if m.disposed {
		return zero, false, ErrUseAfterDispose
	}
	for _, p := range m.pairs {
		if m.keyEqual(p.key, key) {
			return p.value, true, nil
		}
	}
	return zero, false, nil
}

func (m *MemoryDatabase[K, V]) GetAll(key K) ([]LazyLoader[V], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return nil, ErrUseAfterDispose
	}
	var out []LazyLoader[V]
	for _, p := range m.pairs {
		if m.keyEqual(p.key, key) {
			out = append(out, newImmediateLoader(p.value))
		}
	}
	return out, nil
}

func (m *MemoryDatabase[K, V]) Enumerate() ([]KeyValue[K, V], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return nil, ErrUseAfterDispose
	}
	out := make([]KeyValue[K, V], len(m.pairs))
	for i, p := range m.pairs {
		out[i] = KeyValue[K, V]{Key: p.key, Value: newImmediateLoader(p.value)}
	}
	return out, nil
}

func (m *MemoryDatabase[K, V]) First() (KeyValue[K, V], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return KeyValue[K, V]{}, ErrUseAfterDispose
	}
	if len(m.pairs) == 0 {
		return KeyValue[K, V]{}, ErrNotFound
	}
	p := m.pairs[0]
	return KeyValue[K, V]{Key: p.key, Value: newImmediateLoader(p.value)}, nil
}

func (m *MemoryDatabase[K, V]) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposed = true
	m.pairs = nil
	return nil
}

// Len reports the number of pairs currently stored, without building the
// full Enumerate result.
func (m *MemoryDatabase[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pairs)
}

var _ Database[string, string] = (*MemoryDatabase[string, string])(nil)
