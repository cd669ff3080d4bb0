package stringdb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stringdb/stringdb"
)

// countingLoader counts how many times Load has been called, used to
// assert the CacheDatabase memoization property independent of any
// particular inner Database implementation.
type countingLoader struct {
	value int
	count *int
}

func (l countingLoader) Load() (int, error) {
	*l.count++
	return l.value, nil
}

// countingMemoryDB wraps a MemoryDatabase[string,int] but tracks how many
// times Enumerate has been called and hands out fresh counting loaders
// each time, simulating a backing store whose materialization cost is
// worth memoizing.
type countingMemoryDB struct {
	inner        *stringdb.MemoryDatabase[string, int]
	loadCounts   []*int
	enumerations int
}

func newCountingMemoryDB() *countingMemoryDB {
	return &countingMemoryDB{inner: stringdb.NewMemoryDatabaseComparable[string, int]()}
}

func (c *countingMemoryDB) Insert(key string, value int) error {
	return c.InsertRange([]stringdb.KeyValue[string, int]{{Key: key, Value: constIntLoader(value)}})
}

func (c *countingMemoryDB) InsertRange(pairs []stringdb.KeyValue[string, int]) error {
	for _, p := range pairs {
		v, err := p.Value.Load()
		if err != nil {
			return err
		}
		if err := c.inner.Insert(p.Key, v); err != nil {
			return err
		}
		count := new(int)
		c.loadCounts = append(c.loadCounts, count)
	}
	return nil
}

func (c *countingMemoryDB) Get(key string) (int, error) { return c.inner.Get(key) }

func (c *countingMemoryDB) TryGet(key string) (int, bool, error) { return c.inner.TryGet(key) }

func (c *countingMemoryDB) GetAll(key string) ([]stringdb.LazyLoader[int], error) {
	return c.inner.GetAll(key)
}

func (c *countingMemoryDB) Enumerate() ([]stringdb.KeyValue[string, int], error) {
	c.enumerations++
	pairs, err := c.inner.Enumerate()
	if err != nil {
		return nil, err
	}
	out := make([]stringdb.KeyValue[string, int], len(pairs))
	for i, p := range pairs {
		v, err := p.Value.Load()
		if err != nil {
			return nil, err
		}
		out[i] = stringdb.KeyValue[string, int]{Key: p.Key, Value: countingLoader{value: v, count: c.loadCounts[i]}}
	}
	return out, nil
}

func (c *countingMemoryDB) First() (stringdb.KeyValue[string, int], error) { return c.inner.First() }

func (c *countingMemoryDB) Dispose() error { return c.inner.Dispose() }

type constIntLoader int

func (l constIntLoader) Load() (int, error) { return int(l), nil }

var _ stringdb.Database[string, int] = (*countingMemoryDB)(nil)

func TestCacheDatabaseMemoizesAcrossEnumerations(t *testing.T) {
	inner := newCountingMemoryDB()
	require.NoError(t, inner.InsertRange([]stringdb.KeyValue[string, int]{
		{Key: "ichi", Value: constIntLoader(1)},
		{Key: "ni", Value: constIntLoader(2)},
		{Key: "san", Value: constIntLoader(3)},
	}))

	cache := stringdb.NewCacheDatabase[string, int](inner)

	for pass := 0; pass < 3; pass++ {
		pairs, err := cache.Enumerate()
		require.NoError(t, err)
		require.Len(t, pairs, 3)
		for i := 0; i < 3; i++ {
			for _, p := range pairs {
				_, err := p.Value.Load()
				require.NoError(t, err)
			}
		}
	}

	require.Equal(t, 3, inner.enumerations)
	for _, count := range inner.loadCounts {
		require.Equal(t, 1, *count)
	}
}

func TestCacheDatabaseExtendsLazilyOnInsert(t *testing.T) {
	inner := newCountingMemoryDB()
	cache := stringdb.NewCacheDatabase[string, int](inner)

	require.NoError(t, inner.InsertRange([]stringdb.KeyValue[string, int]{
		{Key: "a", Value: constIntLoader(1)},
		{Key: "b", Value: constIntLoader(2)},
	}))
	pairs, err := cache.Enumerate()
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	require.NoError(t, inner.InsertRange([]stringdb.KeyValue[string, int]{
		{Key: "c", Value: constIntLoader(3)},
	}))
	pairs, err = cache.Enumerate()
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	for i, p := range pairs {
		v, err := p.Value.Load()
		require.NoError(t, err)
		require.Equal(t, i+1, v)
	}
	for _, count := range inner.loadCounts {
		require.Equal(t, 1, *count)
	}
}
