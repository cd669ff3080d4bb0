package stringdb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stringdb/stringdb"
)

func insertStrings(t *testing.T, db stringdb.Database[string, string], pairs [][2]string) {
	t.Helper()
	kvs := make([]stringdb.KeyValue[string, string], len(pairs))
	for i, p := range pairs {
		v := p[1]
		kvs[i] = stringdb.KeyValue[string, string]{Key: p[0], Value: loaderOf(v)}
	}
	require.NoError(t, db.InsertRange(kvs))
}

type constLoader string

func (l constLoader) Load() (string, error) { return string(l), nil }

func loaderOf(v string) stringdb.LazyLoader[string] { return constLoader(v) }

func TestMemoryDatabaseInsertThenRead(t *testing.T) {
	db := stringdb.NewMemoryDatabaseComparable[string, string]()
	insertStrings(t, db, [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}})

	v, err := db.Get("b")
	require.NoError(t, err)
	require.Equal(t, "2", v)

	pairs, err := db.Enumerate()
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	require.Equal(t, "a", pairs[0].Key)
	require.Equal(t, "c", pairs[2].Key)
}

func TestMemoryDatabaseDuplicateKeys(t *testing.T) {
	db := stringdb.NewMemoryDatabaseComparable[string, string]()
	insertStrings(t, db, [][2]string{{"k", "1"}, {"k", "2"}, {"k", "3"}})

	v, err := db.Get("k")
	require.NoError(t, err)
	require.Equal(t, "1", v)

	loaders, err := db.GetAll("k")
	require.NoError(t, err)
	require.Len(t, loaders, 3)
	var values []string
	for _, l := range loaders {
		v, err := l.Load()
		require.NoError(t, err)
		values = append(values, v)
	}
	require.Equal(t, []string{"1", "2", "3"}, values)
}

func TestMemoryDatabaseGetMissing(t *testing.T) {
	db := stringdb.NewMemoryDatabaseComparable[string, string]()
	_, err := db.Get("missing")
	require.True(t, stringdb.IsNotFound(err))

	_, ok, err := db.TryGet("missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryDatabaseTryGetMatchesGet(t *testing.T) {
	db := stringdb.NewMemoryDatabaseComparable[string, string]()
	insertStrings(t, db, [][2]string{{"z", ""}})

	v, err := db.Get("z")
	require.NoError(t, err)
	require.Equal(t, "", v)

	got, ok, err := db.TryGet("z")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "", got)
}

func TestMemoryDatabaseFirstEmpty(t *testing.T) {
	db := stringdb.NewMemoryDatabaseComparable[string, string]()
	_, err := db.First()
	require.True(t, stringdb.IsNotFound(err))
}

func TestMemoryDatabaseDisposeRejectsFurtherOps(t *testing.T) {
	db := stringdb.NewMemoryDatabaseComparable[string, string]()
	insertStrings(t, db, [][2]string{{"a", "1"}})
	require.NoError(t, db.Dispose())

	_, err := db.Get("a")
	require.True(t, stringdb.IsUseAfterDispose(err))

	err = db.Insert("b", "2")
	require.True(t, stringdb.IsUseAfterDispose(err))
}
