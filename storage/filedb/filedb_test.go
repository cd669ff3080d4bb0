package filedb_test

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/stringdb/stringdb"
	"github.com/stringdb/stringdb/keycodec"
	"github.com/stringdb/stringdb/storage/filedb"
	"github.com/stringdb/stringdb/typehandler"
)

func openTestDB(t *testing.T) (*filedb.FileDatabase[string, string], *memStream) {
	t.Helper()
	stream := &memStream{}
	db, err := filedb.OpenStream[string, string](stream,
		filedb.WithKeyCodec[string, string](keycodec.StringCodec{}),
		filedb.WithValueRegistry[string, string](typehandler.NewStringRegistry()),
		filedb.WithValueHandler[string, string](typehandler.StringHandler{}),
		filedb.WithoutOwningStream[string, string](),
	)
	require.NoError(t, err)
	return db, stream
}

func kvs(pairs ...[2]string) []stringdb.KeyValue[string, string] {
	out := make([]stringdb.KeyValue[string, string], len(pairs))
	for i, p := range pairs {
		out[i] = stringdb.KeyValue[string, string]{Key: p[0], Value: stringValueLoader(p[1])}
	}
	return out
}

type stringValueLoader string

func (l stringValueLoader) Load() (string, error) { return string(l), nil }

// Scenario 1: insert-then-read.
func TestInsertThenRead(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Dispose()

	require.NoError(t, db.InsertRange(kvs([2]string{"a", "1"}, [2]string{"b", "2"}, [2]string{"c", "3"})))

	v, err := db.Get("b")
	require.NoError(t, err)
	require.Equal(t, "2", v)

	v, err = db.Get("c")
	require.NoError(t, err)
	require.Equal(t, "3", v)

	pairs, err := db.Enumerate()
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	require.Equal(t, []string{"a", "b", "c"}, keysOf(t, pairs))
}

// Scenario 2: multiple batches link correctly.
func TestMultipleBatchesLink(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Dispose()

	require.NoError(t, db.InsertRange(kvs([2]string{"a", "1"})))
	require.NoError(t, db.InsertRange(kvs([2]string{"b", "2"})))
	require.NoError(t, db.InsertRange(kvs([2]string{"c", "3"})))

	pairs, err := db.Enumerate()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, keysOf(t, pairs))

	m := db.Metrics()
	require.Equal(t, uint64(3), m.ChunksWritten)
}

// Scenario 3: duplicate keys.
func TestDuplicateKeys(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Dispose()

	require.NoError(t, db.InsertRange(kvs([2]string{"k", "1"}, [2]string{"k", "2"}, [2]string{"k", "3"})))

	v, err := db.Get("k")
	require.NoError(t, err)
	require.Equal(t, "1", v)

	loaders, err := db.GetAll("k")
	require.NoError(t, err)
	require.Len(t, loaders, 3)
	var got []string
	for _, l := range loaders {
		v, err := l.Load()
		require.NoError(t, err)
		got = append(got, v)
	}
	require.Equal(t, []string{"1", "2", "3"}, got)
}

// Scenario 5: clean compacts.
func TestCleanCompacts(t *testing.T) {
	a, _ := openTestDB(t)
	defer a.Dispose()

	for i := 0; i < 100; i++ {
		require.NoError(t, a.InsertRange(kvs([2]string{fmt.Sprintf("k%03d", i), fmt.Sprintf("v%03d", i)})))
	}

	b, _ := openTestDB(t)
	defer b.Dispose()

	require.NoError(t, a.CleanTo(b))

	bMetrics := b.Metrics()
	require.Equal(t, uint64(1), bMetrics.ChunksWritten)

	aPairs, err := a.Enumerate()
	require.NoError(t, err)
	bPairs, err := b.Enumerate()
	require.NoError(t, err)
	require.Equal(t, keysOf(t, aPairs), keysOf(t, bPairs))
	require.Equal(t, valuesOf(t, aPairs), valuesOf(t, bPairs))
}

// Scenario 6: overwrite same-size value.
func TestOverwriteSameSizeValue(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Dispose()

	require.NoError(t, db.Insert("k", "abc"))

	loaders, err := db.GetAll("k")
	require.NoError(t, err)
	require.Len(t, loaders, 1)

	require.NoError(t, db.OverwriteValue(loaders[0], "xyz"))
	v, err := db.Get("k")
	require.NoError(t, err)
	require.Equal(t, "xyz", v)

	err = db.OverwriteValue(loaders[0], "toolong")
	require.Error(t, err)
}

// Universal property: a chunk written by InsertRange always verifies under
// the checksum check immediately after the write completes.
func TestChunkVerifiesAfterWrite(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Dispose()

	require.NoError(t, db.InsertRange(kvs([2]string{"a", "1"}, [2]string{"b", "2"})))
	_, err := db.Enumerate()
	require.NoError(t, err)
	require.Equal(t, uint64(0), db.Metrics().ChecksumErrors)
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Dispose()
	require.NoError(t, db.Insert("a", "1"))

	_, err := db.Get("missing")
	require.True(t, stringdb.IsNotFound(err))
}

func TestFirstOnEmptyDatabase(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Dispose()
	_, err := db.First()
	require.True(t, stringdb.IsNotFound(err))
}

func TestDisposeThenLoadFails(t *testing.T) {
	db, _ := openTestDB(t)
	require.NoError(t, db.Insert("a", "1"))

	loaders, err := db.GetAll("a")
	require.NoError(t, err)
	require.NoError(t, db.Dispose())

	_, err = loaders[0].Load()
	require.True(t, stringdb.IsUseAfterDispose(err))
}

func TestReopenExistingStreamAppends(t *testing.T) {
	stream := &memStream{}
	db1, err := filedb.OpenStream[string, string](stream,
		filedb.WithKeyCodec[string, string](keycodec.StringCodec{}),
		filedb.WithValueRegistry[string, string](typehandler.NewStringRegistry()),
		filedb.WithValueHandler[string, string](typehandler.StringHandler{}),
		filedb.WithoutOwningStream[string, string](),
	)
	require.NoError(t, err)
	require.NoError(t, db1.InsertRange(kvs([2]string{"a", "1"})))
	require.NoError(t, db1.Dispose())

	db2, err := filedb.OpenStream[string, string](stream,
		filedb.WithKeyCodec[string, string](keycodec.StringCodec{}),
		filedb.WithValueRegistry[string, string](typehandler.NewStringRegistry()),
		filedb.WithValueHandler[string, string](typehandler.StringHandler{}),
		filedb.WithoutOwningStream[string, string](),
	)
	require.NoError(t, err)
	defer db2.Dispose()
	require.NoError(t, db2.InsertRange(kvs([2]string{"b", "2"})))

	pairs, err := db2.Enumerate()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, keysOf(t, pairs))
}

// Load latency is actually measured, not a permanently empty histogram.
func TestLoadLatencyHistogramRecorded(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Dispose()

	require.NoError(t, db.InsertRange(kvs([2]string{"a", "1"}, [2]string{"b", "2"})))
	loaders, err := db.GetAll("a")
	require.NoError(t, err)
	_, err = loaders[0].Load()
	require.NoError(t, err)
	_, err = db.Get("b")
	require.NoError(t, err)

	hist := db.Metrics().LoadLatencyMicros
	require.GreaterOrEqual(t, hist.Count, int64(2))
}

// The Prometheus collector backing Metrics() is reachable from outside the
// package and describes every counter it collects.
func TestPrometheusCollectorReachable(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Dispose()
	require.NoError(t, db.Insert("a", "1"))

	var collector prometheus.Collector = db.PrometheusCollector()

	descCh := make(chan *prometheus.Desc, 16)
	collector.Describe(descCh)
	close(descCh)
	var descs int
	for range descCh {
		descs++
	}
	require.Equal(t, 7, descs)

	metricCh := make(chan prometheus.Metric, 16)
	collector.Collect(metricCh)
	close(metricCh)
	var metrics int
	for range metricCh {
		metrics++
	}
	require.Equal(t, 7, metrics)
}

// ChunksRead tracks chunks traversed on the read path, independent of
// ChunksWritten, so a process that only opens and verifies a file still
// reports the chunks it walked.
func TestChunksReadCountsTraversal(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Dispose()

	require.NoError(t, db.InsertRange(kvs([2]string{"a", "1"})))
	require.NoError(t, db.InsertRange(kvs([2]string{"b", "2"})))

	require.Equal(t, uint64(0), db.Metrics().ChunksRead)
	_, err := db.Enumerate()
	require.NoError(t, err)
	require.Equal(t, uint64(2), db.Metrics().ChunksRead)
}

func keysOf(t *testing.T, pairs []stringdb.KeyValue[string, string]) []string {
	t.Helper()
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.Key
	}
	return out
}

func valuesOf(t *testing.T, pairs []stringdb.KeyValue[string, string]) []string {
	t.Helper()
	out := make([]string, len(pairs))
	for i, p := range pairs {
		v, err := p.Value.Load()
		require.NoError(t, err)
		out[i] = v
	}
	return out
}
