// Copyright 2025 The StringDB Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package filedb

import (
	"sync"
	"sync/atomic"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a point-in-time snapshot of a FileDatabase's activity,
// returned by FileDatabase.Metrics(). The counters are cheap atomics;
// LoadLatencyMicros is a copy of the underlying HDR histogram taken under
// its own lock.
type Metrics struct {
	BytesWritten   uint64
	ChunksWritten  uint64
	ChunksRead     uint64
	CleanCount     uint64
	CacheHits      uint64
	CacheMisses    uint64
	ChecksumErrors uint64

	// LoadLatencyMicros summarizes the distribution of Load() latencies in
	// microseconds, collected with an HDR histogram the way pebble tracks
	// compaction and flush latencies.
	LoadLatencyMicros HistogramSnapshot
}

// HistogramSnapshot is the subset of hdrhistogram.Snapshot callers are
// expected to read.
type HistogramSnapshot struct {
	Min   int64
	Max   int64
	Mean  float64
	P50   int64
	P99   int64
	Count int64
}

// metricsCollector is the live, mutable counterpart to Metrics, held by a
// FileDatabase and registered with Prometheus so embedding applications can
// scrape it alongside their own collectors.
type metricsCollector struct {
	bytesWritten   atomic.Uint64
	chunksWritten  atomic.Uint64
	chunksRead     atomic.Uint64
	cleanCount     atomic.Uint64
	cacheHits      atomic.Uint64
	cacheMisses    atomic.Uint64
	checksumErrors atomic.Uint64

	histMu sync.Mutex
	hist   *hdrhistogram.Histogram

	bytesWrittenDesc   *prometheus.Desc
	chunksWrittenDesc  *prometheus.Desc
	chunksReadDesc     *prometheus.Desc
	cleanCountDesc     *prometheus.Desc
	cacheHitsDesc      *prometheus.Desc
	cacheMissesDesc    *prometheus.Desc
	checksumErrorsDesc *prometheus.Desc
}

// newMetricsCollector constructs a collector. path identifies the database
// instance in exported metric labels, mirroring how pebble labels its
// Prometheus collectors by store path.
func newMetricsCollector(path string) *metricsCollector {
	constLabels := prometheus.Labels{"path": path}
	return &metricsCollector{
		// 1 microsecond to 10 seconds, 3 significant digits, matching the
		// precision pebble uses for its own commit-pipeline histograms.
		hist:               hdrhistogram.New(1, 10_000_000, 3),
		bytesWrittenDesc:   prometheus.NewDesc("stringdb_bytes_written_total", "Total bytes appended to the file.", nil, constLabels),
		chunksWrittenDesc:  prometheus.NewDesc("stringdb_chunks_written_total", "Total chunks appended by InsertRange.", nil, constLabels),
		chunksReadDesc:     prometheus.NewDesc("stringdb_chunks_read_total", "Total chunks traversed while parsing the chain, across all Enumerate calls.", nil, constLabels),
		cleanCountDesc:     prometheus.NewDesc("stringdb_clean_total", "Total CleanTo/CleanFrom compactions performed.", nil, constLabels),
		cacheHitsDesc:      prometheus.NewDesc("stringdb_cache_hits_total", "Positional cache hits during chunk traversal.", nil, constLabels),
		cacheMissesDesc:    prometheus.NewDesc("stringdb_cache_misses_total", "Positional cache misses during chunk traversal.", nil, constLabels),
		checksumErrorsDesc: prometheus.NewDesc("stringdb_checksum_errors_total", "Chunk checksum verification failures.", nil, constLabels),
	}
}

func (c *metricsCollector) recordWrite(n uint64) {
	c.bytesWritten.Add(n)
}

func (c *metricsCollector) recordChunk() {
	c.chunksWritten.Add(1)
}

func (c *metricsCollector) recordChunkRead() {
	c.chunksRead.Add(1)
}

func (c *metricsCollector) recordClean() {
	c.cleanCount.Add(1)
}

func (c *metricsCollector) recordCacheHit() {
	c.cacheHits.Add(1)
}

func (c *metricsCollector) recordCacheMiss() {
	c.cacheMisses.Add(1)
}

func (c *metricsCollector) recordChecksumError() {
	c.checksumErrors.Add(1)
}

func (c *metricsCollector) recordLoadMicros(micros int64) {
	if micros < 1 {
		micros = 1 // RecordValue rejects non-positive values; a sub-microsecond load still counts as one tick
	}
	c.histMu.Lock()
	defer c.histMu.Unlock()
	_ = c.hist.RecordValue(micros)
}

func (c *metricsCollector) snapshot() Metrics {
	c.histMu.Lock()
	snap := HistogramSnapshot{
		Min:   c.hist.Min(),
		Max:   c.hist.Max(),
		Mean:  c.hist.Mean(),
		P50:   c.hist.ValueAtQuantile(50),
		P99:   c.hist.ValueAtQuantile(99),
		Count: c.hist.TotalCount(),
	}
	c.histMu.Unlock()
	return Metrics{
		BytesWritten:      c.bytesWritten.Load(),
		ChunksWritten:     c.chunksWritten.Load(),
		ChunksRead:        c.chunksRead.Load(),
		CleanCount:        c.cleanCount.Load(),
		CacheHits:         c.cacheHits.Load(),
		CacheMisses:       c.cacheMisses.Load(),
		ChecksumErrors:    c.checksumErrors.Load(),
		LoadLatencyMicros: snap,
	}
}

// Describe implements prometheus.Collector.
func (c *metricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytesWrittenDesc
	ch <- c.chunksWrittenDesc
	ch <- c.chunksReadDesc
	ch <- c.cleanCountDesc
	ch <- c.cacheHitsDesc
	ch <- c.cacheMissesDesc
	ch <- c.checksumErrorsDesc
}

// Collect implements prometheus.Collector.
func (c *metricsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.snapshot()
	ch <- prometheus.MustNewConstMetric(c.bytesWrittenDesc, prometheus.CounterValue, float64(s.BytesWritten))
	ch <- prometheus.MustNewConstMetric(c.chunksWrittenDesc, prometheus.CounterValue, float64(s.ChunksWritten))
	ch <- prometheus.MustNewConstMetric(c.chunksReadDesc, prometheus.CounterValue, float64(s.ChunksRead))
	ch <- prometheus.MustNewConstMetric(c.cleanCountDesc, prometheus.CounterValue, float64(s.CleanCount))
	ch <- prometheus.MustNewConstMetric(c.cacheHitsDesc, prometheus.CounterValue, float64(s.CacheHits))
	ch <- prometheus.MustNewConstMetric(c.cacheMissesDesc, prometheus.CounterValue, float64(s.CacheMisses))
	ch <- prometheus.MustNewConstMetric(c.checksumErrorsDesc, prometheus.CounterValue, float64(s.ChecksumErrors))
}

var _ prometheus.Collector = (*metricsCollector)(nil)
