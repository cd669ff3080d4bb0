// Copyright 2025 The StringDB Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package filedb implements StringDB's on-disk storage engine: FileReader,
// FileWriter, and FileDatabase, binding the two over a single shared,
// mutex-guarded stream. This is the analogue of pebble's sstable package,
// scaled to StringDB's simpler append-only, chunk-chained format.
package filedb

import (
	"io"
	"sync"
)

// Stream is the seekable byte stream StringDB's file format is written to
// and read from. *os.File satisfies it; so does any in-memory
// io.ReadWriteSeeker used in tests.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker
}

// syncer is implemented by streams (like *os.File) that can flush buffered
// writes to stable storage.
type syncer interface {
	Sync() error
}

// closer is implemented by streams that own an OS resource.
type closer interface {
	Close() error
}

// sharedState is the mutex-guarded stream FileReader and FileWriter both
// operate on, the explicit form of the implicit lock object described in
// DESIGN NOTES §Shared stream state.
type sharedState struct {
	mu       sync.Mutex
	stream   Stream
	disposed bool
	own      bool
	metrics  *metricsCollector

	// posCache maps an absolute chunk offset to its parsed chunkResult,
	// invalidated by DrainBuffer after any write that may have extended or
	// mutated records (COMPONENT DESIGN §FileReader).
	posCache map[uint64]*chunkResult
}

func flushStream(s Stream) error {
	if f, ok := s.(syncer); ok {
		return f.Sync()
	}
	return nil
}

// countingReader wraps an io.Reader and tracks the number of bytes it has
// handed out, used to locate record boundaries within a chunk without
// repeated Seek(0, io.SeekCurrent) round trips.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
