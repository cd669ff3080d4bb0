// Copyright 2025 The StringDB Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package filedb

import (
	"io"
	"time"

	"github.com/stringdb/stringdb/internal/base"
	"github.com/stringdb/stringdb/internal/codec"
	"github.com/stringdb/stringdb/keycodec"
	"github.com/stringdb/stringdb/typehandler"
)

// FileReader performs forward/positional traversal of the shared stream,
// yielding lazy record handles (COMPONENT DESIGN §FileReader). Its
// positional cache of parsed chunks lives on the shared state so it can be
// invalidated by either the reader or the writer via DrainBuffer.
type FileReader[K any, V any] struct {
	state    *sharedState
	keyCodec keycodec.KeyCodec[K]
	registry *typehandler.Registry[V]
}

func newFileReader[K any, V any](state *sharedState, kc keycodec.KeyCodec[K], reg *typehandler.Registry[V]) *FileReader[K, V] {
	return &FileReader[K, V]{state: state, keyCodec: kc, registry: reg}
}

// ValueLoader is the FileReader's LazyLoader[V]: it captures the shared
// state and an absolute value offset, paying the seek+decode cost only
// inside Load (COMPONENT DESIGN §FileReader).
type ValueLoader[V any] struct {
	state    *sharedState
	registry *typehandler.Registry[V]
	offset   uint64
}

// Load seeks to the captured offset and decodes the typed value there,
// holding the shared stream lock only for the duration of this single
// interaction. The seek+decode latency is recorded to the database's
// LoadLatencyMicros histogram.
func (l ValueLoader[V]) Load() (V, error) {
	var zero V
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	if l.state.disposed {
		return zero, base.ErrUseAfterDispose
	}
	start := time.Now()
	v, err := readValueRecordAt(l.state.stream, l.registry, l.offset)
	if l.state.metrics != nil {
		l.state.metrics.recordLoadMicros(time.Since(start).Microseconds())
	}
	return v, err
}

// entry is one decoded IndexEntry together with the reader that can
// materialize it, the package-private shape returned by chunk traversal
// before it's translated to the caller-facing KeyValue type.
type entry[K any, V any] struct {
	key    K
	loader ValueLoader[V]
}

// readAllChunks walks every chunk from the file's first chunk (offset 0)
// to the terminal one, verifying each chunk's checksum the first time it
// is traversed and caching the parsed result keyed by chunk offset. The
// caller must already hold the shared lock.
func (r *FileReader[K, V]) readAllChunks() ([]entry[K, V], error) {
	size, err := r.streamSize()
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}

	var out []entry[K, V]
	offset := uint64(0)
	for {
		result, err := r.chunkAt(offset)
		if err != nil {
			return nil, err
		}
		if r.state.metrics != nil {
			r.state.metrics.recordChunkRead()
		}
		if err := result.verifyChecksum(); err != nil {
			if r.state.metrics != nil {
				r.state.metrics.recordChecksumError()
			}
			return nil, err
		}
		for _, raw := range result.entries {
			key, err := r.keyCodec.Decode(raw.keyBytes)
			if err != nil {
				return nil, err
			}
			out = append(out, entry[K, V]{
				key:    key,
				loader: ValueLoader[V]{state: r.state, registry: r.registry, offset: raw.valueOffset},
			})
		}
		if result.next == 0 {
			break
		}
		offset = result.next
	}
	return out, nil
}

// chunkAt returns the parsed chunk at offset, consulting and populating
// the shared positional cache. The caller must already hold the shared
// lock.
func (r *FileReader[K, V]) chunkAt(offset uint64) (*chunkResult, error) {
	if r.state.posCache == nil {
		r.state.posCache = make(map[uint64]*chunkResult)
	}
	if cached, ok := r.state.posCache[offset]; ok {
		if r.state.metrics != nil {
			r.state.metrics.recordCacheHit()
		}
		return cached, nil
	}
	if r.state.metrics != nil {
		r.state.metrics.recordCacheMiss()
	}
	result, err := readChunk(r.state.stream, offset)
	if err != nil {
		return nil, err
	}
	r.state.posCache[offset] = result
	return result, nil
}

func (r *FileReader[K, V]) streamSize() (int64, error) {
	cur, err := r.state.stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := r.state.stream.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := r.state.stream.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}

// Enumerate returns every entry in insertion order, within and across
// chunks.
func (r *FileReader[K, V]) Enumerate() ([]entry[K, V], error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if r.state.disposed {
		return nil, base.ErrUseAfterDispose
	}
	return r.readAllChunks()
}

// First returns the first entry in enumeration order, or ErrNotFound if
// the file is empty.
func (r *FileReader[K, V]) First() (entry[K, V], error) {
	entries, err := r.Enumerate()
	if err != nil {
		return entry[K, V]{}, err
	}
	if len(entries) == 0 {
		return entry[K, V]{}, base.ErrNotFound
	}
	return entries[0], nil
}

// GetByIndex performs a linear scan for the first entry matching key.
func (r *FileReader[K, V]) GetByIndex(key K) (entry[K, V], bool, error) {
	entries, err := r.Enumerate()
	if err != nil {
		return entry[K, V]{}, false, err
	}
	for _, e := range entries {
		if r.keyCodec.Equal(e.key, key) {
			return e, true, nil
		}
	}
	return entry[K, V]{}, false, nil
}

// GetMultipleByIndex performs a linear scan for every entry matching key,
// in file order.
func (r *FileReader[K, V]) GetMultipleByIndex(key K) ([]entry[K, V], error) {
	entries, err := r.Enumerate()
	if err != nil {
		return nil, err
	}
	var out []entry[K, V]
	for _, e := range entries {
		if r.keyCodec.Equal(e.key, key) {
			out = append(out, e)
		}
	}
	return out, nil
}

// DrainBuffer invalidates the positional cache. Called after any write
// that may have extended or mutated records (COMPONENT DESIGN
// §FileReader).
func (r *FileReader[K, V]) DrainBuffer() {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.posCache = nil
}

// valueRecordLenAt reads and discards a Value record at offset, returning
// its total on-disk byte length (tag+ID+length-prefix+payload), used by
// OverwriteValue to pre-check the hard same-size constraint before it
// commits to a write. The caller must already hold the shared lock.
func valueRecordLenAt[V any](stream Stream, registry *typehandler.Registry[V], offset uint64) (uint64, error) {
	if _, err := stream.Seek(int64(offset), io.SeekStart); err != nil {
		return 0, err
	}
	cr := &countingReader{r: stream}
	tag, err := codec.ReadTag(cr)
	if err != nil {
		return 0, err
	}
	if tag != codec.TagValue {
		return 0, base.CorruptionErrorf("stringdb: expected value record at offset %d, found tag 0x%x", offset, tag)
	}
	id, err := codec.ReadTag(cr)
	if err != nil {
		return 0, err
	}
	if _, err := registry.MustLookup(id); err != nil {
		return 0, err
	}
	length, err := codec.ReadLength(cr)
	if err != nil {
		return 0, err
	}
	if _, err := io.CopyN(io.Discard, cr, int64(length)); err != nil {
		return 0, err
	}
	return uint64(cr.n), nil
}
