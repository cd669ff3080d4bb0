// Copyright 2025 The StringDB Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package filedb

import (
	"bytes"
	"io"

	"github.com/stringdb/stringdb/internal/base"
	"github.com/stringdb/stringdb/internal/codec"
	"github.com/stringdb/stringdb/keycodec"
	"github.com/stringdb/stringdb/typehandler"
)

// FileWriter appends batches of (key, value) pairs to a shared stream as a
// single linked chunk per call, back-patching the previous terminal
// chunk's forward pointer once the new chunk is durably written
// (COMPONENT DESIGN §FileWriter).
type FileWriter[K any, V any] struct {
	state     *sharedState
	keyCodec  keycodec.KeyCodec[K]
	handler   typehandler.TypeHandler[V]
	terminal  uint64 // absolute offset of the chain-patch field in the current terminal chunk; 0 if file is empty
	fileEmpty bool
}

func newFileWriter[K any, V any](state *sharedState, kc keycodec.KeyCodec[K], h typehandler.TypeHandler[V], terminalPatchOffset uint64, fileEmpty bool) *FileWriter[K, V] {
	return &FileWriter[K, V]{state: state, keyCodec: kc, handler: h, terminal: terminalPatchOffset, fileEmpty: fileEmpty}
}

type encodedItem[K any] struct {
	keyBytes    []byte
	valueBytes  []byte
	valueOffset uint64 // relative to the start of the value region, filled in during layout
}

// Insert appends a single pair. Equivalent to InsertRange with one item.
func (w *FileWriter[K, V]) Insert(key K, value V) error {
	return w.InsertRange([]pendingPair[K, V]{{key: key, value: value}})
}

// pendingPair is the writer's internal view of an item to append: a
// decoded key/value, not yet encoded to bytes.
type pendingPair[K any, V any] struct {
	key   K
	value V
}

// InsertRange writes pairs as one linked chunk, following the six steps
// of COMPONENT DESIGN §FileWriter. The previous terminal chunk's forward
// pointer is patched only after the new chunk has been fully written and
// flushed: a crash between those two points leaves the new chunk
// unreachable but otherwise intact, satisfying the atomicity guarantee
// ("a crash during steps 3-5 leaves the chunk unlinked") that spec.md's own
// step ordering (patch-then-write) would violate, since a crash after
// patching but before the new chunk finishes writing would link readers
// into a truncated chunk. This implementation deliberately reorders
// spec.md's steps 2 and 6 for that reason.
func (w *FileWriter[K, V]) InsertRange(pairs []pendingPair[K, V]) error {
	if len(pairs) == 0 {
		return nil
	}
	w.state.mu.Lock()
	defer w.state.mu.Unlock()
	if w.state.disposed {
		return base.ErrUseAfterDispose
	}

	// Step 1: encode every item and compute the index region's exact size.
	items := make([]encodedItem[K], len(pairs))
	indexSize := 1 // chunk-start marker
	for i, p := range pairs {
		kb := w.keyCodec.Encode(p.key)
		var buf bytes.Buffer
		if err := writeValueRecord(&buf, w.handler, p.value); err != nil {
			return err
		}
		items[i] = encodedItem[K]{keyBytes: kb, valueBytes: buf.Bytes()}
		indexSize += indexEntrySize(len(kb))
	}
	indexSize += int(chainRecordSize)

	// Step 2 (deferred): the chunk's start offset is the file's current
	// end; append-only means that's always the stream's current length.
	chunkStart, err := w.state.stream.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	chunkStartU := uint64(chunkStart)
	valueRegionStart := chunkStartU + uint64(indexSize)

	// Step 3: write the index region, back-patching each entry's value
	// offset as the value write position advances.
	var out bytes.Buffer
	out.WriteByte(codec.TagChunkStart)
	valueOffset := valueRegionStart
	for _, item := range items {
		if err := writeIndexEntry(&out, item.keyBytes, valueOffset); err != nil {
			return err
		}
		valueOffset += uint64(len(item.valueBytes))
	}
	idxBytes := make([]byte, out.Len())
	copy(idxBytes, out.Bytes())

	// Step 4: append value records sequentially.
	var values bytes.Buffer
	for _, item := range items {
		values.Write(item.valueBytes)
	}

	// Step 5: write the terminal IndexChain record, sentinel (zero) next
	// pointer, sealed with the chunk checksum over idxBytes.
	checksum := codec.ChunkChecksum(idxBytes)
	var chain bytes.Buffer
	if err := writeIndexChain(&chain, 0, checksum); err != nil {
		return err
	}

	if _, err := w.state.stream.Write(idxBytes); err != nil {
		return err
	}
	if _, err := w.state.stream.Write(chain.Bytes()); err != nil {
		return err
	}
	if _, err := w.state.stream.Write(values.Bytes()); err != nil {
		return err
	}
	if err := flushStream(w.state.stream); err != nil {
		return err
	}

	// Step 6: link the previous terminal chunk to this one, last, so a
	// crash before this point leaves the new chunk merely unreachable
	// rather than half-written-but-linked.
	if !w.fileEmpty {
		if _, err := w.state.stream.Seek(int64(w.terminal), io.SeekStart); err != nil {
			return err
		}
		if err := codec.WriteUint64(w.state.stream, chunkStartU); err != nil {
			return err
		}
		if err := flushStream(w.state.stream); err != nil {
			return err
		}
	}

	w.terminal = chunkStartU + uint64(len(idxBytes)) + 1 // +1 for the chain's tag byte, pointer field starts there
	w.fileEmpty = false

	if w.state.metrics != nil {
		w.state.metrics.recordChunk()
		w.state.metrics.recordWrite(uint64(len(idxBytes) + chain.Len() + values.Len()))
	}

	// drain the positional cache: new records exist that weren't there
	// before, and (in the overwrite case elsewhere) existing ones may have
	// changed.
	w.state.posCache = nil

	return nil
}

// OverwriteValue replaces the payload at a previously-observed value
// offset with newValue, provided the new encoding is exactly the same
// number of bytes as what is already on disk (COMPONENT DESIGN
// §FileWriter, OverwriteValue).
func (w *FileWriter[K, V]) OverwriteValue(valueOffset uint64, oldEncodedLen uint64, newValue V) error {
	w.state.mu.Lock()
	defer w.state.mu.Unlock()
	if w.state.disposed {
		return base.ErrUseAfterDispose
	}

	var buf bytes.Buffer
	if err := writeValueRecord(&buf, w.handler, newValue); err != nil {
		return err
	}
	newLen := uint64(buf.Len())
	if newLen != oldEncodedLen {
		return base.NewOverwriteSizeMismatchError(oldEncodedLen, newLen)
	}

	if _, err := w.state.stream.Seek(int64(valueOffset), io.SeekStart); err != nil {
		return err
	}
	if _, err := w.state.stream.Write(buf.Bytes()); err != nil {
		return err
	}
	if err := flushStream(w.state.stream); err != nil {
		return err
	}
	w.state.posCache = nil
	return nil
}
