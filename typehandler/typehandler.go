// Copyright 2025 The StringDB Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package typehandler implements pluggable (de)serialization for the typed
// value payloads StringDB stores in Value records, keyed by a single byte
// ID the way pebble keys block compressors and sstable.lineNumber blocks off
// a small fixed tag byte.
package typehandler

import (
	"io"
	"sync"

	"github.com/stringdb/stringdb/internal/base"
	"github.com/stringdb/stringdb/internal/codec"
)

// Reserved type IDs. Custom handlers must use IDs >= IDUserStart to avoid
// collision with these.
const (
	IDByteArray       byte = 0x01
	IDString          byte = 0x02
	IDStream          byte = 0x03
	IDCompressedBytes byte = 0x04 // zstd, see compress.go
	IDSnappyBytes     byte = 0x05 // snappy, see compress.go
	IDUserStart       byte = 0x30
)

// TypeHandler (de)serializes values of type T to and from a Value record's
// payload. A Value record is always prefixed by the handler's ID byte and a
// length prefix computed by Length; Write must emit exactly Length(item)
// payload bytes.
type TypeHandler[T any] interface {
	// ID is the single byte stored in the Value record ahead of the length
	// prefix. Must be stable for the lifetime of any file using it.
	ID() byte
	// Length returns the exact number of payload bytes Write will emit for
	// item.
	Length(item T) uint64
	// Write emits exactly Length(item) bytes encoding item.
	Write(w io.Writer, item T) error
	// Read decodes a value of length bytes previously written by Write.
	Read(r io.Reader, length uint64) (T, error)
	// Compare reports whether a and b are equal under this handler's notion
	// of identity. Used by database layers that need key equality without
	// requiring T to be comparable.
	Compare(a, b T) bool
}

// Registry maps type IDs to handlers for a single value type T, used while
// decoding: the reader reads the ID byte off the wire and looks up the
// handler responsible for it, independent of which handler instance
// originally wrote the record.
type Registry[T any] struct {
	mu       sync.RWMutex
	handlers map[byte]TypeHandler[T]
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{handlers: make(map[byte]TypeHandler[T])}
}

// Register adds h to the registry, keyed by h.ID(). Registering a second
// handler under an already-registered ID replaces the first.
func (r *Registry[T]) Register(h TypeHandler[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.ID()] = h
}

// Lookup returns the handler registered for id, if any.
func (r *Registry[T]) Lookup(id byte) (TypeHandler[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[id]
	return h, ok
}

// MustLookup is like Lookup but returns a DecodeError-compatible error
// instead of a boolean.
func (r *Registry[T]) MustLookup(id byte) (TypeHandler[T], error) {
	h, ok := r.Lookup(id)
	if !ok {
		return nil, base.CorruptionErrorf("stringdb: no TypeHandler registered for type ID 0x%x", id)
	}
	return h, nil
}

// WriteValue writes a complete Value record body (ID byte, length prefix,
// and encoded payload) using h. It is the write half of the contract
// described in the TypeHandlers component design: the implementation must
// write exactly h.Length(item) payload bytes.
func WriteValue[T any](w io.Writer, h TypeHandler[T], item T) error {
	if _, err := w.Write([]byte{h.ID()}); err != nil {
		return err
	}
	length := h.Length(item)
	if err := codec.WriteLength(w, length); err != nil {
		return err
	}
	return h.Write(w, item)
}

// ReadValue reads a complete Value record body (ID byte, length prefix,
// and encoded payload) written by WriteValue, dispatching to whichever
// handler in reg is registered for the ID found on the wire.
func ReadValue[T any](r io.Reader, reg *Registry[T]) (T, error) {
	var zero T
	id, err := codec.ReadTag(r)
	if err != nil {
		return zero, err
	}
	h, err := reg.MustLookup(id)
	if err != nil {
		return zero, err
	}
	length, err := codec.ReadLength(r)
	if err != nil {
		return zero, err
	}
	return h.Read(r, length)
}
