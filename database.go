// Copyright 2025 The StringDB Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package stringdb implements an embedded, append-only key/value store: a
// self-describing on-disk binary format (see storage/filedb) and a
// composable in-memory database algebra (this package). A Database[K,V] is
// the uniform contract every layer - in-memory, file-backed, typed
// transform, cache, read-only - implements, the way pebble's DB type and
// its Reader/Writer interfaces give every storage backend a common shape.
package stringdb

import (
	"github.com/stringdb/stringdb/internal/base"
)

// Re-exported sentinel errors. See internal/base for their definitions and
// ERROR HANDLING DESIGN in SPEC_FULL.md for the policy around them.
var (
	ErrNotFound          = base.ErrNotFound
	ErrReadOnlyViolation = base.ErrReadOnlyViolation
	ErrUseAfterDispose   = base.ErrUseAfterDispose
)

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool { return base.IsNotFound(err) }

// IsReadOnlyViolation reports whether err is (or wraps) ErrReadOnlyViolation.
func IsReadOnlyViolation(err error) bool { return base.IsReadOnlyViolation(err) }

// IsUseAfterDispose reports whether err is (or wraps) ErrUseAfterDispose.
func IsUseAfterDispose(err error) bool { return base.IsUseAfterDispose(err) }

// LazyLoader defers materializing a value until Load is called. Enumeration
// produces loaders cheaply; the cost of a seek-and-decode (for a file-backed
// database) or of re-running a transform (for a TransformDatabase) is paid
// only inside Load.
//
// A LazyLoader must not be used after the Database it was obtained from has
// been disposed. A FileDatabase's loaders return ErrUseAfterDispose from
// Load in that case; MemoryDatabase's loaders hold their value and keep
// returning it after Dispose, and a CacheDatabase loader that has already
// loaded keeps returning its memoized value.
type LazyLoader[V any] interface {
	Load() (V, error)
}

// KeyValue pairs a key with a lazily-materialized value, the shape every
// Database's enumeration and lookup operations produce.
type KeyValue[K any, V any] struct {
	Key   K
	Value LazyLoader[V]
}

// Database is the uniform contract every StringDB layer implements:
// in-memory, file-backed, typed-transform, cache, and read-only. Outer
// layers compose by delegating to an inner Database after transforming,
// caching, or restricting operations.
//
// All operations are synchronous; there is no suspension point beyond
// mutex acquisition and the underlying I/O syscalls, and no cancellation or
// timeout support (CONCURRENCY & RESOURCE MODEL, SPEC_FULL.md).
type Database[K any, V any] interface {
	// Insert appends a single (key, value) pair. Equivalent to InsertRange
	// with a single-element slice.
	Insert(key K, value V) error
	// InsertRange appends a batch of pairs. For a FileDatabase this is
	// atomic at batch granularity: readers either see the whole batch or
	// none of it.
	InsertRange(pairs []KeyValue[K, V]) error
	// Get returns the value of the first matching pair in enumeration
	// order, or ErrNotFound if no pair has this key.
	Get(key K) (V, error)
	// TryGet is like Get but reports success via the boolean return instead
	// of ErrNotFound; on false, the returned value is the zero value of V.
	TryGet(key K) (V, bool, error)
	// GetAll returns a lazy loader for every pair matching key, in
	// enumeration order.
	GetAll(key K) ([]LazyLoader[V], error)
	// Enumerate returns every pair in insertion order (within and across
	// batches).
	Enumerate() ([]KeyValue[K, V], error)
	// First returns the first pair in enumeration order, or ErrNotFound if
	// the database is empty.
	First() (KeyValue[K, V], error)
	// Dispose releases any resources the database owns. Disposing an outer
	// layer does not dispose its inner database unless the layer was
	// explicitly constructed to do so.
	Dispose() error
}
