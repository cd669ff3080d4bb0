// Copyright 2025 The StringDB Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package base holds the small set of types shared by every StringDB
// package: error kinds and the logging interface. It plays the same role
// here that internal/base plays inside pebble.
package base

import (
	"github.com/cockroachdb/errors"
)

// Sentinel error kinds, matching the classification in the StringDB error
// handling design: NotFound and ReadOnlyViolation are structured and
// recoverable; IoError and DecodeError propagate verbatim; EncodeError is a
// programmer bug that should be surfaced loudly.
var (
	// ErrNotFound is returned when Get finds no matching key.
	ErrNotFound = errors.New("stringdb: not found")
	// ErrReadOnlyViolation is returned by write operations on a read-only layer.
	ErrReadOnlyViolation = errors.New("stringdb: database is read-only")
	// ErrUseAfterDispose is returned by operations on a disposed
	// MemoryDatabase or FileDatabase, and by Load on a FileDatabase's
	// LazyLoader once that database has been disposed.
	ErrUseAfterDispose = errors.New("stringdb: use after dispose")
)

// OverwriteSizeMismatchError is returned by OverwriteValue when the
// replacement value does not encode to exactly the same number of bytes as
// the value it is replacing.
type OverwriteSizeMismatchError struct {
	OldSize uint64
	NewSize uint64
}

func (e *OverwriteSizeMismatchError) Error() string {
	return errors.Newf("stringdb: overwrite size mismatch: old=%d new=%d", e.OldSize, e.NewSize).Error()
}

// NewOverwriteSizeMismatchError constructs an OverwriteSizeMismatchError.
func NewOverwriteSizeMismatchError(oldSize, newSize uint64) error {
	return &OverwriteSizeMismatchError{OldSize: oldSize, NewSize: newSize}
}

// CorruptionError reports that the on-disk stream does not conform to the
// StringDB wire format: a truncated record, an unrecognized record tag, an
// unrecognized length-prefix discriminant, or an unregistered type ID.
type CorruptionError struct {
	msg string
}

func (e *CorruptionError) Error() string { return e.msg }

// CorruptionErrorf constructs a CorruptionError, mirroring pebble's
// base.CorruptionErrorf.
func CorruptionErrorf(format string, args ...interface{}) error {
	return &CorruptionError{msg: errors.Newf(format, args...).Error()}
}

// EncodeError reports that a value could not be encoded: a negative or
// unrepresentable length, or a TypeHandler that wrote a different number of
// bytes than it declared via Length.
type EncodeError struct {
	msg string
}

func (e *EncodeError) Error() string { return e.msg }

// EncodeErrorf constructs an EncodeError.
func EncodeErrorf(format string, args ...interface{}) error {
	return &EncodeError{msg: errors.Newf(format, args...).Error()}
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsReadOnlyViolation reports whether err is (or wraps) ErrReadOnlyViolation.
func IsReadOnlyViolation(err error) bool { return errors.Is(err, ErrReadOnlyViolation) }

// IsUseAfterDispose reports whether err is (or wraps) ErrUseAfterDispose.
func IsUseAfterDispose(err error) bool { return errors.Is(err, ErrUseAfterDispose) }
