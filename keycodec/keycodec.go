// Copyright 2025 The StringDB Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package keycodec encodes and decodes the key half of an IndexEntry
// record. Unlike value payloads, keys carry no type-ID byte on the wire
// (EXTERNAL INTERFACES, SPEC_FULL.md): IndexEntry is
// [tag][key-length-prefix][key-bytes][value-offset], so a KeyCodec is just
// a byte-slice (de)serializer, not a registry entry.
package keycodec

// KeyCodec converts a key of type K to and from its on-disk byte
// representation.
type KeyCodec[K any] interface {
	Encode(key K) []byte
	Decode(b []byte) (K, error)
	Equal(a, b K) bool
}

// StringCodec is the KeyCodec for string keys.
type StringCodec struct{}

func (StringCodec) Encode(key string) []byte        { return []byte(key) }
func (StringCodec) Decode(b []byte) (string, error) { return string(b), nil }
func (StringCodec) Equal(a, b string) bool           { return a == b }

// BytesCodec is the KeyCodec for []byte keys.
type BytesCodec struct{}

func (BytesCodec) Encode(key []byte) []byte { return key }
func (BytesCodec) Decode(b []byte) ([]byte, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
func (BytesCodec) Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
