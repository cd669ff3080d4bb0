// Copyright 2025 The StringDB Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package filedb

import (
	"github.com/stringdb/stringdb/internal/base"
	"github.com/stringdb/stringdb/keycodec"
	"github.com/stringdb/stringdb/typehandler"
)

// dbOptions collects the construction knobs enumerated in EXTERNAL
// INTERFACES (source, dispose_inner, key_type, value_type, comparers),
// assembled via functional options the way pebble.Options and
// sstable.WriterOptions are built.
type dbOptions[K any, V any] struct {
	keyCodec      keycodec.KeyCodec[K]
	valueRegistry *typehandler.Registry[V]
	valueHandler  typehandler.TypeHandler[V]
	logger        base.Logger
	ownStream     bool
	metricsPath   string
}

// Option configures a FileDatabase at construction time.
type Option[K any, V any] func(*dbOptions[K, V])

func defaultOptions[K any, V any]() *dbOptions[K, V] {
	return &dbOptions[K, V]{
		logger:      base.DefaultLogger,
		ownStream:   true,
		metricsPath: "",
	}
}

// WithKeyCodec supplies the KeyCodec used to encode/decode keys on the
// wire. Required on every OpenFile/OpenStream call; keycodec.StringCodec{} and
// keycodec.BytesCodec{} cover the common string/[]byte cases.
func WithKeyCodec[K any, V any](c keycodec.KeyCodec[K]) Option[K, V] {
	return func(o *dbOptions[K, V]) { o.keyCodec = c }
}

// WithValueRegistry supplies the TypeHandler registry used to decode
// values read back off the wire. Required: a FileDatabase cannot guess
// which handlers a caller intends to support.
func WithValueRegistry[K any, V any](reg *typehandler.Registry[V]) Option[K, V] {
	return func(o *dbOptions[K, V]) { o.valueRegistry = reg }
}

// WithValueHandler supplies the TypeHandler new values are encoded with.
// It must also be present in the registry supplied to WithValueRegistry,
// which has no default set of handlers.
func WithValueHandler[K any, V any](h typehandler.TypeHandler[V]) Option[K, V] {
	return func(o *dbOptions[K, V]) { o.valueHandler = h }
}

// WithLogger overrides the default stdlib-backed logger.
func WithLogger[K any, V any](l base.Logger) Option[K, V] {
	return func(o *dbOptions[K, V]) { o.logger = l }
}

// WithoutOwningStream marks the underlying Stream as caller-owned: Dispose
// will flush it but will not Close it, mirroring the "dispose_inner"-style
// construction flag used throughout the layered database algebra.
func WithoutOwningStream[K any, V any]() Option[K, V] {
	return func(o *dbOptions[K, V]) { o.ownStream = false }
}

// WithMetricsPath sets the "path" label attached to this database's
// exported Prometheus metrics. Defaults to empty.
func WithMetricsPath[K any, V any](path string) Option[K, V] {
	return func(o *dbOptions[K, V]) { o.metricsPath = path }
}
