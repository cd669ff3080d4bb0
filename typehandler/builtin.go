package typehandler

import (
	"bytes"
	"io"

	"github.com/stringdb/stringdb/internal/base"
)

// ByteArrayHandler is the built-in TypeHandler for raw byte slices, ID
// IDByteArray.
type ByteArrayHandler struct{}

func (ByteArrayHandler) ID() byte                  { return IDByteArray }
func (ByteArrayHandler) Length(item []byte) uint64 { return uint64(len(item)) }
func (ByteArrayHandler) Compare(a, b []byte) bool  { return bytes.Equal(a, b) }

func (ByteArrayHandler) Write(w io.Writer, item []byte) error {
	n, err := w.Write(item)
	if err != nil {
		return err
	}
	if n != len(item) {
		return base.EncodeErrorf("stringdb: ByteArrayHandler wrote %d of %d bytes", n, len(item))
	}
	return nil
}

func (ByteArrayHandler) Read(r io.Reader, length uint64) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// StringHandler is the built-in TypeHandler for UTF-8 strings, ID IDString.
type StringHandler struct{}

func (StringHandler) ID() byte                 { return IDString }
func (StringHandler) Length(item string) uint64 { return uint64(len(item)) }
func (StringHandler) Compare(a, b string) bool  { return a == b }

func (StringHandler) Write(w io.Writer, item string) error {
	n, err := io.WriteString(w, item)
	if err != nil {
		return err
	}
	if n != len(item) {
		return base.EncodeErrorf("stringdb: StringHandler wrote %d of %d bytes", n, len(item))
	}
	return nil
}

func (StringHandler) Read(r io.Reader, length uint64) (string, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// StreamHandler is the built-in TypeHandler for values sourced from an
// io.Reader at write time. On the wire it is indistinguishable from
// ByteArrayHandler's payload; the distinct ID (IDStream) exists so readers
// can tell which write path produced a given record, matching the three
// reserved handlers named in SPEC_FULL.md's data model.
type StreamHandler struct{}

func (StreamHandler) ID() byte                  { return IDStream }
func (StreamHandler) Length(item []byte) uint64 { return uint64(len(item)) }
func (StreamHandler) Compare(a, b []byte) bool  { return bytes.Equal(a, b) }

func (StreamHandler) Write(w io.Writer, item []byte) error {
	n, err := w.Write(item)
	if err != nil {
		return err
	}
	if n != len(item) {
		return base.EncodeErrorf("stringdb: StreamHandler wrote %d of %d bytes", n, len(item))
	}
	return nil
}

func (StreamHandler) Read(r io.Reader, length uint64) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadAllToBytes drains r and returns its contents, for callers that want to
// hand a stream's bytes to StreamHandler.Write via an in-memory buffer (the
// handler contract requires knowing Length up front).
func ReadAllToBytes(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}

// NewBytesRegistry returns a Registry[[]byte] pre-populated with every
// built-in handler whose T is []byte: byte-array, stream, and the two
// compressing handlers in compress.go.
func NewBytesRegistry() *Registry[[]byte] {
	reg := NewRegistry[[]byte]()
	reg.Register(ByteArrayHandler{})
	reg.Register(StreamHandler{})
	reg.Register(NewCompressedBytesHandler())
	reg.Register(NewSnappyBytesHandler())
	return reg
}

// NewStringRegistry returns a Registry[string] pre-populated with the
// built-in string handler.
func NewStringRegistry() *Registry[string] {
	reg := NewRegistry[string]()
	reg.Register(StringHandler{})
	return reg
}
