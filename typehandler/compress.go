package typehandler

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/stringdb/stringdb/internal/base"
)

// CompressedBytesHandler stores values zstd-compressed on disk, decoding
// them transparently on Load. It is a domain-stack enrichment exercising
// klauspost/compress, the block compressor pebble itself uses, scaled down
// to StringDB's per-value (rather than per-block) granularity.
type CompressedBytesHandler struct {
	encoder *zstd.Encoder
}

// NewCompressedBytesHandler constructs a CompressedBytesHandler with a
// reusable zstd encoder.
func NewCompressedBytesHandler() *CompressedBytesHandler {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		// Only returns an error for invalid options; none are passed here.
		panic(err)
	}
	return &CompressedBytesHandler{encoder: enc}
}

func (h *CompressedBytesHandler) ID() byte { return IDCompressedBytes }

func (h *CompressedBytesHandler) Length(item []byte) uint64 {
	return uint64(len(h.encoder.EncodeAll(item, nil)))
}

func (h *CompressedBytesHandler) Compare(a, b []byte) bool { return bytes.Equal(a, b) }

func (h *CompressedBytesHandler) Write(w io.Writer, item []byte) error {
	compressed := h.encoder.EncodeAll(item, nil)
	n, err := w.Write(compressed)
	if err != nil {
		return err
	}
	if n != len(compressed) {
		return base.EncodeErrorf("stringdb: CompressedBytesHandler wrote %d of %d bytes", n, len(compressed))
	}
	return nil
}

func (h *CompressedBytesHandler) Read(r io.Reader, length uint64) ([]byte, error) {
	compressed := make([]byte, length)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, errors.Wrap(err, "stringdb: zstd decode")
	}
	return out, nil
}

// SnappyBytesHandler stores values snappy-compressed on disk. Snappy favors
// speed over ratio, the tradeoff pebble itself offers via
// github.com/golang/snappy for hot-path block compression.
type SnappyBytesHandler struct{}

// NewSnappyBytesHandler constructs a SnappyBytesHandler.
func NewSnappyBytesHandler() SnappyBytesHandler { return SnappyBytesHandler{} }

func (SnappyBytesHandler) ID() byte { return IDSnappyBytes }

func (SnappyBytesHandler) Length(item []byte) uint64 {
	return uint64(len(snappy.Encode(nil, item)))
}

func (SnappyBytesHandler) Compare(a, b []byte) bool { return bytes.Equal(a, b) }

func (SnappyBytesHandler) Write(w io.Writer, item []byte) error {
	compressed := snappy.Encode(nil, item)
	n, err := w.Write(compressed)
	if err != nil {
		return err
	}
	if n != len(compressed) {
		return base.EncodeErrorf("stringdb: SnappyBytesHandler wrote %d of %d bytes", n, len(compressed))
	}
	return nil
}

func (SnappyBytesHandler) Read(r io.Reader, length uint64) ([]byte, error) {
	compressed := make([]byte, length)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, err
	}
	out, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, errors.Wrap(err, "stringdb: snappy decode")
	}
	return out, nil
}
