package filedb

import (
	"io"

	"github.com/stringdb/stringdb/internal/base"
	"github.com/stringdb/stringdb/internal/codec"
	"github.com/stringdb/stringdb/typehandler"
)

// chainRecordSize is the fixed on-disk width of an IndexChain record: tag
// byte + 8-byte forward pointer + 8-byte chunk checksum.
const chainRecordSize = 1 + 8 + codec.ChecksumSize

// indexEntryRaw is an IndexEntry as read off the wire, before the key bytes
// are decoded into K.
type indexEntryRaw struct {
	keyBytes    []byte
	valueOffset uint64
}

// chunkResult is the fully-parsed content of one chunk.
type chunkResult struct {
	entries          []indexEntryRaw
	chainPatchOffset uint64 // absolute offset of the chain record's "next" field
	next             uint64
	storedChecksum   uint64
	computedChecksum uint64
	valueRegionStart uint64
}

func (c *chunkResult) verifyChecksum() error {
	if c.storedChecksum != c.computedChecksum {
		return base.CorruptionErrorf(
			"stringdb: chunk checksum mismatch: stored=%x computed=%x", c.storedChecksum, c.computedChecksum)
	}
	return nil
}

// indexEntrySize returns the on-disk byte cost of an IndexEntry record for
// a key whose encoded length is keyLen: 1 tag byte + the length-prefix
// encoding of keyLen + keyLen bytes + 8 byte value offset.
func indexEntrySize(keyLen int) int {
	return 1 + codec.EstimateLengthSize(uint64(keyLen)) + keyLen + 8
}

func writeIndexEntry(w io.Writer, keyBytes []byte, valueOffset uint64) error {
	if err := codec.WriteTag(w, codec.TagIndexEntry); err != nil {
		return err
	}
	if err := codec.WriteLength(w, uint64(len(keyBytes))); err != nil {
		return err
	}
	if _, err := w.Write(keyBytes); err != nil {
		return err
	}
	return codec.WriteUint64(w, valueOffset)
}

func writeIndexChain(w io.Writer, next uint64, checksum uint64) error {
	if err := codec.WriteTag(w, codec.TagIndexChain); err != nil {
		return err
	}
	if err := codec.WriteUint64(w, next); err != nil {
		return err
	}
	return codec.WriteUint64(w, checksum)
}

// readChunk parses the chunk starting at chunkOffset, returning every
// IndexEntry it contains together with the chain record's pointer,
// checksum, and the absolute offset of the value region that follows. The
// caller must already hold the stream's lock.
func readChunk(stream Stream, chunkOffset uint64) (*chunkResult, error) {
	if _, err := stream.Seek(int64(chunkOffset), io.SeekStart); err != nil {
		return nil, err
	}
	var idxBuf []byte
	tee := &collectingReader{r: stream}
	cr := &countingReader{r: tee}

	tag, err := codec.ReadTag(cr)
	if err != nil {
		return nil, err
	}
	if tag != codec.TagChunkStart {
		return nil, base.CorruptionErrorf("stringdb: expected chunk start marker at offset %d, found tag 0x%x", chunkOffset, tag)
	}

	var entries []indexEntryRaw
	for {
		tag, err := codec.ReadTag(cr)
		if err != nil {
			return nil, err
		}
		if tag == codec.TagIndexChain {
			// The chain record's own tag byte was collected into idxBuf but
			// the checksum covers only the chunk-start marker through the
			// last IndexEntry, so drop it before hashing.
			idxBuf = tee.buf[:len(tee.buf)-1]

			chainRecordOffset := chunkOffset + uint64(cr.n) - 1
			next, err := codec.ReadUint64(stream)
			if err != nil {
				return nil, err
			}
			storedChecksum, err := codec.ReadUint64(stream)
			if err != nil {
				return nil, err
			}
			return &chunkResult{
				entries:          entries,
				chainPatchOffset: chainRecordOffset + 1,
				next:             next,
				storedChecksum:   storedChecksum,
				computedChecksum: codec.ChunkChecksum(idxBuf),
				valueRegionStart: chainRecordOffset + chainRecordSize,
			}, nil
		}
		if tag != codec.TagIndexEntry {
			return nil, base.CorruptionErrorf("stringdb: unexpected record tag 0x%x in index region at offset %d", tag, chunkOffset)
		}
		keyLen, err := codec.ReadLength(cr)
		if err != nil {
			return nil, err
		}
		keyBytes := make([]byte, keyLen)
		if _, err := io.ReadFull(cr, keyBytes); err != nil {
			return nil, err
		}
		valueOffset, err := codec.ReadUint64(cr)
		if err != nil {
			return nil, err
		}
		entries = append(entries, indexEntryRaw{keyBytes: keyBytes, valueOffset: valueOffset})
	}
}

// collectingReader mirrors every byte it reads into buf, like io.TeeReader
// but keeping the accumulated slice directly accessible for in-place
// truncation.
type collectingReader struct {
	r   io.Reader
	buf []byte
}

func (c *collectingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.buf = append(c.buf, p[:n]...)
	}
	return n, err
}

// writeValueRecord writes a complete Value record: tag, type ID, length
// prefix, and payload.
func writeValueRecord[V any](w io.Writer, handler typehandler.TypeHandler[V], value V) error {
	if err := codec.WriteTag(w, codec.TagValue); err != nil {
		return err
	}
	return typehandler.WriteValue(w, handler, value)
}

// readValueRecordAt seeks to offset and decodes the Value record there
// using registry to resolve the handler named by the record's type ID. The
// caller must already hold the stream's lock.
func readValueRecordAt[V any](stream Stream, registry *typehandler.Registry[V], offset uint64) (V, error) {
	var zero V
	if _, err := stream.Seek(int64(offset), io.SeekStart); err != nil {
		return zero, err
	}
	tag, err := codec.ReadTag(stream)
	if err != nil {
		return zero, err
	}
	if tag != codec.TagValue {
		return zero, base.CorruptionErrorf("stringdb: expected value record at offset %d, found tag 0x%x", offset, tag)
	}
	return typehandler.ReadValue(stream, registry)
}
