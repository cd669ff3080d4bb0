package codec

import (
	"github.com/cespare/xxhash/v2"
)

// ChecksumSize is the on-disk width of a chunk checksum.
const ChecksumSize = 8

// ChunkChecksum computes the xxhash64 digest of a chunk's index region,
// written into the terminal IndexChain record. This mirrors the role of
// pebble's block.ChecksumTypeXXHash64 and the per-chunk CRC in the
// LevelDB/pebble record format, scaled to StringDB's whole-chunk framing
// instead of per-block framing.
func ChunkChecksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
