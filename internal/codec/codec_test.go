package codec_test

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stringdb/stringdb/internal/codec"
)

func TestLengthRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 254, 255, 256, 65535, 65536, 1 << 20, 0xFFFFFFFF, 0xFFFFFFFF + 1, 1<<63 - 1}
	for _, n := range cases {
		var buf bytes.Buffer
		require.NoError(t, codec.WriteLength(&buf, n))
		require.Equal(t, codec.EstimateLengthSize(n), buf.Len())
		got, err := codec.ReadLength(&buf)
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestLengthRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		n := rng.Uint64() % (1 << 40)
		var buf bytes.Buffer
		require.NoError(t, codec.WriteLength(&buf, n))
		got, err := codec.ReadLength(&buf)
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestWriteLengthRejectsUnrepresentable(t *testing.T) {
	var buf bytes.Buffer
	err := codec.WriteLength(&buf, 1<<63)
	require.Error(t, err)
}

func TestReadLengthUnknownDiscriminant(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x99, 0x00})
	_, err := codec.ReadLength(buf)
	require.Error(t, err)
}

func TestUint64RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, codec.WriteUint64(&buf, 0x1122334455667788))
	got, err := codec.ReadUint64(&buf)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1122334455667788), got)
}

func TestTagRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, codec.WriteTag(&buf, codec.TagIndexEntry))
	got, err := codec.ReadTag(&buf)
	require.NoError(t, err)
	require.Equal(t, codec.TagIndexEntry, got)
}

func TestRecordTagsDoNotCollideWithLengthDiscriminants(t *testing.T) {
	lengthDiscriminants := map[byte]bool{0xFE: true, 0xFD: true, 0xFC: true, 0xFB: true}
	for _, tag := range []byte{codec.TagIndexChain, codec.TagIndexEntry, codec.TagValue, codec.TagChunkStart} {
		require.False(t, lengthDiscriminants[tag], "tag 0x%x collides with a length discriminant", tag)
	}
}

func TestChunkChecksumDeterministic(t *testing.T) {
	data := []byte("the quick brown fox")
	require.Equal(t, codec.ChunkChecksum(data), codec.ChunkChecksum(data))
	require.NotEqual(t, codec.ChunkChecksum(data), codec.ChunkChecksum([]byte("the quick brown fog")))
}
