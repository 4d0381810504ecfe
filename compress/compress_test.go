package compress

import (
	"bytes"
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sparse mimics a lightly filled bit array: mostly zero with scattered bits.
func sparse(n int) []byte {
	rng := rand.New(rand.NewSource(42))
	out := make([]byte, n)
	for range n / 16 {
		out[rng.Intn(n)] |= 1 << rng.Intn(8)
	}
	return out
}

func random(n int) []byte {
	out := make([]byte, n)
	rand.New(rand.NewSource(7)).Read(out)
	return out
}

func TestZstdRoundtrip(t *testing.T) {
	input := sparse(64 * 1024)

	for _, level := range []int{1, 3, 9, 19} {
		compressed, err := ToZstd(input, level)
		require.NoError(t, err)
		assert.True(t, IsZstd(compressed))
		assert.Less(t, len(compressed), len(input))

		out, err := FromZstd(compressed)
		require.NoError(t, err)
		assert.Equal(t, input, out)
	}
}

// A bit array compressed by the reference zstd library at level 19.
const (
	fixtureLevel19Hex = "" +
		"28b52ffd0068650200420a0d0ed0a5312b00e0f0089d4c266793141302d5f543" +
		"72f1c196ffa16bebffb428e8f4bfcf9fb7fee9f69f83dbeffc17fff1f983aa7f" +
		"0800407e402b202fa60e11f0c5338e60038c8c6206"
	fixtureRawHex = "" +
		"0000000000000080800100000000000000020000004000000000000000200000" +
		"0000000000000002000800000000080800010000000200000000000000080800" +
		"1000000000000000008000080000000080000800000000000000400000000000" +
		"0000000002000000000002000000080000000000000000100000001020000000" +
		"0000000000000000002000001000000000000000000000008000000000000000" +
		"0000000000000800000000000000000000002000000000000000000000000000" +
		"0000800000100200000000000000008800000000000000000000080100000000" +
		"0020000000410000000000000000000000000000000400000000008000008010" +
		"040402"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestFromZstdReferenceFrame(t *testing.T) {
	frame := mustHex(t, fixtureLevel19Hex)
	want := mustHex(t, fixtureRawHex)
	require.True(t, IsZstd(frame))

	out, err := FromZstd(frame)
	require.NoError(t, err)
	assert.Equal(t, want, out)

	assert.Equal(t, want, FromMaybeZstd(frame))

	out, err = Decompress(frame)
	require.NoError(t, err)
	assert.Equal(t, want, out)

	// Our own level 19 output decodes to the same bytes, even if the frame
	// differs from the reference encoder's.
	ours, err := ToZstd(want, 19)
	require.NoError(t, err)
	out, err = FromZstd(ours)
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestFromZstdInvalid(t *testing.T) {
	_, err := FromZstd([]byte("definitely not zstd"))
	assert.ErrorIs(t, err, ErrDecompress)
}

func TestFromMaybeZstd(t *testing.T) {
	input := sparse(4096)
	compressed, err := ToZstd(input, 19)
	require.NoError(t, err)

	assert.Equal(t, input, FromMaybeZstd(compressed))
	assert.Equal(t, input, FromMaybeZstd(input))

	// A zstd magic followed by garbage falls back to the input.
	bogus := append(bytes.Clone(zstdMagic), 1, 2, 3)
	assert.Equal(t, bogus, FromMaybeZstd(bogus))
}

func TestLZ4Roundtrip(t *testing.T) {
	for name, input := range map[string][]byte{
		"sparse": sparse(64 * 1024),
		"random": random(4096),
		"empty":  {},
	} {
		t.Run(name, func(t *testing.T) {
			compressed, err := ToLZ4(input)
			require.NoError(t, err)
			assert.True(t, IsLZ4(compressed))

			out, err := FromLZ4(compressed)
			require.NoError(t, err)
			assert.Equal(t, len(input), len(out))
			assert.True(t, bytes.Equal(input, out))
		})
	}
}

func TestFromLZ4Invalid(t *testing.T) {
	compressed, err := ToLZ4(sparse(8192))
	require.NoError(t, err)

	_, err = FromLZ4(compressed[:len(compressed)-1])
	assert.ErrorIs(t, err, ErrDecompress)

	_, err = FromLZ4([]byte("nope"))
	assert.ErrorIs(t, err, ErrDecompress)

	_, err = FromLZ4([]byte("BLZ4"))
	assert.ErrorIs(t, err, ErrDecompress)
}

func TestCompressDecompress(t *testing.T) {
	input := sparse(16 * 1024)

	for _, codec := range []Codec{None, Zstd, LZ4} {
		t.Run(codec.String(), func(t *testing.T) {
			compressed, err := Compress(codec, input, 3)
			require.NoError(t, err)

			out, err := Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, input, out)
		})
	}

	_, err := Compress(Codec(9), input, 3)
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestParseCodec(t *testing.T) {
	for in, want := range map[string]Codec{"": None, "none": None, "ZSTD": Zstd, " lz4 ": LZ4} {
		got, err := ParseCodec(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCodec("brotli")
	assert.ErrorIs(t, err, ErrUnknownCodec)

	var c Codec
	require.NoError(t, c.UnmarshalText([]byte("lz4")))
	assert.Equal(t, LZ4, c)
}
