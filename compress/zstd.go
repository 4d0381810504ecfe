package compress

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic opens every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Encoders are pooled per speed level; decoders are interchangeable.
var (
	zstdEncoderPools [zstd.SpeedBestCompression + 1]sync.Pool
	zstdDecoderPool  sync.Pool
)

func getZstdEncoder(level zstd.EncoderLevel) (*zstd.Encoder, error) {
	if v := zstdEncoderPools[level].Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
}

func putZstdEncoder(level zstd.EncoderLevel, enc *zstd.Encoder) {
	zstdEncoderPools[level].Put(enc)
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// ToZstd compresses data into a single zstd frame. level follows the
// reference zstd scale (1-22) and is mapped onto the nearest encoder speed.
func ToZstd(data []byte, level int) ([]byte, error) {
	speed := zstd.EncoderLevelFromZstd(level)
	enc, err := getZstdEncoder(speed)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd encoder: %w", ErrCompress, err)
	}
	defer putZstdEncoder(speed, enc)

	return enc.EncodeAll(data, nil), nil
}

// FromZstd decompresses zstd-framed data.
func FromZstd(data []byte) ([]byte, error) {
	dec, err := getZstdDecoder()
	if err != nil {
		return nil, fmt.Errorf("%w: zstd decoder: %w", ErrDecompress, err)
	}
	defer putZstdDecoder(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrDecompress, err)
	}
	return out, nil
}

// FromMaybeZstd decompresses data if it is a valid zstd frame and otherwise
// returns data unchanged.
func FromMaybeZstd(data []byte) []byte {
	if !IsZstd(data) {
		return data
	}
	out, err := FromZstd(data)
	if err != nil {
		return data
	}
	return out
}

// IsZstd reports whether data starts with the zstd frame magic.
func IsZstd(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}
