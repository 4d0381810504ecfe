// Package compress wraps zstd and LZ4 for serialized filter payloads.
//
// The functions are stateless apart from pooled zstd encoders and
// decoders, and are safe for concurrent use.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCompress is wrapped around encoder failures.
	ErrCompress = errors.New("compress: compression failed")
	// ErrDecompress is wrapped around decoder failures and malformed input.
	ErrDecompress = errors.New("compress: decompression failed")
	// ErrUnknownCodec is returned for an unrecognized codec name or value.
	ErrUnknownCodec = errors.New("compress: unknown codec")
)

// Codec selects a compression format.
type Codec uint8

const (
	// None leaves data untouched.
	None Codec = iota
	// Zstd produces a standard zstd frame.
	Zstd
	// LZ4 produces an LZ4 block inside a small envelope.
	LZ4
)

func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec maps "none", "zstd" or "lz4" (case-insensitive) to a Codec.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return None, nil
	case "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
	}
}

// UnmarshalText lets Codec be used directly as a config field.
func (c *Codec) UnmarshalText(text []byte) error {
	v, err := ParseCodec(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Compress encodes data with codec. level is only used by Zstd.
func Compress(codec Codec, data []byte, level int) ([]byte, error) {
	switch codec {
	case None:
		return bytes.Clone(data), nil
	case Zstd:
		return ToZstd(data, level)
	case LZ4:
		return ToLZ4(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, codec)
	}
}

// Decompress detects the format of data by its magic bytes and decodes it.
// Data in neither format is returned unchanged.
func Decompress(data []byte) ([]byte, error) {
	switch {
	case IsZstd(data):
		return FromZstd(data)
	case IsLZ4(data):
		return FromLZ4(data)
	default:
		return data, nil
	}
}
