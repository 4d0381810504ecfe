package compress

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pierrec/lz4/v4"
)

// LZ4 envelope: magic "BLZ4" | uncompressed u32 | compressed u32 | data.
// A compressed size of 0 means data is stored raw.
const (
	lz4Magic      = "BLZ4"
	lz4HeaderSize = 12
)

// ToLZ4 compresses data with the LZ4 block format. Incompressible input is
// stored raw inside the same envelope.
func ToLZ4(data []byte) ([]byte, error) {
	if uint64(len(data)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: lz4 input too large (%d bytes)", ErrCompress, len(data))
	}

	dst := make([]byte, lz4HeaderSize+lz4.CompressBlockBound(len(data)))
	var n int
	if len(data) > 0 {
		var err error
		n, err = lz4.CompressBlock(data, dst[lz4HeaderSize:], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCompress, err)
		}
	}

	copy(dst, lz4Magic)
	binary.LittleEndian.PutUint32(dst[4:8], uint32(len(data)))
	if n == 0 || n >= len(data) {
		binary.LittleEndian.PutUint32(dst[8:12], 0)
		return append(dst[:lz4HeaderSize], data...), nil
	}
	binary.LittleEndian.PutUint32(dst[8:12], uint32(n))
	return dst[:lz4HeaderSize+n], nil
}

// FromLZ4 reverses ToLZ4.
func FromLZ4(data []byte) ([]byte, error) {
	if !IsLZ4(data) || len(data) < lz4HeaderSize {
		return nil, fmt.Errorf("%w: not an lz4 envelope", ErrDecompress)
	}
	size := binary.LittleEndian.Uint32(data[4:8])
	csize := binary.LittleEndian.Uint32(data[8:12])
	body := data[lz4HeaderSize:]

	if csize == 0 {
		if uint64(len(body)) != uint64(size) {
			return nil, fmt.Errorf("%w: lz4 raw block is %d bytes, header says %d", ErrDecompress, len(body), size)
		}
		return bytes.Clone(body), nil
	}

	if uint64(len(body)) != uint64(csize) {
		return nil, fmt.Errorf("%w: lz4 block is %d bytes, header says %d", ErrDecompress, len(body), csize)
	}
	out := make([]byte, size)
	n, err := lz4.UncompressBlock(body, out)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %w", ErrDecompress, err)
	}
	if uint32(n) != size {
		return nil, fmt.Errorf("%w: lz4 decompressed %d bytes, expected %d", ErrDecompress, n, size)
	}
	return out, nil
}

// IsLZ4 reports whether data starts with the LZ4 envelope magic.
func IsLZ4(data []byte) bool {
	return bytes.HasPrefix(data, []byte(lz4Magic))
}
