package bloomer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	codecMagic   = "BLMR"
	codecVersion = 1

	// magic(4) version(1) engine(1) rate(8) count(8)
	codecHeaderSize = 22
	// k(4) numBlocks(8)
	blockedHeaderSize = 12
	// m(8) k(8) bitset length(8), big-endian as written by bits-and-blooms
	classicHeaderSize = 24

	// maxNumBlocks bounds allocations driven by untrusted input.
	maxNumBlocks = uint64(MaxBlocks)
)

var (
	// ErrInvalidData is returned when serialized data is truncated or corrupt.
	ErrInvalidData = errors.New("bloomer: invalid serialized data")
	// ErrUnsupportedVersion is returned for an unknown format version.
	ErrUnsupportedVersion = errors.New("bloomer: unsupported serialization version")
	// ErrInvalidK is returned when a blocked payload names an unsupported k.
	ErrInvalidK = errors.New("bloomer: invalid k value in serialized data")
	// ErrUnknownEngine is returned when the engine byte is not recognized.
	ErrUnknownEngine = errors.New("bloomer: unknown engine in serialized data")
)

// MarshalBinary encodes the filter state. The layout is:
//
//	magic "BLMR" | version u8 | engine u8 | rate f64 | count u64 | payload
//
// For EngineBlocked the payload is k (u32), numBlocks (u64) and the block
// words. For EngineClassic it is the bits-and-blooms stream encoding.
// Multi-byte values are little-endian.
func (f *Filter) MarshalBinary() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var buf bytes.Buffer
	buf.WriteString(codecMagic)
	buf.WriteByte(codecVersion)
	buf.WriteByte(byte(f.engine))
	buf.Write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(f.rate)))
	buf.Write(binary.LittleEndian.AppendUint64(nil, f.count))

	switch b := f.bits.(type) {
	case *blocked:
		buf.Grow(blockedHeaderSize + len(b.words)*8)
		buf.Write(binary.LittleEndian.AppendUint32(nil, b.k))
		buf.Write(binary.LittleEndian.AppendUint64(nil, b.numBlocks))
		word := make([]byte, 8)
		for _, w := range b.words {
			binary.LittleEndian.PutUint64(word, w)
			buf.Write(word)
		}
	case *classic:
		if _, err := b.bf.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("bloomer: encode classic filter: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, f.engine)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a filter produced by MarshalBinary.
func UnmarshalBinary(data []byte) (*Filter, error) {
	if len(data) < codecHeaderSize {
		return nil, fmt.Errorf("%w: data too short (got %d bytes, need at least %d)", ErrInvalidData, len(data), codecHeaderSize)
	}
	if string(data[:4]) != codecMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidData, data[:4])
	}
	if v := data[4]; v != codecVersion {
		return nil, fmt.Errorf("%w: got version %d, expected %d", ErrUnsupportedVersion, v, codecVersion)
	}

	f := &Filter{
		engine: Engine(data[5]),
		rate:   math.Float64frombits(binary.LittleEndian.Uint64(data[6:14])),
		count:  binary.LittleEndian.Uint64(data[14:22]),
	}
	if !ValidRate(f.rate) {
		return nil, fmt.Errorf("%w: rate %v out of range", ErrInvalidData, f.rate)
	}

	payload := data[codecHeaderSize:]
	switch f.engine {
	case EngineBlocked:
		b, err := decodeBlocked(payload)
		if err != nil {
			return nil, err
		}
		f.bits = b
	case EngineClassic:
		if err := checkClassic(payload); err != nil {
			return nil, err
		}
		bf := &bloom.BloomFilter{}
		n, err := bf.ReadFrom(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("%w: classic payload: %w", ErrInvalidData, err)
		}
		if n != int64(len(payload)) {
			return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidData, int64(len(payload))-n)
		}
		if bf.Cap() == 0 || bf.K() == 0 || bf.BitSet().Len() < bf.Cap() {
			return nil, fmt.Errorf("%w: classic parameters m=%d k=%d", ErrInvalidData, bf.Cap(), bf.K())
		}
		f.bits = &classic{bf: bf}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownEngine, data[5])
	}
	return f, nil
}

// checkClassic validates the bits-and-blooms header against the payload
// length before ReadFrom allocates the bitset it describes.
func checkClassic(payload []byte) error {
	if len(payload) < classicHeaderSize {
		return fmt.Errorf("%w: classic payload too short (%d bytes)", ErrInvalidData, len(payload))
	}
	m := binary.BigEndian.Uint64(payload[0:8])
	k := binary.BigEndian.Uint64(payload[8:16])
	length := binary.BigEndian.Uint64(payload[16:24])

	if m == 0 || m > MaxCapBits || k == 0 {
		return fmt.Errorf("%w: classic parameters m=%d k=%d", ErrInvalidData, m, k)
	}
	if length != m {
		return fmt.Errorf("%w: classic bitset length %d, expected %d", ErrInvalidData, length, m)
	}

	want := classicHeaderSize + 8*((length+63)/64)
	if uint64(len(payload)) != want {
		return fmt.Errorf("%w: classic payload length mismatch (got %d bytes, expected %d)", ErrInvalidData, len(payload), want)
	}
	return nil
}

func decodeBlocked(payload []byte) (*blocked, error) {
	if len(payload) < blockedHeaderSize {
		return nil, fmt.Errorf("%w: blocked payload too short (%d bytes)", ErrInvalidData, len(payload))
	}
	k := binary.LittleEndian.Uint32(payload[0:4])
	numBlocks := binary.LittleEndian.Uint64(payload[4:12])

	if partition(k) == nil {
		return nil, fmt.Errorf("%w: k=%d is not supported (valid range: %d-%d)", ErrInvalidK, k, MinK, MaxK)
	}
	if numBlocks == 0 || numBlocks > maxNumBlocks {
		return nil, fmt.Errorf("%w: numBlocks %d out of range", ErrInvalidData, numBlocks)
	}

	want := uint64(blockedHeaderSize) + numBlocks*BlockWords*8
	if uint64(len(payload)) != want {
		return nil, fmt.Errorf("%w: blocked payload length mismatch (got %d bytes, expected %d)", ErrInvalidData, len(payload), want)
	}

	b := newBlocked(numBlocks, k)
	at := blockedHeaderSize
	for i := range b.words {
		b.words[i] = binary.LittleEndian.Uint64(payload[at : at+8])
		at += 8
	}
	return b, nil
}
