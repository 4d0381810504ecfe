package bloomer

import (
	"math/bits"
	"unsafe"
)

const cacheLineSize = 64

// blocked is a cache-line blocked one-hashing bit array.
//
// Memory is divided into 512-bit blocks that each fit one cache line. A
// block is split into k segments of distinct sizes, and one xxh3 hash taken
// modulo each segment size yields k independent probe positions, so every
// insert or lookup touches exactly one cache line.
type blocked struct {
	raw       []byte   // backing allocation, kept alive for the aligned view
	words     []uint64 // BlockWords words per block
	numBlocks uint64
	k         uint32
	sizes     []uint32
	starts    []uint32
}

func newBlocked(numBlocks uint64, k uint32) *blocked {
	numBlocks = max(numBlocks, 1)
	sizes := partition(k)
	if sizes == nil {
		k = 7
		sizes = partition(k)
	}
	raw, words := alignedWords(int(numBlocks * BlockWords))
	return &blocked{
		raw:       raw,
		words:     words,
		numBlocks: numBlocks,
		k:         k,
		sizes:     sizes,
		starts:    offsets(sizes),
	}
}

// alignedWords allocates n uint64s starting on a cache-line boundary.
func alignedWords(n int) ([]byte, []uint64) {
	raw := make([]byte, n*8+cacheLineSize-1)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	skip := (cacheLineSize - int(addr%cacheLineSize)) % cacheLineSize
	return raw, unsafe.Slice((*uint64)(unsafe.Pointer(&raw[skip])), n)
}

func (b *blocked) add(item []byte) bool {
	block, intra := locate(item, b.numBlocks)
	base := block * BlockWords

	present := true
	for i := uint32(0); i < b.k; i++ {
		pos := b.starts[i] + intra%b.sizes[i]
		w := &b.words[base+uint64(pos/64)]
		mask := uint64(1) << (pos % 64)
		if *w&mask == 0 {
			present = false
			*w |= mask
		}
	}
	return present
}

func (b *blocked) test(item []byte) bool {
	block, intra := locate(item, b.numBlocks)
	base := block * BlockWords

	for i := uint32(0); i < b.k; i++ {
		pos := b.starts[i] + intra%b.sizes[i]
		if b.words[base+uint64(pos/64)]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

func (b *blocked) capBits() uint64 { return b.numBlocks * BlockBits }

func (b *blocked) probes() uint32 { return b.k }

func (b *blocked) setBits() uint64 {
	var n uint64
	for _, w := range b.words {
		n += uint64(bits.OnesCount64(w))
	}
	return n
}
