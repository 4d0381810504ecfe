package bloomer

import "math"

const (
	// BlockBits is the number of bits per block of the blocked engine
	// (one CPU cache line).
	BlockBits = 512
	// BlockWords is the number of uint64s per block.
	BlockWords = BlockBits / 64
	// MinK and MaxK bound the number of probes the blocked engine supports.
	MinK = 3
	MaxK = 14

	// MaxCapBits bounds the size of a single filter (8 GiB).
	MaxCapBits = 1 << 36
	// MaxBlocks is MaxCapBits expressed in blocks.
	MaxBlocks = MaxCapBits / BlockBits

	ln2        = 0.6931471805599453
	ln2Squared = 0.4804530139182014
)

// partitions holds, for each supported k, k strictly distinct segment sizes
// summing to exactly 512 bits. Even k use primes only; odd k need a single
// even filler because an odd count of odd numbers cannot sum to 512.
var partitions = map[uint32][]uint32{
	3:  {167, 173, 172},
	4:  {109, 127, 137, 139},
	5:  {97, 101, 103, 109, 102},
	6:  {61, 79, 83, 89, 97, 103},
	7:  {61, 67, 71, 79, 83, 89, 62},
	8:  {37, 47, 53, 61, 67, 71, 79, 97},
	9:  {41, 43, 47, 53, 59, 67, 71, 73, 58},
	10: {31, 37, 41, 43, 47, 53, 59, 61, 67, 73},
	11: {29, 31, 37, 41, 43, 44, 47, 53, 59, 61, 67},
	12: {17, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 71},
	13: {17, 19, 23, 29, 31, 37, 41, 43, 47, 52, 53, 59, 61},
	14: {11, 13, 17, 19, 23, 29, 31, 37, 41, 47, 53, 59, 61, 71},
}

// ValidRate reports whether rate is a usable false-positive rate, i.e. it
// lies strictly between 0 and 1.
func ValidRate(rate float64) bool {
	return rate > 0 && rate < 1 && !math.IsNaN(rate)
}

// BlockedParams sizes the blocked engine for expected items at the given
// false-positive rate. It returns the number of 512-bit blocks and the
// number of probes k, clamped to [MinK, MaxK].
//
// expected == 0 is sized as a single item so every filter has at least one
// block. rate must satisfy ValidRate. The block count never exceeds
// MaxBlocks; New rejects inputs that would need more.
func BlockedParams(expected uint64, rate float64) (numBlocks uint64, k uint32) {
	expected = max(expected, 1)

	blocks := math.Ceil(requiredBits(expected, rate) / BlockBits)
	numBlocks = uint64(min(blocks, MaxBlocks))
	numBlocks = max(numBlocks, 1)

	// k is derived from the bits each item actually gets after block rounding.
	actual := float64(numBlocks*BlockBits) / float64(expected)
	k = uint32(math.Round(actual * ln2))
	k = min(max(k, MinK), MaxK)

	return numBlocks, k
}

// requiredBits is the optimal bit count m = -n ln(p) / ln(2)^2, computed in
// floating point so it cannot overflow.
func requiredBits(expected uint64, rate float64) float64 {
	return float64(max(expected, 1)) * -math.Log(rate) / ln2Squared
}

// partition returns the segment sizes for k, or nil if k is unsupported.
func partition(k uint32) []uint32 {
	return partitions[k]
}

// offsets returns the starting bit of each segment within a block.
func offsets(sizes []uint32) []uint32 {
	out := make([]uint32, len(sizes))
	var at uint32
	for i, s := range sizes {
		out[i] = at
		at += s
	}
	return out
}

// EstimateFalsePositiveRate returns (1 - e^(-kn/m))^k for a filter of
// capBits bits with k probes after n insertions.
func EstimateFalsePositiveRate(capBits uint64, k uint32, n uint64) float64 {
	if capBits == 0 || n == 0 {
		return 0
	}
	kf := float64(k)
	return math.Pow(1-math.Exp(-kf*float64(n)/float64(capBits)), kf)
}
