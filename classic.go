package bloomer

import "github.com/bits-and-blooms/bloom/v3"

// classic adapts a standard (unblocked) bloom filter from bits-and-blooms.
// It probes k independent positions across the whole bit array, trading the
// single-cache-line property of blocked for a slightly lower false-positive
// rate at equal memory.
type classic struct {
	bf *bloom.BloomFilter
}

func newClassic(expected uint64, rate float64) *classic {
	return &classic{bf: bloom.NewWithEstimates(uint(max(expected, 1)), rate)}
}

func (c *classic) add(item []byte) bool { return c.bf.TestAndAdd(item) }

func (c *classic) test(item []byte) bool { return c.bf.Test(item) }

func (c *classic) capBits() uint64 { return uint64(c.bf.Cap()) }

func (c *classic) probes() uint32 { return uint32(c.bf.K()) }

func (c *classic) setBits() uint64 { return uint64(c.bf.BitSet().Count()) }
