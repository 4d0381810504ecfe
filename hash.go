package bloomer

import "github.com/zeebo/xxh3"

// locate hashes item once with xxh3 and splits the result: the upper 32 bits
// select a block, the lower 32 bits drive the intra-block probes.
func locate(item []byte, numBlocks uint64) (block uint64, intra uint32) {
	h := xxh3.Hash(item)
	return (h >> 32) % numBlocks, uint32(h)
}
