// Package bloomer provides the concurrent bloom filter engine behind the
// bloomer filter service.
//
// A bloom filter is a space-efficient probabilistic data structure that tests
// whether an element is a member of a set. False positive matches are possible,
// but false negatives are not – if the filter says an element is not present,
// it definitely is not.
//
// # Engines
//
// A [Filter] is backed by one of two bit-array engines, chosen with
// [WithEngine]:
//
// [EngineBlocked] (the default) divides the filter into 512-bit blocks that
// match the CPU cache line size. A single xxh3 hash picks a block, and the
// same hash taken modulo k distinct partition sizes yields k probe positions
// inside that block, so each operation touches one cache line.
//
// [EngineClassic] is a standard bloom filter from
// github.com/bits-and-blooms/bloom/v3 with k independent probes spread across
// the whole bit array.
//
// # Choosing Parameters
//
// [New] takes the target false-positive rate and the expected item count:
//
//	// 1% false positives at one million items
//	f, err := bloomer.New(0.01, 1_000_000)
//
// The rate must lie strictly between 0 and 1; otherwise [ErrInvalidParameter]
// is returned. The expected count only sizes storage. Capacity never changes
// after construction, so inserting more items than planned raises the
// false-positive rate; [Filter.EstimatedFalsePositiveRate] tracks it.
//
// # Thread Safety
//
// Every Filter carries a read/write lock. [Filter.Contains] and
// [Filter.ContainsInto] share it, [Filter.Insert] and [Filter.InsertMany]
// hold it exclusively. A Filter may therefore be shared freely between
// goroutines once created.
//
// # Serialization
//
// [Filter.MarshalBinary] and [UnmarshalBinary] round-trip the full filter
// state, including engine, rate and insert count.
//
// # References
//
//   - One-Hashing Bloom Filter: https://yangtonghome.github.io/uploads/One_Hashing.pdf
//   - Cache-line blocking (RocksDB): https://github.com/facebook/rocksdb/wiki/RocksDB-Bloom-Filter
package bloomer
