package bloomer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrInvalidParameter is returned when a filter is constructed with a
// false-positive rate outside (0, 1) or a negative expected item count.
var ErrInvalidParameter = errors.New("bloomer: invalid parameter")

// Engine selects the bit-array implementation behind a Filter.
type Engine uint8

const (
	// EngineBlocked is the cache-line blocked one-hashing engine (default).
	EngineBlocked Engine = 1
	// EngineClassic is a standard bloom filter with k independent probes.
	EngineClassic Engine = 2
)

func (e Engine) String() string {
	switch e {
	case EngineBlocked:
		return "blocked"
	case EngineClassic:
		return "classic"
	default:
		return fmt.Sprintf("engine(%d)", uint8(e))
	}
}

// ParseEngine maps "blocked" or "classic" (case-insensitive) to an Engine.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blocked":
		return EngineBlocked, nil
	case "classic":
		return EngineClassic, nil
	default:
		return 0, fmt.Errorf("%w: unknown engine %q", ErrInvalidParameter, s)
	}
}

// UnmarshalText lets Engine be used directly as a config field.
func (e *Engine) UnmarshalText(text []byte) error {
	v, err := ParseEngine(string(text))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// bitArray is the probabilistic core shared by both engines. Implementations
// are not synchronized; Filter serializes access.
type bitArray interface {
	// add sets the bits for item and reports whether they were all set before.
	add(item []byte) bool
	test(item []byte) bool
	capBits() uint64
	probes() uint32
	setBits() uint64
}

type options struct {
	engine Engine
}

// Option configures filter construction.
type Option func(*options)

// WithEngine selects the bit-array engine. Unknown values fall back to
// EngineBlocked.
func WithEngine(e Engine) Option { return func(o *options) { o.engine = e } }

// Filter is a bloom filter safe for concurrent use.
//
// Capacity and hash parametrization are fixed at construction. Contains
// takes a shared lock and Insert an exclusive one, so a single Filter can
// be handed out to many goroutines at once.
type Filter struct {
	mu     sync.RWMutex
	bits   bitArray
	engine Engine
	rate   float64
	count  uint64
}

// New creates a filter sized for expected items at the target
// false-positive rate. It fails with ErrInvalidParameter unless
// 0 < rate < 1, expected >= 0 and the sized filter fits in MaxCapBits.
func New(rate float64, expected int64, opts ...Option) (*Filter, error) {
	if !ValidRate(rate) {
		return nil, fmt.Errorf("%w: false positive rate %v must be in (0, 1)", ErrInvalidParameter, rate)
	}
	if expected < 0 {
		return nil, fmt.Errorf("%w: expected item count %d must not be negative", ErrInvalidParameter, expected)
	}
	if m := requiredBits(uint64(expected), rate); m > MaxCapBits {
		return nil, fmt.Errorf("%w: %d items at rate %v need %.0f bits, limit is %d", ErrInvalidParameter, expected, rate, m, uint64(MaxCapBits))
	}

	o := options{engine: EngineBlocked}
	for _, fn := range opts {
		fn(&o)
	}

	f := &Filter{rate: rate}
	switch o.engine {
	case EngineClassic:
		f.engine = EngineClassic
		f.bits = newClassic(uint64(expected), rate)
	default:
		f.engine = EngineBlocked
		f.bits = newBlocked(BlockedParams(uint64(expected), rate))
	}
	return f, nil
}

// NewFromItems creates a filter sized for len(items) and inserts every
// non-nil item. Nil entries are skipped.
func NewFromItems(rate float64, items [][]byte, opts ...Option) (*Filter, error) {
	f, err := New(rate, int64(len(items)), opts...)
	if err != nil {
		return nil, err
	}
	f.InsertMany(items)
	return f, nil
}

// Insert adds item and reports whether it may already have been present.
// The result is a probabilistic hint, not a novelty guarantee.
func (f *Filter) Insert(item []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return f.bits.add(item)
}

// InsertMany adds every non-nil item under a single exclusive lock and
// returns how many items were processed.
func (f *Filter) InsertMany(items [][]byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int
	for _, item := range items {
		if item == nil {
			continue
		}
		f.bits.add(item)
		n++
	}
	f.count += uint64(n)
	return n
}

// Contains reports whether item might be in the filter. It never returns
// false for an item that was inserted.
func (f *Filter) Contains(item []byte) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bits.test(item)
}

// ContainsInto tests items under a single shared lock, writing results into
// out. Nil items yield false. out must be at least len(items) long.
func (f *Filter) ContainsInto(items [][]byte, out []bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for i, item := range items {
		out[i] = item != nil && f.bits.test(item)
	}
}

// Engine returns the bit-array engine backing the filter.
func (f *Filter) Engine() Engine { return f.engine }

// Rate returns the false-positive rate the filter was sized for.
func (f *Filter) Rate() float64 { return f.rate }

// Cap returns the capacity of the filter in bits.
func (f *Filter) Cap() uint64 { return f.bits.capBits() }

// K returns the number of probes per item.
func (f *Filter) K() uint32 { return f.bits.probes() }

// Count returns the number of insert operations applied, duplicates included.
func (f *Filter) Count() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count
}

// EstimatedFillRatio returns the fraction of bits currently set.
func (f *Filter) EstimatedFillRatio() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return float64(f.bits.setBits()) / float64(f.bits.capBits())
}

// EstimatedFalsePositiveRate estimates the current false-positive rate from
// the number of inserts so far.
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return EstimateFalsePositiveRate(f.bits.capBits(), f.bits.probes(), f.count)
}
