package bloomer

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"unsafe"
)

var engines = []Engine{EngineBlocked, EngineClassic}

func mustNew(t testing.TB, rate float64, expected int64, opts ...Option) *Filter {
	t.Helper()
	f, err := New(rate, expected, opts...)
	if err != nil {
		t.Fatalf("New(%v, %d) failed: %v", rate, expected, err)
	}
	return f
}

func TestFilterBasic(t *testing.T) {
	for _, e := range engines {
		t.Run(e.String(), func(t *testing.T) {
			f := mustNew(t, 0.01, 1000, WithEngine(e))

			f.Insert([]byte("hello"))
			f.Insert([]byte("world"))

			if !f.Contains([]byte("hello")) {
				t.Error("expected hello to be present")
			}
			if !f.Contains([]byte("world")) {
				t.Error("expected world to be present")
			}
			if f.Contains([]byte("notpresent")) {
				t.Log("warning: false positive for 'notpresent'")
			}
			if f.Engine() != e {
				t.Errorf("engine mismatch: got %s, want %s", f.Engine(), e)
			}
		})
	}
}

func TestNewInvalidParameter(t *testing.T) {
	tests := []struct {
		rate     float64
		expected int64
	}{
		{0, 1000},
		{1, 1000},
		{-0.5, 1000},
		{1.5, 1000},
		{math.NaN(), 1000},
		{0.01, -1},
	}

	for _, tt := range tests {
		_, err := New(tt.rate, tt.expected)
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("New(%v, %d): expected ErrInvalidParameter, got %v", tt.rate, tt.expected, err)
		}
	}
}

func TestNewTooLarge(t *testing.T) {
	for _, e := range engines {
		for _, expected := range []int64{math.MaxInt64, 1 << 40, 1 << 33} {
			f, err := New(0.01, expected, WithEngine(e))
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("%s: New(0.01, %d): expected ErrInvalidParameter, got %v", e, expected, err)
			}
			if f != nil {
				t.Errorf("%s: New(0.01, %d) returned a filter", e, expected)
			}
		}
	}

	// Tiny rates raise the bits per item; the same ceiling applies.
	if _, err := New(1e-300, 1<<30); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for tiny rate, got %v", err)
	}
}

func TestNewZeroExpected(t *testing.T) {
	for _, e := range engines {
		f := mustNew(t, 0.01, 0, WithEngine(e))
		if f.Cap() == 0 {
			t.Errorf("%s: expected non-zero capacity", e)
		}
		f.Insert([]byte("x"))
		if !f.Contains([]byte("x")) {
			t.Errorf("%s: expected x to be present", e)
		}
	}
}

func TestNewFromItemsSkipsNil(t *testing.T) {
	items := [][]byte{[]byte("a"), nil, []byte("b"), nil, []byte("c")}

	for _, e := range engines {
		f, err := NewFromItems(0.01, items, WithEngine(e))
		if err != nil {
			t.Fatalf("NewFromItems failed: %v", err)
		}
		if f.Count() != 3 {
			t.Errorf("%s: expected count 3, got %d", e, f.Count())
		}
		for _, s := range []string{"a", "b", "c"} {
			if !f.Contains([]byte(s)) {
				t.Errorf("%s: expected %q to be present", e, s)
			}
		}
	}

	if _, err := NewFromItems(2, items); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestFilterInsertReportsPresence(t *testing.T) {
	for _, e := range engines {
		f := mustNew(t, 0.01, 1000, WithEngine(e))

		if f.Insert([]byte("test")) {
			t.Errorf("%s: expected Insert to return false for new item", e)
		}
		if !f.Insert([]byte("test")) {
			t.Errorf("%s: expected Insert to return true for existing item", e)
		}
	}
}

func TestFilterFalsePositiveRate(t *testing.T) {
	const expectedItems = 10000
	const targetFPRate = 0.01

	for _, e := range engines {
		t.Run(e.String(), func(t *testing.T) {
			f := mustNew(t, targetFPRate, expectedItems, WithEngine(e))

			for i := range expectedItems {
				f.Insert(fmt.Appendf(nil, "item-%d", i))
			}

			const testItems = 10000
			var falsePositives int
			for i := range testItems {
				if f.Contains(fmt.Appendf(nil, "notitem-%d", i)) {
					falsePositives++
				}
			}

			actual := float64(falsePositives) / testItems

			// Allow 2x margin for statistical variance
			if actual > targetFPRate*2 {
				t.Errorf("false positive rate too high: got %.4f, want <= %.4f", actual, targetFPRate*2)
			}

			t.Logf("FP rate: %.4f (target: %.4f, k=%d, cap=%d)", actual, targetFPRate, f.K(), f.Cap())
		})
	}
}

func TestFilterNoFalseNegatives(t *testing.T) {
	for _, e := range engines {
		f := mustNew(t, 0.001, 500, WithEngine(e))

		// Overfill to 4x capacity; false negatives must still be impossible.
		for i := range 2000 {
			f.Insert(fmt.Appendf(nil, "key-%d", i))
		}
		for i := range 2000 {
			if !f.Contains(fmt.Appendf(nil, "key-%d", i)) {
				t.Fatalf("%s: false negative for key-%d", e, i)
			}
		}
	}
}

func TestFilterContainsInto(t *testing.T) {
	f := mustNew(t, 0.01, 100)
	f.Insert([]byte("a"))
	f.Insert([]byte("b"))

	items := [][]byte{[]byte("a"), nil, []byte("b")}
	out := make([]bool, len(items))
	f.ContainsInto(items, out)

	if !out[0] || out[1] || !out[2] {
		t.Errorf("unexpected results: %v", out)
	}
}

func TestFilterInsertMany(t *testing.T) {
	f := mustNew(t, 0.01, 100)

	n := f.InsertMany([][]byte{[]byte("a"), nil, []byte("b"), nil})
	if n != 2 {
		t.Errorf("expected 2 items processed, got %d", n)
	}
	if f.Count() != 2 {
		t.Errorf("expected count 2, got %d", f.Count())
	}
}

func TestFilterEstimatedFillRatio(t *testing.T) {
	for _, e := range engines {
		f := mustNew(t, 0.01, 1000, WithEngine(e))

		if f.EstimatedFillRatio() != 0 {
			t.Errorf("%s: expected 0 fill ratio for empty filter, got %f", e, f.EstimatedFillRatio())
		}

		for i := range 500 {
			f.Insert(fmt.Appendf(nil, "item-%d", i))
		}

		ratio := f.EstimatedFillRatio()
		if ratio <= 0 || ratio >= 1 {
			t.Errorf("%s: expected fill ratio between 0 and 1, got %f", e, ratio)
		}
		t.Logf("%s: fill ratio after 500 items: %.4f", e, ratio)
	}
}

func TestFilterEstimatedFalsePositiveRate(t *testing.T) {
	f := mustNew(t, 0.01, 1000)
	if f.EstimatedFalsePositiveRate() != 0 {
		t.Errorf("expected 0 for empty filter, got %f", f.EstimatedFalsePositiveRate())
	}

	for i := range 1000 {
		f.Insert(fmt.Appendf(nil, "item-%d", i))
	}

	est := f.EstimatedFalsePositiveRate()
	if est <= 0 || est > 0.05 {
		t.Errorf("estimate out of range: %f", est)
	}
}

func TestFilterConcurrentMixed(t *testing.T) {
	for _, e := range engines {
		t.Run(e.String(), func(t *testing.T) {
			f := mustNew(t, 0.01, 100000, WithEngine(e))

			const numGoroutines = 8
			const opsPerGoroutine = 5000

			for i := range 1000 {
				f.Insert(fmt.Appendf(nil, "prepop-%d", i))
			}

			var wg sync.WaitGroup
			wg.Add(numGoroutines * 2)

			for g := range numGoroutines {
				go func(id int) {
					defer wg.Done()
					for i := range opsPerGoroutine {
						f.Insert(fmt.Appendf(nil, "write-g%d-%d", id, i))
					}
				}(g)
			}

			var missing sync.Map
			for g := range numGoroutines {
				go func(id int) {
					defer wg.Done()
					for i := range opsPerGoroutine {
						if !f.Contains(fmt.Appendf(nil, "prepop-%d", i%1000)) {
							missing.Store(i%1000, true)
						}
					}
				}(g)
			}

			wg.Wait()

			missing.Range(func(k, _ any) bool {
				t.Errorf("prepopulated item %v missing during concurrent writes", k)
				return true
			})

			want := uint64(1000 + numGoroutines*opsPerGoroutine)
			if f.Count() != want {
				t.Errorf("expected count %d, got %d", want, f.Count())
			}
		})
	}
}

func TestParseEngine(t *testing.T) {
	tests := []struct {
		in   string
		want Engine
		ok   bool
	}{
		{"", EngineBlocked, true},
		{"blocked", EngineBlocked, true},
		{"Classic", EngineClassic, true},
		{" classic ", EngineClassic, true},
		{"cuckoo", 0, false},
	}

	for _, tt := range tests {
		got, err := ParseEngine(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseEngine(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEngine(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestBlockedParams(t *testing.T) {
	tests := []struct {
		items  uint64
		fpRate float64
		wantK  uint32
	}{
		{1000, 0.01, 7},
		{10000, 0.001, 10},
		{100000, 0.0001, 13},
	}

	for _, tt := range tests {
		numBlocks, k := BlockedParams(tt.items, tt.fpRate)
		t.Logf("items=%d, fpRate=%.4f -> numBlocks=%d, k=%d", tt.items, tt.fpRate, numBlocks, k)

		if k != tt.wantK {
			t.Errorf("items=%d fpRate=%v: k=%d, want %d", tt.items, tt.fpRate, k, tt.wantK)
		}
		if numBlocks == 0 {
			t.Error("numBlocks should be > 0")
		}
	}

	// Zero items still yields a usable filter.
	if numBlocks, k := BlockedParams(0, 0.01); numBlocks != 1 || k < MinK || k > MaxK {
		t.Errorf("BlockedParams(0, 0.01) = %d, %d", numBlocks, k)
	}
}

func TestBlockedParamsClamped(t *testing.T) {
	numBlocks, k := BlockedParams(math.MaxUint64, 0.01)
	if numBlocks != MaxBlocks {
		t.Errorf("numBlocks = %d, want %d", numBlocks, uint64(MaxBlocks))
	}
	if k < MinK || k > MaxK {
		t.Errorf("k = %d out of range", k)
	}
}

func TestPartitions(t *testing.T) {
	for k := uint32(MinK); k <= MaxK; k++ {
		sizes := partition(k)
		if uint32(len(sizes)) != k {
			t.Errorf("k=%d: expected %d sizes, got %d", k, k, len(sizes))
			continue
		}

		var sum uint32
		seen := make(map[uint32]bool)
		for _, s := range sizes {
			sum += s
			if seen[s] {
				t.Errorf("k=%d: duplicate size %d", k, s)
			}
			seen[s] = true
		}
		if sum != BlockBits {
			t.Errorf("k=%d: sizes sum to %d, want %d", k, sum, BlockBits)
		}
	}

	for _, k := range []uint32{0, 2, 15} {
		if partition(k) != nil {
			t.Errorf("expected nil partition for k=%d", k)
		}
	}
}

func TestEstimateFalsePositiveRate(t *testing.T) {
	capBits := uint64(100 * BlockBits)
	k := uint32(7)
	items := uint64(5000)

	got := EstimateFalsePositiveRate(capBits, k, items)
	want := math.Pow(1-math.Exp(-float64(k)*float64(items)/float64(capBits)), float64(k))
	if math.Abs(got-want) > 0.0001 {
		t.Errorf("estimated=%f, expected=%f", got, want)
	}

	if EstimateFalsePositiveRate(capBits, k, 0) != 0 {
		t.Error("expected 0 for no items")
	}
	if EstimateFalsePositiveRate(0, k, 1000) != 0 {
		t.Error("expected 0 for zero capacity")
	}
}

func TestBlockedUnsupportedKFallsBack(t *testing.T) {
	b := newBlocked(0, 99)
	if b.k != 7 || b.numBlocks != 1 {
		t.Errorf("expected fallback to k=7 with 1 block, got k=%d blocks=%d", b.k, b.numBlocks)
	}
}

func TestCacheLineAlignment(t *testing.T) {
	f := mustNew(t, 0.01, 1000)
	b := f.bits.(*blocked)
	addr := uintptr(unsafe.Pointer(&b.words[0]))
	if addr%cacheLineSize != 0 {
		t.Errorf("blocks not 64-byte aligned: address %x", addr)
	}
}
