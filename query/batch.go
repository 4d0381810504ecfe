// Package query runs membership tests and inserts over ordered batches of
// nullable items against a resolved filter.
//
// A nil entry in an item slice is a null: it tests as false and is skipped
// on insert. A non-nil, zero-length slice is an ordinary (empty) item.
package query

import (
	"runtime"

	"github.com/jcalabro/bloomer"
	"golang.org/x/sync/errgroup"
)

// DefaultMinChunk is the smallest partition handed to a parallel worker.
const DefaultMinChunk = 1024

// Options tunes ContainsBatchParallel.
type Options struct {
	// Workers caps the number of goroutines. Zero means GOMAXPROCS.
	Workers int
	// MinChunk is the minimum number of items per partition. Zero means
	// DefaultMinChunk.
	MinChunk int
}

func (o Options) normalize() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.MinChunk <= 0 {
		o.MinChunk = DefaultMinChunk
	}
	return o
}

// ContainsBatch tests every item in order. The result has len(items)
// entries; nil items map to false.
func ContainsBatch(f *bloomer.Filter, items [][]byte) []bool {
	out := make([]bool, len(items))
	f.ContainsInto(items, out)
	return out
}

// ContainsBatchParallel returns exactly what ContainsBatch returns for the
// same input, computing it across goroutines.
//
// items is split into contiguous index ranges and every range writes only
// its own slice of the output, so ordering does not depend on scheduling.
// Inputs that fit in one chunk run on the calling goroutine.
func ContainsBatchParallel(f *bloomer.Filter, items [][]byte, opts Options) []bool {
	opts = opts.normalize()
	out := make([]bool, len(items))

	chunk := max(opts.MinChunk, (len(items)+opts.Workers-1)/opts.Workers)
	if len(items) <= chunk {
		f.ContainsInto(items, out)
		return out
	}

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for lo := 0; lo < len(items); lo += chunk {
		hi := min(lo+chunk, len(items))
		g.Go(func() error {
			f.ContainsInto(items[lo:hi], out[lo:hi])
			return nil
		})
	}
	// Partitions never fail; Wait only joins them.
	_ = g.Wait()
	return out
}

// InsertBatch inserts every non-nil item and returns how many were
// processed. Inserts already applied stay applied; there is no rollback.
func InsertBatch(f *bloomer.Filter, items [][]byte) int {
	return f.InsertMany(items)
}
