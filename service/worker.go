package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jcalabro/bloomer"
	"github.com/jcalabro/bloomer/compress"
	"github.com/jcalabro/bloomer/endpoint"
	"github.com/jcalabro/bloomer/query"
	"github.com/jcalabro/bloomer/registry"
)

// Worker is one host worker's view of a Service. It is not safe for
// concurrent use; create one per goroutine.
type Worker struct {
	svc   *Service
	cache *registry.Cache[*bloomer.Filter]
}

// CacheStats reports this worker's handle cache usage.
func (w *Worker) CacheStats() registry.CacheStats { return w.cache.Stats() }

func (w *Worker) resolve(h registry.Handle) (*bloomer.Filter, bool) {
	return w.cache.Resolve(h)
}

func (w *Worker) register(f *bloomer.Filter) registry.Handle {
	return w.svc.filters.Register(f)
}

// CreateFilter builds an empty filter and returns its handle.
func (w *Worker) CreateFilter(ctx context.Context, rate float64, expected int64) (registry.Handle, error) {
	f, err := bloomer.New(rate, expected, bloomer.WithEngine(w.svc.cfg.Engine))
	if err != nil {
		w.svc.log.LogCreate(ctx, -1, rate, expected, err)
		return -1, err
	}
	h := w.register(f)
	w.svc.log.LogCreate(ctx, h, rate, expected, nil)
	return h, nil
}

// CreateFilterFromItems builds a filter sized for items, inserts every
// non-nil item and returns its handle.
func (w *Worker) CreateFilterFromItems(ctx context.Context, rate float64, items [][]byte) (registry.Handle, error) {
	f, err := bloomer.NewFromItems(rate, items, bloomer.WithEngine(w.svc.cfg.Engine))
	if err != nil {
		w.svc.log.LogCreate(ctx, -1, rate, int64(len(items)), err)
		return -1, err
	}
	h := w.register(f)
	w.svc.log.LogCreate(ctx, h, rate, int64(len(items)), nil)
	return h, nil
}

// Insert adds item to filter h and reports whether it may already have
// been present. Unknown handles and nil items return false.
func (w *Worker) Insert(h registry.Handle, item []byte) bool {
	f, ok := w.resolve(h)
	if !ok || item == nil {
		return false
	}
	return f.Insert(item)
}

// InsertBatch inserts every non-nil item into filter h and returns how many
// were processed. Unknown handles return 0.
func (w *Worker) InsertBatch(h registry.Handle, items [][]byte) int {
	f, ok := w.resolve(h)
	if !ok {
		return 0
	}
	return query.InsertBatch(f, items)
}

// Contains tests item against filter h. Unknown handles and nil items
// return false.
func (w *Worker) Contains(h registry.Handle, item []byte) bool {
	f, ok := w.resolve(h)
	if !ok || item == nil {
		return false
	}
	return f.Contains(item)
}

// ContainsBatch tests items in order against filter h. An unknown handle
// yields len(items) false values.
func (w *Worker) ContainsBatch(h registry.Handle, items [][]byte) []bool {
	f, ok := w.resolve(h)
	if !ok {
		return make([]bool, len(items))
	}
	return query.ContainsBatch(f, items)
}

// ContainsBatchParallel returns the same result as ContainsBatch, computed
// across goroutines.
func (w *Worker) ContainsBatchParallel(h registry.Handle, items [][]byte) []bool {
	f, ok := w.resolve(h)
	if !ok {
		return make([]bool, len(items))
	}
	return query.ContainsBatchParallel(f, items, w.svc.cfg.queryOptions())
}

// Serialize returns the binary encoding of filter h. ok is false if the
// handle is unknown or encoding fails.
func (w *Worker) Serialize(ctx context.Context, h registry.Handle) (data []byte, ok bool) {
	data, err := w.serialize(ctx, h)
	return data, err == nil
}

func (w *Worker) serialize(ctx context.Context, h registry.Handle) ([]byte, error) {
	f, ok := w.resolve(h)
	if !ok {
		return nil, fmt.Errorf("%w: handle %d", ErrNotFound, h)
	}
	data, err := f.MarshalBinary()
	if err != nil {
		err = fmt.Errorf("%w: handle %d: %w", ErrEncodingFailure, h, err)
		w.svc.log.LogSerialize(ctx, h, err)
		return nil, err
	}
	return data, nil
}

// SerializeCompressed is Serialize followed by the configured compression.
func (w *Worker) SerializeCompressed(ctx context.Context, h registry.Handle) ([]byte, bool) {
	data, err := w.serialize(ctx, h)
	if err != nil {
		return nil, false
	}
	out, err := compress.Compress(w.svc.cfg.Compression, data, w.svc.cfg.CompressionLevel)
	if err != nil {
		w.svc.log.LogSerialize(ctx, h, fmt.Errorf("%w: %w", ErrEncodingFailure, err))
		return nil, false
	}
	return out, true
}

// LoadFilter decodes a serialized filter, raw or compressed, registers it
// and returns its new handle.
func (w *Worker) LoadFilter(ctx context.Context, data []byte) (registry.Handle, error) {
	raw, err := compress.Decompress(data)
	if err == nil {
		var f *bloomer.Filter
		if f, err = bloomer.UnmarshalBinary(raw); err == nil {
			h := w.register(f)
			w.svc.log.LogLoad(ctx, h, len(data), nil)
			return h, nil
		}
	}
	w.svc.log.LogLoad(ctx, -1, len(data), err)
	return -1, err
}

// BindEndpoint pins filter h behind a new endpoint and returns its ID.
func (w *Worker) BindEndpoint(ctx context.Context, h registry.Handle) (endpoint.ID, error) {
	f, ok := w.resolve(h)
	if !ok {
		err := fmt.Errorf("%w: no filter with handle %d: %w", ErrBindingFailure, h, ErrNotFound)
		w.svc.log.LogBind(ctx, h, "", err)
		return "", err
	}

	e, err := w.svc.endpoints.Bind(h, f)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrBindingFailure, err)
		w.svc.log.LogBind(ctx, h, "", err)
		return "", err
	}
	w.svc.log.LogBind(ctx, h, string(e.ID()), nil)
	return e.ID(), nil
}

// Endpoint returns the bound endpoint named id.
func (w *Worker) Endpoint(id endpoint.ID) (*endpoint.Endpoint, bool) {
	return w.svc.endpoints.Lookup(id)
}

// EndpointContainsBatch tests items against the filter bound to id. An
// unknown endpoint yields len(items) false values.
func (w *Worker) EndpointContainsBatch(id endpoint.ID, items [][]byte) []bool {
	e, ok := w.svc.endpoints.Lookup(id)
	if !ok {
		return make([]bool, len(items))
	}
	return e.ContainsBatch(items)
}

// EndpointTiming reports how long a batch query against endpoint id takes.
// ok is false for an unknown endpoint.
func (w *Worker) EndpointTiming(ctx context.Context, id endpoint.ID, items [][]byte) (time.Duration, bool) {
	e, ok := w.svc.endpoints.Lookup(id)
	if !ok {
		return 0, false
	}
	elapsed := e.TimeContainsBatch(items)
	w.svc.log.DebugContext(ctx, "endpoint timing",
		"endpoint", string(id),
		"items", len(items),
		"elapsed", elapsed,
	)
	return elapsed, true
}
