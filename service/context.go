package service

import "context"

type workerKey struct{}

// NewContext returns a copy of ctx carrying w, so request handlers can reach
// their worker's handle cache.
func NewContext(ctx context.Context, w *Worker) context.Context {
	return context.WithValue(ctx, workerKey{}, w)
}

// FromContext returns the Worker stored in ctx, if any.
func FromContext(ctx context.Context) (*Worker, bool) {
	w, ok := ctx.Value(workerKey{}).(*Worker)
	return w, ok && w != nil
}
