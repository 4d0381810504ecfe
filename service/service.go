// Package service is the filter store a host query engine calls into.
//
// A Service is created once at startup and owns the filter registry and the
// bound-endpoint table. Each host worker obtains its own Worker, which
// carries a private handle cache; after the first access to a handle a
// Worker resolves it without taking any registry lock.
//
// Lookup-style operations never fail: an unknown handle yields false, an
// all-false slice, zero, or an absent result. Construction and binding
// failures are returned as errors.
package service

import (
	"context"
	"sync/atomic"

	"github.com/jcalabro/bloomer"
	"github.com/jcalabro/bloomer/endpoint"
	"github.com/jcalabro/bloomer/registry"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger overrides the logger derived from Config.
func WithLogger(l *Logger) Option { return func(s *Service) { s.log = l } }

// WithPublisher forwards every newly bound endpoint to p.
func WithPublisher(p endpoint.Publisher) Option { return func(s *Service) { s.pub = p } }

// Service is the process-wide filter store.
type Service struct {
	cfg       Config
	log       *Logger
	pub       endpoint.Publisher
	filters   *registry.Registry[*bloomer.Filter]
	endpoints *endpoint.Table
	workers   atomic.Int64
}

// New creates a Service. cfg is assumed valid; see Config.Validate.
func New(cfg Config, opts ...Option) *Service {
	s := &Service{
		cfg:     cfg,
		filters: registry.New[*bloomer.Filter](),
	}
	for _, fn := range opts {
		fn(s)
	}
	if s.log == nil {
		s.log = loggerFromConfig(cfg)
	}

	tableOpts := []endpoint.Option{endpoint.WithQueryOptions(cfg.queryOptions())}
	if s.pub != nil {
		tableOpts = append(tableOpts, endpoint.WithPublisher(s.pub))
	}
	s.endpoints = endpoint.NewTable(tableOpts...)
	return s
}

// Config returns the configuration the service was built with.
func (s *Service) Config() Config { return s.cfg }

// Logger returns the service logger.
func (s *Service) Logger() *Logger { return s.log }

// NewWorker returns a Worker with an empty handle cache. A Worker must be
// used by one goroutine at a time.
func (s *Service) NewWorker() *Worker {
	s.workers.Add(1)
	return &Worker{
		svc:   s,
		cache: registry.NewCache(s.filters),
	}
}

// Stats summarizes the service.
type Stats struct {
	Filters   int
	Endpoints int
	Workers   int64
}

// Stats returns current counts.
func (s *Service) Stats() Stats {
	return Stats{
		Filters:   s.filters.Len(),
		Endpoints: s.endpoints.Len(),
		Workers:   s.workers.Load(),
	}
}

// Close logs final statistics. Filters and endpoints are released with the
// Service itself.
func (s *Service) Close(ctx context.Context) error {
	st := s.Stats()
	s.log.InfoContext(ctx, "service closed",
		"filters", st.Filters,
		"endpoints", st.Endpoints,
		"workers", st.Workers,
	)
	return nil
}
