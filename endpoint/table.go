package endpoint

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jcalabro/bloomer"
	"github.com/jcalabro/bloomer/query"
	"github.com/jcalabro/bloomer/registry"
)

// ErrPublish is wrapped around errors returned by a Publisher.
var ErrPublish = errors.New("endpoint: publish failed")

// Publisher is notified of every new endpoint before it becomes visible in
// the table. A host uses it to register the endpoint's operations. If
// Publish fails the bind is abandoned.
//
// Publish runs with the table locked and must not call back into it.
type Publisher interface {
	Publish(e *Endpoint) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(e *Endpoint) error

// Publish calls fn(e).
func (fn PublisherFunc) Publish(e *Endpoint) error { return fn(e) }

// Option configures a Table.
type Option func(*Table)

// WithPublisher sets the publisher called on every bind.
func WithPublisher(p Publisher) Option { return func(t *Table) { t.pub = p } }

// WithQueryOptions sets the parallelism used by Endpoint.ContainsBatchParallel.
func WithQueryOptions(o query.Options) Option { return func(t *Table) { t.opts = o } }

// Table is the process-wide, name-keyed set of bound endpoints. It is safe
// for concurrent use.
type Table struct {
	mu   sync.RWMutex
	byID map[ID]*Endpoint
	pub  Publisher
	opts query.Options
}

// NewTable creates an empty table.
func NewTable(opts ...Option) *Table {
	t := &Table{byID: make(map[ID]*Endpoint)}
	for _, fn := range opts {
		fn(t)
	}
	return t
}

// Bind creates a permanent endpoint for f, which the caller resolved from
// handle h.
func (t *Table) Bind(h registry.Handle, f *bloomer.Filter) (*Endpoint, error) {
	e := &Endpoint{
		handle:  h,
		filter:  f,
		created: time.Now(),
		opts:    t.opts,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		e.id = newID(h)
		if _, taken := t.byID[e.id]; !taken {
			break
		}
	}

	if t.pub != nil {
		if err := t.pub.Publish(e); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrPublish, e.id, err)
		}
	}
	t.byID[e.id] = e
	return e, nil
}

// Lookup returns the endpoint named id.
func (t *Table) Lookup(id ID) (*Endpoint, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.byID[id]
	return e, ok
}

// Len returns the number of bound endpoints.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// IDs returns every bound endpoint name in sorted order.
func (t *Table) IDs() []ID {
	t.mu.RLock()
	ids := make([]ID, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	t.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
