// Package endpoint pins resolved filters behind generated names.
//
// Binding a filter records it in a name-keyed Table; callers that know the
// name reach the filter with one map lookup and no handle resolution.
// Endpoints live for the rest of the process: there is no unbind.
package endpoint

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcalabro/bloomer"
	"github.com/jcalabro/bloomer/query"
	"github.com/jcalabro/bloomer/registry"
)

// ID names a bound endpoint.
type ID string

// newID returns a fresh name of the form bloom_<handle>_<12 hex digits>.
func newID(h registry.Handle) ID {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return ID(fmt.Sprintf("bloom_%d_%s", h, suffix))
}

// Endpoint is a permanent alias for one filter.
type Endpoint struct {
	id      ID
	handle  registry.Handle
	filter  *bloomer.Filter
	created time.Time
	opts    query.Options
}

// ID returns the endpoint's generated name.
func (e *Endpoint) ID() ID { return e.id }

// Handle returns the handle the endpoint was bound from.
func (e *Endpoint) Handle() registry.Handle { return e.handle }

// Created returns when the endpoint was bound.
func (e *Endpoint) Created() time.Time { return e.created }

// Operations returns the names of the derived operations a host exposes
// for this endpoint.
func (e *Endpoint) Operations() []string {
	return []string{string(e.id) + "_contains_batch", string(e.id) + "_timing"}
}

// ContainsBatch tests items against the bound filter. Nil items are false.
func (e *Endpoint) ContainsBatch(items [][]byte) []bool {
	return query.ContainsBatch(e.filter, items)
}

// ContainsBatchParallel is ContainsBatch computed across goroutines.
func (e *Endpoint) ContainsBatchParallel(items [][]byte) []bool {
	return query.ContainsBatchParallel(e.filter, items, e.opts)
}

// TimeContainsBatch runs ContainsBatch over items and reports how long it
// took. The membership results are discarded.
func (e *Endpoint) TimeContainsBatch(items [][]byte) time.Duration {
	start := time.Now()
	_ = e.ContainsBatch(items)
	return time.Since(start)
}
