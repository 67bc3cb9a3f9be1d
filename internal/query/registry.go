// Package query implements the named live queries exposed to the
// external sync layer. Each query is a pure function from (arguments,
// store state) to an ordered result set; binding it yields a cheap,
// re-invokable cursor the sync layer re-evaluates whenever the change
// feed signals that the result may have moved.
package query

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/docstream/docstream/internal/store"
)

// ErrUnknownQuery is returned when no query is registered under the
// requested subscription name.
var ErrUnknownQuery = errors.New("unknown query")

// Cursor is a live result-set handle. Fetch re-reads the current
// store state; the ordering contract of the underlying definition
// holds on every invocation, so rows inserted or removed between
// fetches appear at their correct positions.
type Cursor struct {
	name  string
	fetch func(ctx context.Context) ([]*store.Document, error)
}

// Name returns the subscription name the cursor was bound from.
func (c *Cursor) Name() string {
	return c.name
}

// Fetch evaluates the query against the current store state.
func (c *Cursor) Fetch(ctx context.Context) ([]*store.Document, error) {
	return c.fetch(ctx)
}

// Bind validates the positional arguments and produces a cursor. The
// store is not touched until the first Fetch.
type Bind func(args []any) (*Cursor, error)

// Definition pairs a subscription wire name with its binder. Names
// are part of the wire contract and must not be renamed.
type Definition struct {
	Name string
	Bind Bind
}

// Registry maps subscription names to query definitions. It is built
// once at startup and immutable afterwards.
type Registry struct {
	queries map[string]Bind
}

// NewRegistry builds a registry from the given definitions.
// Duplicate names are a programming error.
func NewRegistry(definitions ...Definition) (*Registry, error) {
	table := make(map[string]Bind, len(definitions))
	for _, d := range definitions {
		if _, exists := table[d.Name]; exists {
			return nil, fmt.Errorf("duplicate query %q", d.Name)
		}
		table[d.Name] = d.Bind
	}
	return &Registry{queries: table}, nil
}

// Subscribe binds a query by name, validating its arguments.
func (r *Registry) Subscribe(name string, args []any) (*Cursor, error) {
	bind, ok := r.queries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
	}
	return bind(args)
}

// Names returns the registered subscription names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.queries))
	for name := range r.queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
