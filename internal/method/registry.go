// Package method implements the named RPC operations exposed to
// remote callers. Every method validates its arguments before use;
// an invalid shape yields an invalid-argument error and a guaranteed
// no-op on the store.
package method

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownMethod is returned when no method is registered under the
// requested name.
var ErrUnknownMethod = errors.New("unknown method")

// Handler applies one method call. args is the positional argument
// list exactly as decoded from the wire.
type Handler func(ctx context.Context, args []any) (any, error)

// Method pairs a wire name with its handler. Names are part of the
// wire contract and must not be renamed.
type Method struct {
	Name    string
	Handler Handler
}

// Registry maps method names to handlers. It is built once at startup
// and immutable afterwards, so lookups are safe from any goroutine.
type Registry struct {
	methods map[string]Handler
}

// NewRegistry builds a registry from the given methods. Duplicate
// names are a programming error.
func NewRegistry(methods ...Method) (*Registry, error) {
	table := make(map[string]Handler, len(methods))
	for _, m := range methods {
		if _, exists := table[m.Name]; exists {
			return nil, fmt.Errorf("duplicate method %q", m.Name)
		}
		table[m.Name] = m.Handler
	}
	return &Registry{methods: table}, nil
}

// Call dispatches a method by name.
func (r *Registry) Call(ctx context.Context, name string, args []any) (any, error) {
	handler, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
	return handler(ctx, args)
}

// Names returns the registered method names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
