package query

import (
	"context"

	"github.com/docstream/docstream/internal/schema"
	"github.com/docstream/docstream/internal/store"
)

// LinksAll is the subscription wire name for the links query.
const LinksAll = "links"

// Links defines the live queries over the "links" collection.
type Links struct {
	store store.Store
}

// NewLinks creates the link query set.
func NewLinks(st store.Store) *Links {
	return &Links{store: st}
}

// Definitions returns the registrable query table for links.
func (l *Links) Definitions() []Definition {
	return []Definition{
		{Name: LinksAll, Bind: l.all},
	}
}

// all streams every link. The subscription declares no sort; the
// store still returns a deterministic order, but callers must not
// rely on it.
func (l *Links) all(args []any) (*Cursor, error) {
	if err := schema.Arity(LinksAll, args, 0); err != nil {
		return nil, err
	}

	return &Cursor{
		name: LinksAll,
		fetch: func(ctx context.Context) ([]*store.Document, error) {
			return l.store.Find(ctx, store.CollectionLinks, store.FindOptions{})
		},
	}, nil
}
