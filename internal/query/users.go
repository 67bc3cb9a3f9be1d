package query

import (
	"context"

	"github.com/docstream/docstream/internal/schema"
	"github.com/docstream/docstream/internal/store"
)

// Subscription wire names for the user queries.
const (
	UsersAll    = "users.all"
	UsersByName = "users.byName"
)

// Users defines the live queries over the "users" collection.
type Users struct {
	store store.Store
}

// NewUsers creates the user query set.
func NewUsers(st store.Store) *Users {
	return &Users{store: st}
}

// Definitions returns the registrable query table for users.
func (u *Users) Definitions() []Definition {
	return []Definition{
		{Name: UsersAll, Bind: u.all},
		{Name: UsersByName, Bind: u.byName},
	}
}

// all returns every user ordered by createdAt descending.
// Takes no arguments.
func (u *Users) all(args []any) (*Cursor, error) {
	if err := schema.Arity(UsersAll, args, 0); err != nil {
		return nil, err
	}

	return &Cursor{
		name: UsersAll,
		fetch: func(ctx context.Context) ([]*store.Document, error) {
			return u.store.Find(ctx, store.CollectionUsers, store.FindOptions{
				SortCreatedAtDesc: true,
			})
		},
	}, nil
}

// byName returns users whose name contains the filter as a
// case-insensitive unanchored substring, ordered by createdAt
// descending. An empty filter matches every user.
// Takes one required string argument.
func (u *Users) byName(args []any) (*Cursor, error) {
	if err := schema.Arity(UsersByName, args, 1); err != nil {
		return nil, err
	}

	nameFilter, err := schema.String("nameFilter", args[0])
	if err != nil {
		return nil, err
	}

	return &Cursor{
		name: UsersByName,
		fetch: func(ctx context.Context) ([]*store.Document, error) {
			return u.store.Find(ctx, store.CollectionUsers, store.FindOptions{
				Contains: store.FieldSubstring{
					Field:     "name",
					Substring: nameFilter,
				},
				SortCreatedAtDesc: true,
			})
		},
	}, nil
}
