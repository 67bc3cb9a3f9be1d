// Package model defines the document entities owned by the data layer.
package model

import (
	"time"

	"github.com/docstream/docstream/internal/store"
)

// User represents a user document in the "users" collection.
// Name carries no uniqueness constraint; duplicate names are allowed.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Fields returns the caller-settable fields of the user as a document
// field map. ID and CreatedAt are store-owned and excluded.
func (u *User) Fields() map[string]any {
	return map[string]any{
		"name": u.Name,
	}
}

// UserFromDocument decodes a store document into a User.
// Missing or mistyped fields decode to zero values; the store is
// schema-flexible and the read side stays tolerant.
func UserFromDocument(doc *store.Document) *User {
	u := &User{
		ID:        doc.ID,
		CreatedAt: doc.CreatedAt,
	}
	if name, ok := doc.Fields["name"].(string); ok {
		u.Name = name
	}
	return u
}

// UsersFromDocuments decodes a result set preserving its order.
func UsersFromDocuments(docs []*store.Document) []*User {
	users := make([]*User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, UserFromDocument(doc))
	}
	return users
}
