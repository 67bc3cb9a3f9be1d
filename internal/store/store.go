// Package store provides the document store adapter.
// It operates on named collections of schema-flexible documents keyed
// by a store-assigned identifier.
package store

import (
	"context"
	"errors"
	"time"
)

// Collection names owned by this service.
const (
	CollectionLinks = "links"
	CollectionUsers = "users"
)

// Common errors for store operations.
var (
	// ErrNotFound is returned by FindByID when no document matches.
	// Absence is a normal result for update/remove, which report a
	// zero count instead.
	ErrNotFound = errors.New("document not found")
)

// Document is a single record in a collection. ID and CreatedAt are
// assigned by the store at insert time and never change; Fields holds
// every other top-level field.
type Document struct {
	ID        string
	CreatedAt time.Time
	Fields    map[string]any
}

// Flatten merges the store-owned attributes with the document fields
// into a single wire-ready map.
func (d *Document) Flatten() map[string]any {
	out := make(map[string]any, len(d.Fields)+2)
	for k, v := range d.Fields {
		out[k] = v
	}
	out["id"] = d.ID
	out["createdAt"] = d.CreatedAt
	return out
}

// FieldSubstring filters documents whose named top-level string field
// contains Substring, case-insensitively and unanchored. The zero
// value applies no filter.
type FieldSubstring struct {
	Field     string
	Substring string
}

// FindOptions configures a Find call.
type FindOptions struct {
	// Contains restricts the result to matching documents.
	Contains FieldSubstring

	// SortCreatedAtDesc orders the result newest-first, ties broken
	// by descending ID for a stable order.
	SortCreatedAtDesc bool
}

// Store is the document store adapter shared by queries, methods and
// the seeder. Each write targets a single document; atomicity per
// document is the backing store's responsibility.
type Store interface {
	// Insert adds a new document and returns its store-assigned ID.
	// createdAt is recorded verbatim and is immutable afterwards.
	Insert(ctx context.Context, collection string, fields map[string]any, createdAt time.Time) (string, error)

	// UpdateSet applies a partial-field update to the document with
	// the given ID and returns the number of documents updated (0 or
	// 1). The set map is applied permissively: field names are not
	// checked against any schema, but the store-owned "id" and
	// "createdAt" keys are ignored.
	UpdateSet(ctx context.Context, collection, id string, set map[string]any) (int64, error)

	// Remove deletes the document with the given ID and returns the
	// number of documents removed (0 or 1).
	Remove(ctx context.Context, collection, id string) (int64, error)

	// FindByID returns the matching document or ErrNotFound.
	FindByID(ctx context.Context, collection, id string) (*Document, error)

	// Find returns documents matching the options. Re-invoking with
	// the same options against the same store state yields the same
	// ordered result.
	Find(ctx context.Context, collection string, opts FindOptions) ([]*Document, error)

	// Count returns the number of documents in a collection.
	Count(ctx context.Context, collection string) (int64, error)
}

// protectedFields are store-owned and silently dropped from set
// modifiers.
var protectedFields = map[string]bool{
	"id":        true,
	"createdAt": true,
}

// sanitizeSet copies a set modifier without the protected keys.
func sanitizeSet(set map[string]any) map[string]any {
	out := make(map[string]any, len(set))
	for k, v := range set {
		if protectedFields[k] {
			continue
		}
		out[k] = v
	}
	return out
}
