package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Memory is an in-process Store used by unit tests and local
// development. It mirrors the Postgres store's observable behavior:
// store-assigned ULIDs, per-document writes, deterministic ordering.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	docs  map[string]*Document
	order []string // insertion order of IDs
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]*memoryCollection),
	}
}

// Ping always succeeds; the memory store has no external dependency.
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

// getOrCreate requires the write lock; it may grow the collections map.
func (m *Memory) getOrCreate(name string) *memoryCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memoryCollection{docs: make(map[string]*Document)}
		m.collections[name] = c
	}
	return c
}

// lookup is safe under the read lock; absent collections stay absent.
func (m *Memory) lookup(name string) *memoryCollection {
	return m.collections[name]
}

// Insert adds a new document and returns its store-assigned ULID.
func (m *Memory) Insert(ctx context.Context, collection string, fields map[string]any, createdAt time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := ulid.Make().String()
	c := m.getOrCreate(collection)
	c.docs[id] = &Document{
		ID:        id,
		CreatedAt: createdAt,
		Fields:    copyFields(sanitizeSet(fields)),
	}
	c.order = append(c.order, id)

	return id, nil
}

// UpdateSet applies a partial-field update, returning 0 or 1.
func (m *Memory) UpdateSet(ctx context.Context, collection, id string, set map[string]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.getOrCreate(collection).docs[id]
	if !ok {
		return 0, nil
	}

	for k, v := range copyFields(sanitizeSet(set)) {
		doc.Fields[k] = v
	}

	return 1, nil
}

// Remove deletes a document by ID, returning 0 or 1.
func (m *Memory) Remove(ctx context.Context, collection, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.getOrCreate(collection)
	if _, ok := c.docs[id]; !ok {
		return 0, nil
	}

	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	return 1, nil
}

// FindByID retrieves a document by ID or returns ErrNotFound.
func (m *Memory) FindByID(ctx context.Context, collection, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := m.lookup(collection)
	if c == nil {
		return nil, ErrNotFound
	}

	doc, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}

	return copyDocument(doc), nil
}

// Find retrieves documents matching the options.
func (m *Memory) Find(ctx context.Context, collection string, opts FindOptions) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := m.lookup(collection)
	if c == nil {
		return nil, nil
	}

	docs := make([]*Document, 0, len(c.order))
	for _, id := range c.order {
		doc := c.docs[id]
		if !matchesContains(doc, opts.Contains) {
			continue
		}
		docs = append(docs, copyDocument(doc))
	}

	if opts.SortCreatedAtDesc {
		sort.SliceStable(docs, func(i, j int) bool {
			if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
				return docs[i].CreatedAt.After(docs[j].CreatedAt)
			}
			return docs[i].ID > docs[j].ID
		})
	}

	return docs, nil
}

// Count returns the number of documents in a collection.
func (m *Memory) Count(ctx context.Context, collection string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := m.lookup(collection)
	if c == nil {
		return 0, nil
	}

	return int64(len(c.docs)), nil
}

// matchesContains reports whether the document passes the substring
// filter. An empty substring matches every document that has the
// field as a string, mirroring an ILIKE '%%' match in Postgres.
func matchesContains(doc *Document, contains FieldSubstring) bool {
	if contains.Field == "" {
		return true
	}

	value, ok := doc.Fields[contains.Field].(string)
	if !ok {
		return false
	}

	return strings.Contains(strings.ToLower(value), strings.ToLower(contains.Substring))
}

// copyDocument returns a deep copy so callers cannot alias stored state.
func copyDocument(doc *Document) *Document {
	return &Document{
		ID:        doc.ID,
		CreatedAt: doc.CreatedAt,
		Fields:    copyFields(doc.Fields),
	}
}

// copyFields deep-copies a field map of JSON-shaped values.
func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyFields(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return val
	}
}
