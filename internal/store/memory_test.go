package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemory_InsertAndFindByID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := m.Insert(ctx, CollectionUsers, map[string]any{"name": "Alice"}, createdAt)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == "" {
		t.Fatal("expected a store-assigned id")
	}

	doc, err := m.FindByID(ctx, CollectionUsers, id)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if doc.ID != id {
		t.Fatalf("expected id %q, got %q", id, doc.ID)
	}
	if !doc.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected createdAt %v, got %v", createdAt, doc.CreatedAt)
	}
	if doc.Fields["name"] != "Alice" {
		t.Fatalf("expected name Alice, got %v", doc.Fields["name"])
	}
}

func TestMemory_FindByIDNotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.FindByID(ctx, CollectionUsers, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_UpdateSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := m.Insert(ctx, CollectionUsers, map[string]any{"name": "Alice"}, createdAt)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	count, err := m.UpdateSet(ctx, CollectionUsers, id, map[string]any{"name": "Alicia"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	doc, err := m.FindByID(ctx, CollectionUsers, id)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if doc.Fields["name"] != "Alicia" {
		t.Fatalf("expected name Alicia, got %v", doc.Fields["name"])
	}
}

func TestMemory_UpdateSetUnmatchedID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	count, err := m.UpdateSet(ctx, CollectionUsers, "missing", map[string]any{"name": "X"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected count 0, got %d", count)
	}
}

func TestMemory_UpdateSetProtectsStoreOwnedFields(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := m.Insert(ctx, CollectionUsers, map[string]any{"name": "Alice"}, createdAt)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Unknown fields are applied permissively, store-owned keys are not.
	count, err := m.UpdateSet(ctx, CollectionUsers, id, map[string]any{
		"id":        "forged",
		"createdAt": "2030-01-01T00:00:00Z",
		"nickname":  "Al",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	doc, err := m.FindByID(ctx, CollectionUsers, id)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if !doc.CreatedAt.Equal(createdAt) {
		t.Fatalf("createdAt changed: %v", doc.CreatedAt)
	}
	if doc.ID != id {
		t.Fatalf("id changed: %q", doc.ID)
	}
	if doc.Fields["nickname"] != "Al" {
		t.Fatalf("expected nickname to be applied, got %v", doc.Fields["nickname"])
	}
	if _, ok := doc.Fields["id"]; ok {
		t.Fatal("expected store-owned id key to be dropped from fields")
	}
	if _, ok := doc.Fields["createdAt"]; ok {
		t.Fatal("expected store-owned createdAt key to be dropped from fields")
	}
}

func TestMemory_Remove(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.Insert(ctx, CollectionUsers, map[string]any{"name": "Alice"}, time.Now().UTC())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	count, err := m.Remove(ctx, CollectionUsers, id)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	if _, err := m.FindByID(ctx, CollectionUsers, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}

	count, err = m.Remove(ctx, CollectionUsers, id)
	if err != nil {
		t.Fatalf("remove again: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected count 0 for removed id, got %d", count)
	}
}

func TestMemory_FindSortedByCreatedAtDesc(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	names := []string{"first", "second", "third"}
	for i, name := range names {
		if _, err := m.Insert(ctx, CollectionUsers, map[string]any{"name": name}, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("insert %q: %v", name, err)
		}
	}

	docs, err := m.Find(ctx, CollectionUsers, FindOptions{SortCreatedAtDesc: true})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}

	want := []string{"third", "second", "first"}
	for i, doc := range docs {
		if doc.Fields["name"] != want[i] {
			t.Fatalf("position %d: expected %q, got %v", i, want[i], doc.Fields["name"])
		}
	}
}

func TestMemory_FindContains(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	now := time.Now().UTC()
	for _, name := range []string{"Alice", "Bob", "Natalie"} {
		if _, err := m.Insert(ctx, CollectionUsers, map[string]any{"name": name}, now); err != nil {
			t.Fatalf("insert %q: %v", name, err)
		}
	}

	docs, err := m.Find(ctx, CollectionUsers, FindOptions{
		Contains: FieldSubstring{Field: "name", Substring: "ALI"},
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	got := make(map[string]bool)
	for _, doc := range docs {
		got[doc.Fields["name"].(string)] = true
	}
	if len(docs) != 2 || !got["Alice"] || !got["Natalie"] {
		t.Fatalf("expected Alice and Natalie, got %v", got)
	}
}

func TestMemory_FindReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.Insert(ctx, CollectionUsers, map[string]any{"name": "Alice"}, time.Now().UTC())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	doc, err := m.FindByID(ctx, CollectionUsers, id)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	doc.Fields["name"] = "mutated"

	reread, err := m.FindByID(ctx, CollectionUsers, id)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if reread.Fields["name"] != "Alice" {
		t.Fatalf("stored document was mutated through a returned copy: %v", reread.Fields["name"])
	}
}

func TestMemory_Count(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	count, err := m.Count(ctx, CollectionLinks)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty collection, got %d", count)
	}

	if _, err := m.Insert(ctx, CollectionLinks, map[string]any{"title": "Docs"}, time.Now().UTC()); err != nil {
		t.Fatalf("insert: %v", err)
	}

	count, err = m.Count(ctx, CollectionLinks)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1, got %d", count)
	}
}

func TestMemory_ConcurrentReadsOnFreshStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			docs, err := m.Find(ctx, CollectionUsers, FindOptions{SortCreatedAtDesc: true})
			if err != nil {
				t.Errorf("find: %v", err)
			}
			if len(docs) != 0 {
				t.Errorf("expected no documents, got %d", len(docs))
			}

			count, err := m.Count(ctx, CollectionLinks)
			if err != nil {
				t.Errorf("count: %v", err)
			}
			if count != 0 {
				t.Errorf("expected zero count, got %d", count)
			}

			if _, err := m.FindByID(ctx, CollectionUsers, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		}()
	}
	wg.Wait()
}
