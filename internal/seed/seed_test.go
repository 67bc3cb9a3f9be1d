package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/docstream/docstream/internal/model"
	"github.com/docstream/docstream/internal/store"
)

func TestRunSeedsEmptyStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	if err := Run(ctx, st, slog.Default()); err != nil {
		t.Fatalf("run: %v", err)
	}

	links, err := st.Count(ctx, store.CollectionLinks)
	if err != nil {
		t.Fatalf("count links: %v", err)
	}
	if links != 4 {
		t.Fatalf("expected 4 links, got %d", links)
	}

	users, err := st.Count(ctx, store.CollectionUsers)
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users != 3 {
		t.Fatalf("expected 3 users, got %d", users)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	if err := Run(ctx, st, slog.Default()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := Run(ctx, st, slog.Default()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	docs, err := st.Find(ctx, store.CollectionLinks, store.FindOptions{})
	if err != nil {
		t.Fatalf("find links: %v", err)
	}

	// Exactly the 4 documented pairs, no duplicates after two runs.
	seen := make(map[string]bool)
	for _, link := range model.LinksFromDocuments(docs) {
		key := link.Title + "|" + link.URL
		if seen[key] {
			t.Fatalf("duplicate link after reseed: %s", key)
		}
		seen[key] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct links, got %d", len(seen))
	}

	for _, row := range linkRows {
		if !seen[row.Title+"|"+row.URL] {
			t.Fatalf("seed link %q missing after reseed", row.Title)
		}
	}

	users, err := st.Count(ctx, store.CollectionUsers)
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users != 3 {
		t.Fatalf("expected 3 users after reseed, got %d", users)
	}
}

func TestRunSkipsNonEmptyCollection(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	if _, err := st.Insert(ctx, store.CollectionUsers, map[string]any{"name": "Existing"}, time.Now().UTC()); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := Run(ctx, st, slog.Default()); err != nil {
		t.Fatalf("run: %v", err)
	}

	users, err := st.Count(ctx, store.CollectionUsers)
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users != 1 {
		t.Fatalf("expected the pre-existing user only, got %d", users)
	}

	// The other collection still seeds.
	links, err := st.Count(ctx, store.CollectionLinks)
	if err != nil {
		t.Fatalf("count links: %v", err)
	}
	if links != 4 {
		t.Fatalf("expected 4 links, got %d", links)
	}
}

// failingStore fails inserts into one collection to prove the two
// seeding scopes are independent.
type failingStore struct {
	*store.Memory
	failCollection string
}

func (f *failingStore) Insert(ctx context.Context, collection string, fields map[string]any, createdAt time.Time) (string, error) {
	if collection == f.failCollection {
		return "", fmt.Errorf("simulated insert failure")
	}
	return f.Memory.Insert(ctx, collection, fields, createdAt)
}

func TestRunCollectionFailuresAreIndependent(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{Memory: store.NewMemory(), failCollection: store.CollectionLinks}

	err := Run(ctx, st, slog.Default())
	if err == nil {
		t.Fatal("expected an error from the failing collection")
	}

	// The error names the failing row.
	if want := "Getting Started"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to name the failing seed row %q, got %v", want, err)
	}

	// Users still seeded despite the link failure.
	users, countErr := st.Count(ctx, store.CollectionUsers)
	if countErr != nil {
		t.Fatalf("count users: %v", countErr)
	}
	if users != 3 {
		t.Fatalf("expected 3 users, got %d", users)
	}
}

func TestSeedUsersOrderedNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	if err := Run(ctx, st, slog.Default()); err != nil {
		t.Fatalf("run: %v", err)
	}

	docs, err := st.Find(ctx, store.CollectionUsers, store.FindOptions{SortCreatedAtDesc: true})
	if err != nil {
		t.Fatalf("find users: %v", err)
	}

	users := model.UsersFromDocuments(docs)
	want := []string{"Natalie", "Bob", "Alice"}
	for i := range want {
		if users[i].Name != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], users[i].Name)
		}
	}
}
