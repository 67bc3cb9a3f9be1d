// Package seed populates the document store with bootstrap data the
// first time the service starts against an empty store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/docstream/docstream/internal/model"
	"github.com/docstream/docstream/internal/store"
)

// Bootstrap rows. A collection is seeded only when it is empty, so
// re-running against a persistent store is a no-op.
var (
	linkRows = []model.Link{
		{Title: "Getting Started", URL: "https://docstream.dev/docs/getting-started", CreatedAt: at("2024-01-15T09:00:00Z")},
		{Title: "Live Queries Guide", URL: "https://docstream.dev/docs/live-queries", CreatedAt: at("2024-01-15T09:01:00Z")},
		{Title: "Method Reference", URL: "https://docstream.dev/docs/methods", CreatedAt: at("2024-01-15T09:02:00Z")},
		{Title: "Community Forum", URL: "https://forum.docstream.dev", CreatedAt: at("2024-01-15T09:03:00Z")},
	}

	userRows = []model.User{
		{Name: "Alice", CreatedAt: at("2024-01-15T10:00:00Z")},
		{Name: "Bob", CreatedAt: at("2024-01-15T10:05:00Z")},
		{Name: "Natalie", CreatedAt: at("2024-01-15T10:10:00Z")},
	}
)

// Run seeds both collections. The two collections are independent
// scopes: a failure in one does not block the other. Any error is
// fatal for startup; the caller is expected to log and exit.
func Run(ctx context.Context, st store.Store, logger *slog.Logger) error {
	logger = logger.With("component", "seed")

	linksErr := seedLinks(ctx, st, logger)
	if linksErr != nil {
		logger.Error("link seeding failed", "error", linksErr)
	}

	usersErr := seedUsers(ctx, st, logger)
	if usersErr != nil {
		logger.Error("user seeding failed", "error", usersErr)
	}

	return errors.Join(linksErr, usersErr)
}

// seedLinks inserts the bootstrap links when the collection is empty.
func seedLinks(ctx context.Context, st store.Store, logger *slog.Logger) error {
	count, err := st.Count(ctx, store.CollectionLinks)
	if err != nil {
		return fmt.Errorf("count links: %w", err)
	}
	if count > 0 {
		logger.Debug("links already present, seeding skipped", "count", count)
		return nil
	}

	for _, row := range linkRows {
		if _, err := st.Insert(ctx, store.CollectionLinks, row.Fields(), row.CreatedAt); err != nil {
			return fmt.Errorf("insert link %q: %w", row.Title, err)
		}
	}

	logger.Info("links seeded", "count", len(linkRows))
	return nil
}

// seedUsers inserts the bootstrap users when the collection is empty.
func seedUsers(ctx context.Context, st store.Store, logger *slog.Logger) error {
	count, err := st.Count(ctx, store.CollectionUsers)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		logger.Debug("users already present, seeding skipped", "count", count)
		return nil
	}

	for _, row := range userRows {
		if _, err := st.Insert(ctx, store.CollectionUsers, row.Fields(), row.CreatedAt); err != nil {
			return fmt.Errorf("insert user %q: %w", row.Name, err)
		}
	}

	logger.Info("users seeded", "count", len(userRows))
	return nil
}

// at parses a fixed RFC 3339 seed timestamp.
func at(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(fmt.Sprintf("invalid seed timestamp %q: %v", value, err))
	}
	return t
}
