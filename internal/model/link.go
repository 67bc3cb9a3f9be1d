package model

import (
	"time"

	"github.com/docstream/docstream/internal/store"
)

// Link represents a link document in the "links" collection.
// Links are created only by the startup seeder and are immutable
// afterwards; no update or remove method is registered for them.
type Link struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// Fields returns the caller-settable fields of the link as a document
// field map. ID and CreatedAt are store-owned and excluded.
func (l *Link) Fields() map[string]any {
	return map[string]any{
		"title": l.Title,
		"url":   l.URL,
	}
}

// LinkFromDocument decodes a store document into a Link.
func LinkFromDocument(doc *store.Document) *Link {
	l := &Link{
		ID:        doc.ID,
		CreatedAt: doc.CreatedAt,
	}
	if title, ok := doc.Fields["title"].(string); ok {
		l.Title = title
	}
	if url, ok := doc.Fields["url"].(string); ok {
		l.URL = url
	}
	return l
}

// LinksFromDocuments decodes a result set preserving its order.
func LinksFromDocuments(docs []*store.Document) []*Link {
	links := make([]*Link, 0, len(docs))
	for _, doc := range docs {
		links = append(links, LinkFromDocument(doc))
	}
	return links
}
