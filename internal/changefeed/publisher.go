// Package changefeed publishes document change events to a Redis
// stream. The external sync layer consumes the stream to learn when a
// live query's result set may have changed and must be re-evaluated.
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/docstream/docstream/internal/metrics"
)

const (
	// StreamKey is the Redis stream for document change events.
	StreamKey = "stream:doc_changes"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// Change operations.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpRemove = "remove"
)

// Event is the compact change record placed on the stream. It names
// the touched document, not its contents; consumers re-read through
// the query layer.
type Event struct {
	Collection string `json:"c"`
	DocumentID string `json:"id"`
	Op         string `json:"op"`
	At         int64  `json:"t"` // Unix milliseconds
}

// Publisher enqueues change events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// New connects to Redis and returns a Publisher.
func New(ctx context.Context, redisURL string, logger *slog.Logger, recorder metrics.Recorder) (*Publisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Connection pool settings
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewWithClient(client, logger, recorder), nil
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "changefeed.publisher"),
		metrics: recorder,
	}
}

// Ping checks Redis connectivity.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.redis.Ping(ctx).Err()
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.redis.Close()
}

// Publish adds a change event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event Event) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true, // ~MAXLEN for performance
		ID:     "*",  // Auto-generate ID
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()

	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget); a missed
// event only delays re-evaluation until the next change.
func (p *Publisher) PublishAsync(event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish change event",
				"collection", event.Collection,
				"document_id", event.DocumentID,
				"op", event.Op,
				"error", err,
			)
			p.metrics.IncChangeEventPublished("dropped")
			return
		}

		p.logger.Debug("change event published",
			"collection", event.Collection,
			"document_id", event.DocumentID,
			"op", event.Op,
			"stream_id", streamID,
		)
		p.metrics.IncChangeEventPublished("success")
	}()
}

// NewEvent builds a change event stamped with the current time.
func NewEvent(collection, documentID, op string) Event {
	return Event{
		Collection: collection,
		DocumentID: documentID,
		Op:         op,
		At:         time.Now().UnixMilli(),
	}
}
