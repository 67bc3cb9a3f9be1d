package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Postgres is the production Store backed by a single documents table.
// Each row holds one document: store-owned columns for identity and
// creation time, everything else in a JSONB value.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates a Postgres store with a connection pool.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// EnsureSchema creates the documents table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			data       JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS documents_created_at_idx
			ON documents (collection, created_at DESC, id DESC)`,
	}

	for _, statement := range statements {
		if _, err := p.pool.Exec(ctx, statement); err != nil {
			return fmt.Errorf("failed to ensure documents schema: %w", err)
		}
	}

	return nil
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Insert adds a new document and returns its store-assigned ULID.
func (p *Postgres) Insert(ctx context.Context, collection string, fields map[string]any, createdAt time.Time) (string, error) {
	id := ulid.Make().String()

	data, err := json.Marshal(sanitizeSet(fields))
	if err != nil {
		return "", fmt.Errorf("failed to encode document fields: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, data, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := p.pool.Exec(ctx, query, collection, id, data, createdAt); err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	return id, nil
}

// UpdateSet merges the set modifier into the stored JSONB value.
func (p *Postgres) UpdateSet(ctx context.Context, collection, id string, set map[string]any) (int64, error) {
	data, err := json.Marshal(sanitizeSet(set))
	if err != nil {
		return 0, fmt.Errorf("failed to encode set modifier: %w", err)
	}

	query := `
		UPDATE documents
		SET data = data || $3::jsonb
		WHERE collection = $1 AND id = $2
	`

	result, err := p.pool.Exec(ctx, query, collection, id, data)
	if err != nil {
		return 0, fmt.Errorf("failed to update document: %w", err)
	}

	return result.RowsAffected(), nil
}

// Remove deletes a document by ID.
func (p *Postgres) Remove(ctx context.Context, collection, id string) (int64, error) {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`

	result, err := p.pool.Exec(ctx, query, collection, id)
	if err != nil {
		return 0, fmt.Errorf("failed to remove document: %w", err)
	}

	return result.RowsAffected(), nil
}

// FindByID retrieves a document by ID.
func (p *Postgres) FindByID(ctx context.Context, collection, id string) (*Document, error) {
	query := `
		SELECT id, data, created_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`

	doc, err := scanDocument(p.pool.QueryRow(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document by ID: %w", err)
	}

	return doc, nil
}

// Find retrieves documents matching the options.
func (p *Postgres) Find(ctx context.Context, collection string, opts FindOptions) ([]*Document, error) {
	query := `
		SELECT id, data, created_at
		FROM documents
		WHERE collection = $1
	`
	args := []any{collection}

	if opts.Contains.Field != "" {
		query += ` AND data->>$2 ILIKE $3`
		args = append(args, opts.Contains.Field, "%"+escapeLike(opts.Contains.Substring)+"%")
	}

	if opts.SortCreatedAtDesc {
		query += ` ORDER BY created_at DESC, id DESC`
	} else {
		// No declared sort; keep the result deterministic anyway.
		query += ` ORDER BY created_at ASC, id ASC`
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

// Count returns the number of documents in a collection.
func (p *Postgres) Count(ctx context.Context, collection string) (int64, error) {
	query := `SELECT COUNT(*) FROM documents WHERE collection = $1`

	var count int64
	if err := p.pool.QueryRow(ctx, query, collection).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}

	return count, nil
}

// scanDocument scans a single row into a Document.
func scanDocument(row pgx.Row) (*Document, error) {
	var (
		doc  Document
		data []byte
	)

	if err := row.Scan(&doc.ID, &data, &doc.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &doc.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode document fields: %w", err)
	}

	return &doc, nil
}

// escapeLike escapes LIKE/ILIKE metacharacters in a user-supplied
// substring so it matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
