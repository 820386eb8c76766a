package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alejandrodnm/salescope/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS products (
    product_id UUID PRIMARY KEY,
    name       VARCHAR(255),
    category   VARCHAR(100),
    price      DECIMAL(10,2),
    attributes JSONB,
    history    JSONB
);
CREATE INDEX IF NOT EXISTS idx_products_name ON products (lower(name));

CREATE TABLE IF NOT EXISTS analysis_runs (
    id          UUID PRIMARY KEY,
    kind        TEXT        NOT NULL,
    product_id  TEXT        NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT      NOT NULL DEFAULT 0,
    found       BOOLEAN     NOT NULL DEFAULT FALSE,
    success     BOOLEAN     NOT NULL DEFAULT FALSE,
    error       TEXT        NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON analysis_runs (started_at DESC);
`

// PostgresConfig ajusta el pool de conexiones.
type PostgresConfig struct {
	URL            string
	MinConns       int32
	MaxConns       int32
	ConnectTimeout time.Duration
}

// PostgresStore implementa ports.ProductStore, ports.ProductSeeder y
// ports.RunRecorder sobre la tabla products (historial en JSONB).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore crea el pool, hace ping al servidor y asegura el schema.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("storage.NewPostgresStore: parse config: %w", err)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("storage.NewPostgresStore: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage.NewPostgresStore: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage.NewPostgresStore: apply schema: %w", err)
	}

	slog.Info("postgres pool ready",
		"host", poolConfig.ConnConfig.Host,
		"db", poolConfig.ConnConfig.Database,
		"max_conns", poolConfig.MaxConns,
	)
	return &PostgresStore{pool: pool}, nil
}

// FindProduct busca ref como UUID del producto o como substring del nombre
// (ILIKE). Las coincidencias exactas ganan a las parciales.
func (s *PostgresStore) FindProduct(ctx context.Context, ref string) (domain.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Product{}, fmt.Errorf("storage.FindProduct: empty reference: %w", domain.ErrNotFound)
	}

	var (
		p          domain.Product
		name       *string
		category   *string
		price      *float64
		attributes []byte
		history    []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT product_id::text, name, category, price::float8, attributes, history
		FROM products
		WHERE product_id::text = $1
		   OR name ILIKE '%' || $1 || '%'
		ORDER BY (product_id::text = $1) DESC, (lower(name) = lower($1)) DESC, name
		LIMIT 1`, ref,
	).Scan(&p.ID, &name, &category, &price, &attributes, &history)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("storage.FindProduct %q: %w", ref, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("storage.FindProduct: query: %w", err)
	}

	if name != nil {
		p.Name = *name
	}
	if category != nil {
		p.Category = *category
	}
	if price != nil {
		p.Price = *price
	}
	if err := decodeProductJSON(&p, nullString(attributes), nullString(history)); err != nil {
		return domain.Product{}, fmt.Errorf("storage.FindProduct %q: %w", ref, err)
	}
	return p, nil
}

// SaveProducts hace upsert de los productos en un batch. Los ids deben ser UUID;
// uno vacío recibe uno nuevo.
func (s *PostgresStore) SaveProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if _, err := uuid.Parse(p.ID); err != nil {
			return fmt.Errorf("storage.SaveProducts: %w",
				domain.NewValidationError("product_id", p.ID, "must be a UUID"))
		}
		attributes, history, err := encodeProductJSON(p)
		if err != nil {
			return fmt.Errorf("storage.SaveProducts %q: %w", p.ID, err)
		}
		batch.Queue(`
			INSERT INTO products (product_id, name, category, price, attributes, history)
			VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb)
			ON CONFLICT (product_id) DO UPDATE SET
				name       = EXCLUDED.name,
				category   = EXCLUDED.category,
				price      = EXCLUDED.price,
				attributes = EXCLUDED.attributes,
				history    = EXCLUDED.history`,
			p.ID, p.Name, p.Category, p.Price, attributes, history,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range products {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("storage.SaveProducts: exec: %w", err)
		}
	}
	return nil
}

// RecordRun añade una ejecución al log.
func (s *PostgresStore) RecordRun(ctx context.Context, run domain.RunRecord) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO analysis_runs (id, kind, product_id, started_at, duration_ms, found, success, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.Kind, run.ProductID, run.StartedAt.UTC(),
		run.Duration.Milliseconds(), run.Found, run.Success, run.Error,
	)
	if err != nil {
		return fmt.Errorf("storage.RecordRun: insert: %w", err)
	}
	return nil
}

// RecentRuns devuelve hasta limit ejecuciones, las más recientes primero.
func (s *PostgresStore) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, kind, product_id, started_at, duration_ms, found, success, error
		FROM analysis_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentRuns: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var (
			r          domain.RunRecord
			durationMs int64
		)
		if err := rows.Scan(&r.ID, &r.Kind, &r.ProductID, &r.StartedAt,
			&durationMs, &r.Found, &r.Success, &r.Error); err != nil {
			return nil, fmt.Errorf("storage.RecentRuns: scan: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close libera el pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
