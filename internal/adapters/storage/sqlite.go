package storage

// sqlite.go: catálogo de productos y log de ejecuciones en un solo archivo.
//
//   - `products`: una fila por producto (UPSERT). history y attributes se
//     guardan como JSON; history NULL significa "sin historial".
//   - `analysis_runs`: una fila por llamada al facade. Solo metadatos, los
//     resultados nunca se persisten.
//   - Prune al arrancar: runs con más de 30 días.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/salescope/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    category   TEXT NOT NULL DEFAULT '',
    price      REAL NOT NULL DEFAULT 0,
    attributes TEXT,
    history    TEXT,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS analysis_runs (
    id          TEXT PRIMARY KEY,
    kind        TEXT     NOT NULL,
    product_id  TEXT     NOT NULL,
    started_at  DATETIME NOT NULL,
    duration_ms INTEGER  NOT NULL DEFAULT 0,
    found       INTEGER  NOT NULL DEFAULT 0,
    success     INTEGER  NOT NULL DEFAULT 0,
    error       TEXT     NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_products_name ON products(lower(name));
CREATE INDEX IF NOT EXISTS idx_runs_started  ON analysis_runs(started_at DESC);
`

const retentionRuns = 30 * 24 * time.Hour

// SQLiteStore implementa ports.ProductStore, ports.ProductSeeder y
// ports.RunRecorder sobre SQLite (Go puro, sin CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base de datos en path, aplica el
// schema y purga las ejecuciones antiguas.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// FindProduct resuelve ref como id exacto, luego nombre exacto, luego substring
// del nombre (sin distinguir mayúsculas). Envuelve domain.ErrNotFound si nada coincide.
func (s *SQLiteStore) FindProduct(ctx context.Context, ref string) (domain.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Product{}, fmt.Errorf("storage.FindProduct: empty reference: %w", domain.ErrNotFound)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, price, attributes, history
		FROM products
		WHERE id = ?1
		   OR lower(name) LIKE '%' || lower(?1) || '%'
		ORDER BY (id = ?1) DESC, (lower(name) = lower(?1)) DESC, name
		LIMIT 1`, ref)

	var (
		p          domain.Product
		attributes sql.NullString
		history    sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &attributes, &history)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("storage.FindProduct %q: %w", ref, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("storage.FindProduct: scan: %w", err)
	}

	if err := decodeProductJSON(&p, attributes, history); err != nil {
		return domain.Product{}, fmt.Errorf("storage.FindProduct %q: %w", ref, err)
	}
	return p, nil
}

// SaveProducts hace upsert de los productos en una transacción. Los productos sin id
// reciben un UUID nuevo.
func (s *SQLiteStore) SaveProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveProducts: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (id, name, category, price, attributes, history, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name       = excluded.name,
			category   = excluded.category,
			price      = excluded.price,
			attributes = excluded.attributes,
			history    = excluded.history,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("storage.SaveProducts: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		attributes, history, err := encodeProductJSON(p)
		if err != nil {
			return fmt.Errorf("storage.SaveProducts %q: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Name, p.Category, p.Price, attributes, history, now,
		); err != nil {
			return fmt.Errorf("storage.SaveProducts %q: exec: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveProducts: commit: %w", err)
	}
	return nil
}

// RecordRun añade una ejecución al log.
func (s *SQLiteStore) RecordRun(ctx context.Context, run domain.RunRecord) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, kind, product_id, started_at, duration_ms, found, success, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.ProductID, run.StartedAt.UTC(),
		run.Duration.Milliseconds(), boolToInt(run.Found), boolToInt(run.Success), run.Error,
	)
	if err != nil {
		return fmt.Errorf("storage.RecordRun: insert: %w", err)
	}
	return nil
}

// RecentRuns devuelve hasta limit ejecuciones, las más recientes primero.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, product_id, started_at, duration_ms, found, success, error
		FROM analysis_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentRuns: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var (
			r              domain.RunRecord
			durationMs     int64
			found, success int
		)
		if err := rows.Scan(&r.ID, &r.Kind, &r.ProductID, &r.StartedAt,
			&durationMs, &found, &success, &r.Error); err != nil {
			return nil, fmt.Errorf("storage.RecentRuns: scan: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.Found = found == 1
		r.Success = success == 1
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)
	_, _ = s.db.ExecContext(ctx, `DELETE FROM analysis_runs WHERE started_at < ?`, cutoff)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
