package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alejandrodnm/salescope/internal/domain"
	"github.com/alejandrodnm/salescope/internal/ports"
)

// Store es toda la superficie de persistencia que usan los entry points.
type Store interface {
	ports.ProductStore
	ports.ProductSeeder
	ports.RunRecorder
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Options elige y configura un Store.
type Options struct {
	Driver   string // sqlite | postgres
	DSN      string
	Postgres PostgresConfig
}

// Open devuelve el store para opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "sqlite":
		return NewSQLiteStore(opts.DSN)
	case "postgres", "postgresql":
		cfg := opts.Postgres
		if cfg.URL == "" {
			cfg.URL = opts.DSN
		}
		return NewPostgresStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage.Open: unknown driver %q", opts.Driver)
	}
}

// LoadProductsFile lee un array JSON de productos, el formato que genera
// el generador de catálogo: [{"id", "name", "category", "price", "attributes", "history"}].
func LoadProductsFile(path string) ([]domain.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadProductsFile: read %q: %w", path, err)
	}
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("storage.LoadProductsFile: parse %q: %w", path, err)
	}
	return products, nil
}
