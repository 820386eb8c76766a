package ports

import (
	"context"

	"github.com/alejandrodnm/salescope/internal/domain"
)

// ProductStore carga productos con su historial de ventas.
type ProductStore interface {
	// FindProduct resuelve ref contra el id del producto o, si no, contra el
	// nombre sin distinguir mayúsculas. Devuelve domain.ErrNotFound
	// (envuelto) si nada coincide.
	FindProduct(ctx context.Context, ref string) (domain.Product, error)

	// Close libera la conexión subyacente.
	Close() error
}

// ProductSeeder carga productos en bloque, reemplazando los que tengan el mismo id.
type ProductSeeder interface {
	SaveProducts(ctx context.Context, products []domain.Product) error
}
