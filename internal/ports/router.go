package ports

import (
	"context"

	"github.com/alejandrodnm/salescope/internal/domain"
)

// RequestRouter convierte texto libre del usuario en una request estructurada.
// Las implementaciones usan un modelo de lenguaje.
type RequestRouter interface {
	// Route clasifica la request y devuelve una descripción limpia.
	Route(ctx context.Context, input string) (domain.RouteDecision, error)

	// ExtractDetails extrae el id del producto (y las fechas, para demanda)
	// de una descripción enrutada.
	ExtractDetails(ctx context.Context, requestType domain.RequestType, description string) (domain.RequestDetails, error)
}
