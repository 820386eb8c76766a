package ports

import (
	"context"

	"github.com/alejandrodnm/salescope/internal/domain"
)

// Reporter presenta al usuario una respuesta del asistente.
type Reporter interface {
	Report(ctx context.Context, resp domain.Response) error
}
