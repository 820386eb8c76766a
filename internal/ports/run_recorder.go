package ports

import (
	"context"

	"github.com/alejandrodnm/salescope/internal/domain"
)

// RunRecorder guarda una traza de cada llamada de análisis.
type RunRecorder interface {
	RecordRun(ctx context.Context, run domain.RunRecord) error

	// RecentRuns devuelve hasta limit ejecuciones, las más recientes primero.
	RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}
