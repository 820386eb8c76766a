package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alejandrodnm/salescope/internal/domain"
	"github.com/alejandrodnm/salescope/internal/ports"
	"github.com/google/uuid"
)

// Request selecciona un análisis para un producto.
type Request struct {
	Kind      Kind
	ProductID string
	StartDate string // solo demand
	EndDate   string // solo demand
}

// Validate rechaza requests que nunca pueden tener éxito.
func (r Request) Validate() error {
	switch r.Kind {
	case KindLifecycle, KindSeasonality, KindDemand:
	default:
		return domain.NewValidationError("kind", r.Kind.String(), "unknown analysis")
	}
	if strings.TrimSpace(r.ProductID) == "" {
		return domain.NewValidationError("product_id", "", "must not be empty")
	}
	if r.Kind.NeedsDateRange() {
		if _, err := domain.ParseDateRange(r.StartDate, r.EndDate); err != nil {
			return err
		}
	}
	return nil
}

// Outcome es el resultado de una llamada. Found es false si el producto o su
// historial no existen; en ese caso Result es nil.
type Outcome struct {
	Kind      Kind
	ProductID string
	Found     bool
	Result    any // *domain.LifecycleResult, *domain.SeasonalityResult o *domain.DemandResult
	Metrics   domain.RunMetrics
}

// Facade resuelve un producto y ejecuta el análisis pedido sobre su historial.
// No guarda estado por llamada: es seguro para uso concurrente.
type Facade struct {
	store    ports.ProductStore
	recorder ports.RunRecorder
	now      func() time.Time
}

// New crea un Facade. recorder puede ser nil; now por defecto es time.Now.
func New(store ports.ProductStore, recorder ports.RunRecorder, now func() time.Time) *Facade {
	if now == nil {
		now = time.Now
	}
	return &Facade{store: store, recorder: recorder, now: now}
}

// Execute valida req, carga el producto y despacha a un analizador.
// Los errores de validación se devuelven envueltos; un producto inexistente no es error.
func (f *Facade) Execute(ctx context.Context, req Request) (Outcome, error) {
	out := Outcome{
		Kind:      req.Kind,
		ProductID: strings.TrimSpace(req.ProductID),
		Metrics:   domain.StartRun(f.now()),
	}

	err := f.execute(ctx, req, &out)
	out.Metrics.Complete(f.now(), out.Found, err)
	f.record(ctx, out)

	if err != nil {
		slog.Debug("analysis failed", "kind", req.Kind, "product_id", out.ProductID, "err", err)
		return out, fmt.Errorf("analysis.Execute %s: %w", req.Kind, err)
	}
	slog.Debug("analysis complete",
		"kind", req.Kind,
		"product_id", out.ProductID,
		"found", out.Found,
		"duration", out.Metrics.ComputationTime,
	)
	return out, nil
}

func (f *Facade) execute(ctx context.Context, req Request, out *Outcome) error {
	if err := req.Validate(); err != nil {
		return err
	}

	product, err := f.store.FindProduct(ctx, out.ProductID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find product: %w", err)
	}

	result, err := f.dispatch(req, product.History)
	if err != nil {
		return err
	}
	out.Result = result
	out.Found = result != nil
	return nil
}

// dispatch es el único punto de selección sobre el conjunto cerrado de análisis.
// Un resultado nil significa que el producto no tiene historial.
func (f *Facade) dispatch(req Request, history domain.SalesHistory) (any, error) {
	switch req.Kind {
	case KindLifecycle:
		res, err := domain.NewLifecycleAnalyzer(f.now).Compute(history)
		if res == nil {
			return nil, err
		}
		return res, err
	case KindSeasonality:
		res, err := domain.ComputeSeasonality(history)
		if res == nil {
			return nil, err
		}
		return res, err
	case KindDemand:
		res, err := domain.ComputeDemand(history, req.StartDate, req.EndDate)
		if res == nil {
			return nil, err
		}
		return res, err
	default:
		return nil, domain.NewValidationError("kind", req.Kind.String(), "unknown analysis")
	}
}

// record persiste la traza de la ejecución. Los fallos solo se loguean.
func (f *Facade) record(ctx context.Context, out Outcome) {
	if f.recorder == nil {
		return
	}
	run := domain.RunRecord{
		ID:        uuid.NewString(),
		Kind:      out.Kind.String(),
		ProductID: out.ProductID,
		StartedAt: out.Metrics.StartedAt,
		Duration:  out.Metrics.ComputationTime,
		Found:     out.Found,
		Success:   out.Metrics.Success,
		Error:     out.Metrics.Error,
	}
	if err := f.recorder.RecordRun(ctx, run); err != nil {
		slog.Warn("run recorder error", "kind", run.Kind, "product_id", run.ProductID, "err", err)
	}
}
