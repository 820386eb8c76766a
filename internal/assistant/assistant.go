// Package assistant responde peticiones de análisis en texto libre: enruta el texto
// con un RequestRouter, ejecuta el análisis que toca y redacta la respuesta.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alejandrodnm/salescope/internal/analysis"
	"github.com/alejandrodnm/salescope/internal/domain"
	"github.com/alejandrodnm/salescope/internal/ports"
)

// DefaultConfidenceThreshold es la confianza mínima del router que se acepta.
const DefaultConfidenceThreshold = 0.7

// Executor ejecuta un análisis. *analysis.Facade lo implementa.
type Executor interface {
	Execute(ctx context.Context, req analysis.Request) (analysis.Outcome, error)
}

// Assistant conecta un router con el facade de análisis.
type Assistant struct {
	router    ports.RequestRouter
	exec      Executor
	threshold float64
}

// New crea un Assistant. threshold <= 0 usa DefaultConfidenceThreshold.
func New(router ports.RequestRouter, exec Executor, threshold float64) *Assistant {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Assistant{router: router, exec: exec, threshold: threshold}
}

// Handle responde un prompt. Los fallos se reportan en la Response; nunca
// devuelve una respuesta nil o parcial.
func (a *Assistant) Handle(ctx context.Context, prompt string) domain.Response {
	decision, err := a.router.Route(ctx, prompt)
	if err != nil {
		slog.Error("route request", "err", err)
		return failure(fmt.Sprintf("Error routing request: %v", err))
	}
	slog.Info("request routed",
		"request_type", decision.RequestType,
		"confidence", decision.ConfidenceScore,
	)

	if decision.ConfidenceScore < a.threshold {
		slog.Warn("low confidence score", "confidence", decision.ConfidenceScore)
		return failure("Unable to understand request with sufficient confidence")
	}

	kind, ok := analysis.KindForRequest(decision.RequestType)
	if !ok {
		return failure("Unsupported request type")
	}

	details, err := a.router.ExtractDetails(ctx, decision.RequestType, decision.Description)
	if err != nil {
		slog.Error("extract request details", "kind", kind, "err", err)
		return failure(fmt.Sprintf("Error analyzing %s: %v", kind.Label(), err))
	}

	productID := NormalizeProductID(details.ProductID)
	out, err := a.exec.Execute(ctx, analysis.Request{
		Kind:      kind,
		ProductID: productID,
		StartDate: details.StartDate,
		EndDate:   details.EndDate,
	})
	if err != nil {
		slog.Error("analysis failed", "kind", kind, "product_id", productID, "err", err)
	}
	return Respond(kind, productID, out, err)
}

// Respond redacta el resultado de un análisis como Response para el usuario.
func Respond(kind analysis.Kind, productID string, out analysis.Outcome, err error) domain.Response {
	if err != nil {
		return failure(fmt.Sprintf("Error analyzing %s: %v", kind.Label(), err))
	}
	if !out.Found {
		return failure(fmt.Sprintf("Product '%s' not found", productID))
	}
	return domain.Response{
		Success: true,
		Message: fmt.Sprintf("Analyzed %s for product '%s'", kind.Label(), productID),
		AnalysisData: &domain.AnalysisData{
			Result: out.Result,
			Metrics: domain.ResponseMetrics{
				ComputationTime: out.Metrics.Seconds(),
				Success:         out.Metrics.Success,
			},
		},
	}
}

// NormalizeProductID convierte "Blue_Widget" en "blue widget".
func NormalizeProductID(id string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(id, "_", " ")))
}

func failure(msg string) domain.Response {
	return domain.Response{Success: false, Message: msg}
}
