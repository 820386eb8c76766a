// Package httpapi expone los análisis y el asistente por HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/salescope/internal/analysis"
	"github.com/alejandrodnm/salescope/internal/assistant"
	"github.com/alejandrodnm/salescope/internal/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const maxBatch = 100

// Analyzer es la parte del facade que necesita la API.
type Analyzer interface {
	Execute(ctx context.Context, req analysis.Request) (analysis.Outcome, error)
	ExecuteBatch(ctx context.Context, reqs []analysis.Request, workers int) []analysis.BatchResult
}

// Assistant responde prompts en texto libre.
type Assistant interface {
	Handle(ctx context.Context, prompt string) domain.Response
}

// RunLister lista las ejecuciones recientes.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// Deps conecta el servidor. Assistant y Runs pueden ser nil; sus rutas
// responden entonces 503.
type Deps struct {
	Analyzer     Analyzer
	Assistant    Assistant
	Runs         RunLister
	BatchWorkers int
}

type server struct {
	Deps
}

// New construye la app fiber con todas las rutas registradas.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "salescope",
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(requestLogger)

	s := &server{Deps: deps}
	api := app.Group("/api/v1")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	api.Get("/tools", s.listTools)
	api.Get("/products/:id/lifecycle", s.analyze(analysis.KindLifecycle))
	api.Get("/products/:id/seasonality", s.analyze(analysis.KindSeasonality))
	api.Get("/products/:id/demand", s.analyze(analysis.KindDemand))
	api.Post("/analyze", s.analyzeBatch)
	api.Post("/assistant", s.ask)
	api.Get("/runs", s.listRuns)
	return app
}

type toolResponse struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	NeedsDateRange bool   `json:"needs_date_range"`
}

func (s *server) listTools(c *fiber.Ctx) error {
	tools := make([]toolResponse, 0, len(analysis.Kinds()))
	for _, k := range analysis.Kinds() {
		tools = append(tools, toolResponse{Name: k.String(), Description: k.Description(), NeedsDateRange: k.NeedsDateRange()})
	}
	return c.JSON(tools)
}

func (s *server) analyze(kind analysis.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := url.PathUnescape(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}
		req := analysis.Request{
			Kind:      kind,
			ProductID: id,
			StartDate: c.Query("start"),
			EndDate:   c.Query("end"),
		}
		out, err := s.Analyzer.Execute(c.UserContext(), req)
		return c.Status(statusFor(out, err)).JSON(assistant.Respond(kind, out.ProductID, out, err))
	}
}

type batchItem struct {
	Tool      string `json:"tool"`
	ProductID string `json:"product_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type batchRequest struct {
	Requests []batchItem `json:"requests"`
}

type batchResponse struct {
	Results []domain.Response `json:"results"`
}

func (s *server) analyzeBatch(c *fiber.Ctx) error {
	var body batchRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(body.Requests) == 0 || len(body.Requests) > maxBatch {
		return fiber.NewError(fiber.StatusBadRequest, "requests must hold between 1 and "+strconv.Itoa(maxBatch)+" items")
	}

	reqs := make([]analysis.Request, 0, len(body.Requests))
	for _, item := range body.Requests {
		kind, err := analysis.ParseKind(item.Tool)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		reqs = append(reqs, analysis.Request{
			Kind: kind, ProductID: item.ProductID, StartDate: item.StartDate, EndDate: item.EndDate,
		})
	}

	results := s.Analyzer.ExecuteBatch(c.UserContext(), reqs, s.BatchWorkers)
	resp := batchResponse{Results: make([]domain.Response, 0, len(results))}
	for _, r := range results {
		resp.Results = append(resp.Results, assistant.Respond(r.Request.Kind, r.Outcome.ProductID, r.Outcome, r.Err))
	}
	return c.JSON(resp)
}

type askRequest struct {
	Prompt string `json:"prompt"`
}

func (s *server) ask(c *fiber.Ctx) error {
	if s.Assistant == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "assistant is not configured")
	}
	var body askRequest
	if err := c.BodyParser(&body); err != nil || strings.TrimSpace(body.Prompt) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "prompt is required")
	}
	return c.JSON(s.Assistant.Handle(c.UserContext(), body.Prompt))
}

func (s *server) listRuns(c *fiber.Ctx) error {
	if s.Runs == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "run log is not configured")
	}
	runs, err := s.Runs.RecentRuns(c.UserContext(), c.QueryInt("limit", 20))
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []domain.RunRecord{}
	}
	return c.JSON(runs)
}

// statusFor mapea el resultado de un análisis a su status HTTP.
func statusFor(out analysis.Outcome, err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case err != nil:
		return fiber.StatusInternalServerError
	case !out.Found:
		return fiber.StatusNotFound
	default:
		return fiber.StatusOK
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		slog.Error("http handler error", "path", c.Path(), "err", err)
	}
	return c.Status(code).JSON(domain.Response{Success: false, Message: err.Error()})
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	slog.Debug("http request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}
