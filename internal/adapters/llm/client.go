package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/alejandrodnm/salescope/internal/domain"
	"github.com/alejandrodnm/salescope/internal/ports"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	defaultModel = "gpt-4o-mini"

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

var _ ports.RequestRouter = (*Client)(nil)

// Config configura el cliente de chat completions.
type Config struct {
	APIKey            string
	BaseURL           string // vacío usa el endpoint de OpenAI
	Model             string
	RequestsPerSecond float64
	Timeout           time.Duration
	RetryWait         time.Duration // backoff base, se duplica en cada intento
}

// Client enruta requests con una API de chat completions compatible con OpenAI
// en modo JSON. Implementa ports.RequestRouter.
type Client struct {
	api     *openai.Client
	model   string
	limiter *rate.Limiter
	wait    time.Duration // backoff base
}

// NewClient crea un Client. Los valores cero de cfg toman los defaults.
func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	wait := cfg.RetryWait
	if wait <= 0 {
		wait = baseRetryWait
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		api:     openai.NewClientWithConfig(oc),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		wait:    wait,
	}
}

// Route clasifica texto libre en uno de los tipos de request.
func (c *Client) Route(ctx context.Context, input string) (domain.RouteDecision, error) {
	var d domain.RouteDecision
	if err := c.completeJSON(ctx, routePrompt, input, &d); err != nil {
		return domain.RouteDecision{}, fmt.Errorf("llm.Route: %w", err)
	}
	if !d.RequestType.Valid() {
		slog.Warn("router returned unknown request type", "request_type", d.RequestType)
		d.RequestType = domain.RequestOther
	}
	d.ConfidenceScore = math.Max(0, math.Min(1, d.ConfidenceScore))
	return d, nil
}

// ExtractDetails extrae el id del producto y las fechas de una descripción enrutada.
func (c *Client) ExtractDetails(ctx context.Context, t domain.RequestType, description string) (domain.RequestDetails, error) {
	prompt, ok := detailPrompts[t]
	if !ok {
		return domain.RequestDetails{}, fmt.Errorf("llm.ExtractDetails: no prompt for %q", t)
	}
	var d domain.RequestDetails
	if err := c.completeJSON(ctx, prompt, description, &d); err != nil {
		return domain.RequestDetails{}, fmt.Errorf("llm.ExtractDetails %s: %w", t, err)
	}
	if strings.TrimSpace(d.ProductID) == "" {
		return domain.RequestDetails{}, fmt.Errorf("llm.ExtractDetails %s: %w",
			t, domain.NewValidationError("product_id", "", "missing from model answer"))
	}
	return d, nil
}

// completeJSON envía los mensajes system + user y decodifica la respuesta JSON en out.
func (c *Client) completeJSON(ctx context.Context, system, user string, out any) error {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.createWithRetry(ctx, req)
	if err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return errors.New("empty completion")
	}
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("decode model answer: %w", err)
	}
	return nil
}

// createWithRetry llama a la API con rate limiting y backoff exponencial ante
// respuestas 429 y 5xx. Los demás errores de cliente fallan al momento.
func (c *Client) createWithRetry(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return openai.ChatCompletionResponse{}, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) {
			return openai.ChatCompletionResponse{}, fmt.Errorf("chat completion: %w", err)
		}
		if attempt == maxRetries {
			break
		}
		slog.Warn("chat completion failed, retrying", "attempt", attempt+1, "err", err)
		c.sleep(ctx, attempt)
	}
	return openai.ChatCompletionResponse{}, fmt.Errorf("chat completion failed after %d retries: %w", maxRetries, lastErr)
}

func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	// errores de transporte (timeouts, resets) pero no un contexto cancelado
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.wait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
