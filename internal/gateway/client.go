// Package gateway is a thin client for a Paystack-compatible transaction API.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"paystack-checkout/internal/telemetry"
)

const (
	DefaultBaseURL = "https://api.paystack.co"
	DefaultTimeout = 10 * time.Second

	fallbackMessage = "Paystack API request failed"
)

type Config struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// Error is a non-2xx answer from the gateway.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

type InitializeParams struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type InitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Customer struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type VerifyData struct {
	ID              int64          `json:"id"`
	Domain          string         `json:"domain"`
	Status          string         `json:"status"`
	Reference       string         `json:"reference"`
	Amount          int64          `json:"amount"`
	Message         *string        `json:"message"`
	GatewayResponse string         `json:"gateway_response"`
	PaidAt          string         `json:"paid_at"`
	CreatedAt       string         `json:"created_at"`
	Channel         string         `json:"channel"`
	Currency        string         `json:"currency"`
	Customer        Customer       `json:"customer"`
	Metadata        map[string]any `json:"metadata"`
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	metrics    *telemetry.Metrics
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

func NewClient(cfg Config, metrics *telemetry.Metrics, tracer trace.Tracer) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    metrics,
		tracer:     tracer,
		propagator: otel.GetTextMapPropagator(),
	}
}

// Initialize opens a transaction. The result carries both the access code
// used by the popup flow and the authorization URL used by the redirect flow.
func (c *Client) Initialize(ctx context.Context, params InitializeParams) (*InitializeData, error) {
	var out envelope[InitializeData]
	if err := c.do(ctx, "initialize", http.MethodPost, "/transaction/initialize", params, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Verify fetches the current state of the transaction identified by reference.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyData, error) {
	var out envelope[VerifyData]
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, "verify", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "gateway."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		c.metrics.GatewayDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("operation", operation)))
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to serialize %s request: %w", operation, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")
	c.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("gateway %s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to read gateway %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := &Error{StatusCode: resp.StatusCode, Message: fallbackMessage}
		var failure struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &failure) == nil && failure.Message != "" {
			gwErr.Message = failure.Message
		}
		span.RecordError(gwErr)
		span.SetStatus(codes.Error, gwErr.Message)
		return gwErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to decode gateway %s response: %w", operation, err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
