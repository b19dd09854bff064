// Package client is the adapter to the procurement REST backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/resilience"
	"github.com/boddenberg/supplier-portal-bfa/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

const (
	serviceName     = "procurement-backend"
	maxErrorBodyLen = 1 << 20
)

// Backend calls the procurement backend on behalf of a browser session.
// It implements port.AuthBackend and port.SupplierBackend.
type Backend struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	tokens     port.TokenStore
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewBackend creates a new Backend.
func NewBackend(
	httpClient *http.Client,
	baseURL string,
	cb *gobreaker.CircuitBreaker,
	cfg resilience.Config,
	tokens port.TokenStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Backend {
	return &Backend{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		tokens:     tokens,
		metrics:    metrics,
		logger:     logger,
	}
}

// IsClientError reports whether err is the backend answering a 4xx.
// Those say nothing about backend health and must not trip the breaker.
func IsClientError(err error) bool {
	var unauthorized *domain.ErrUnauthorized
	if errors.As(err, &unauthorized) {
		return true
	}
	var upstream *domain.ErrUpstream
	return errors.As(err, &upstream) && upstream.Status >= 400 && upstream.Status < 500
}

// request describes one backend call. encode is invoked once per attempt so
// bodies can be replayed on retry.
type request struct {
	op     string
	method string
	path   string
	encode func() (io.Reader, string, error)
	out    any
	// retry is only set for idempotent reads.
	retry bool
}

func jsonBody(v any) func() (io.Reader, string, error) {
	return func() (io.Reader, string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(b), "application/json", nil
	}
}

type messageBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do runs a request through bulkhead, breaker and (for reads) retry.
// A 401 deletes the session's token and surfaces as *domain.ErrUnauthorized.
func (b *Backend) do(ctx context.Context, r request) error {
	ctx, span := tracer.Start(ctx, "Backend."+r.op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", r.method),
		attribute.String("backend.path", r.path),
	)

	start := time.Now()
	defer func() { b.metrics.RecordUpstreamDuration(r.op, time.Since(start)) }()

	if err := b.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrTimeout{Operation: r.op}
	}
	defer b.bulkhead.Release()

	sessionID := domain.SessionIDFromContext(ctx)
	token := b.token(ctx, sessionID)
	b.logger.Debug("backend call",
		append([]zap.Field{zap.String("op", r.op), zap.String("path", r.path)}, observability.TokenFields(token)...)...,
	)

	attempt := func() error {
		return b.attempt(ctx, r, token)
	}

	_, err := b.cb.Execute(func() (any, error) {
		if r.retry {
			return nil, resilience.RetryWithBackoff(ctx, b.cfg, attempt)
		}
		return nil, attempt()
	})
	if err == nil {
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return b.classify(ctx, r.op, sessionID, err)
}

func (b *Backend) attempt(ctx context.Context, r request, token string) error {
	var body io.Reader
	var contentType string
	if r.encode != nil {
		var err error
		body, contentType, err = r.encode()
		if err != nil {
			return resilience.Permanent(fmt.Errorf("encoding %s request: %w", r.op, err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, b.baseURL+r.path, body)
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readMessage(resp.Body)
		if resp.StatusCode == http.StatusUnauthorized {
			return resilience.Permanent(&domain.ErrUnauthorized{Message: msg})
		}
		upstream := &domain.ErrUpstream{Status: resp.StatusCode, Message: msg}
		if resp.StatusCode < 500 {
			return resilience.Permanent(upstream)
		}
		return upstream
	}

	if r.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
		return resilience.Permanent(fmt.Errorf("decoding %s response: %w", r.op, err))
	}
	return nil
}

// classify maps transport-level failures onto domain errors and records them.
func (b *Backend) classify(ctx context.Context, op, sessionID string, err error) error {
	var unauthorized *domain.ErrUnauthorized
	var upstream *domain.ErrUpstream

	switch {
	case errors.As(err, &unauthorized):
		b.metrics.IncrUpstreamError(op, "unauthorized")
		if sessionID != "" {
			if delErr := b.tokens.Delete(context.WithoutCancel(ctx), sessionID); delErr != nil {
				b.logger.Warn("failed to delete rejected token", zap.Error(delErr))
			}
		}
		b.logger.Info("backend rejected token", zap.String("op", op))
		return unauthorized
	case errors.As(err, &upstream):
		kind := "server"
		if upstream.Status < 500 {
			kind = "client"
		}
		b.metrics.IncrUpstreamError(op, kind)
		b.logger.Warn("backend error",
			zap.String("op", op),
			zap.Int("status", upstream.Status),
			zap.String("message", upstream.Message),
		)
		return upstream
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		b.metrics.IncrUpstreamError(op, "circuit_open")
		return &domain.ErrCircuitOpen{Service: serviceName}
	case errors.Is(err, context.DeadlineExceeded):
		b.metrics.IncrUpstreamError(op, "timeout")
		return &domain.ErrTimeout{Operation: op}
	default:
		b.metrics.IncrUpstreamError(op, "transport")
		b.logger.Warn("backend unreachable", zap.String("op", op), zap.Error(err))
		return &domain.ErrExternalService{Service: serviceName, Err: err}
	}
}

func (b *Backend) token(ctx context.Context, sessionID string) string {
	if sessionID == "" {
		return ""
	}
	token, err := b.tokens.Get(ctx, sessionID)
	if err != nil {
		b.logger.Warn("token store unavailable", zap.Error(err))
		return ""
	}
	return token
}

func readMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBodyLen))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body messageBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
