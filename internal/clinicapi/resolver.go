// Package clinicapi talks to the clinic backend: the appointments routes,
// whose shape is probed at runtime, and the professionals/services directory.
package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/clinic-scheduler/internal/observability/metrics"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 15 * time.Second

const maxMessageLen = 300

var resolverTracer = otel.Tracer("clinic-scheduler.internal.clinicapi.resolver")

// Operation names a backend appointment operation.
type Operation string

const (
	OpList   Operation = "list"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Candidate is one (method, URL) the resolver may try.
type Candidate struct {
	Method string
	URL    string
}

func (c Candidate) String() string { return c.Method + " " + c.URL }

// Response is the first 2xx answer.
type Response struct {
	Candidate  Candidate
	StatusCode int
	Body       []byte
}

// NewHTTPClient returns a traced HTTP client with the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Resolver issues requests against candidate routes one at a time.
type Resolver struct {
	httpClient *http.Client
	metrics    *metrics.SchedulingMetrics
	logger     *logging.Logger
}

// NewResolver builds a resolver. A nil client gets NewHTTPClient(DefaultTimeout).
func NewResolver(httpClient *http.Client, m *metrics.SchedulingMetrics, logger *logging.Logger) *Resolver {
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultTimeout)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{httpClient: httpClient, metrics: m, logger: logger}
}

// Resolve tries candidates in order. A 404 moves on to the next candidate; a
// 2xx is returned; any other status or transport failure stops the probe and
// is returned. If every candidate 404s the error is a *NoRouteError.
func (r *Resolver) Resolve(ctx context.Context, op Operation, candidates []Candidate, payload any) (*Response, error) {
	ctx, span := resolverTracer.Start(ctx, "clinicapi.resolve")
	defer span.End()
	span.SetAttributes(attribute.String("operation", string(op)))

	started := time.Now()
	defer func() {
		r.metrics.ObserveBackendLatency(string(op), time.Since(started).Seconds())
	}()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("clinicapi: marshal %s payload: %w", op, err)
		}
	}

	for i, c := range candidates {
		resp, err := r.do(ctx, c, body)
		if err != nil {
			r.metrics.ObserveProbe(string(op), "error")
			span.RecordError(err)
			return nil, err
		}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			r.metrics.ObserveProbe(string(op), "not_found")
			r.logger.Debug("appointment route not found, trying next", "operation", op, "method", c.Method, "url", c.URL)
			continue
		case resp.StatusCode >= 200 && resp.StatusCode <= 299:
			r.metrics.ObserveProbe(string(op), "ok")
			span.SetAttributes(attribute.Int("attempts", i+1), attribute.String("route", c.String()))
			return resp, nil
		default:
			r.metrics.ObserveProbe(string(op), "error")
			serr := &StatusError{Candidate: c, StatusCode: resp.StatusCode, Message: serverMessage(resp.StatusCode, resp.Body)}
			r.logger.Warn("appointments backend non-2xx response", "operation", op, "method", c.Method, "url", c.URL, "status", resp.StatusCode, "body", serr.Message)
			span.RecordError(serr)
			return nil, serr
		}
	}

	r.metrics.ObserveUnresolved(string(op))
	nerr := &NoRouteError{Operation: op, Attempted: append([]Candidate(nil), candidates...)}
	tried := make([]string, len(candidates))
	for i, c := range candidates {
		tried[i] = c.String()
	}
	r.logger.Error("no appointment route responded", "operation", op, "attempted", tried)
	span.RecordError(nerr)
	return nil, nerr
}

// Do issues a single request with the same status handling as Resolve. A 404
// is reported as a *StatusError since there is nothing else to try.
func (r *Resolver) Do(ctx context.Context, op Operation, c Candidate, payload any) (*Response, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("clinicapi: marshal %s payload: %w", op, err)
		}
	}
	started := time.Now()
	resp, err := r.do(ctx, c, body)
	r.metrics.ObserveBackendLatency(string(op), time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{Candidate: c, StatusCode: resp.StatusCode, Message: serverMessage(resp.StatusCode, resp.Body)}
		r.logger.Warn("clinic backend non-2xx response", "operation", op, "method", c.Method, "url", c.URL, "status", resp.StatusCode, "body", serr.Message)
		return nil, serr
	}
	return resp, nil
}

func (r *Resolver) do(ctx context.Context, c Candidate, body []byte) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, c.Method, c.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("clinicapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clinicapi: %s: %w", c, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("clinicapi: read response: %w", err)
	}
	return &Response{Candidate: c, StatusCode: resp.StatusCode, Body: respBody}, nil
}

func serverMessage(status int, body []byte) string {
	var wrapped struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if m := strings.TrimSpace(wrapped.Message); m != "" {
			return truncate(m)
		}
		if m := strings.TrimSpace(wrapped.Error); m != "" {
			return truncate(m)
		}
	}
	if m := strings.TrimSpace(string(body)); m != "" && !strings.HasPrefix(m, "{") && !strings.HasPrefix(m, "<") {
		return truncate(m)
	}
	return http.StatusText(status)
}

func truncate(s string) string {
	if len(s) > maxMessageLen {
		return s[:maxMessageLen]
	}
	return s
}
