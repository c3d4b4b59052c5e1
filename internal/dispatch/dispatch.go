// Package dispatch is the single choke point for calls to the workers and
// key-value APIs. It builds the request, has it signed by an
// authenticator, races the call against a timeout and normalizes the
// result into an Envelope or an apierr error.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alnah/go-edgecli/internal/apierr"
	"github.com/alnah/go-edgecli/internal/request"
	"github.com/alnah/go-edgecli/internal/timeout"
)

// DefaultTimeout is the budget callers use when they have no better one.
// The dispatcher never applies it on its own.
const DefaultTimeout = 120 * time.Second

// tracerName is the instrumentation scope name for dispatch tracing.
const tracerName = "github.com/alnah/go-edgecli/dispatch"

// spanName names the span wrapping each dispatched call.
const spanName = "edgecli.dispatch"

// Envelope is the result of a successful call.
// Body is nil when the API returned an empty or null body.
type Envelope struct {
	Response *request.Response
	Body     any
}

// Dispatcher sends requests for one process. It is safe for concurrent use.
type Dispatcher struct {
	reqCtx request.Context
	auth   request.Authenticator
	logger zerolog.Logger
	tracer trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger receiving failure diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithTracer sets the tracer used for dispatch spans.
// The default is the global provider's tracer, a no-op unless one is installed.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = t
	}
}

// New creates a Dispatcher for the given request context and authenticator.
func New(reqCtx request.Context, auth request.Authenticator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reqCtx: reqCtx,
		auth:   auth,
		logger: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// callConfig holds per-call options.
type callConfig struct {
	metricType    string
	requestConfig map[string]any
}

// CallOption configures a single call.
type CallOption func(*callConfig)

// WithMetricType sets the classification sent in the key-value metric header.
func WithMetricType(metricType string) CallOption {
	return func(c *callConfig) {
		c.metricType = metricType
	}
}

// WithRequestConfig passes extra configuration to the authenticator.
// The keys path, method, headers and body override the built request.
func WithRequestConfig(cfg map[string]any) CallOption {
	return func(c *callConfig) {
		c.requestConfig = cfg
	}
}

// Send dispatches one request and waits at most budget for it to settle.
// On failure the error is an *apierr.TimeoutError, *apierr.APIError or
// *apierr.MalformedError. A timed-out call is not aborted; it finishes in
// the background and its result is dropped.
func (d *Dispatcher) Send(ctx context.Context, path, method string, body any, headers map[string]string, budget time.Duration, opts ...CallOption) (*Envelope, error) {
	var cfg callConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	desc := d.reqCtx.Build(path, method, body, headers, cfg.metricType).Merge(cfg.requestConfig)

	ctx, span := d.tracer.Start(ctx, spanName,
		trace.WithAttributes(
			attribute.String("http.method", desc.Method),
			attribute.String("edgecli.path", path),
			attribute.String("edgecli.api", string(request.Target(desc.Path))),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	d.logger.Debug().
		Str("method", desc.Method).
		Str("path", desc.Path).
		Dur("timeout", budget).
		Msg("dispatching request")

	env, err := timeout.Race(ctx, budget, func(ctx context.Context) (*Envelope, error) {
		return d.do(ctx, desc)
	})

	if status := statusOf(env, err); status != 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return env, nil
}

// do signs and sends desc once.
func (d *Dispatcher) do(ctx context.Context, desc request.Descriptor) (*Envelope, error) {
	call, err := d.auth.Auth(desc)
	if err != nil {
		return nil, d.normalize(err, nil, "", desc)
	}

	resp, body, err := call.Send(ctx)
	if err == nil && resp != nil && request.IsOK(resp.StatusCode) {
		return &Envelope{Response: resp, Body: ParseBody(body)}, nil
	}
	return nil, d.normalize(err, resp, body, desc)
}

// normalize classifies a failed call and logs its diagnostic, if any.
func (d *Dispatcher) normalize(err error, resp *request.Response, body string, desc request.Descriptor) error {
	out := apierr.Classify(err, resp, body)
	if msg := out.Diagnostic(desc.Method, desc.Path, body); msg != "" {
		ev := d.logger.Error().Str("method", desc.Method).Str("path", desc.Path)
		if resp != nil {
			ev = ev.Int("status", resp.StatusCode)
		}
		ev.Msg(msg)
	}
	return out.Err
}

// ParseBody decodes a success body. Empty and "null" bodies yield nil;
// JSON is decoded; anything else is returned as the raw string.
func ParseBody(body string) any {
	if body == "" || body == "null" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return body
	}
	return v
}

// statusOf extracts the HTTP status of a settled call, or 0 when unknown.
func statusOf(env *Envelope, err error) int {
	if env != nil && env.Response != nil {
		return env.Response.StatusCode
	}
	var apiErr *apierr.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	var m *apierr.MalformedError
	if errors.As(err, &m) {
		return m.Status
	}
	return 0
}

// GetJSON sends a GET with no body and no extra headers.
func (d *Dispatcher) GetJSON(ctx context.Context, path string, budget time.Duration, opts ...CallOption) (*Envelope, error) {
	return d.Send(ctx, path, http.MethodGet, nil, map[string]string{}, budget, opts...)
}

// Delete sends a DELETE with no body and no extra headers.
func (d *Dispatcher) Delete(ctx context.Context, path string, budget time.Duration, opts ...CallOption) (*Envelope, error) {
	return d.Send(ctx, path, http.MethodDelete, nil, map[string]string{}, budget, opts...)
}

// PostJSON sends body unmodified with a JSON content type.
func (d *Dispatcher) PostJSON(ctx context.Context, path string, body any, budget time.Duration, opts ...CallOption) (*Envelope, error) {
	return d.Send(ctx, path, http.MethodPost, body, jsonHeaders(), budget, opts...)
}

// PutJSON sends body unmodified with a JSON content type.
func (d *Dispatcher) PutJSON(ctx context.Context, path string, body any, budget time.Duration, opts ...CallOption) (*Envelope, error) {
	return d.Send(ctx, path, http.MethodPut, body, jsonHeaders(), budget, opts...)
}

func jsonHeaders() map[string]string {
	return map[string]string{request.HeaderContentType: request.ContentTypeJSON}
}
