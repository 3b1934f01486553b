// Package client talks to the signup backend: verification code delivery,
// code confirmation and the final registration call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"signupgate/internal/signup/metrics"
	"signupgate/internal/signup/models"
	"signupgate/pkg/email"
	"signupgate/pkg/platform/circuit"
	"signupgate/pkg/requestcontext"
)

const (
	PathRequestCode = "/api/users/request-email-verification"
	PathConfirmCode = "/api/users/verify-email"
	PathSignup      = "/api/users/signup"

	tracerName = "signupgate/internal/signup/client"
)

var (
	// ErrTransport marks failures where the backend gave no usable answer.
	ErrTransport = errors.New("backend unreachable")
	// ErrCircuitOpen is wrapped together with ErrTransport when the breaker rejects a call.
	ErrCircuitOpen = errors.New("circuit open")
	// ErrSubmitRejected means the backend refused the registration.
	ErrSubmitRejected = errors.New("registration rejected")
)

// RejectedError carries the backend's message for a refused registration.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", ErrSubmitRejected, e.Status)
	}
	return fmt.Sprintf("%s: %s", ErrSubmitRejected, e.Message)
}

// RejectionMessage is the text to show the user.
func (e *RejectedError) RejectionMessage() string {
	if e.Message == "" {
		return fmt.Sprintf("registration was refused (status %d)", e.Status)
	}
	return e.Message
}

func (e *RejectedError) Unwrap() error {
	return ErrSubmitRejected
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
	breaker    *circuit.Breaker
	tracer     trace.Tracer

	legacySent     string
	legacyVerified string
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client. The caller's client is never
// modified; WithTimeout applies to a copy regardless of option order.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithBreaker guards every call with b. Calls rejected by an open breaker
// fail immediately with ErrTransport.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// WithLegacyMessages accepts backends that answer with a display string
// instead of the sent/verified flags. A 200 whose message equals the given
// string counts as accepted. Empty strings disable the mapping.
func WithLegacyMessages(sent, verified string) Option {
	return func(c *Client) {
		c.legacySent = sent
		c.legacyVerified = verified
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

type requestCodeBody struct {
	Email string `json:"email"`
}

type confirmCodeBody struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type stepResponse struct {
	Sent     *bool  `json:"sent"`
	Verified *bool  `json:"verified"`
	Message  string `json:"message"`
}

// RequestCode asks the backend to mail a verification code to address.
// A refusal is reported through the result, not as an error.
func (c *Client) RequestCode(ctx context.Context, address string) (models.StepResult, error) {
	const op = "client.RequestCode"

	resp, err := c.postStep(ctx, models.StepRequestCode, PathRequestCode, requestCodeBody{Email: address},
		attribute.String("email.digest", email.Digest(address)))
	if err != nil {
		return models.StepResult{}, fmt.Errorf("%s: %w", op, err)
	}
	accepted := resp.status == http.StatusOK && c.flag(resp.body.Sent, resp.body.Message, c.legacySent)
	return models.StepResult{Accepted: accepted, Message: resp.body.Message}, nil
}

// ConfirmCode submits the code the user received for address.
func (c *Client) ConfirmCode(ctx context.Context, address, code string) (models.StepResult, error) {
	const op = "client.ConfirmCode"

	resp, err := c.postStep(ctx, models.StepConfirmCode, PathConfirmCode, confirmCodeBody{Email: address, Code: code},
		attribute.String("email.digest", email.Digest(address)))
	if err != nil {
		return models.StepResult{}, fmt.Errorf("%s: %w", op, err)
	}
	accepted := resp.status == http.StatusOK && c.flag(resp.body.Verified, resp.body.Message, c.legacyVerified)
	return models.StepResult{Accepted: accepted, Message: resp.body.Message}, nil
}

// Submit sends the full draft once. Only HTTP 200 counts as success.
func (c *Client) Submit(ctx context.Context, draft models.RegistrationDraft) error {
	const op = "client.Submit"

	ctx, span := c.startSpan(ctx, "client."+string(models.StepSubmit), attribute.String("email.digest", email.Digest(draft.Email)))
	defer span.End()

	status, raw, err := c.post(ctx, models.StepSubmit, PathSignup, draft)
	if err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", status))
	if status == http.StatusOK {
		return nil
	}

	var body stepResponse
	_ = json.Unmarshal(raw, &body)
	rejected := &RejectedError{Status: status, Message: body.Message}
	span.SetStatus(codes.Error, rejected.Error())
	return fmt.Errorf("%s: %w", op, rejected)
}

func (c *Client) flag(value *bool, message, legacy string) bool {
	if value != nil {
		return *value
	}
	return legacy != "" && message == legacy
}

type decodedStep struct {
	status int
	body   stepResponse
}

func (c *Client) postStep(ctx context.Context, step models.Step, path string, payload any, attrs ...attribute.KeyValue) (decodedStep, error) {
	ctx, span := c.startSpan(ctx, "client."+string(step), attrs...)
	defer span.End()

	status, raw, err := c.post(ctx, step, path, payload)
	if err != nil {
		recordSpanError(span, err)
		return decodedStep{}, err
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	var body stepResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		err = fmt.Errorf("%w: decode %s response (status %d): %v", ErrTransport, step, status, err)
		recordSpanError(span, err)
		return decodedStep{}, err
	}
	return decodedStep{status: status, body: body}, nil
}

// post performs one JSON POST and returns status and body. Errors always wrap
// ErrTransport. 5xx answers count against the breaker; 4xx do not.
func (c *Client) post(ctx context.Context, step models.Step, path string, payload any) (int, []byte, error) {
	if c.breaker != nil && !c.breaker.Allow() {
		return 0, nil, fmt.Errorf("%w: %w", ErrTransport, ErrCircuitOpen)
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: encode request: %v", ErrTransport, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if rid := requestcontext.RequestID(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveBackendLatency(string(step), time.Since(start))
	if err != nil {
		c.recordFailure()
		return 0, nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.recordFailure()
		return 0, nil, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.recordFailure()
	} else {
		c.recordSuccess()
	}

	c.logger.DebugContext(ctx, "backend call finished",
		"step", step,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp.StatusCode, raw, nil
}

func (c *Client) recordFailure() {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.Warn("backend circuit opened", "breaker", c.breaker.Name())
		c.metrics.IncrementBreakerTransition(c.breaker.Name(), circuit.StateOpen.String())
	}
}

func (c *Client) recordSuccess() {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("backend circuit closed", "breaker", c.breaker.Name())
		c.metrics.IncrementBreakerTransition(c.breaker.Name(), circuit.StateClosed.String())
	}
}

func (c *Client) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "signup."+name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
