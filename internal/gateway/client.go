package gateway

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

	"github.com/geocoder89/regportal/internal/actorctx"
	"github.com/geocoder89/regportal/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Client talks to the conference backend. It does not retry, cache, or
// deduplicate requests; every call site handles its own failures.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
	prom    *observability.Prom
	tracer  trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithMetrics(p *observability.Prom) Option {
	return func(c *Client) { c.prom = p }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// no timeout on purpose: a hung backend keeps the caller waiting until its context ends
		http:   &http.Client{},
		log:    observability.NewDiscardLogger(),
		tracer: otel.Tracer("regportal/gateway"),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type call struct {
	endpoint string // logical name for metrics/spans
	method   string
	path     string
	public   bool
	token    string
	body     any
}

// Do performs an arbitrary backend call and decodes envelope.data into out.
// An empty token falls back to the access token carried by ctx.
func (c *Client) Do(ctx context.Context, method, path, token string, body, out any) error {
	_, err := c.do(ctx, call{endpoint: "custom", method: method, path: path, token: token, body: body}, out)
	return err
}

// do performs the call and decodes envelope.data into out (when out != nil).
// It reports whether data was present and non-null.
func (c *Client) do(ctx context.Context, cl call, out any) (bool, error) {
	var present bool

	run := func() error {
		var err error
		present, err = c.roundTrip(ctx, cl, out)
		return err
	}

	if c.prom != nil {
		return present, c.prom.ObserveGateway(cl.endpoint, classify, run)
	}
	return present, run()
}

func (c *Client) roundTrip(ctx context.Context, cl call, out any) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "gateway "+cl.endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", cl.method),
			attribute.String("gateway.endpoint", cl.endpoint),
		),
	)
	defer span.End()

	present, err := c.send(ctx, cl, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return present, err
}

func (c *Client) send(ctx context.Context, cl call, out any) (bool, error) {
	var reader io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return false, fmt.Errorf("encode %s body: %w", cl.endpoint, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reader)
	if err != nil {
		return false, fmt.Errorf("build %s request: %w", cl.endpoint, err)
	}

	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if !cl.public {
		token := cl.token
		if token == "" {
			token, _ = actorctx.AccessTokenFrom(ctx)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "gateway_call_failed", "endpoint", cl.endpoint, "err", err)
		return false, &NetworkError{Op: cl.endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, &NetworkError{Op: cl.endpoint, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.log.DebugContext(ctx, "gateway_call_rejected", "endpoint", cl.endpoint, "status", resp.StatusCode, "message", msg)
		return false, &APIError{Status: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return false, &NetworkError{Op: cl.endpoint, Err: fmt.Errorf("decode envelope: %w", decodeErr)}
	}

	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return false, &APIError{Status: resp.StatusCode, Message: msg}
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return false, nil
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return true, &NetworkError{Op: cl.endpoint, Err: fmt.Errorf("decode data: %w", err)}
		}
	}
	return true, nil
}

var errMissingData = errors.New("backend response carried no data")
