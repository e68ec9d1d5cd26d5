package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/gems/client/download"
	"github.com/adamwoolhether/gems/config"
)

// Client executes registry calls with a fixed configuration.
// It is safe for concurrent use.
type Client struct {
	c      *http.Client
	cfg    config.Config
	logger *slog.Logger
	tracer trace.Tracer
}

// Build returns a Client bound to a snapshot of cfg. cfg is validated on
// every call rather than here, so a Client can be built before
// credentials are known.
func Build(cfg config.Config, optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("applying client option: %w", err)}
		}
	}

	hc := *http.DefaultClient
	if opts.client != nil {
		hc = *opts.client
	}

	if opts.timeout != nil {
		hc.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	switch {
	case opts.rt != nil:
		hc.Transport = opts.rt
	case hc.Transport == nil:
		hc.Transport = http.DefaultTransport
	}

	client := &Client{
		c:      &hc,
		cfg:    cfg,
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer(""),
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	return client, nil
}

// Config returns the configuration the client was built with.
func (c *Client) Config() config.Config {
	return c.cfg
}

// Do executes call and decodes a successful body into dest according to
// call.Format. A nil dest discards the body. dest is never touched when
// an error is returned.
func (c *Client) Do(ctx context.Context, call Call, dest any, opts ...CallOption) error {
	var settings callOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return &ConfigError{Err: err}
		}
	}

	if settings.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.timeout)
		defer cancel()
	}

	req, err := NewRequest(ctx, c.cfg, call)
	if err != nil {
		return err
	}

	doFunc := func(resp *http.Response) error {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return newNetworkError(req.Method, req.URL.Redacted(), err)
		}

		return decode(body, call.Format, dest, settings.useJSONNum)
	}

	return c.exec(req, doFunc)
}

// Download executes call, which must serve archive, and streams a
// successful body to disk. It returns the path written; dest is resolved
// by [download.Destination].
//
// An archive that fails its length or SHA-256 check matches [ErrDecode],
// a body that stops mid-stream matches [ErrNetwork], and a destination
// that can't be written matches [ErrConfiguration].
func (c *Client) Download(ctx context.Context, call Call, archive Archive, dest string, opts ...DownloadOption) (string, error) {
	if err := archive.Validate(); err != nil {
		return "", &ConfigError{Field: "archive", Err: err}
	}

	req, err := NewRequest(ctx, c.cfg, call)
	if err != nil {
		return "", err
	}

	var path string
	dlFunc := func(resp *http.Response) error {
		logger := c.logger.With("request_id", requestID(resp.Request.Context()))

		p, err := download.Handle(resp.Request.Context(), resp.Body, resp.ContentLength, archive, dest, logger, opts...)
		if err != nil {
			return downloadError(req.Method, req.URL.Redacted(), err)
		}
		path = p

		return nil
	}

	if err := c.exec(req, dlFunc); err != nil {
		return "", err
	}

	return path, nil
}

// exec runs the request inside a span and hands a 2xx response to fn.
// Any other status is mapped by [CheckStatus] without calling fn.
func (c *Client) exec(req *http.Request, fn execFn) (err error) {
	ctx, span := c.tracer.Start(req.Context(), "gems."+strings.ToLower(req.Method), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.URL.Path),
	)

	id := span.SpanContext().TraceID().String()
	if !span.SpanContext().TraceID().IsValid() {
		id = uuid.New().String()
	}
	ctx = context.WithValue(ctx, requestIDKey, id)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	req = req.WithContext(ctx)

	reqURL := req.URL.Redacted()
	logger := c.logger.With("request_id", id, "method", req.Method, "url", reqURL)

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	logger.Debug("request started")
	start := time.Now()

	resp, err := c.c.Do(req)
	if err != nil {
		logger.Debug("request failed", "error", err, "elapsed", time.Since(start))
		return newNetworkError(req.Method, reqURL, err)
	}

	discardBody := true
	defer func() {
		if discardBody {
			if _, err := io.Copy(io.Discard, resp.Body); err != nil {
				logger.Error("failed to discard unused body", "error", err)
			}
		}
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	logger.Debug("request completed", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		if err != nil {
			b = []byte("unable to read body")
		}

		return CheckStatus(resp.StatusCode, b)
	}

	if err := fn(resp); err != nil {
		discardBody = false
		return err
	}

	return nil
}

type ctxKey int

const requestIDKey ctxKey = 1

// requestID returns the id logged for the call carried by ctx.
func requestID(ctx context.Context) string {
	id, ok := ctx.Value(requestIDKey).(string)
	if !ok {
		return uuid.Nil.String()
	}

	return id
}
