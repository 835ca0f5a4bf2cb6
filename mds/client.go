package mds

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-datacite/auth"
	"github.com/goliatone/go-datacite/core"
	"github.com/goliatone/go-datacite/transport"
	glog "github.com/goliatone/go-logger/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/goliatone/go-datacite/mds"

const (
	attrResource   = "datacite.resource"
	attrMethod     = "http.request.method"
	attrURL        = "url.full"
	attrStatusCode = "http.response.status_code"
)

// CallRequest describes one call against a registry resource. Path is
// appended to the resource path verbatim so DOI suffixes keep their slash.
type CallRequest struct {
	Path    string
	Method  string
	Body    []byte
	Headers map[string]string
	Query   map[string]string
}

type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Header returns the first header value matching name case-insensitively.
func (r Response) Header(name string) string {
	if value, ok := r.Headers[name]; ok {
		return value
	}
	for key, value := range r.Headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}

// Client is the shared registry client. Concrete APIs fix the resource and
// compose on Call.
type Client struct {
	config    core.RegistryConfig
	transport core.TransportAdapter
	signer    core.RequestSigner
	tracer    trace.Tracer
	logger    core.Logger
}

type Option func(*Client)

func WithTransport(adapter core.TransportAdapter) Option {
	return func(c *Client) {
		if adapter != nil {
			c.transport = adapter
		}
	}
}

func WithSigner(signer core.RequestSigner) Option {
	return func(c *Client) {
		if signer != nil {
			c.signer = signer
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(cfg core.RegistryConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := &Client{
		config:    cfg,
		transport: transport.NewRESTAdapter(nil),
		signer:    auth.NewBasicSignerFromConfig(cfg),
		tracer:    otel.Tracer(tracerName),
		logger:    glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

func (c *Client) Config() core.RegistryConfig {
	if c == nil {
		return core.RegistryConfig{}
	}
	return c.config
}

// Call performs one signed request against resource. Any status of 400 or
// above is returned as *core.HTTPError and no response is handed back.
func (c *Client) Call(ctx context.Context, resource string, req CallRequest) (Response, error) {
	if c == nil || c.transport == nil {
		return Response{}, fmt.Errorf("mds: client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	resource = strings.Trim(strings.TrimSpace(resource), "/")
	if resource == "" {
		return Response{}, fmt.Errorf("mds: resource is required")
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	target := c.resourceURL(resource, req.Path)

	ctx, span := c.tracer.Start(ctx, "datacite."+resource+"."+strings.ToLower(method),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()
	span.SetAttributes(
		attribute.String(attrResource, resource),
		attribute.String(attrMethod, method),
		attribute.String(attrURL, target),
	)

	res, err := c.do(ctx, method, target, req)
	if res.StatusCode > 0 {
		span.SetAttributes(attribute.Int(attrStatusCode, res.StatusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.WithContext(ctx).Debug("registry call failed",
			"resource", resource, "method", method, "url", target, "status", res.StatusCode, "error", err)
		return Response{}, err
	}
	span.SetStatus(codes.Ok, "")
	c.logger.WithContext(ctx).Debug("registry call",
		"resource", resource, "method", method, "url", target, "status", res.StatusCode)
	return res, nil
}

func (c *Client) do(ctx context.Context, method string, target string, req CallRequest) (Response, error) {
	treq := core.TransportRequest{
		Method:  method,
		URL:     target,
		Headers: cloneHeaders(req.Headers),
		Query:   req.Query,
		Body:    req.Body,
		Timeout: c.config.Timeout,
	}
	if c.signer != nil {
		if err := c.signer.Sign(ctx, &treq); err != nil {
			return Response{}, err
		}
	}

	tres, err := c.transport.Do(ctx, treq)
	if err != nil {
		return Response{}, err
	}
	res := Response{
		StatusCode: tres.StatusCode,
		Headers:    tres.Headers,
		Body:       tres.Body,
	}
	if tres.StatusCode >= http.StatusBadRequest {
		return res, &core.HTTPError{
			StatusCode: tres.StatusCode,
			Body:       string(tres.Body),
			Method:     method,
			URL:        target,
		}
	}
	return res, nil
}

func (c *Client) resourceURL(resource string, path string) string {
	target := strings.TrimRight(strings.TrimSpace(c.config.Endpoint), "/") + "/" + resource
	if path = strings.Trim(strings.TrimSpace(path), "/"); path != "" {
		target += "/" + path
	}
	return target
}

func cloneHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers)+1)
	for key, value := range headers {
		out[key] = value
	}
	return out
}
