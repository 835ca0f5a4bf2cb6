package mds

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-datacite/core"
	"github.com/goliatone/go-datacite/transport"
	goerrors "github.com/goliatone/go-errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type recordedRequest struct {
	Method        string
	Path          string
	Query         string
	ContentType   string
	Authorization string
	Body          string
}

type registryServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newRegistryServer(t *testing.T, handler http.HandlerFunc) *registryServer {
	t.Helper()
	srv := &registryServer{}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		srv.mu.Lock()
		srv.requests = append(srv.requests, recordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			ContentType:   r.Header.Get("Content-Type"),
			Authorization: r.Header.Get("Authorization"),
			Body:          string(body),
		})
		srv.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (s *registryServer) last(t *testing.T) recordedRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		t.Fatalf("expected at least one registry request")
	}
	return s.requests[len(s.requests)-1]
}

func testRegistryConfig(endpoint string) core.RegistryConfig {
	return core.RegistryConfig{
		Endpoint:        endpoint,
		AccountName:     "ACME.TEST",
		AccountPassword: "secret",
		Timeout:         5 * time.Second,
	}
}

func newTestRegistry(t *testing.T, srv *registryServer, opts ...Option) *Registry {
	t.Helper()
	opts = append([]Option{WithTransport(transport.NewRESTAdapter(srv.Client()))}, opts...)
	registry, err := New(testRegistryConfig(srv.URL), opts...)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return registry
}

func TestClientCall_AttachesBasicAuthAndKeepsDOISuffix(t *testing.T) {
	srv := newRegistryServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	registry := newTestRegistry(t, srv)

	res, err := registry.Client.Call(context.Background(), core.ResourceDOI, CallRequest{Path: "10.5072/0000001"})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.StatusCode != http.StatusOK || string(res.Body) != "ok" {
		t.Fatalf("unexpected response %+v", res)
	}
	got := srv.last(t)
	if got.Method != http.MethodGet {
		t.Fatalf("expected GET by default, got %s", got.Method)
	}
	if got.Path != "/doi/10.5072/0000001" {
		t.Fatalf("expected doi suffix to keep its slash, got %q", got.Path)
	}
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("ACME.TEST:secret"))
	if got.Authorization != want {
		t.Fatalf("expected basic auth header %q, got %q", want, got.Authorization)
	}
}

func TestClientCall_JoinsEndpointWithBasePath(t *testing.T) {
	srv := newRegistryServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	client, err := NewClient(testRegistryConfig(srv.URL+"/mds/"), WithTransport(transport.NewRESTAdapter(srv.Client())))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Call(context.Background(), "/metadata/", CallRequest{}); err != nil {
		t.Fatalf("call: %v", err)
	}
	if got := srv.last(t).Path; got != "/mds/metadata" {
		t.Fatalf("expected /mds/metadata, got %q", got)
	}
}

func TestClientCall_ErrorStatusBecomesHTTPError(t *testing.T) {
	srv := newRegistryServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/doi/10.5072/missing" {
			http.Error(w, "DOI not found", http.StatusNotFound)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	registry := newTestRegistry(t, srv)

	_, err := registry.Client.Call(context.Background(), core.ResourceDOI, CallRequest{Path: "10.5072/missing"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected 404 to match ErrNotFound, got %v", err)
	}

	_, err = registry.Client.Call(context.Background(), core.ResourceDOI, CallRequest{Path: "10.5072/other"})
	var httpErr *core.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusInternalServerError || httpErr.Method != http.MethodGet {
		t.Fatalf("unexpected http error %+v", httpErr)
	}
	if errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected 500 not to match ErrNotFound")
	}
}

func TestClientCall_NetworkFailureIsTransportError(t *testing.T) {
	srv := newRegistryServer(t, func(w http.ResponseWriter, _ *http.Request) {})
	client, err := NewClient(testRegistryConfig(srv.URL), WithTransport(transport.NewRESTAdapter(srv.Client())))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	srv.Close()

	_, err = client.Call(context.Background(), core.ResourceDOI, CallRequest{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.ErrorTextTransportFailure {
		t.Fatalf("expected transport failure envelope, got %v", err)
	}
	if core.StatusCode(err) != 0 {
		t.Fatalf("expected no registry status on transport failure")
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	cfg := testRegistryConfig("https://mds.test.datacite.org")
	cfg.AccountPassword = ""
	if _, err := NewClient(cfg); err == nil {
		t.Fatalf("expected missing password to fail")
	}
}

func TestClientCall_RecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	srv := newRegistryServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	registry := newTestRegistry(t, srv, WithTracer(provider.Tracer("test-tracer")))

	if _, err := registry.Metadata.Get(context.Background(), "10.5072/0000001"); err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if err := registry.Metadata.Delete(context.Background(), "10.5072/0000001"); err == nil {
		t.Fatalf("expected delete to fail")
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected two spans, got %d", len(spans))
	}
	if spans[0].Name != "datacite.metadata.get" || spans[1].Name != "datacite.metadata.delete" {
		t.Fatalf("unexpected span names %q, %q", spans[0].Name, spans[1].Name)
	}
	if spans[0].Status.Code != codes.Ok {
		t.Fatalf("expected ok status, got %v", spans[0].Status.Code)
	}
	if spans[1].Status.Code != codes.Error {
		t.Fatalf("expected error status, got %v", spans[1].Status.Code)
	}
	if !hasAttribute(spans[1].Attributes, attribute.Int(attrStatusCode, http.StatusNotFound)) {
		t.Fatalf("expected status code attribute, got %v", spans[1].Attributes)
	}
	if !hasAttribute(spans[0].Attributes, attribute.String(attrResource, core.ResourceMetadata)) {
		t.Fatalf("expected resource attribute, got %v", spans[0].Attributes)
	}
}

func hasAttribute(attrs []attribute.KeyValue, want attribute.KeyValue) bool {
	for _, attr := range attrs {
		if attr.Key == want.Key && attr.Value.Emit() == want.Value.Emit() {
			return true
		}
	}
	return false
}
