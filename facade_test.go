package datacite

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	gocmd "github.com/goliatone/go-command"
	dcommand "github.com/goliatone/go-datacite/command"
	"github.com/goliatone/go-datacite/core"
	"github.com/goliatone/go-datacite/mds"
	dquery "github.com/goliatone/go-datacite/query"
)

type recordedCall struct {
	method string
	path   string
	body   string
}

type fakeRegistry struct {
	mu         sync.Mutex
	calls      []recordedCall
	registered map[string]string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{registered: map[string]string{
		"10.5072/0000001": "https://example.org/dataset/1",
	}}
}

func (f *fakeRegistry) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{method: r.Method, path: r.URL.Path, body: string(body)})

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/metadata":
		w.Header().Set("Location", "https://mds.test/metadata/10.5072/0000007")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("OK (10.5072/0000007)"))
	case r.Method == http.MethodPost && r.URL.Path == "/doi":
		doi, url := "", ""
		for _, line := range strings.Split(string(body), "\n") {
			if value, ok := strings.CutPrefix(line, "doi="); ok {
				doi = value
			}
			if value, ok := strings.CutPrefix(line, "url="); ok {
				url = value
			}
		}
		f.registered[doi] = url
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("OK"))
	case r.Method == http.MethodGet && r.URL.Path == "/doi":
		for doi := range f.registered {
			_, _ = w.Write([]byte(doi + "\n"))
		}
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/doi/"):
		url, ok := f.registered[strings.TrimPrefix(r.URL.Path, "/doi/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(url))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// posts returns the recorded POST calls in order.
func (f *fakeRegistry) posts() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedCall, 0, len(f.calls))
	for _, call := range f.calls {
		if call.method == http.MethodPost {
			out = append(out, call)
		}
	}
	return out
}

type memoryIdentifierStore struct {
	mu      sync.Mutex
	records map[string]core.IdentifierRecord
}

func newMemoryIdentifierStore() *memoryIdentifierStore {
	return &memoryIdentifierStore{records: map[string]core.IdentifierRecord{}}
}

func (s *memoryIdentifierStore) Create(_ context.Context, in core.CreateIdentifierInput) (core.IdentifierRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.Identifier == in.Identifier {
			return core.IdentifierRecord{}, core.ErrIdentifierConflict
		}
	}
	if _, ok := s.records[in.PackageID]; ok {
		return core.IdentifierRecord{}, core.ErrPackageIdentified
	}
	record := core.IdentifierRecord{ID: "rec_" + in.PackageID, PackageID: in.PackageID, Identifier: in.Identifier}
	s.records[in.PackageID] = record
	return record, nil
}

func (s *memoryIdentifierStore) ExistsByIdentifier(_ context.Context, identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.Identifier == identifier {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryIdentifierStore) GetByPackageID(_ context.Context, packageID string) (core.IdentifierRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[packageID]
	if !ok {
		return core.IdentifierRecord{}, core.ErrNotFound
	}
	return record, nil
}

func (s *memoryIdentifierStore) GetByIdentifier(_ context.Context, identifier string) (core.IdentifierRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.Identifier == identifier {
			return record, nil
		}
	}
	return core.IdentifierRecord{}, core.ErrNotFound
}

type fixedRandom int

func (f fixedRandom) IntN(int) int { return int(f) }

func testConfig(endpoint string) Config {
	return Config{
		Prefix: "10.5072",
		Registry: RegistryConfig{
			Endpoint:        endpoint,
			AccountName:     "ACME.TEST",
			AccountPassword: "secret",
		},
	}
}

func newFacadeFixture(t *testing.T) (*Facade, *fakeRegistry) {
	t.Helper()
	registry := newFakeRegistry()
	srv := httptest.NewServer(http.HandlerFunc(registry.handler))
	t.Cleanup(srv.Close)

	svc, err := NewService(testConfig(srv.URL),
		WithIdentifierStore(newMemoryIdentifierStore()),
		WithRandomSource(fixedRandom(6)),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	return facade, registry
}

func TestNewService_WiresDefaultRegistry(t *testing.T) {
	svc, err := NewService(testConfig("https://mds.test.datacite.org"))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	deps := svc.Dependencies()
	if _, ok := deps.MetadataRegistry.(*mds.MetadataAPI); !ok {
		t.Fatalf("expected mds metadata api, got %T", deps.MetadataRegistry)
	}
	if _, ok := deps.DOIRegistry.(*mds.DOIAPI); !ok {
		t.Fatalf("expected mds doi api, got %T", deps.DOIRegistry)
	}
	if _, ok := deps.MediaRegistry.(*mds.MediaAPI); !ok {
		t.Fatalf("expected mds media api, got %T", deps.MediaRegistry)
	}
}

func TestNewService_KeepsExplicitRegistries(t *testing.T) {
	registry, err := mds.New(testConfig("https://mds.example.org").Registry)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	svc, err := NewService(testConfig("https://mds.test.datacite.org"), WithRegistry(registry))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if svc.Dependencies().DOIRegistry != registry.DOI {
		t.Fatalf("expected explicit doi registry to be kept")
	}
}

func TestNewService_RejectsMissingCredentials(t *testing.T) {
	cfg := testConfig("https://mds.test.datacite.org")
	cfg.Registry.AccountPassword = ""
	if _, err := NewService(cfg); err == nil {
		t.Fatalf("expected missing credentials to fail")
	}
}

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	facade, _ := newFacadeFixture(t)

	commands := facade.Commands()
	if commands.MintIdentifier == nil || commands.Publish == nil || commands.RegisterDOI == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.GetIdentifier == nil || queries.ListDOIs == nil || queries.GetMedia == nil {
		t.Fatalf("expected query handlers to be wired")
	}
}

func TestFacade_MintThenPublish(t *testing.T) {
	facade, registry := newFacadeFixture(t)

	minted := gocmd.NewResult[core.IdentifierRecord]()
	ctx := gocmd.ContextWithResult(context.Background(), minted)
	if err := facade.Commands().MintIdentifier.Execute(ctx, dcommand.MintIdentifierMessage{PackageID: "pkg_7"}); err != nil {
		t.Fatalf("mint: %v", err)
	}
	record, ok := minted.Load()
	if !ok || record.Identifier != "10.5072/0000007" {
		t.Fatalf("unexpected minted record %#v", record)
	}

	lookup, err := facade.Queries().GetIdentifier.Query(context.Background(), dquery.GetIdentifierMessage{PackageID: "pkg_7"})
	if err != nil || lookup.Identifier != record.Identifier {
		t.Fatalf("unexpected identifier lookup %#v err=%v", lookup, err)
	}

	err = facade.Commands().Publish.Execute(context.Background(), dcommand.PublishMessage{Request: core.PublishRequest{
		Metadata: core.MetadataInput{
			Identifier:      record.Identifier,
			Title:           "Lake temperatures",
			Creators:        []string{"Doe, Jane"},
			Publisher:       "ACME",
			PublicationYear: "2024",
		},
		URL: "https://example.org/dataset/7",
	}})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	calls := registry.posts()
	if len(calls) != 2 {
		t.Fatalf("expected metadata and doi calls, got %#v", calls)
	}
	if calls[0].method != http.MethodPost || calls[0].path != "/metadata" {
		t.Fatalf("expected metadata upload first, got %#v", calls[0])
	}
	if !strings.Contains(calls[0].body, "<identifier identifierType=\"DOI\">10.5072/0000007</identifier>") {
		t.Fatalf("metadata body missing identifier: %s", calls[0].body)
	}
	if calls[1].path != "/doi" || calls[1].body != "doi=10.5072/0000007\nurl=https://example.org/dataset/7" {
		t.Fatalf("unexpected doi registration %#v", calls[1])
	}
}

func TestFacade_RegistryQueries(t *testing.T) {
	facade, _ := newFacadeFixture(t)
	ctx := context.Background()

	url, err := facade.Queries().GetDOI.Query(ctx, dquery.GetDOIMessage{DOI: "10.5072/0000001"})
	if err != nil || url != "https://example.org/dataset/1" {
		t.Fatalf("unexpected doi url %q err=%v", url, err)
	}
	dois, err := facade.Queries().ListDOIs.Query(ctx, dquery.ListDOIsMessage{})
	if err != nil || len(dois) != 1 || dois[0] != "10.5072/0000001" {
		t.Fatalf("unexpected doi list %#v err=%v", dois, err)
	}
	_, err = facade.Queries().GetDOI.Query(ctx, dquery.GetDOIMessage{DOI: "10.5072/0000099"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for unregistered doi, got %v", err)
	}
}

func TestNewFacade_RequiresService(t *testing.T) {
	facade, err := NewFacade(nil)
	if err == nil {
		t.Fatalf("expected nil service error")
	}
	if facade != nil {
		t.Fatalf("expected nil facade on error")
	}
}
