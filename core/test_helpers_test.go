package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

func testConfig() Config {
	return Config{
		Prefix: "10.5072",
		Registry: RegistryConfig{
			Endpoint:        "https://mds.test.datacite.org",
			AccountName:     "ACME.TEST",
			AccountPassword: "secret",
		},
	}
}

func newTestService(opts ...Option) (*Service, error) {
	base := []Option{WithLogger(stubLogger{}), WithLoggerProvider(stubLoggerProvider{logger: stubLogger{}})}
	return NewService(testConfig(), append(base, opts...)...)
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	return l.values, nil
}

// sequenceRandom replays draws in order and repeats the last one.
type sequenceRandom struct {
	mu    sync.Mutex
	draws []int
	calls int
}

func (r *sequenceRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	index := r.calls
	if index >= len(r.draws) {
		index = len(r.draws) - 1
	}
	r.calls++
	value := r.draws[index]
	if value >= n {
		return n - 1
	}
	return value
}

type memoryIdentifierStore struct {
	mu sync.Mutex

	records      map[string]IdentifierRecord
	taken        map[string]bool
	conflictOnce map[string]bool
	existsCalls  []string
	createCalls  []CreateIdentifierInput
	existsErr    error
	createErr    error
	nextID       int
}

func newMemoryIdentifierStore() *memoryIdentifierStore {
	return &memoryIdentifierStore{
		records:      map[string]IdentifierRecord{},
		taken:        map[string]bool{},
		conflictOnce: map[string]bool{},
	}
}

func (s *memoryIdentifierStore) Create(_ context.Context, in CreateIdentifierInput) (IdentifierRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls = append(s.createCalls, in)
	if s.createErr != nil {
		return IdentifierRecord{}, s.createErr
	}
	if s.conflictOnce[in.Identifier] {
		delete(s.conflictOnce, in.Identifier)
		return IdentifierRecord{}, fmt.Errorf("%w: %s", ErrIdentifierConflict, in.Identifier)
	}
	if s.taken[in.Identifier] {
		return IdentifierRecord{}, fmt.Errorf("%w: %s", ErrIdentifierConflict, in.Identifier)
	}
	if _, ok := s.records[in.PackageID]; ok {
		return IdentifierRecord{}, fmt.Errorf("%w: %s", ErrPackageIdentified, in.PackageID)
	}
	s.nextID++
	record := IdentifierRecord{
		ID:         fmt.Sprintf("rec_%d", s.nextID),
		PackageID:  in.PackageID,
		Identifier: in.Identifier,
		CreatedAt:  time.Now().UTC(),
	}
	s.records[in.PackageID] = record
	s.taken[in.Identifier] = true
	return record, nil
}

func (s *memoryIdentifierStore) ExistsByIdentifier(_ context.Context, identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.existsCalls = append(s.existsCalls, identifier)
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.taken[identifier], nil
}

func (s *memoryIdentifierStore) GetByPackageID(_ context.Context, packageID string) (IdentifierRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[packageID]
	if !ok {
		return IdentifierRecord{}, fmt.Errorf("%w: package %q", ErrNotFound, packageID)
	}
	return record, nil
}

func (s *memoryIdentifierStore) GetByIdentifier(_ context.Context, identifier string) (IdentifierRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.Identifier == identifier {
			return record, nil
		}
	}
	return IdentifierRecord{}, fmt.Errorf("%w: identifier %q", ErrNotFound, identifier)
}

// racingIdentifierStore behaves as if another minter stored winner between
// the first package lookup and the insert.
type racingIdentifierStore struct {
	*memoryIdentifierStore
	winner IdentifierRecord
	gets   int
}

func (s *racingIdentifierStore) GetByPackageID(_ context.Context, packageID string) (IdentifierRecord, error) {
	s.gets++
	if s.gets == 1 {
		return IdentifierRecord{}, fmt.Errorf("%w: package %q", ErrNotFound, packageID)
	}
	return s.winner, nil
}

func (s *racingIdentifierStore) Create(_ context.Context, in CreateIdentifierInput) (IdentifierRecord, error) {
	s.createCalls = append(s.createCalls, in)
	return IdentifierRecord{}, fmt.Errorf("%w: package %q", ErrPackageIdentified, in.PackageID)
}

type stubDOIRegistry struct {
	mu sync.Mutex

	urls      map[string]string
	getErr    map[string]error
	getCalls  []string
	upserts   [][2]string
	upsertErr error
}

func newStubDOIRegistry() *stubDOIRegistry {
	return &stubDOIRegistry{urls: map[string]string{}, getErr: map[string]error{}}
}

func (r *stubDOIRegistry) Get(_ context.Context, doi string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls = append(r.getCalls, doi)
	if err, ok := r.getErr[doi]; ok {
		return "", err
	}
	url, ok := r.urls[doi]
	if !ok {
		return "", &HTTPError{StatusCode: 404, Body: "DOI not found", Method: "GET", URL: "/doi/" + doi}
	}
	return url, nil
}

func (r *stubDOIRegistry) List(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.urls))
	for doi := range r.urls {
		out = append(out, doi)
	}
	return out, nil
}

func (r *stubDOIRegistry) Upsert(_ context.Context, doi string, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts = append(r.upserts, [2]string{doi, url})
	r.urls[doi] = url
	return nil
}

type stubMetadataRegistry struct {
	mu sync.Mutex

	documents map[string][]byte
	upserts   []MetadataInput
	deleted   []string
	upsertErr error
	calls     *[]string
}

func newStubMetadataRegistry() *stubMetadataRegistry {
	return &stubMetadataRegistry{documents: map[string][]byte{}}
}

func (r *stubMetadataRegistry) Get(_ context.Context, doi string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	document, ok := r.documents[doi]
	if !ok {
		return nil, &HTTPError{StatusCode: 404, Method: "GET", URL: "/metadata/" + doi}
	}
	return document, nil
}

func (r *stubMetadataRegistry) Upsert(_ context.Context, in MetadataInput) (MetadataUpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls != nil {
		*r.calls = append(*r.calls, "metadata")
	}
	if r.upsertErr != nil {
		return MetadataUpsertResult{}, r.upsertErr
	}
	r.upserts = append(r.upserts, in)
	r.documents[in.Identifier] = []byte("<resource/>")
	return MetadataUpsertResult{StatusCode: 201, Body: "OK (" + in.Identifier + ")"}, nil
}

func (r *stubMetadataRegistry) Delete(_ context.Context, doi string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, doi)
	return nil
}

type orderedDOIRegistry struct {
	*stubDOIRegistry
	calls *[]string
}

func (r orderedDOIRegistry) Upsert(ctx context.Context, doi string, url string) error {
	*r.calls = append(*r.calls, "doi")
	return r.stubDOIRegistry.Upsert(ctx, doi, url)
}

type stubMediaRegistry struct {
	entries map[string][]MediaEntry
}

func (r *stubMediaRegistry) Get(_ context.Context, doi string) ([]MediaEntry, error) {
	entries, ok := r.entries[doi]
	if !ok {
		return nil, &HTTPError{StatusCode: 404, Method: "GET", URL: "/media/" + doi}
	}
	return entries, nil
}

func (r *stubMediaRegistry) Upsert(_ context.Context, doi string, entries []MediaEntry) error {
	if r.entries == nil {
		r.entries = map[string][]MediaEntry{}
	}
	r.entries[doi] = append([]MediaEntry(nil), entries...)
	return nil
}

type stubJobEnqueuer struct {
	messages []*JobExecutionMessage
	err      error
}

func (e *stubJobEnqueuer) Enqueue(_ context.Context, msg *JobExecutionMessage) error {
	if e.err != nil {
		return e.err
	}
	e.messages = append(e.messages, msg)
	return nil
}

type stubJobDelivery struct {
	msg      *JobExecutionMessage
	acked    bool
	nacked   bool
	nackOpts JobNackOptions
	nackErr  error
}

func (d *stubJobDelivery) Message() *JobExecutionMessage { return d.msg }

func (d *stubJobDelivery) Ack(context.Context) error {
	d.acked = true
	return nil
}

func (d *stubJobDelivery) Nack(_ context.Context, opts JobNackOptions) error {
	d.nacked = true
	d.nackOpts = opts
	return d.nackErr
}

func sampleMetadata(identifier string) MetadataInput {
	return MetadataInput{
		Identifier:      identifier,
		Title:           "Ocean temperature series",
		Creators:        []string{"Alice", "Bob"},
		Publisher:       "Marine Data Lab",
		PublicationYear: "2024",
	}
}

func containsString(items []string, needle string) bool {
	for _, item := range items {
		if strings.EqualFold(item, needle) {
			return true
		}
	}
	return false
}
