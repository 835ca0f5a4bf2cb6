package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type Service struct {
	config           Config
	logger           Logger
	loggerProvider   LoggerProvider
	metricsRecorder  MetricsRecorder
	errorFactory     ErrorFactory
	errorMapper      ErrorMapper
	configProvider   ConfigProvider
	optionsResolver  OptionsResolver
	identifierStore  IdentifierStore
	metadataRegistry MetadataRegistry
	doiRegistry      DOIRegistry
	mediaRegistry    MediaRegistry
	random           RandomSource
	jobEnqueuer      JobEnqueuer
	now              func() time.Time
}

type ServiceDependencies struct {
	Logger           Logger
	LoggerProvider   LoggerProvider
	MetricsRecorder  MetricsRecorder
	ErrorFactory     ErrorFactory
	ErrorMapper      ErrorMapper
	ConfigProvider   ConfigProvider
	OptionsResolver  OptionsResolver
	IdentifierStore  IdentifierStore
	MetadataRegistry MetadataRegistry
	DOIRegistry      DOIRegistry
	MediaRegistry    MediaRegistry
	RandomSource     RandomSource
	JobEnqueuer      JobEnqueuer
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("datacite", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("datacite"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = MapError
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.random == nil {
		builder.random = mathRandomSource{}
	}
	if builder.now == nil {
		builder.now = time.Now
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Service{
		config:           finalConfig,
		logger:           logger,
		loggerProvider:   provider,
		metricsRecorder:  builder.metricsRecorder,
		errorFactory:     builder.errorFactory,
		errorMapper:      builder.errorMapper,
		configProvider:   builder.configProvider,
		optionsResolver:  builder.optionsResolver,
		identifierStore:  builder.identifierStore,
		metadataRegistry: builder.metadataRegistry,
		doiRegistry:      builder.doiRegistry,
		mediaRegistry:    builder.mediaRegistry,
		random:           builder.random,
		jobEnqueuer:      builder.jobEnqueuer,
		now:              builder.now,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:           s.logger,
		LoggerProvider:   s.loggerProvider,
		MetricsRecorder:  s.metricsRecorder,
		ErrorFactory:     s.errorFactory,
		ErrorMapper:      s.errorMapper,
		ConfigProvider:   s.configProvider,
		OptionsResolver:  s.optionsResolver,
		IdentifierStore:  s.identifierStore,
		MetadataRegistry: s.metadataRegistry,
		DOIRegistry:      s.doiRegistry,
		MediaRegistry:    s.mediaRegistry,
		RandomSource:     s.random,
		JobEnqueuer:      s.jobEnqueuer,
	}
}

// EnsureIdentifier returns the identifier already stored for packageID, or
// mints one when the package has none.
func (s *Service) EnsureIdentifier(ctx context.Context, packageID string) (IdentifierRecord, error) {
	record, err := s.GetIdentifier(ctx, packageID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return IdentifierRecord{}, err
	}
	record, err = s.Mint(ctx, packageID)
	if errors.Is(err, ErrPackageIdentified) {
		// lost a race with another minter for the same package
		return s.GetIdentifier(ctx, packageID)
	}
	return record, err
}

func (s *Service) GetIdentifier(ctx context.Context, packageID string) (record IdentifierRecord, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"package_id": packageID}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_identifier", err, fields)
	}()

	if s == nil || s.identifierStore == nil {
		return IdentifierRecord{}, s.mapError(fmt.Errorf("core: identifier store is required"))
	}
	packageID = strings.TrimSpace(packageID)
	if packageID == "" {
		return IdentifierRecord{}, s.mapError(fmt.Errorf("core: package id is required"))
	}
	record, err = s.identifierStore.GetByPackageID(ctx, packageID)
	if err != nil {
		err = s.mapError(err)
		return IdentifierRecord{}, err
	}
	return record, nil
}

func (s *Service) UpsertMetadata(ctx context.Context, in MetadataInput) (result MetadataUpsertResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"identifier": in.Identifier,
		"resource":   ResourceMetadata,
	}
	defer func() {
		if result.StatusCode > 0 {
			fields["registry_status"] = result.StatusCode
		}
		s.observeOperation(ctx, startedAt, "upsert_metadata", err, fields)
	}()

	if s == nil || s.metadataRegistry == nil {
		return MetadataUpsertResult{}, s.mapError(fmt.Errorf("core: metadata registry is required"))
	}
	if err = in.Validate(); err != nil {
		err = s.mapError(err)
		return MetadataUpsertResult{}, err
	}
	result, err = s.metadataRegistry.Upsert(ctx, in)
	if err != nil {
		err = s.mapError(err)
		return MetadataUpsertResult{}, err
	}
	return result, nil
}

func (s *Service) GetMetadata(ctx context.Context, doi string) (document []byte, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"identifier": doi, "resource": ResourceMetadata}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_metadata", err, fields)
	}()

	if s == nil || s.metadataRegistry == nil {
		return nil, s.mapError(fmt.Errorf("core: metadata registry is required"))
	}
	if doi, err = requireDOI(doi); err != nil {
		err = s.mapError(err)
		return nil, err
	}
	document, err = s.metadataRegistry.Get(ctx, doi)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return document, nil
}

func (s *Service) DeleteMetadata(ctx context.Context, doi string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"identifier": doi, "resource": ResourceMetadata}
	defer func() {
		s.observeOperation(ctx, startedAt, "delete_metadata", err, fields)
	}()

	if s == nil || s.metadataRegistry == nil {
		return s.mapError(fmt.Errorf("core: metadata registry is required"))
	}
	if doi, err = requireDOI(doi); err != nil {
		err = s.mapError(err)
		return err
	}
	if err = s.metadataRegistry.Delete(ctx, doi); err != nil {
		err = s.mapError(err)
		return err
	}
	return nil
}

func (s *Service) GetDOI(ctx context.Context, doi string) (url string, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"identifier": doi, "resource": ResourceDOI}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_doi", err, fields)
	}()

	if s == nil || s.doiRegistry == nil {
		return "", s.mapError(fmt.Errorf("core: doi registry is required"))
	}
	if doi, err = requireDOI(doi); err != nil {
		err = s.mapError(err)
		return "", err
	}
	url, err = s.doiRegistry.Get(ctx, doi)
	if err != nil {
		err = s.mapError(err)
		return "", err
	}
	return url, nil
}

func (s *Service) ListDOIs(ctx context.Context) (dois []string, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"resource": ResourceDOI}
	defer func() {
		fields["count"] = len(dois)
		s.observeOperation(ctx, startedAt, "list_dois", err, fields)
	}()

	if s == nil || s.doiRegistry == nil {
		return nil, s.mapError(fmt.Errorf("core: doi registry is required"))
	}
	dois, err = s.doiRegistry.List(ctx)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return dois, nil
}

func (s *Service) RegisterDOI(ctx context.Context, doi string, url string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"identifier": doi, "url": url, "resource": ResourceDOI}
	defer func() {
		s.observeOperation(ctx, startedAt, "register_doi", err, fields)
	}()

	if s == nil || s.doiRegistry == nil {
		return s.mapError(fmt.Errorf("core: doi registry is required"))
	}
	if doi, err = requireDOI(doi); err != nil {
		err = s.mapError(err)
		return err
	}
	url = strings.TrimSpace(url)
	if url == "" {
		err = s.mapError(fmt.Errorf("core: landing page url is required"))
		return err
	}
	if err = s.doiRegistry.Upsert(ctx, doi, url); err != nil {
		err = s.mapError(err)
		return err
	}
	return nil
}

func (s *Service) GetMedia(ctx context.Context, doi string) (entries []MediaEntry, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"identifier": doi, "resource": ResourceMedia}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_media", err, fields)
	}()

	if s == nil || s.mediaRegistry == nil {
		return nil, s.mapError(fmt.Errorf("core: media registry is required"))
	}
	if doi, err = requireDOI(doi); err != nil {
		err = s.mapError(err)
		return nil, err
	}
	entries, err = s.mediaRegistry.Get(ctx, doi)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return entries, nil
}

func (s *Service) UpsertMedia(ctx context.Context, doi string, entries []MediaEntry) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"identifier": doi, "resource": ResourceMedia, "count": len(entries)}
	defer func() {
		s.observeOperation(ctx, startedAt, "upsert_media", err, fields)
	}()

	if s == nil || s.mediaRegistry == nil {
		return s.mapError(fmt.Errorf("core: media registry is required"))
	}
	if doi, err = requireDOI(doi); err != nil {
		err = s.mapError(err)
		return err
	}
	if len(entries) == 0 {
		err = s.mapError(fmt.Errorf("core: media entries are required"))
		return err
	}
	for _, entry := range entries {
		if strings.TrimSpace(entry.MimeType) == "" || strings.TrimSpace(entry.URL) == "" {
			err = s.mapError(fmt.Errorf("core: media entry mime type and url are required"))
			return err
		}
	}
	if err = s.mediaRegistry.Upsert(ctx, doi, entries); err != nil {
		err = s.mapError(err)
		return err
	}
	return nil
}

// Publish uploads metadata and then points the DOI at the landing page.
// The registry rejects a DOI registration that has no metadata yet.
func (s *Service) Publish(ctx context.Context, req PublishRequest) (result PublishResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"identifier": req.Metadata.Identifier,
		"url":        req.URL,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "publish", err, fields)
	}()

	if err = req.Validate(); err != nil {
		err = s.mapError(err)
		return PublishResult{}, err
	}
	upserted, err := s.UpsertMetadata(ctx, req.Metadata)
	if err != nil {
		return PublishResult{}, err
	}
	doi := strings.TrimSpace(req.Metadata.Identifier)
	url := strings.TrimSpace(req.URL)
	if err = s.RegisterDOI(ctx, doi, url); err != nil {
		return PublishResult{}, err
	}
	return PublishResult{
		Identifier: doi,
		URL:        url,
		Metadata:   upserted,
	}, nil
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func requireDOI(doi string) (string, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return "", fmt.Errorf("core: doi is required")
	}
	if !strings.Contains(doi, "/") {
		return "", fmt.Errorf("core: doi %q is invalid", doi)
	}
	return doi, nil
}
