package core

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig    Config
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

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithIdentifierStore(store IdentifierStore) Option {
	return func(b *serviceBuilder) {
		b.identifierStore = store
	}
}

func WithMetadataRegistry(registry MetadataRegistry) Option {
	return func(b *serviceBuilder) {
		b.metadataRegistry = registry
	}
}

func WithDOIRegistry(registry DOIRegistry) Option {
	return func(b *serviceBuilder) {
		b.doiRegistry = registry
	}
}

func WithMediaRegistry(registry MediaRegistry) Option {
	return func(b *serviceBuilder) {
		b.mediaRegistry = registry
	}
}

// WithRegistries sets the three registry resources in one option. Nil
// arguments leave the matching resource untouched.
func WithRegistries(metadata MetadataRegistry, doi DOIRegistry, media MediaRegistry) Option {
	return func(b *serviceBuilder) {
		if metadata != nil {
			b.metadataRegistry = metadata
		}
		if doi != nil {
			b.doiRegistry = doi
		}
		if media != nil {
			b.mediaRegistry = media
		}
	}
}

func WithRandomSource(random RandomSource) Option {
	return func(b *serviceBuilder) {
		b.random = random
	}
}

func WithJobEnqueuer(enqueuer JobEnqueuer) Option {
	return func(b *serviceBuilder) {
		b.jobEnqueuer = enqueuer
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *serviceBuilder) {
		b.now = now
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("datacite", nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     MapError,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		random:          mathRandomSource{},
		now:             time.Now,
	}
}

type mathRandomSource struct{}

func (mathRandomSource) IntN(n int) int {
	return rand.IntN(n)
}

type StaticRawConfigLoader struct {
	Values map[string]any
}

func (l StaticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

// Load decodes raw configuration over defaults. Validation runs after the
// runtime layer is merged, since credentials often arrive only at runtime.
func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = StaticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw, cfgx.WithDefaults(defaults))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || strings.TrimSpace(cfg.Prefix) != "" {
		layer["prefix"] = strings.TrimSpace(cfg.Prefix)
	}

	registry := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Registry.Endpoint) != "" {
		registry["endpoint"] = strings.TrimSpace(cfg.Registry.Endpoint)
	}
	if includeZero || strings.TrimSpace(cfg.Registry.AccountName) != "" {
		registry["account_name"] = strings.TrimSpace(cfg.Registry.AccountName)
	}
	if includeZero || cfg.Registry.AccountPassword != "" {
		registry["account_password"] = cfg.Registry.AccountPassword
	}
	if includeZero || cfg.Registry.Timeout > 0 {
		registry["timeout"] = cfg.Registry.Timeout
	}
	if len(registry) > 0 {
		layer["registry"] = registry
	}

	minting := map[string]any{}
	if includeZero || cfg.Minting.MaxAttempts > 0 {
		minting["max_attempts"] = cfg.Minting.MaxAttempts
	}
	if includeZero || cfg.Minting.UpperBound > 0 {
		minting["upper_bound"] = cfg.Minting.UpperBound
	}
	if len(minting) > 0 {
		layer["minting"] = minting
	}
	return layer
}
