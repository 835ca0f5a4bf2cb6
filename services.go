package datacite

import (
	"github.com/goliatone/go-datacite/core"
	"github.com/goliatone/go-datacite/mds"
)

type Config = core.Config

type RegistryConfig = core.RegistryConfig

type MintingConfig = core.MintingConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type IdentifierStore = core.IdentifierStore
type MetadataRegistry = core.MetadataRegistry
type DOIRegistry = core.DOIRegistry
type MediaRegistry = core.MediaRegistry
type RandomSource = core.RandomSource
type JobEnqueuer = core.JobEnqueuer
type MetricsRecorder = core.MetricsRecorder

type IdentifierRecord = core.IdentifierRecord

type MetadataInput = core.MetadataInput

type MetadataOptions = core.MetadataOptions

type MediaEntry = core.MediaEntry

type PublishRequest = core.PublishRequest

type PublishJobRequest = core.PublishJobRequest

var (
	WithLogger           = core.WithLogger
	WithLoggerProvider   = core.WithLoggerProvider
	WithMetricsRecorder  = core.WithMetricsRecorder
	WithErrorFactory     = core.WithErrorFactory
	WithErrorMapper      = core.WithErrorMapper
	WithConfigProvider   = core.WithConfigProvider
	WithOptionsResolver  = core.WithOptionsResolver
	WithIdentifierStore  = core.WithIdentifierStore
	WithMetadataRegistry = core.WithMetadataRegistry
	WithDOIRegistry      = core.WithDOIRegistry
	WithMediaRegistry    = core.WithMediaRegistry
	WithRandomSource     = core.WithRandomSource
	WithJobEnqueuer      = core.WithJobEnqueuer
)

// WithRegistry wires all three resource APIs of an mds.Registry.
func WithRegistry(registry *mds.Registry) Option {
	if registry == nil {
		return nil
	}
	return core.WithRegistries(registry.Metadata, registry.DOI, registry.Media)
}

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewService builds a core.Service. Registry resources that no option
// supplies are served by an mds.Registry built from the resolved
// registry configuration.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	svc, err := core.NewService(cfg, opts...)
	if err != nil {
		return nil, err
	}
	deps := svc.Dependencies()
	if deps.MetadataRegistry != nil && deps.DOIRegistry != nil && deps.MediaRegistry != nil {
		return svc, nil
	}

	registry, err := mds.New(svc.Config().Registry, mds.WithLogger(deps.Logger))
	if err != nil {
		return nil, err
	}
	defaults := make([]Option, 0, 3)
	if deps.MetadataRegistry == nil {
		defaults = append(defaults, core.WithMetadataRegistry(registry.Metadata))
	}
	if deps.DOIRegistry == nil {
		defaults = append(defaults, core.WithDOIRegistry(registry.DOI))
	}
	if deps.MediaRegistry == nil {
		defaults = append(defaults, core.WithMediaRegistry(registry.Media))
	}
	return core.NewService(cfg, append(append([]Option{}, opts...), defaults...)...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}
