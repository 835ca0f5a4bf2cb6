package mds

import "github.com/goliatone/go-datacite/core"

// Registry bundles the resource APIs that share one Client.
type Registry struct {
	Client   *Client
	Metadata *MetadataAPI
	DOI      *DOIAPI
	Media    *MediaAPI
}

func New(cfg core.RegistryConfig, opts ...Option) (*Registry, error) {
	client, err := NewClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Registry{
		Client:   client,
		Metadata: NewMetadataAPI(client),
		DOI:      NewDOIAPI(client),
		Media:    NewMediaAPI(client),
	}, nil
}
