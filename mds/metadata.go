package mds

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-datacite/core"
)

const (
	contentTypeXML   = "application/xml"
	contentTypePlain = "text/plain;charset=UTF-8"
	headerLocation   = "Location"
	headerContent    = "Content-Type"
)

// MetadataAPI talks to the /metadata resource.
type MetadataAPI struct {
	client *Client
}

func NewMetadataAPI(client *Client) *MetadataAPI {
	return &MetadataAPI{client: client}
}

// Get returns the most recent metadata document stored for doi.
func (a *MetadataAPI) Get(ctx context.Context, doi string) ([]byte, error) {
	res, err := a.client.Call(ctx, core.ResourceMetadata, CallRequest{Path: doi})
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

// Upsert stores a new version of the metadata. The registry answers 201 on
// success; any other status is reported as ErrUpsertFailed.
func (a *MetadataAPI) Upsert(ctx context.Context, in core.MetadataInput) (core.MetadataUpsertResult, error) {
	doc, err := BuildDocument(in)
	if err != nil {
		return core.MetadataUpsertResult{}, err
	}
	res, err := a.client.Call(ctx, core.ResourceMetadata, CallRequest{
		Method:  http.MethodPost,
		Body:    doc,
		Headers: map[string]string{headerContent: contentTypeXML},
	})
	if err != nil {
		var httpErr *core.HTTPError
		if errors.As(err, &httpErr) {
			return core.MetadataUpsertResult{}, fmt.Errorf("%w: %w", core.ErrUpsertFailed, err)
		}
		return core.MetadataUpsertResult{}, err
	}
	if res.StatusCode != http.StatusCreated {
		return core.MetadataUpsertResult{}, fmt.Errorf("%w: status %d", core.ErrUpsertFailed, res.StatusCode)
	}
	return core.MetadataUpsertResult{
		StatusCode: res.StatusCode,
		Location:   res.Header(headerLocation),
		Body:       strings.TrimSpace(string(res.Body)),
	}, nil
}

// Delete marks the dataset behind doi as inactive.
func (a *MetadataAPI) Delete(ctx context.Context, doi string) error {
	_, err := a.client.Call(ctx, core.ResourceMetadata, CallRequest{Path: doi, Method: http.MethodDelete})
	return err
}

var _ core.MetadataRegistry = (*MetadataAPI)(nil)
