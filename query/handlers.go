package query

import (
	"context"

	"github.com/goliatone/go-datacite/core"
)

// ReadingService is the read side of core.Service.
type ReadingService interface {
	GetIdentifier(ctx context.Context, packageID string) (core.IdentifierRecord, error)
	GetMetadata(ctx context.Context, doi string) ([]byte, error)
	GetDOI(ctx context.Context, doi string) (string, error)
	ListDOIs(ctx context.Context) ([]string, error)
	GetMedia(ctx context.Context, doi string) ([]core.MediaEntry, error)
}

type GetIdentifierQuery struct {
	reader ReadingService
}

func NewGetIdentifierQuery(reader ReadingService) *GetIdentifierQuery {
	return &GetIdentifierQuery{reader: reader}
}

func (q *GetIdentifierQuery) Query(ctx context.Context, msg GetIdentifierMessage) (core.IdentifierRecord, error) {
	if q == nil || q.reader == nil {
		return core.IdentifierRecord{}, queryDependencyError("query: identifier reader is required")
	}
	return q.reader.GetIdentifier(ctx, msg.PackageID)
}

type GetMetadataQuery struct {
	reader ReadingService
}

func NewGetMetadataQuery(reader ReadingService) *GetMetadataQuery {
	return &GetMetadataQuery{reader: reader}
}

// Query returns the raw metadata XML document stored for the DOI.
func (q *GetMetadataQuery) Query(ctx context.Context, msg GetMetadataMessage) ([]byte, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: metadata reader is required")
	}
	return q.reader.GetMetadata(ctx, msg.DOI)
}

type GetDOIQuery struct {
	reader ReadingService
}

func NewGetDOIQuery(reader ReadingService) *GetDOIQuery {
	return &GetDOIQuery{reader: reader}
}

// Query returns the landing page URL the DOI resolves to.
func (q *GetDOIQuery) Query(ctx context.Context, msg GetDOIMessage) (string, error) {
	if q == nil || q.reader == nil {
		return "", queryDependencyError("query: doi reader is required")
	}
	return q.reader.GetDOI(ctx, msg.DOI)
}

type ListDOIsQuery struct {
	reader ReadingService
}

func NewListDOIsQuery(reader ReadingService) *ListDOIsQuery {
	return &ListDOIsQuery{reader: reader}
}

func (q *ListDOIsQuery) Query(ctx context.Context, _ ListDOIsMessage) ([]string, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: doi reader is required")
	}
	return q.reader.ListDOIs(ctx)
}

type GetMediaQuery struct {
	reader ReadingService
}

func NewGetMediaQuery(reader ReadingService) *GetMediaQuery {
	return &GetMediaQuery{reader: reader}
}

func (q *GetMediaQuery) Query(ctx context.Context, msg GetMediaMessage) ([]core.MediaEntry, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: media reader is required")
	}
	return q.reader.GetMedia(ctx, msg.DOI)
}
