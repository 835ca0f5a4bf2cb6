package query

import (
	"strings"
)

const (
	TypeGetIdentifier = "datacite.query.identifier.get"
	TypeGetMetadata   = "datacite.query.metadata.get"
	TypeGetDOI        = "datacite.query.doi.get"
	TypeListDOIs      = "datacite.query.doi.list"
	TypeGetMedia      = "datacite.query.media.get"
)

type GetIdentifierMessage struct {
	PackageID string
}

func (GetIdentifierMessage) Type() string { return TypeGetIdentifier }

func (m GetIdentifierMessage) Validate() error {
	if strings.TrimSpace(m.PackageID) == "" {
		return queryValidationError("package_id", "package id is required")
	}
	return nil
}

type GetMetadataMessage struct {
	DOI string
}

func (GetMetadataMessage) Type() string { return TypeGetMetadata }

func (m GetMetadataMessage) Validate() error {
	return requireDOI(m.DOI)
}

type GetDOIMessage struct {
	DOI string
}

func (GetDOIMessage) Type() string { return TypeGetDOI }

func (m GetDOIMessage) Validate() error {
	return requireDOI(m.DOI)
}

// ListDOIsMessage lists every DOI registered under the configured account.
type ListDOIsMessage struct{}

func (ListDOIsMessage) Type() string { return TypeListDOIs }

func (ListDOIsMessage) Validate() error { return nil }

type GetMediaMessage struct {
	DOI string
}

func (GetMediaMessage) Type() string { return TypeGetMedia }

func (m GetMediaMessage) Validate() error {
	return requireDOI(m.DOI)
}

func requireDOI(doi string) error {
	trimmed := strings.TrimSpace(doi)
	if trimmed == "" {
		return queryValidationError("doi", "doi is required")
	}
	if !strings.Contains(trimmed, "/") {
		return queryValidationError("doi", "doi must be <prefix>/<suffix>")
	}
	return nil
}
