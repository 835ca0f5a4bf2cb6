package command

import (
	"strings"

	"github.com/goliatone/go-datacite/core"
)

const (
	TypeMintIdentifier   = "datacite.command.identifier.mint"
	TypeEnsureIdentifier = "datacite.command.identifier.ensure"
	TypeUpsertMetadata   = "datacite.command.metadata.upsert"
	TypeDeleteMetadata   = "datacite.command.metadata.delete"
	TypeRegisterDOI      = "datacite.command.doi.register"
	TypeUpsertMedia      = "datacite.command.media.upsert"
	TypePublish          = "datacite.command.publish"
	TypeEnqueuePublish   = "datacite.command.publish.enqueue"
)

type MintIdentifierMessage struct {
	PackageID string
}

func (MintIdentifierMessage) Type() string { return TypeMintIdentifier }

func (m MintIdentifierMessage) Validate() error {
	return requirePackageID(m.PackageID)
}

type EnsureIdentifierMessage struct {
	PackageID string
}

func (EnsureIdentifierMessage) Type() string { return TypeEnsureIdentifier }

func (m EnsureIdentifierMessage) Validate() error {
	return requirePackageID(m.PackageID)
}

type UpsertMetadataMessage struct {
	Metadata core.MetadataInput
}

func (UpsertMetadataMessage) Type() string { return TypeUpsertMetadata }

func (m UpsertMetadataMessage) Validate() error {
	return commandWrapValidation(m.Metadata.Validate(), "command: invalid metadata")
}

type DeleteMetadataMessage struct {
	DOI string
}

func (DeleteMetadataMessage) Type() string { return TypeDeleteMetadata }

func (m DeleteMetadataMessage) Validate() error {
	return requireDOI(m.DOI)
}

type RegisterDOIMessage struct {
	DOI string
	URL string
}

func (RegisterDOIMessage) Type() string { return TypeRegisterDOI }

func (m RegisterDOIMessage) Validate() error {
	if err := requireDOI(m.DOI); err != nil {
		return err
	}
	if strings.TrimSpace(m.URL) == "" {
		return commandValidationError("url", "landing page url is required")
	}
	return nil
}

type UpsertMediaMessage struct {
	DOI     string
	Entries []core.MediaEntry
}

func (UpsertMediaMessage) Type() string { return TypeUpsertMedia }

func (m UpsertMediaMessage) Validate() error {
	if err := requireDOI(m.DOI); err != nil {
		return err
	}
	if len(m.Entries) == 0 {
		return commandValidationError("entries", "at least one media entry is required")
	}
	for _, entry := range m.Entries {
		if strings.TrimSpace(entry.MimeType) == "" || strings.TrimSpace(entry.URL) == "" {
			return commandValidationError("entries", "media entries need a mime type and url")
		}
	}
	return nil
}

type PublishMessage struct {
	Request core.PublishRequest
}

func (PublishMessage) Type() string { return TypePublish }

func (m PublishMessage) Validate() error {
	return commandWrapValidation(m.Request.Validate(), "command: invalid publish request")
}

type EnqueuePublishMessage struct {
	Request core.PublishJobRequest
}

func (EnqueuePublishMessage) Type() string { return TypeEnqueuePublish }

func (m EnqueuePublishMessage) Validate() error {
	return commandWrapValidation(m.Request.Validate(), "command: invalid publish job")
}

func requirePackageID(packageID string) error {
	if strings.TrimSpace(packageID) == "" {
		return commandValidationError("package_id", "package id is required")
	}
	return nil
}

func requireDOI(doi string) error {
	trimmed := strings.TrimSpace(doi)
	if trimmed == "" {
		return commandValidationError("doi", "doi is required")
	}
	if !strings.Contains(trimmed, "/") {
		return commandValidationError("doi", "doi must be <prefix>/<suffix>")
	}
	return nil
}
