package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-datacite/core"
)

// MutatingService is the write side of core.Service.
type MutatingService interface {
	Mint(ctx context.Context, packageID string) (core.IdentifierRecord, error)
	EnsureIdentifier(ctx context.Context, packageID string) (core.IdentifierRecord, error)
	UpsertMetadata(ctx context.Context, in core.MetadataInput) (core.MetadataUpsertResult, error)
	DeleteMetadata(ctx context.Context, doi string) error
	RegisterDOI(ctx context.Context, doi string, url string) error
	UpsertMedia(ctx context.Context, doi string, entries []core.MediaEntry) error
	Publish(ctx context.Context, req core.PublishRequest) (core.PublishResult, error)
	EnqueuePublish(ctx context.Context, req core.PublishJobRequest) error
}

type MintIdentifierCommand struct {
	service MutatingService
}

func NewMintIdentifierCommand(service MutatingService) *MintIdentifierCommand {
	return &MintIdentifierCommand{service: service}
}

func (c *MintIdentifierCommand) Execute(ctx context.Context, msg MintIdentifierMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: mint service is required")
	}
	out, err := c.service.Mint(ctx, msg.PackageID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type EnsureIdentifierCommand struct {
	service MutatingService
}

func NewEnsureIdentifierCommand(service MutatingService) *EnsureIdentifierCommand {
	return &EnsureIdentifierCommand{service: service}
}

func (c *EnsureIdentifierCommand) Execute(ctx context.Context, msg EnsureIdentifierMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: ensure identifier service is required")
	}
	out, err := c.service.EnsureIdentifier(ctx, msg.PackageID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpsertMetadataCommand struct {
	service MutatingService
}

func NewUpsertMetadataCommand(service MutatingService) *UpsertMetadataCommand {
	return &UpsertMetadataCommand{service: service}
}

func (c *UpsertMetadataCommand) Execute(ctx context.Context, msg UpsertMetadataMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: metadata service is required")
	}
	out, err := c.service.UpsertMetadata(ctx, msg.Metadata)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteMetadataCommand struct {
	service MutatingService
}

func NewDeleteMetadataCommand(service MutatingService) *DeleteMetadataCommand {
	return &DeleteMetadataCommand{service: service}
}

func (c *DeleteMetadataCommand) Execute(ctx context.Context, msg DeleteMetadataMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: metadata service is required")
	}
	return c.service.DeleteMetadata(ctx, msg.DOI)
}

type RegisterDOICommand struct {
	service MutatingService
}

func NewRegisterDOICommand(service MutatingService) *RegisterDOICommand {
	return &RegisterDOICommand{service: service}
}

func (c *RegisterDOICommand) Execute(ctx context.Context, msg RegisterDOIMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: doi service is required")
	}
	return c.service.RegisterDOI(ctx, msg.DOI, msg.URL)
}

type UpsertMediaCommand struct {
	service MutatingService
}

func NewUpsertMediaCommand(service MutatingService) *UpsertMediaCommand {
	return &UpsertMediaCommand{service: service}
}

func (c *UpsertMediaCommand) Execute(ctx context.Context, msg UpsertMediaMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: media service is required")
	}
	return c.service.UpsertMedia(ctx, msg.DOI, msg.Entries)
}

type PublishCommand struct {
	service MutatingService
}

func NewPublishCommand(service MutatingService) *PublishCommand {
	return &PublishCommand{service: service}
}

func (c *PublishCommand) Execute(ctx context.Context, msg PublishMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: publish service is required")
	}
	out, err := c.service.Publish(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type EnqueuePublishCommand struct {
	service MutatingService
}

func NewEnqueuePublishCommand(service MutatingService) *EnqueuePublishCommand {
	return &EnqueuePublishCommand{service: service}
}

func (c *EnqueuePublishCommand) Execute(ctx context.Context, msg EnqueuePublishMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: publish service is required")
	}
	return c.service.EnqueuePublish(ctx, msg.Request)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
