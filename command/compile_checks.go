package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-datacite/core"
)

var (
	_ gocmd.Commander[MintIdentifierMessage]   = (*MintIdentifierCommand)(nil)
	_ gocmd.Commander[EnsureIdentifierMessage] = (*EnsureIdentifierCommand)(nil)
	_ gocmd.Commander[UpsertMetadataMessage]   = (*UpsertMetadataCommand)(nil)
	_ gocmd.Commander[DeleteMetadataMessage]   = (*DeleteMetadataCommand)(nil)
	_ gocmd.Commander[RegisterDOIMessage]      = (*RegisterDOICommand)(nil)
	_ gocmd.Commander[UpsertMediaMessage]      = (*UpsertMediaCommand)(nil)
	_ gocmd.Commander[PublishMessage]          = (*PublishCommand)(nil)
	_ gocmd.Commander[EnqueuePublishMessage]   = (*EnqueuePublishCommand)(nil)

	_ MutatingService = core.DOIService(nil)
)
