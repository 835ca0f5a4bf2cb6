package datacite

import (
	"fmt"

	dcommand "github.com/goliatone/go-datacite/command"
	dquery "github.com/goliatone/go-datacite/query"
)

type CommandQueryService interface {
	dcommand.MutatingService
	dquery.ReadingService
}

type Commands struct {
	MintIdentifier   *dcommand.MintIdentifierCommand
	EnsureIdentifier *dcommand.EnsureIdentifierCommand
	UpsertMetadata   *dcommand.UpsertMetadataCommand
	DeleteMetadata   *dcommand.DeleteMetadataCommand
	RegisterDOI      *dcommand.RegisterDOICommand
	UpsertMedia      *dcommand.UpsertMediaCommand
	Publish          *dcommand.PublishCommand
	EnqueuePublish   *dcommand.EnqueuePublishCommand
}

type Queries struct {
	GetIdentifier *dquery.GetIdentifierQuery
	GetMetadata   *dquery.GetMetadataQuery
	GetDOI        *dquery.GetDOIQuery
	ListDOIs      *dquery.ListDOIsQuery
	GetMedia      *dquery.GetMediaQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("datacite: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		MintIdentifier:   dcommand.NewMintIdentifierCommand(service),
		EnsureIdentifier: dcommand.NewEnsureIdentifierCommand(service),
		UpsertMetadata:   dcommand.NewUpsertMetadataCommand(service),
		DeleteMetadata:   dcommand.NewDeleteMetadataCommand(service),
		RegisterDOI:      dcommand.NewRegisterDOICommand(service),
		UpsertMedia:      dcommand.NewUpsertMediaCommand(service),
		Publish:          dcommand.NewPublishCommand(service),
		EnqueuePublish:   dcommand.NewEnqueuePublishCommand(service),
	}
	facade.queries = Queries{
		GetIdentifier: dquery.NewGetIdentifierQuery(service),
		GetMetadata:   dquery.NewGetMetadataQuery(service),
		GetDOI:        dquery.NewGetDOIQuery(service),
		ListDOIs:      dquery.NewListDOIsQuery(service),
		GetMedia:      dquery.NewGetMediaQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
