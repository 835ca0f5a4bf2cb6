package gocommand

import (
	"fmt"

	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	datacite "github.com/goliatone/go-datacite"
	dcommand "github.com/goliatone/go-datacite/command"
	"github.com/goliatone/go-datacite/core"
	dquery "github.com/goliatone/go-datacite/query"
)

// Subscriptions holds every dispatcher subscription made by RegisterFacade.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, subscription := range s {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}

// RegisterFacade registers every facade command with the registry and
// subscribes commands and queries on the global dispatcher. On failure the
// subscriptions made so far are released.
func RegisterFacade(
	adapter *RegistryAdapter,
	facade *datacite.Facade,
	runnerOpts ...runner.Option,
) (subs Subscriptions, err error) {
	if facade == nil {
		return nil, fmt.Errorf("gocommand: facade is required")
	}
	defer func() {
		if err != nil {
			subs.Unsubscribe()
			subs = nil
		}
	}()

	add := func(sub commanddispatcher.Subscription, subErr error) {
		if err != nil {
			return
		}
		if subErr != nil {
			err = subErr
			return
		}
		subs = append(subs, sub)
	}

	commands := facade.Commands()
	add(RegisterAndSubscribe[dcommand.MintIdentifierMessage](adapter, commands.MintIdentifier, runnerOpts...))
	add(RegisterAndSubscribe[dcommand.EnsureIdentifierMessage](adapter, commands.EnsureIdentifier, runnerOpts...))
	add(RegisterAndSubscribe[dcommand.UpsertMetadataMessage](adapter, commands.UpsertMetadata, runnerOpts...))
	add(RegisterAndSubscribe[dcommand.DeleteMetadataMessage](adapter, commands.DeleteMetadata, runnerOpts...))
	add(RegisterAndSubscribe[dcommand.RegisterDOIMessage](adapter, commands.RegisterDOI, runnerOpts...))
	add(RegisterAndSubscribe[dcommand.UpsertMediaMessage](adapter, commands.UpsertMedia, runnerOpts...))
	add(RegisterAndSubscribe[dcommand.PublishMessage](adapter, commands.Publish, runnerOpts...))
	add(RegisterAndSubscribe[dcommand.EnqueuePublishMessage](adapter, commands.EnqueuePublish, runnerOpts...))

	queries := facade.Queries()
	add(SubscribeQuery[dquery.GetIdentifierMessage, core.IdentifierRecord](queries.GetIdentifier, runnerOpts...))
	add(SubscribeQuery[dquery.GetMetadataMessage, []byte](queries.GetMetadata, runnerOpts...))
	add(SubscribeQuery[dquery.GetDOIMessage, string](queries.GetDOI, runnerOpts...))
	add(SubscribeQuery[dquery.ListDOIsMessage, []string](queries.ListDOIs, runnerOpts...))
	add(SubscribeQuery[dquery.GetMediaMessage, []core.MediaEntry](queries.GetMedia, runnerOpts...))
	return subs, err
}
