package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-datacite/core"
)

var (
	_ gocmd.Querier[GetIdentifierMessage, core.IdentifierRecord] = (*GetIdentifierQuery)(nil)
	_ gocmd.Querier[GetMetadataMessage, []byte]                  = (*GetMetadataQuery)(nil)
	_ gocmd.Querier[GetDOIMessage, string]                       = (*GetDOIQuery)(nil)
	_ gocmd.Querier[ListDOIsMessage, []string]                   = (*ListDOIsQuery)(nil)
	_ gocmd.Querier[GetMediaMessage, []core.MediaEntry]          = (*GetMediaQuery)(nil)

	_ ReadingService = core.DOIService(nil)
)
