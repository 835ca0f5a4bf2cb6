package sqlstore

import "github.com/goliatone/go-datacite/core"

var (
	_ core.IdentifierStore = (*IdentifierStore)(nil)
	_ core.IdentifierStore = (*CachedIdentifierStore)(nil)
)
