package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-datacite/core"
	"github.com/uptrace/bun"
)

const identifierTable = "datacite_package_identifiers"

type identifierRecord struct {
	bun.BaseModel `bun:"table:datacite_package_identifiers,alias:dpi"`

	ID         string    `bun:"id,pk"`
	PackageID  string    `bun:"package_id,notnull,unique"`
	Identifier string    `bun:"identifier,notnull,unique"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func newIdentifierRecord(in core.CreateIdentifierInput, now time.Time) *identifierRecord {
	return &identifierRecord{
		PackageID:  strings.TrimSpace(in.PackageID),
		Identifier: strings.TrimSpace(in.Identifier),
		CreatedAt:  now.UTC(),
	}
}

func (r *identifierRecord) toDomain() core.IdentifierRecord {
	if r == nil {
		return core.IdentifierRecord{}
	}
	return core.IdentifierRecord{
		ID:         r.ID,
		PackageID:  r.PackageID,
		Identifier: r.Identifier,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}
