package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func identifierHandlers() repository.ModelHandlers[*identifierRecord] {
	return repository.ModelHandlers[*identifierRecord]{
		NewRecord: func() *identifierRecord {
			return &identifierRecord{}
		},
		GetID: func(record *identifierRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *identifierRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "identifier"
		},
		GetIdentifierValue: func(record *identifierRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.Identifier)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
