package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-datacite/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
)

const createSavepoint = "datacite_identifier_create"

const pqUniqueViolation = "23505"

// IdentifierStore persists package identifiers in datacite_package_identifiers.
// Both package_id and identifier are unique; Create reports which one a
// duplicate insert collided with.
type IdentifierStore struct {
	db   *bun.DB
	repo repository.Repository[*identifierRecord]
	now  func() time.Time
}

func NewIdentifierStore(db *bun.DB) (*IdentifierStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*identifierRecord](db, identifierHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid identifier repository wiring: %w", err)
		}
	}
	return &IdentifierStore{
		db:   db,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create inserts a new record. Inside a caller transaction (ContextWithTx)
// the insert runs under a savepoint so a duplicate leaves the transaction
// usable.
func (s *IdentifierStore) Create(ctx context.Context, in core.CreateIdentifierInput) (core.IdentifierRecord, error) {
	if s == nil || s.db == nil {
		return core.IdentifierRecord{}, fmt.Errorf("sqlstore: identifier store is not configured")
	}
	if err := in.Validate(); err != nil {
		return core.IdentifierRecord{}, err
	}
	record := newIdentifierRecord(in, s.now())
	record.ID = uuid.NewString()

	var err error
	if tx, ok := txFromContext(ctx); ok {
		err = insertWithSavepoint(ctx, tx, record)
	} else {
		err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			_, insertErr := tx.NewInsert().Model(record).Exec(ctx)
			return insertErr
		})
	}
	if err != nil {
		return core.IdentifierRecord{}, classifyCreateError(err, record)
	}
	return record.toDomain(), nil
}

func (s *IdentifierStore) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: identifier store is not configured")
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return false, fmt.Errorf("sqlstore: identifier is required")
	}
	return s.idb(ctx).NewSelect().
		Model((*identifierRecord)(nil)).
		Where("?TableAlias.identifier = ?", identifier).
		Exists(ctx)
}

func (s *IdentifierStore) GetByPackageID(ctx context.Context, packageID string) (core.IdentifierRecord, error) {
	return s.findOne(ctx, "package_id", packageID)
}

func (s *IdentifierStore) GetByIdentifier(ctx context.Context, identifier string) (core.IdentifierRecord, error) {
	return s.findOne(ctx, "identifier", identifier)
}

func (s *IdentifierStore) findOne(ctx context.Context, column string, value string) (core.IdentifierRecord, error) {
	if s == nil || s.repo == nil {
		return core.IdentifierRecord{}, fmt.Errorf("sqlstore: identifier store is not configured")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return core.IdentifierRecord{}, fmt.Errorf("sqlstore: %s is required", column)
	}

	if tx, ok := txFromContext(ctx); ok {
		record := &identifierRecord{}
		err := tx.NewSelect().
			Model(record).
			Where("?TableAlias.? = ?", bun.Ident(column), value).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return core.IdentifierRecord{}, fmt.Errorf("%w: %s %q", core.ErrNotFound, column, value)
		}
		if err != nil {
			return core.IdentifierRecord{}, err
		}
		return record.toDomain(), nil
	}

	records, _, err := s.repo.List(ctx,
		repository.SelectBy(column, "=", value),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.IdentifierRecord{}, err
	}
	if len(records) == 0 {
		return core.IdentifierRecord{}, fmt.Errorf("%w: %s %q", core.ErrNotFound, column, value)
	}
	return records[0].toDomain(), nil
}

func (s *IdentifierStore) idb(ctx context.Context) bun.IDB {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return s.db
}

func insertWithSavepoint(ctx context.Context, tx bun.Tx, record *identifierRecord) error {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+createSavepoint); err != nil {
		return err
	}
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		if _, rollbackErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+createSavepoint); rollbackErr != nil {
			return errors.Join(err, rollbackErr)
		}
		return err
	}
	_, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+createSavepoint)
	return err
}

func classifyCreateError(err error, record *identifierRecord) error {
	if !isUniqueViolation(err) {
		return err
	}
	if violatesPackageID(err) {
		return fmt.Errorf("%w: package %q", core.ErrPackageIdentified, record.PackageID)
	}
	return fmt.Errorf("%w: %q", core.ErrIdentifierConflict, record.Identifier)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqUniqueViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}

// violatesPackageID reports whether the duplicate hit the package_id
// constraint rather than the identifier one.
func violatesPackageID(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Constraint != "" {
		return strings.HasSuffix(pqErr.Constraint, "_package_id_key")
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, identifierTable+".package_id") ||
		strings.Contains(message, "_package_id_key")
}
