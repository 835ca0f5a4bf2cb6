package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mint draws random candidates under the configured prefix until one is free
// both locally and at the registry, then persists it for packageID.
func (s *Service) Mint(ctx context.Context, packageID string) (record IdentifierRecord, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"package_id": packageID,
		"prefix":     s.Config().Prefix,
	}
	attempts := 0
	defer func() {
		fields["attempts"] = attempts
		if record.Identifier != "" {
			fields["identifier"] = record.Identifier
		}
		s.observeOperation(ctx, startedAt, "mint", err, fields)
	}()

	if s == nil || s.identifierStore == nil {
		return IdentifierRecord{}, s.mapError(fmt.Errorf("core: identifier store is required"))
	}
	if s.doiRegistry == nil {
		return IdentifierRecord{}, s.mapError(fmt.Errorf("core: doi registry is required"))
	}
	packageID = strings.TrimSpace(packageID)
	if packageID == "" {
		return IdentifierRecord{}, s.mapError(fmt.Errorf("core: package id is required"))
	}

	limit := s.config.Minting.maxAttempts()
	for attempts < limit {
		if ctxErr := contextError(ctx); ctxErr != nil {
			return IdentifierRecord{}, s.mapError(ctxErr)
		}
		attempts++
		candidate := s.nextCandidate()

		record, err = s.claimCandidate(ctx, packageID, candidate)
		if errors.Is(err, errCandidateTaken) {
			s.logDebug(ctx, "mint candidate rejected", map[string]any{
				"package_id": packageID,
				"candidate":  candidate,
				"attempt":    attempts,
				"reason":     strings.TrimPrefix(err.Error(), errCandidateTaken.Error()+": "),
			})
			s.recordCounter(ctx, "datacite.mint.candidate_rejected", 1, map[string]string{
				"prefix": s.config.Prefix,
			})
			err = nil
			continue
		}
		if err != nil {
			return IdentifierRecord{}, s.mapError(err)
		}
		return record, nil
	}

	err = fmt.Errorf("%w: %d attempts under prefix %s", ErrIdentifierSpaceExhausted, attempts, s.config.Prefix)
	return IdentifierRecord{}, s.mapError(err)
}

func (s *Service) nextCandidate() string {
	return FormatIdentifier(s.config.Prefix, s.random.IntN(s.config.Minting.upperBound())+1)
}

func (s *Service) claimCandidate(ctx context.Context, packageID string, candidate string) (IdentifierRecord, error) {
	exists, err := s.identifierStore.ExistsByIdentifier(ctx, candidate)
	if err != nil {
		return IdentifierRecord{}, err
	}
	if exists {
		return IdentifierRecord{}, fmt.Errorf("%w: local record", errCandidateTaken)
	}

	registered, err := s.doiRegistry.Get(ctx, candidate)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return IdentifierRecord{}, err
	case strings.TrimSpace(registered) != "":
		return IdentifierRecord{}, fmt.Errorf("%w: registered remotely", errCandidateTaken)
	}

	record, err := s.identifierStore.Create(ctx, CreateIdentifierInput{
		PackageID:  packageID,
		Identifier: candidate,
	})
	if errors.Is(err, ErrIdentifierConflict) {
		return IdentifierRecord{}, fmt.Errorf("%w: concurrent write", errCandidateTaken)
	}
	if err != nil {
		return IdentifierRecord{}, err
	}
	return record, nil
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
