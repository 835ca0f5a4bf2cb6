package core

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestHTTPError_NotFoundMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("lookup: %w", &HTTPError{StatusCode: http.StatusNotFound, Method: "GET", URL: "/doi/x"})
	if !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("expected 404 to match ErrNotFound")
	}
	if StatusCode(err) != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", StatusCode(err))
	}

	other := &HTTPError{StatusCode: http.StatusInternalServerError}
	if stderrors.Is(other, ErrNotFound) {
		t.Fatalf("expected 500 not to match ErrNotFound")
	}
}

func TestMapError_AssignsStableCodes(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		textCode string
		category goerrors.Category
	}{
		{"not found", &HTTPError{StatusCode: 404}, ErrorTextNotFound, goerrors.CategoryNotFound},
		{"unauthorized", &HTTPError{StatusCode: 401}, ErrorTextUnauthorized, goerrors.CategoryAuth},
		{"registry 500", &HTTPError{StatusCode: 500}, ErrorTextRegistryFailure, goerrors.CategoryExternal},
		{"upsert", fmt.Errorf("%w: status 200", ErrUpsertFailed), ErrorTextUpsertFailed, goerrors.CategoryExternal},
		{"upsert rejected", fmt.Errorf("%w: %w", ErrUpsertFailed, &HTTPError{StatusCode: 400}), ErrorTextUpsertFailed, goerrors.CategoryBadInput},
		{"upsert registry 500", fmt.Errorf("%w: %w", ErrUpsertFailed, &HTTPError{StatusCode: 500}), ErrorTextUpsertFailed, goerrors.CategoryExternal},
		{"identifier conflict", ErrIdentifierConflict, ErrorTextIdentifierConflict, goerrors.CategoryConflict},
		{"exhausted", ErrIdentifierSpaceExhausted, ErrorTextSpaceExhausted, goerrors.CategoryOperation},
		{"package", ErrPackageIdentified, ErrorTextPackageIdentified, goerrors.CategoryConflict},
		{"validation", stderrors.New("core: prefix is required"), ErrorTextBadInput, goerrors.CategoryBadInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := MapError(tc.err)
			if mapped.TextCode != tc.textCode {
				t.Fatalf("expected text code %q, got %q", tc.textCode, mapped.TextCode)
			}
			if mapped.Category != tc.category {
				t.Fatalf("expected category %q, got %q", tc.category, mapped.Category)
			}
			if mapped.Code == 0 {
				t.Fatalf("expected http status code on mapped error")
			}
			if !stderrors.Is(mapped, tc.err) {
				t.Fatalf("expected mapped error to keep its source")
			}
		})
	}
}

func TestMapError_KeepsExistingEnvelope(t *testing.T) {
	rich := goerrors.New("already mapped", goerrors.CategoryRateLimit)
	mapped := MapError(rich)
	if mapped != rich {
		t.Fatalf("expected the same envelope to be returned")
	}
	if mapped.TextCode != ErrorTextRateLimited {
		t.Fatalf("expected default text code, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", mapped.Code)
	}
}
