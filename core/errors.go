package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorTextBadInput           = "DATACITE_BAD_INPUT"
	ErrorTextNotFound           = "DATACITE_NOT_FOUND"
	ErrorTextRegistryFailure    = "DATACITE_REGISTRY_FAILURE"
	ErrorTextTransportFailure   = "DATACITE_TRANSPORT_FAILURE"
	ErrorTextUpsertFailed       = "DATACITE_METADATA_UPSERT_FAILED"
	ErrorTextIdentifierConflict = "DATACITE_IDENTIFIER_CONFLICT"
	ErrorTextPackageIdentified  = "DATACITE_PACKAGE_ALREADY_IDENTIFIED"
	ErrorTextSpaceExhausted     = "DATACITE_IDENTIFIER_SPACE_EXHAUSTED"
	ErrorTextUnauthorized       = "DATACITE_UNAUTHORIZED"
	ErrorTextForbidden          = "DATACITE_FORBIDDEN"
	ErrorTextRateLimited        = "DATACITE_RATE_LIMITED"
	ErrorTextInternal           = "DATACITE_INTERNAL_ERROR"
)

var (
	ErrNotFound                 = errors.New("datacite: not found")
	ErrUpsertFailed             = errors.New("datacite: metadata upsert failed")
	ErrIdentifierConflict       = errors.New("datacite: identifier already exists")
	ErrPackageIdentified        = errors.New("datacite: package already has an identifier")
	ErrIdentifierSpaceExhausted = errors.New("datacite: no free identifier found")

	// errCandidateTaken drives the mint retry loop and never leaves Mint.
	errCandidateTaken = errors.New("datacite: candidate identifier taken")
)

// HTTPError is returned for any registry response with an error status.
// A 404 matches ErrNotFound.
type HTTPError struct {
	StatusCode int
	Body       string
	Method     string
	URL        string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "datacite: http error"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("datacite: %s %s returned %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("datacite: %s %s returned %d: %s", e.Method, e.URL, e.StatusCode, body)
}

func (e *HTTPError) Is(target error) bool {
	return e != nil && target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// StatusCode extracts the registry status from err, or 0 if err is not an
// HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// MapError converts any error into a go-errors envelope carrying a DATACITE_*
// text code and an HTTP status suitable for callers that expose the service.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		category := registryStatusCategory(httpErr.StatusCode)
		textCode := registryStatusTextCode(httpErr.StatusCode)
		if errors.Is(err, ErrUpsertFailed) {
			textCode = ErrorTextUpsertFailed
		}
		mapped := goerrors.Wrap(err, category, "registry request failed").
			WithCode(httpErr.StatusCode).
			WithTextCode(textCode)
		mapped.WithMetadata(map[string]any{
			"status_code": httpErr.StatusCode,
			"method":      httpErr.Method,
			"url":         httpErr.URL,
		})
		return mapped
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return wrapError(err, goerrors.CategoryNotFound, ErrorTextNotFound)
	case errors.Is(err, ErrUpsertFailed):
		return wrapError(err, goerrors.CategoryExternal, ErrorTextUpsertFailed)
	case errors.Is(err, ErrIdentifierConflict):
		return wrapError(err, goerrors.CategoryConflict, ErrorTextIdentifierConflict)
	case errors.Is(err, ErrPackageIdentified):
		return wrapError(err, goerrors.CategoryConflict, ErrorTextPackageIdentified)
	case errors.Is(err, ErrIdentifierSpaceExhausted):
		return wrapError(err, goerrors.CategoryOperation, ErrorTextSpaceExhausted)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	if strings.Contains(msg, "required") || strings.Contains(msg, "invalid") {
		return wrapError(err, goerrors.CategoryBadInput, ErrorTextBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

// wrapError keeps err as the source so errors.Is still matches sentinels
// through the envelope.
func wrapError(err error, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.Wrap(err, category, err.Error()).
			WithTextCode(textCode),
	)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = categoryHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = CategoryTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

// CategoryTextCode returns the default DATACITE_* text code for a category.
func CategoryTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorTextBadInput
	case goerrors.CategoryNotFound:
		return ErrorTextNotFound
	case goerrors.CategoryAuth:
		return ErrorTextUnauthorized
	case goerrors.CategoryAuthz:
		return ErrorTextForbidden
	case goerrors.CategoryConflict:
		return ErrorTextIdentifierConflict
	case goerrors.CategoryRateLimit:
		return ErrorTextRateLimited
	case goerrors.CategoryExternal:
		return ErrorTextTransportFailure
	case goerrors.CategoryOperation:
		return ErrorTextRegistryFailure
	default:
		return ErrorTextInternal
	}
}

func categoryHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func registryStatusCategory(status int) goerrors.Category {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return goerrors.CategoryBadInput
	case http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case http.StatusForbidden:
		return goerrors.CategoryAuthz
	case http.StatusNotFound, http.StatusGone:
		return goerrors.CategoryNotFound
	case http.StatusConflict:
		return goerrors.CategoryConflict
	case http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	default:
		return goerrors.CategoryExternal
	}
}

func registryStatusTextCode(status int) string {
	if status >= http.StatusInternalServerError {
		return ErrorTextRegistryFailure
	}
	return CategoryTextCode(registryStatusCategory(status))
}
