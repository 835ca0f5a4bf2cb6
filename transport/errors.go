package transport

import (
	"github.com/goliatone/go-datacite/core"
	goerrors "github.com/goliatone/go-errors"
)

func transportError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	metadata map[string]any,
) error {
	if source == nil {
		return transportError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// transportTextCode tags network level failures so callers can tell them
// apart from registry status errors, which carry DATACITE_REGISTRY_FAILURE.
func transportTextCode(category goerrors.Category) string {
	if category == goerrors.CategoryExternal {
		return core.ErrorTextTransportFailure
	}
	return core.CategoryTextCode(category)
}
