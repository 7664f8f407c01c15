// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/taibuivan/gibiteca/internal/platform/apperr"
)

// Failure kinds. Match them with [errors.Is].
var (
	ErrSearchFailed   = errors.New("catalog search failed")
	ErrSeriesNotFound = errors.New("catalog series not found")
	ErrFetchFailed    = errors.New("catalog fetch failed")
)

// Error is a provider failure tagged with its kind.
type Error struct {
	Kind     error
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Is matches the failure kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

func searchFailed(provider, message string, cause error) *Error {
	return &Error{Kind: ErrSearchFailed, Provider: provider, Message: message, Err: cause}
}

func seriesNotFound(provider, ref string) *Error {
	return &Error{Kind: ErrSeriesNotFound, Provider: provider, Message: fmt.Sprintf("series %q not found", ref)}
}

func fetchFailed(provider, message string, cause error) *Error {
	return &Error{Kind: ErrFetchFailed, Provider: provider, Message: message, Err: cause}
}

// UnknownProvider is returned when a request names a provider that is not registered.
func UnknownProvider(name string) *apperr.AppError {
	return apperr.New(http.StatusBadRequest, "CATALOG_UNKNOWN_PROVIDER", fmt.Sprintf("Unknown catalog provider %q", name), nil)
}

// AsAppError maps a catalog [*Error] onto the HTTP error vocabulary.
// Other errors are returned unchanged.
func AsAppError(err error) error {
	var catalogErr *Error
	if !errors.As(err, &catalogErr) {
		return err
	}

	switch catalogErr.Kind {
	case ErrSeriesNotFound:
		return apperr.New(http.StatusNotFound, "CATALOG_SERIES_NOT_FOUND", "Series not found in "+catalogErr.Provider, err)
	case ErrFetchFailed:
		return apperr.BadGateway("CATALOG_FETCH_FAILED", "Could not fetch issues from "+catalogErr.Provider, err)
	default:
		return apperr.BadGateway("CATALOG_SEARCH_FAILED", "Could not search "+catalogErr.Provider, err)
	}
}
