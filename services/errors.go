package services

import (
	"errors"
	"fmt"

	"shipscore/models"
)

var (
	// ErrInvalidURL means the input is not a storefront URL or id we
	// recognise. No network call has been made.
	ErrInvalidURL = errors.New("invalid app url")
	// ErrAppNotFound means every source came back empty.
	ErrAppNotFound = errors.New("app not found")
)

// UpstreamError is a storefront fetch failure that could not be absorbed.
type UpstreamError struct {
	Platform models.Platform
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream: %v", e.Platform, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
