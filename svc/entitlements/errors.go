package entitlements

import "errors"

var (
	ErrInvalidAccountID   = errors.New("invalid account id")
	ErrInvalidRequestBody = errors.New("invalid request body")
	ErrStoreUnavailable   = errors.New("subscription store unavailable")
	ErrUsageUnavailable   = errors.New("usage store unavailable")
)
