package tier

import "errors"

var (
	ErrUnknownPlan      = errors.New("tier.errors.unknown_plan")
	ErrUnknownUsageKind = errors.New("tier.errors.unknown_usage_kind")
	ErrInvalidCatalog   = errors.New("tier.errors.invalid_catalog")

	ErrFailedToLoadCatalog = errors.New("tier.errors.failed_to_load_catalog")

	ErrSubscriptionNotFound = errors.New("tier.errors.subscription_not_found")
	ErrSubscriptionExists   = errors.New("tier.errors.subscription_exists")
	ErrUsageNotFound        = errors.New("tier.errors.usage_not_found")

	ErrDowngradeNotPossible = errors.New("tier.errors.downgrade_not_possible")
	ErrNotInitialized       = errors.New("tier.errors.not_initialized")
)
