// Package tier resolves plan-based feature gates and monthly usage quotas for
// travel-agency accounts.
//
// Plans form a closed, ordered hierarchy (starter < professional < enterprise).
// A Catalog holds two immutable tables: which features each plan enables and
// which numeric quotas it grants, where Unlimited (-1) means no ceiling.
//
// A Resolver is bound to one account session. It caches the account's
// subscription, reads and increments monthly usage counters through the
// SubscriptionStore and UsageStore ports, and never propagates store failures:
// reads fall back to the lowest tier or zero usage, writes report false.
//
// Key concepts:
//
//   - Plan: an ordered tier with an explicit rank
//   - Feature: a boolean gate looked up per plan, unknown names are disabled
//   - LimitName: a numeric quota, unknown names yield 0
//   - UsageRecord: per-account counters keyed by a YYYY-MM month
//
// Basic usage:
//
//	store := tier.NewMemoryStore()
//	r := tier.NewResolver(tier.DefaultCatalog(), store, store,
//	    tier.WithLogger(log),
//	)
//	r.Initialize(ctx, accountID)
//
//	if !r.CanCreateItinerary() {
//	    // render upgrade prompt: r.FeatureLockedMessage(tier.FeatureAIItinerary)
//	}
//	if !r.IncrementUsage(ctx, tier.UsageItineraries) {
//	    // quota exhausted: r.LimitReachedMessage(tier.LimitItinerariesPerMonth)
//	}
//
// Quotas are soft by default: IncrementUsage reads, checks and writes in two
// store round trips. Build the resolver WithAtomicIncrement and use a store
// implementing ConditionalIncrementer (the Postgres and Redis stores do) to
// enforce the limit in a single operation.
//
// Lookups that hit unknown plans, features or limits return the safe default
// and emit a warning with event "tier.unknown_key"; register
// WithUnknownKeyHook to observe them.
package tier
