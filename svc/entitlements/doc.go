// Package entitlements serves per-account plan gating over HTTP.
//
// Sessions keeps one tier.Resolver per account in a bounded LRU with an idle
// TTL, so concurrent requests for the same account share a resolver and its
// cached subscription. Handler mounts the JSON API under
// /accounts/{accountID}:
//
//	sessions := entitlements.NewSessions(func() *tier.Resolver {
//	    return tier.NewResolver(catalog, subs, usage, tier.WithLogger(log))
//	}, entitlements.WithCapacity(5000))
//
//	svc := entitlements.NewService(sessions, entitlements.WithLogger(log))
//	srv.Run(ctx, svc.Handler())
//
// WithMetrics mounts GET /metrics and counts usage decisions, plan changes and
// cancellations; WithCORS opens the API to the browser app's origins.
//
// Quota exhaustion answers 402 Payment Required with a user-facing upgrade
// message; downgrades that would strand current usage answer 409.
package entitlements
