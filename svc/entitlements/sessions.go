package entitlements

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/tripcraft/tierkit/pkg/cache"
	"github.com/tripcraft/tierkit/pkg/logger"
	"github.com/tripcraft/tierkit/pkg/tier"
)

const (
	defaultSessionCapacity = 1000
	defaultSessionTTL      = 15 * time.Minute
	defaultSessionMaxAge   = 5 * time.Minute
)

// ResolverFactory builds an unbound resolver for a new session.
type ResolverFactory func() *tier.Resolver

// Sessions maps accounts to initialized resolvers.
type Sessions struct {
	build    ResolverFactory
	capacity int
	ttl      time.Duration
	maxAge   time.Duration
	now      func() time.Time
	log      *slog.Logger

	cache *cache.LRU[uuid.UUID, *tier.Resolver]
	group singleflight.Group
}

// SessionOption configures Sessions.
type SessionOption func(*Sessions)

// WithCapacity bounds the number of cached sessions. Non-positive values keep the default.
func WithCapacity(n int) SessionOption {
	return func(s *Sessions) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithIdleTTL drops sessions unused for longer than ttl. Zero disables expiry.
func WithIdleTTL(ttl time.Duration) SessionOption {
	return func(s *Sessions) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxAge reloads a cached subscription once it is older than d, so plan
// changes written by billing show up in busy sessions. Zero disables reloads.
func WithMaxAge(d time.Duration) SessionOption {
	return func(s *Sessions) {
		if d >= 0 {
			s.maxAge = d
		}
	}
}

func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Sessions) {
		if now != nil {
			s.now = now
		}
	}
}

func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Sessions) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSessions panics if build is nil.
func NewSessions(build ResolverFactory, opts ...SessionOption) *Sessions {
	if build == nil {
		panic("entitlements: ResolverFactory is required")
	}
	s := &Sessions{
		build:    build,
		capacity: defaultSessionCapacity,
		ttl:      defaultSessionTTL,
		maxAge:   defaultSessionMaxAge,
		now:      time.Now,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("entitlements.sessions"))
	s.cache = cache.NewLRU(s.capacity,
		cache.WithTTL[uuid.UUID, *tier.Resolver](s.ttl),
		cache.WithClock[uuid.UUID, *tier.Resolver](s.now),
	)
	return s
}

// Get returns the account's resolver, building and initializing it on first
// use. Concurrent first requests for one account share a single build. A
// cached resolver whose last load failed is initialized again, one older than
// the max age is reloaded.
func (s *Sessions) Get(ctx context.Context, account uuid.UUID) *tier.Resolver {
	if r, ok := s.cache.Get(account); ok {
		switch {
		case !r.Initialized():
			r.Initialize(ctx, account)
		case s.stale(r):
			s.group.Do("reload:"+account.String(), func() (any, error) {
				if s.stale(r) {
					r.Reload(context.WithoutCancel(ctx))
				}
				return nil, nil
			})
		}
		return r
	}

	v, _, _ := s.group.Do(account.String(), func() (any, error) {
		if r, ok := s.cache.Get(account); ok {
			return r, nil
		}
		r := s.build()
		r.Initialize(context.WithoutCancel(ctx), account)
		s.cache.Put(account, r)
		s.log.DebugContext(ctx, "session opened",
			logger.AccountID(account),
			logger.Plan(string(r.CurrentPlan())),
		)
		return r, nil
	})
	return v.(*tier.Resolver)
}

func (s *Sessions) stale(r *tier.Resolver) bool {
	return s.maxAge > 0 && s.now().Sub(r.LoadedAt()) >= s.maxAge
}

// Invalidate drops the cached session so the next Get reloads from the store.
func (s *Sessions) Invalidate(account uuid.UUID) {
	s.cache.Remove(account)
}

// Prune drops expired sessions and returns how many were removed.
func (s *Sessions) Prune() int {
	return s.cache.Prune()
}

// Len returns the number of cached sessions.
func (s *Sessions) Len() int {
	return s.cache.Len()
}

// RunPruner calls Prune every interval until ctx is done.
func (s *Sessions) RunPruner(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.ttl == 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Prune(); n > 0 {
				s.log.DebugContext(ctx, "pruned idle sessions", slog.Int("count", n))
			}
		}
	}
}
