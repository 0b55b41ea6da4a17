package tier

import (
	"log/slog"
	"time"

	"golang.org/x/text/language"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for store failures and diagnostics.
// Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock overrides time.Now, mainly for month rollover tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLocation sets the zone used to compute usage month keys.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithUnknownKeyHook registers a callback fired whenever a lookup hits a
// plan, feature, limit or usage kind the catalog does not know.
func WithUnknownKeyHook(fn func(UnknownKey)) Option {
	return func(r *Resolver) {
		r.onUnknown = fn
	}
}

// WithAtomicIncrement makes IncrementUsage use the store's
// ConditionalIncrementer when it implements one.
func WithAtomicIncrement() Option {
	return func(r *Resolver) {
		r.atomic = true
	}
}

// WithImmediateCancel makes CancelSubscription flip the status to canceled
// right away instead of only scheduling cancellation at period end.
func WithImmediateCancel() Option {
	return func(r *Resolver) {
		r.immediateCancel = true
	}
}

// WithLanguage sets the language used to format user-facing messages.
func WithLanguage(tag language.Tag) Option {
	return func(r *Resolver) {
		r.lang = tag
	}
}
