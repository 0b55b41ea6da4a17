package entitlements

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/tripcraft/tierkit/pkg/logger"
	"github.com/tripcraft/tierkit/pkg/tier"
)

type accountCtxKey struct{}

// accountSlot is set by requestLogger and filled by withResolver once the
// route is matched, so the request log line carries the account.
type accountSlot struct {
	id uuid.UUID
}

// withResolver parses {accountID} and attaches the account's resolver.
func (s *Service) withResolver(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, err := uuid.Parse(chi.URLParam(r, "accountID"))
		if err != nil || account == uuid.Nil {
			writeError(w, http.StatusBadRequest, ErrInvalidAccountID.Error())
			return
		}

		ctx := r.Context()
		if slot, ok := ctx.Value(accountCtxKey{}).(*accountSlot); ok {
			slot.id = account
		} else {
			ctx = context.WithValue(ctx, accountCtxKey{}, &accountSlot{id: account})
		}
		ctx = tier.WithResolver(ctx, s.sessions.Get(ctx, account))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accountFromContext(ctx context.Context) uuid.UUID {
	if slot, ok := ctx.Value(accountCtxKey{}).(*accountSlot); ok {
		return slot.id
	}
	return uuid.Nil
}

// resolverFromRequest returns the resolver attached by withResolver.
func resolverFromRequest(r *http.Request) *tier.Resolver {
	res, ok := tier.FromContext(r.Context())
	if !ok {
		panic("entitlements: resolver missing from request context")
	}
	return res
}

// AccountIDExtractor logs the account bound to the request, if any.
func AccountIDExtractor(ctx context.Context) (slog.Attr, bool) {
	id := accountFromContext(ctx)
	if id == uuid.Nil {
		return slog.Attr{}, false
	}
	return logger.AccountID(id), true
}

// RequestIDExtractor logs the chi request id, if any.
func RequestIDExtractor(ctx context.Context) (slog.Attr, bool) {
	id := middleware.GetReqID(ctx)
	if id == "" {
		return slog.Attr{}, false
	}
	return logger.RequestID(id), true
}

func (s *Service) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := context.WithValue(r.Context(), accountCtxKey{}, &accountSlot{})
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		s.log.Log(ctx, level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}
