package logger

import (
	"log/slog"

	"github.com/google/uuid"
)

// Error records err under "error". Nil errors produce an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// AccountID records the account under "account_id".
func AccountID(id uuid.UUID) slog.Attr {
	return slog.String("account_id", id.String())
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

func Plan(plan string) slog.Attr {
	return slog.String("plan", plan)
}

func Feature(name string) slog.Attr {
	return slog.String("feature", name)
}

func Limit(name string) slog.Attr {
	return slog.String("limit", name)
}

// Month records a usage month key (YYYY-MM).
func Month(key string) slog.Attr {
	return slog.String("month", key)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
