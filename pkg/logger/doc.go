// Package logger builds *slog.Logger instances for tierkit services, adding
// functional options, helper attribute constructors and transparent injection
// of request-scoped values stored in context.Context.
//
// A single factory, New, creates a logger configured by Option functions.
// The options select:
//
//   - the output format (FormatJSON or FormatText) and destination
//   - the minimum level, by value or by name
//   - static attributes attached to every record
//   - ContextExtractor callbacks that pull attributes, such as the request
//     or account id, out of the context on every Handle call
//
// # Architecture
//
// New picks slog.NewJSONHandler or slog.NewTextHandler from the configured
// format, applies the static attributes and wraps the result in
// LogHandlerDecorator. The decorator runs every registered extractor before
// delegating to the underlying handler, so code deep in the call stack only
// needs to pass ctx to the *Context logging methods.
//
// Attribute helpers in attr.go keep key names consistent across packages:
// AccountID, RequestID, Plan, Feature, Limit, Month, Component, Event,
// Duration and Error.
//
// # Usage
//
//	log := logger.New(
//		logger.WithEnvironment(os.Getenv("APP_ENV"), "tierd"),
//		logger.WithContextExtractors(
//			entitlements.RequestIDExtractor,
//			entitlements.AccountIDExtractor,
//		),
//	)
//
//	log.InfoContext(ctx, "subscription plan changed",
//		logger.AccountID(accountID),
//		logger.Plan("professional"),
//	)
//
// # Configuration
//
//   - WithEnvironment: debug text logs in development, info JSON logs in
//     staging and production, plus "service" and "env" attributes.
//   - WithFormat / WithOutput: override format and destination.
//   - WithLevel / WithLevelName: set the minimum level. Unknown names are
//     ignored.
//   - WithAttr: attach static attributes.
//   - WithContextExtractors / WithContextValue: inject attributes from
//     context.
//
// Options apply in order, so an explicit WithLevelName after
// WithEnvironment overrides the environment default.
//
// # Error Handling
//
// Error returns an empty attribute for a nil error, which slog drops, so
// callers can log unconditionally:
//
//	log.Info("reload finished", logger.Error(err))
//
// # Testing
//
// Discard returns a logger that drops every record. Components default to it
// when no logger is supplied. To assert on output, write JSON into a buffer:
//
//	buf := &bytes.Buffer{}
//	log := logger.New(logger.WithOutput(buf))
package logger
