package tier

import "context"

type resolverCtxKey struct{}

// WithResolver stores a request-scoped resolver in the context.
func WithResolver(ctx context.Context, r *Resolver) context.Context {
	return context.WithValue(ctx, resolverCtxKey{}, r)
}

// FromContext returns the resolver stored by WithResolver.
func FromContext(ctx context.Context) (*Resolver, bool) {
	r, ok := ctx.Value(resolverCtxKey{}).(*Resolver)
	return r, ok && r != nil
}
