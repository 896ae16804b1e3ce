package authz

import "context"

type contextKey string

const identityContextKey contextKey = "identity"

// ContextWithIdentity stores the authenticated caller in the request context.
// The token middleware calls this after verifying an access token.
func ContextWithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, ident)
}

// IdentityFromContext returns the caller stored in the context, or a zero
// Identity when the request is unauthenticated.
func IdentityFromContext(ctx context.Context) Identity {
	ident, _ := ctx.Value(identityContextKey).(Identity)
	return ident
}
