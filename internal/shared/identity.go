package shared

import "context"

// Identity describes the authenticated caller of an operation. It carries
// only what the lending core needs, keeping the domain decoupled from the
// transport-layer authentication mechanism.
type Identity struct {
	UserID      int64
	Email       string
	Name        string
	Authorities []string
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
