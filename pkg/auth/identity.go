// Package auth issues and verifies bearer tokens and carries the caller's
// identity through request contexts.
package auth

import "context"

// RoleAdmin grants catalogue management.
const RoleAdmin = "admin"

// Identity is the authenticated caller. Services receive it explicitly and
// decide what it may do.
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the caller may manage the catalogue.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Anonymous reports whether no caller was authenticated.
func (i Identity) Anonymous() bool { return i.UserID == "" }

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromCtx returns the identity stored by the Authenticate middleware, or an
// anonymous Identity.
func FromCtx(ctx context.Context) Identity {
	id, _ := ctx.Value(ctxKey{}).(Identity)
	return id
}

// IdentityFromClaims converts verified token claims.
func IdentityFromClaims(c *Claims) Identity {
	return Identity{UserID: c.UserID, Role: c.Role}
}
