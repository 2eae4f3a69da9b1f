package authz

import (
	"context"
	"log/slog"
)

// Principal is the authenticated actor attached to a request. It is
// rebuilt from the identity store on every request and never mutated in
// place; role or status changes take effect on the next resolution.
type Principal struct {
	ID          string
	DisplayName string
	Role        Role
	Status      string
}

// IdentityStore is the external profile lookup consulted during
// resolution. A nil principal with a nil error means no matching record.
type IdentityStore interface {
	LookupBySession(ctx context.Context, evidence string) (*Principal, error)
}

// Resolver turns raw session evidence into a Principal. Every failure
// mode collapses to unauthenticated: missing evidence, a missing profile
// and an unreachable store are indistinguishable to callers. The resolver
// fails closed so a store outage can never widen access.
type Resolver struct {
	store  IdentityStore
	logger *slog.Logger
}

// NewResolver constructs a Resolver over the given identity store.
func NewResolver(store IdentityStore, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve returns the principal for the evidence, or nil when the request
// is unauthenticated. A nil return is the only alternative to a fully
// populated principal; partial resolution never escapes.
func (r *Resolver) Resolve(ctx context.Context, evidence string) *Principal {
	if r == nil || r.store == nil || evidence == "" {
		return nil
	}
	principal, err := r.store.LookupBySession(ctx, evidence)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("identity lookup failed, treating as unauthenticated", slog.Any("error", err))
		}
		return nil
	}
	if principal == nil || principal.ID == "" {
		return nil
	}
	return principal
}
