// package models defines the data model for the notebook platform client
package models

import (
	"context"
	"time"
)

// IdentityRepository defines durable storage for the last known identity.
//
// There is at most one persisted identity per client installation.
type IdentityRepository interface {
	Load(ctx context.Context) (*PersistedIdentity, error) // Load returns the stored identity, or nil when none is stored
	Save(ctx context.Context, p PersistedIdentity) error  // Save replaces the stored identity
	Clear(ctx context.Context) error                      // Clear removes the stored identity; clearing an empty store is not an error
}

// PersistedIdentity is the durable snapshot of an authenticated session.
type PersistedIdentity struct {
	User            *Identity
	IsAuthenticated bool
	LastAuthCheck   time.Time
}

// Empty reports whether the snapshot carries no usable identity.
func (p PersistedIdentity) Empty() bool {
	return p.User == nil
}

// Trusted reports whether the snapshot shows an authenticated user.
func (p PersistedIdentity) Trusted() bool {
	return !p.Empty() && p.IsAuthenticated
}

// Fresh reports whether the last auth check happened within ttl of now.
//
// A zero ttl never expires.
func (p PersistedIdentity) Fresh(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return true
	}
	if p.Empty() || p.LastAuthCheck.IsZero() {
		return false
	}
	return now.Sub(p.LastAuthCheck) <= ttl
}
