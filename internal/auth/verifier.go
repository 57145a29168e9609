package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
)

// IdentityChecker is the identity check endpoint of the platform.
type IdentityChecker interface {
	Me(ctx context.Context) (*models.Identity, error)
}

// SessionVerifier resolves the current session into a verified [models.Identity].
type SessionVerifier struct {
	checker IdentityChecker
}

// NewSessionVerifier creates a [SessionVerifier] calling checker.
func NewSessionVerifier(checker IdentityChecker) *SessionVerifier {
	return &SessionVerifier{checker: checker}
}

// Verify returns the identity of the current session.
//
// Errors wrap [shared.ErrUnauthenticated] when the platform rejected the session and
// [shared.ErrTransport] for everything else. Callers must not issue concurrent calls.
func (v *SessionVerifier) Verify(ctx context.Context) (*models.Identity, error) {
	identity, err := v.checker.Me(ctx)
	if err != nil {
		return nil, classify(err)
	}
	if identity == nil {
		return nil, fmt.Errorf("%w: identity check returned no user", shared.ErrTransport)
	}
	if err := identity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	return identity, nil
}

func classify(err error) error {
	if errors.Is(err, shared.ErrUnauthenticated) || errors.Is(err, shared.ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %v", shared.ErrTransport, err)
}
