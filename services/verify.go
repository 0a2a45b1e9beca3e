package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmarcial/passage/core"
)

// VerifyEmail consumes a one-time verification token. The token is nulled in
// the same update that flips the verified flag, so retrying a consumed token
// falls into the not-found branch: the operation is idempotent by
// construction.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.storage.GetUserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			// Unknown and already-consumed tokens look the same.
			return core.ErrUserNotFound
		}
		return fmt.Errorf("%w: look up verification token: %v", core.ErrInternal, err)
	}

	if err := s.storage.MarkVerified(ctx, user.ID); err != nil {
		// The record vanished between lookup and update.
		return fmt.Errorf("%w: mark user %s verified: %v", core.ErrInternal, user.ID, err)
	}

	return nil
}

// ResendVerification re-sends the mail for an unverified user. The existing
// token is sent as-is; it is not rotated, and the store is not mutated.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return core.ErrUserNotFound
		}
		return fmt.Errorf("%w: find user: %v", core.ErrInternal, err)
	}

	if user.Verified {
		return core.ErrAlreadyVerified
	}

	if user.VerificationToken == nil {
		return fmt.Errorf("%w: unverified user %s has no verification token", core.ErrInternal, user.ID)
	}

	s.dispatchMail(user.Email, *user.VerificationToken, true)
	return nil
}
