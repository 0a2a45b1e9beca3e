package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tmarcial/passage/core"
	"github.com/tmarcial/passage/pkg/crypto"
)

// SessionManager mints, validates and revokes signed session tokens. A user
// has at most one active token: issuing persists the new token on the record,
// which supersedes whatever was there before.
type SessionManager struct {
	secret   []byte
	validity time.Duration
	storage  core.UserStorage
	cache    core.Cache // optional, can be nil if caching is disabled
}

func NewSessionManager(secret []byte, validity time.Duration, storage core.UserStorage, cache core.Cache) *SessionManager {
	return &SessionManager{
		secret:   secret,
		validity: validity,
		storage:  storage,
		cache:    cache,
	}
}

// Issue mints a token bound to user.ID and persists it as the single active
// session token, overwriting any prior one.
func (sm *SessionManager) Issue(ctx context.Context, user *core.User) (string, error) {
	token, err := crypto.SignSessionToken(user.ID, sm.secret, sm.validity)
	if err != nil {
		return "", fmt.Errorf("%w: sign session token: %v", core.ErrInternal, err)
	}

	if err := sm.storage.SetSessionToken(ctx, user.ID, &token); err != nil {
		return "", fmt.Errorf("%w: persist session token: %v", core.ErrInternal, err)
	}

	// The prior login's token is now superseded; drop its cached snapshot so
	// it is rejected on its next use.
	if sm.cache != nil && user.SessionToken != nil {
		_ = sm.cache.Delete(crypto.HashToken(*user.SessionToken))
	}

	return token, nil
}

// Authenticate resolves a presented token to its user. Signature and expiry
// are checked first; a cryptographically valid token is still rejected when
// it no longer equals the user's stored one (logged out or superseded).
func (sm *SessionManager) Authenticate(ctx context.Context, raw string) (*core.User, error) {
	if raw == "" {
		return nil, core.ErrInvalidToken
	}

	userID, err := crypto.ParseSessionToken(raw, sm.secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrSessionExpired
		}
		return nil, core.ErrInvalidToken
	}

	tokenHash := crypto.HashToken(raw)

	// Try cache first if caching is enabled
	if sm.cache != nil {
		if user, err := sm.cache.Get(tokenHash); err == nil && user != nil {
			return user, nil
		}
		// Cache miss - fall through to storage
	}

	user, err := sm.storage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, core.ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: load user for session: %v", core.ErrInternal, err)
	}

	if user.SessionToken == nil || !crypto.TokensEqual(*user.SessionToken, raw) {
		return nil, core.ErrSessionRevoked
	}

	if sm.cache != nil {
		_ = sm.cache.Set(tokenHash, user)
	}

	return user, nil
}

// Destroy clears the stored session token. Destroying an already logged-out
// user is a no-op success.
func (sm *SessionManager) Destroy(ctx context.Context, user *core.User) error {
	if user.SessionToken == nil {
		return nil
	}

	tokenHash := crypto.HashToken(*user.SessionToken)

	if err := sm.storage.SetSessionToken(ctx, user.ID, nil); err != nil {
		return fmt.Errorf("%w: clear session token: %v", core.ErrInternal, err)
	}

	if sm.cache != nil {
		_ = sm.cache.Delete(tokenHash)
	}

	return nil
}

// Invalidate drops the cached snapshot for the user's current token, if any.
// Called after profile mutations so the gate re-reads the record.
func (sm *SessionManager) Invalidate(user *core.User) {
	if sm.cache == nil || user.SessionToken == nil {
		return
	}
	_ = sm.cache.Delete(crypto.HashToken(*user.SessionToken))
}
