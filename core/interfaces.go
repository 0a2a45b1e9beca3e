package core

import (
	"context"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// STORAGE PORT (Database operations)
// ============================================

// UserStorage defines user-related database operations.
//
// Every mutation is a single-statement update against one record, never a
// read-modify-write split across round trips, so concurrent requests against
// the same user serialize at the record level. Lookups that match nothing
// return ErrUserNotFound; CreateUser returns ErrEmailInUse when the unique
// email index rejects the row.
type UserStorage interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*User, error)

	// MarkVerified nulls the verification token and flips the verified flag
	// in one update.
	MarkVerified(ctx context.Context, id string) error
	// SetSessionToken replaces the stored session token; nil logs out.
	SetSessionToken(ctx context.Context, id string, token *string) error
	SetSubscription(ctx context.Context, id string, tier Subscription) error
	SetAvatarURL(ctx context.Context, id string, avatarURL string) error
}

// ============================================
// MAIL PORT
// ============================================

// Mailer delivers a verification link for an address/token pair. Services
// dispatch it fire-and-forget; a delivery failure is observable only through
// the mailer's own logging, never through an operation result.
type Mailer interface {
	SendVerification(ctx context.Context, email, token string, repeat bool) error
}

// ============================================
// CACHE PORT
// ============================================

// Cache defines auth-gate caching operations, keyed by session token hash.
type Cache interface {
	Get(tokenHash string) (*User, error)
	Set(tokenHash string, user *User) error
	Delete(tokenHash string) error
	Clear() error
}

// CacheWithStats extends Cache with statistics tracking
type CacheWithStats interface {
	Cache
	Stats() CacheStats
}

// CacheConfig configures cache behavior
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}

// ============================================
// AUTH HANDLER (for HTTP adapters)
// ============================================

// AuthHandler provides the operations exposed through HTTP adapters.
type AuthHandler interface {
	SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	SignIn(ctx context.Context, input SignInInput) (*SignInResult, error)
	SignOut(ctx context.Context, user *User) error
	UpdateSubscription(ctx context.Context, user *User, tier Subscription) error
	UpdateAvatar(ctx context.Context, user *User, stagedPath string) (string, error)

	// Authenticate is the gate applied before any session-scoped operation:
	// it validates the signed token and confirms it is the user's currently
	// stored one.
	Authenticate(ctx context.Context, token string) (*User, error)
}

// ============================================
// HTTP PORT
// ============================================

type HTTPAdapter interface {
	RegisterRoutes(handler AuthHandler, basePath string) error
}
