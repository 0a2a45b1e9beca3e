package core

import "time"

// Subscription is the plan tier attached to a user account.
type Subscription string

const (
	SubscriptionStarter  Subscription = "starter"
	SubscriptionPro      Subscription = "pro"
	SubscriptionBusiness Subscription = "business"
)

// Valid reports whether s is one of the known tiers.
func (s Subscription) Valid() bool {
	switch s {
	case SubscriptionStarter, SubscriptionPro, SubscriptionBusiness:
		return true
	}
	return false
}

// User is the single persisted entity.
//
// VerificationToken and Verified are mutually exclusive: the token is nulled
// in the same update that flips Verified, and neither ever goes back.
// SessionToken holds at most one active signed token; nil means logged out.
type User struct {
	ID                string       `json:"id"`
	Email             string       `json:"email"`
	PasswordHash      string       `json:"-"` // Never expose in JSON
	SubscriptionTier  Subscription `json:"subscriptionTier"`
	VerificationToken *string      `json:"-"` // Never expose in JSON
	Verified          bool         `json:"verified"`
	SessionToken      *string      `json:"-"` // Never expose in JSON (security!)
	AvatarURL         *string      `json:"avatarURL,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// SignUpInput contains the data needed to register a new user
type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpResult is returned from registration. It never carries the
// verification token or the password hash.
type SignUpResult struct {
	Email            string       `json:"email"`
	SubscriptionTier Subscription `json:"subscriptionTier"`
}

// SignInInput contains the credentials for authentication
type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResult contains the freshly minted session token and the profile
// fields exposed to the client.
type SignInResult struct {
	SessionToken     string       `json:"sessionToken"`
	Email            string       `json:"email"`
	SubscriptionTier Subscription `json:"subscriptionTier"`
}
