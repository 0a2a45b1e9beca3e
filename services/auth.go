package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmarcial/passage/core"
	"github.com/tmarcial/passage/pkg/crypto"
)

// mailTimeout bounds a single background delivery attempt.
const mailTimeout = 30 * time.Second

type AuthService struct {
	storage   core.UserStorage
	passwords crypto.PasswordHandler
	sessions  *SessionManager
	avatars   *AvatarPipeline
	mailer    core.Mailer
	log       *slog.Logger
}

// Ensure AuthService implements AuthHandler
var _ core.AuthHandler = (*AuthService)(nil)

func NewAuthService(storage core.UserStorage, passwords crypto.PasswordHandler, sessions *SessionManager, avatars *AvatarPipeline, mailer core.Mailer, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		storage:   storage,
		passwords: passwords,
		sessions:  sessions,
		avatars:   avatars,
		mailer:    mailer,
		log:       log,
	}
}

// SignUp registers a new user with email and password. The verification mail
// is dispatched fire-and-forget: its failure never fails the signup.
func (s *AuthService) SignUp(ctx context.Context, input core.SignUpInput) (*core.SignUpResult, error) {
	// Advisory pre-check; the unique email index is the authoritative one.
	existing, err := s.storage.GetUserByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, core.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: check existing user: %v", core.ErrInternal, err)
	}
	if existing != nil {
		return nil, core.ErrEmailInUse
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", core.ErrInternal, err)
	}

	token, err := crypto.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("%w: generate verification token: %v", core.ErrInternal, err)
	}

	user := &core.User{
		Email:             input.Email,
		PasswordHash:      hash,
		SubscriptionTier:  core.SubscriptionStarter,
		VerificationToken: &token,
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, core.ErrEmailInUse) {
			// Two signups raced past the pre-check; the index caught it.
			return nil, core.ErrEmailInUse
		}
		return nil, fmt.Errorf("%w: create user: %v", core.ErrInternal, err)
	}

	s.dispatchMail(user.Email, token, false)

	return &core.SignUpResult{
		Email:            user.Email,
		SubscriptionTier: user.SubscriptionTier,
	}, nil
}

// SignIn authenticates a user with email and password and mints a fresh
// session token, superseding any prior one.
func (s *AuthService) SignIn(ctx context.Context, input core.SignInInput) (*core.SignInResult, error) {
	user, err := s.storage.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			// Same sentinel as a wrong password.
			return nil, core.ErrWrongCredentials
		}
		return nil, fmt.Errorf("%w: find user: %v", core.ErrInternal, err)
	}

	ok, err := s.passwords.Verify(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, core.ErrWrongCredentials
	}

	if !user.Verified {
		return nil, core.ErrNotVerified
	}

	token, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	return &core.SignInResult{
		SessionToken:     token,
		Email:            user.Email,
		SubscriptionTier: user.SubscriptionTier,
	}, nil
}

// SignOut invalidates the current session. Idempotent: signing out an
// already logged-out user succeeds trivially.
func (s *AuthService) SignOut(ctx context.Context, user *core.User) error {
	return s.sessions.Destroy(ctx, user)
}

// Authenticate is the auth gate; see SessionManager.Authenticate.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*core.User, error) {
	return s.sessions.Authenticate(ctx, token)
}

// UpdateSubscription persists a new tier for the user.
func (s *AuthService) UpdateSubscription(ctx context.Context, user *core.User, tier core.Subscription) error {
	if !tier.Valid() {
		return core.ErrInvalidSubscription
	}

	if err := s.storage.SetSubscription(ctx, user.ID, tier); err != nil {
		return fmt.Errorf("%w: update subscription for user %s: %v", core.ErrInternal, user.ID, err)
	}

	s.sessions.Invalidate(user)
	return nil
}

// UpdateAvatar runs the avatar pipeline on a staged upload and returns the
// linked URL.
func (s *AuthService) UpdateAvatar(ctx context.Context, user *core.User, stagedPath string) (string, error) {
	avatarURL, err := s.avatars.Update(ctx, user, stagedPath)
	if err != nil {
		return "", err
	}

	s.sessions.Invalidate(user)
	return avatarURL, nil
}

// dispatchMail hands the verification mail to a background goroutine. The
// response never depends on delivery; failures only show up in the log.
func (s *AuthService) dispatchMail(email, token string, repeat bool) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		if err := s.mailer.SendVerification(ctx, email, token, repeat); err != nil {
			s.log.Error("send verification mail", "email", email, "error", err)
		}
	}()
}
