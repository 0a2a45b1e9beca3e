package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tmarcial/passage/core"
)

// FakeUserStorage is a test-only fake implementing core.UserStorage. It
// stores users in a map and exposes error fields for behavior injection.
// Reads return copies so callers see snapshots, like a real store.
type FakeUserStorage struct {
	mu    sync.RWMutex
	users map[string]*core.User

	createErr error
	getErr    error
	updateErr error
}

func NewFakeUserStorage() *FakeUserStorage {
	return &FakeUserStorage{
		users: make(map[string]*core.User),
	}
}

func (f *FakeUserStorage) CreateUser(ctx context.Context, u *core.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}

	for _, existing := range f.users {
		if existing.Email == u.Email {
			return core.ErrEmailInUse
		}
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	f.users[u.ID] = copyUser(u)
	return nil
}

func (f *FakeUserStorage) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (f *FakeUserStorage) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (f *FakeUserStorage) GetUserByVerificationToken(ctx context.Context, token string) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return copyUser(u), nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (f *FakeUserStorage) MarkVerified(ctx context.Context, id string) error {
	return f.update(id, func(u *core.User) {
		u.VerificationToken = nil
		u.Verified = true
	})
}

func (f *FakeUserStorage) SetSessionToken(ctx context.Context, id string, token *string) error {
	return f.update(id, func(u *core.User) {
		u.SessionToken = copyString(token)
	})
}

func (f *FakeUserStorage) SetSubscription(ctx context.Context, id string, tier core.Subscription) error {
	return f.update(id, func(u *core.User) {
		u.SubscriptionTier = tier
	})
}

func (f *FakeUserStorage) SetAvatarURL(ctx context.Context, id string, avatarURL string) error {
	return f.update(id, func(u *core.User) {
		u.AvatarURL = &avatarURL
	})
}

func (f *FakeUserStorage) update(id string, mutate func(*core.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return core.ErrUserNotFound
	}
	mutate(u)
	u.UpdatedAt = time.Now()
	return nil
}

// Stored returns the raw stored record, for assertions.
func (f *FakeUserStorage) Stored(id string) *core.User {
	f.mu.RLock()
	defer f.mu.RUnlock()
	u, ok := f.users[id]
	if !ok {
		return nil
	}
	return copyUser(u)
}

func copyUser(u *core.User) *core.User {
	c := *u
	c.VerificationToken = copyString(u.VerificationToken)
	c.SessionToken = copyString(u.SessionToken)
	c.AvatarURL = copyString(u.AvatarURL)
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// SentMail records one delivery request handed to the FakeMailer.
type SentMail struct {
	Email  string
	Token  string
	Repeat bool
}

// FakeMailer records deliveries. Wait blocks until the fire-and-forget
// goroutine gets around to sending.
type FakeMailer struct {
	mu   sync.Mutex
	sent []SentMail
	err  error
	ch   chan SentMail
}

func NewFakeMailer() *FakeMailer {
	return &FakeMailer{ch: make(chan SentMail, 8)}
}

func (f *FakeMailer) SendVerification(ctx context.Context, email, token string, repeat bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m := SentMail{Email: email, Token: token, Repeat: repeat}
	f.sent = append(f.sent, m)
	select {
	case f.ch <- m:
	default:
	}
	return f.err
}

func (f *FakeMailer) Wait(t *testing.T) SentMail {
	t.Helper()
	select {
	case m := <-f.ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for verification mail")
		return SentMail{}
	}
}

func (f *FakeMailer) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
