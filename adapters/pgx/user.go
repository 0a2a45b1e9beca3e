package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tmarcial/passage/core"
)

// uniqueViolation is the postgres error code raised by the users_email_key
// index, the authoritative duplicate-email check.
const uniqueViolation = "23505"

const userColumns = `id, email, password_hash, subscription_tier, verification_token, verified, session_token, avatar_url, created_at, updated_at`

func (a *Adapter) CreateUser(ctx context.Context, user *core.User) error {
	query := `INSERT INTO users (email, password_hash, subscription_tier, verification_token)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_at, updated_at`

	err := a.pool.QueryRow(ctx, query,
		user.Email, user.PasswordHash, user.SubscriptionTier, user.VerificationToken,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.ErrEmailInUse
		}
		return err
	}
	return nil
}

func (a *Adapter) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	return a.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return a.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (a *Adapter) GetUserByVerificationToken(ctx context.Context, token string) (*core.User, error) {
	return a.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE verification_token = $1`, token)
}

func (a *Adapter) getUser(ctx context.Context, query string, arg any) (*core.User, error) {
	user := &core.User{}
	err := a.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.SubscriptionTier,
		&user.VerificationToken, &user.Verified, &user.SessionToken, &user.AvatarURL,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// MarkVerified consumes the verification token and flips the flag in a
// single statement, so the two fields can never disagree.
func (a *Adapter) MarkVerified(ctx context.Context, id string) error {
	q := `UPDATE users SET verification_token = NULL, verified = TRUE, updated_at = now() WHERE id = $1 RETURNING id`
	return a.updateOne(ctx, q, id)
}

func (a *Adapter) SetSessionToken(ctx context.Context, id string, token *string) error {
	q := `UPDATE users SET session_token = $2, updated_at = now() WHERE id = $1 RETURNING id`
	return a.updateOne(ctx, q, id, token)
}

func (a *Adapter) SetSubscription(ctx context.Context, id string, tier core.Subscription) error {
	q := `UPDATE users SET subscription_tier = $2, updated_at = now() WHERE id = $1 RETURNING id`
	return a.updateOne(ctx, q, id, tier)
}

func (a *Adapter) SetAvatarURL(ctx context.Context, id string, avatarURL string) error {
	q := `UPDATE users SET avatar_url = $2, updated_at = now() WHERE id = $1 RETURNING id`
	return a.updateOne(ctx, q, id, avatarURL)
}

// updateOne runs a single-row update and reports ErrUserNotFound when the
// record is gone.
func (a *Adapter) updateOne(ctx context.Context, query string, args ...any) error {
	var id string
	err := a.pool.QueryRow(ctx, query, args...).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.ErrUserNotFound
		}
		return err
	}
	return nil
}
