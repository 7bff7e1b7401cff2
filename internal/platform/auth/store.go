package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Account is the doctor's login account.
type Account struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RefreshToken is a stored (hashed) refresh token.
type RefreshToken struct {
	Hash      string    `db:"token_hash"`
	AccountID uuid.UUID `db:"account_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Store persists accounts and refresh tokens.
type Store interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	SaveRefreshToken(ctx context.Context, t *RefreshToken) error
	GetRefreshToken(ctx context.Context, hash string) (*RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, hash string) error
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error
}
