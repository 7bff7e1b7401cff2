package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type storePG struct{ pool *pgxpool.Pool }

// NewStorePG creates a PostgreSQL-backed auth store.
func NewStorePG(pool *pgxpool.Pool) Store { return &storePG{pool: pool} }

func (s *storePG) CreateAccount(ctx context.Context, a *Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO account (id, email, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash`,
		a.ID, a.Email, a.PasswordHash)
	return err
}

func (s *storePG) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	var a Account
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at FROM account WHERE email = $1`, email).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *storePG) SaveRefreshToken(ctx context.Context, t *RefreshToken) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_token (token_hash, account_id, expires_at)
		VALUES ($1, $2, $3)`,
		t.Hash, t.AccountID, t.ExpiresAt)
	return err
}

func (s *storePG) GetRefreshToken(ctx context.Context, hash string) (*RefreshToken, error) {
	var t RefreshToken
	err := s.pool.QueryRow(ctx, `
		SELECT token_hash, account_id, expires_at, created_at
		FROM refresh_token WHERE token_hash = $1`, hash).
		Scan(&t.Hash, &t.AccountID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *storePG) DeleteRefreshToken(ctx context.Context, hash string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM refresh_token WHERE token_hash = $1`, hash)
	return err
}

func (s *storePG) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM refresh_token WHERE expires_at < $1`, now)
	return err
}
