package auth

import (
	"context"
	"time"
)

// Repository defines persistence operations for accounts and activation
// tokens. Implementations must surface shared.ErrNotFound for absent rows and
// shared.ErrDuplicate for unique-email violations.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	CreateUser(ctx context.Context, user User) (int64, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id int64) (*User, error)
	EnableUser(ctx context.Context, id int64) error

	CreateActivationToken(ctx context.Context, token ActivationToken) (int64, error)
	// FindActivationTokenByCode locks the token row when running inside a
	// transaction so concurrent activations on one code serialize.
	FindActivationTokenByCode(ctx context.Context, code string) (*ActivationToken, error)
	MarkActivationTokenValidated(ctx context.Context, id int64, at time.Time) error
	DeleteExpiredTokens(ctx context.Context, olderThan time.Time) (int64, error)
}
