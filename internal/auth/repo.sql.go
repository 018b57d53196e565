package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hypermedia-labs/trillas/internal/platform/db"
	"github.com/hypermedia-labs/trillas/internal/shared"
)

const uniqueViolation = "23505"

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db   dbtx
	pool *pgxpool.Pool
	inTx bool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool, pool: pool}
}

// WithTx runs fn with a transaction-scoped repository.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{db: tx, pool: r.pool, inTx: true})
	})
}

// CreateUser inserts a disabled account and returns its id.
func (r *PGRepository) CreateUser(ctx context.Context, user User) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (email, first_name, last_name, password_hash, enabled, account_locked, roles)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		user.Email, user.FirstName, user.LastName, user.PasswordHash,
		user.Enabled, user.AccountLocked, user.Roles,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, shared.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

// FindUserByEmail fetches a user by email.
func (r *PGRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(r.db.QueryRow(ctx, selectUser+` WHERE email = $1`, email))
}

// FindUserByID fetches a user by id.
func (r *PGRepository) FindUserByID(ctx context.Context, id int64) (*User, error) {
	return r.scanUser(r.db.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
}

// EnableUser flips the enabled flag. Enabling twice is harmless.
func (r *PGRepository) EnableUser(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET enabled = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CreateActivationToken persists a freshly issued code.
func (r *PGRepository) CreateActivationToken(ctx context.Context, token ActivationToken) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO activation_tokens (user_id, code, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		token.UserID, token.Code, token.CreatedAt.UTC(), token.ExpiresAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FindActivationTokenByCode fetches the newest token matching code. Inside a
// transaction the row is locked so racing activations serialize on it.
func (r *PGRepository) FindActivationTokenByCode(ctx context.Context, code string) (*ActivationToken, error) {
	query := `
		SELECT id, user_id, code, created_at, expires_at, validated_at
		FROM activation_tokens
		WHERE code = $1
		ORDER BY created_at DESC
		LIMIT 1`
	if r.inTx {
		query += ` FOR UPDATE`
	}
	var t ActivationToken
	err := r.db.QueryRow(ctx, query, code).Scan(
		&t.ID, &t.UserID, &t.Code, &t.CreatedAt, &t.ExpiresAt, &t.ValidatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// MarkActivationTokenValidated consumes a token.
func (r *PGRepository) MarkActivationTokenValidated(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE activation_tokens SET validated_at = $2
		WHERE id = $1 AND validated_at IS NULL`,
		id, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrTokenUsed
	}
	return nil
}

// DeleteExpiredTokens removes expired codes that were never validated.
// Validated rows stay behind as the activation audit trail.
func (r *PGRepository) DeleteExpiredTokens(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM activation_tokens
		WHERE validated_at IS NULL AND expires_at < $1`,
		olderThan.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const selectUser = `
	SELECT id, email, first_name, last_name, password_hash, enabled, account_locked, roles, created_at, updated_at
	FROM users`

func (r *PGRepository) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.Enabled, &u.AccountLocked, &u.Roles, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

var _ Repository = (*PGRepository)(nil)
