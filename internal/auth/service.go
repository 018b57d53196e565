package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hypermedia-labs/trillas/internal/shared"
)

// Notifier hands activation codes to the delivery collaborator. Failure to
// enqueue never rolls back token issuance; the token is durable first.
type Notifier interface {
	EnqueueActivation(ctx context.Context, email, name, code string) error
}

// Service wraps registration, activation, and credential checks.
type Service struct {
	repo     Repository
	issuer   *Issuer
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, issuer *Issuer, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		issuer:   issuer,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterParams carries validated registration input.
type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates a disabled account, issues an activation code, and hands
// the code to the notifier once the account and token rows are committed.
func (s *Service) Register(ctx context.Context, params RegisterParams) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := User{
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: string(hash),
		Enabled:      false,
		Roles:        []string{RoleUser},
	}

	var code string
	err = s.repo.WithTx(ctx, func(ctx context.Context, r Repository) error {
		id, err := r.CreateUser(ctx, user)
		if err != nil {
			return err
		}
		code, err = s.issuer.Issue(ctx, r, id)
		return err
	})
	if err != nil {
		return err
	}

	s.notify(ctx, user.Email, user.FullName(), code)
	return nil
}

// Activate redeems an activation code. An expired code re-issues a fresh one
// to the same user and still fails with shared.ErrTokenExpired; a consumed
// code fails with shared.ErrTokenUsed and never re-enables the account.
func (s *Service) Activate(ctx context.Context, code string) error {
	var (
		reissued     string
		reissuedUser *User
	)

	err := s.repo.WithTx(ctx, func(ctx context.Context, r Repository) error {
		t, err := r.FindActivationTokenByCode(ctx, code)
		if err != nil {
			return err
		}
		if t.ValidatedAt != nil {
			return shared.ErrTokenUsed
		}

		if s.now().After(t.ExpiresAt) {
			user, err := r.FindUserByID(ctx, t.UserID)
			if err != nil {
				return err
			}
			reissued, err = s.issuer.Issue(ctx, r, user.ID)
			if err != nil {
				return err
			}
			reissuedUser = user
			// Commit the replacement token; the expiry itself is reported
			// after the transaction.
			return nil
		}

		if err := r.EnableUser(ctx, t.UserID); err != nil {
			return err
		}
		return r.MarkActivationTokenValidated(ctx, t.ID, s.now())
	})
	if err != nil {
		return err
	}

	if reissuedUser != nil {
		s.notify(ctx, reissuedUser.Email, reissuedUser.FullName(), reissued)
		return shared.ErrTokenExpired
	}
	return nil
}

// Authenticate validates email/password credentials against the account
// gates. Unknown emails and bad passwords are indistinguishable to callers.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.AccountLocked {
		return nil, shared.ErrAccountLocked
	}
	if !user.Enabled {
		return nil, shared.ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Identity builds the caller identity embedded in session tokens.
func (s *Service) Identity(user *User) shared.Identity {
	return shared.Identity{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.FullName(),
		Authorities: user.Roles,
	}
}

func (s *Service) notify(ctx context.Context, email, name, code string) {
	if err := s.notifier.EnqueueActivation(ctx, email, name, code); err != nil {
		s.logger.Warn("enqueue activation email", slog.String("email", email), slog.Any("error", err))
	}
}
