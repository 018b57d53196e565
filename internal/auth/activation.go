package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"
)

// CodeLength is the number of digits in an activation code.
const CodeLength = 6

// DefaultActivationTTL is how long an activation code stays redeemable.
const DefaultActivationTTL = 15 * time.Minute

// Issuer generates activation codes and persists them with a TTL. The random
// source is injected once at construction rather than instantiated per call.
type Issuer struct {
	rng io.Reader
	ttl time.Duration
	now func() time.Time
}

// NewIssuer constructs an Issuer backed by the process-wide secure random
// source. A zero ttl falls back to DefaultActivationTTL.
func NewIssuer(ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultActivationTTL
	}
	return &Issuer{rng: rand.Reader, ttl: ttl, now: time.Now}
}

// Issue generates a fresh code for the user and persists the token row
// through repo. It returns the code for delivery by the notification
// collaborator. Collisions across issuances are acceptable; codes are not
// deduplicated.
func (i *Issuer) Issue(ctx context.Context, repo Repository, userID int64) (string, error) {
	code, err := generateCode(i.rng, CodeLength)
	if err != nil {
		return "", err
	}
	now := i.now()
	_, err = repo.CreateActivationToken(ctx, ActivationToken{
		UserID:    userID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(i.ttl),
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// generateCode draws each digit independently and uniformly from 0-9.
func generateCode(rng io.Reader, length int) (string, error) {
	digits := make([]byte, length)
	ten := big.NewInt(10)
	for i := range digits {
		n, err := rand.Int(rng, ten)
		if err != nil {
			return "", fmt.Errorf("auth: generate activation code: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
