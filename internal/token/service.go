// Package token issues and validates signed, time-bounded session tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hypermedia-labs/trillas/internal/shared"
)

// Claims is the JWT claim set carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
	FullName    string   `json:"fullname,omitempty"`
	Authorities []string `json:"authorities,omitempty"`
}

// Service issues and validates HS256 session tokens. It holds no mutable
// state beyond the configured secret and TTL.
type Service struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	now        func() time.Time
}

// NewService constructs a token Service.
func NewService(signingKey []byte, ttl time.Duration, issuer string) *Service {
	return &Service{
		signingKey: signingKey,
		ttl:        ttl,
		issuer:     issuer,
		now:        time.Now,
	}
}

// Issue builds a signed token for the identity with sub=email, the display
// name and authority list as custom claims, iat=now and exp=now+TTL.
func (s *Service) Issue(identity shared.Identity) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   identity.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		FullName:    identity.Name,
		Authorities: identity.Authorities,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Validate reports whether the token is authentic, unexpired, and issued for
// expectedSubject. Malformed or unverifiable tokens are invalid; nothing is
// thrown past this boundary.
func (s *Service) Validate(tokenString, expectedSubject string) bool {
	claims, err := s.parse(tokenString, true)
	if err != nil {
		return false
	}
	if claims.Subject != expectedSubject {
		return false
	}
	return claims.ExpiresAt != nil && s.now().Before(claims.ExpiresAt.Time)
}

// ExtractSubject returns the subject of a token without enforcing expiry.
// The signature is still verified; the result is only good enough for the
// account lookup that precedes full validation.
func (s *Service) ExtractSubject(tokenString string) (string, error) {
	claims, err := s.parse(tokenString, false)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ParseClaims verifies the signature and returns the full claim set.
func (s *Service) ParseClaims(tokenString string) (*Claims, error) {
	return s.parse(tokenString, true)
}

func (s *Service) parse(tokenString string, enforceExpiry bool) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if !enforceExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	if s.issuer != "" && enforceExpiry {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("token: unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token: unable to decode claims")
	}
	return claims, nil
}
