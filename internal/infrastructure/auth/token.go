package auth

import (
	"errors"
	"fmt"
	"time"

	"flightsurety-ledger/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const minSecretLength = 32

// TokenService issues and validates HS256 caller tokens. The subject claim
// carries the caller identity.
type TokenService struct {
	secret    []byte
	issuer    string
	lifetime  time.Duration
	clockSkew time.Duration
	now       func() time.Time
}

// NewTokenService creates a new token service
func NewTokenService(secret, issuer string, lifetime time.Duration) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	return &TokenService{
		secret:    []byte(secret),
		issuer:    issuer,
		lifetime:  lifetime,
		clockSkew: time.Minute,
		now:       time.Now,
	}, nil
}

// Generate signs a token for caller. A zero lifetime issues a token that
// does not expire.
func (s *TokenService) Generate(caller entity.Identity) (string, error) {
	caller = entity.ParseIdentity(string(caller))
	if caller.IsZero() {
		return "", errors.New("caller identity is required")
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:  string(caller),
		Issuer:   s.issuer,
		IssuedAt: jwt.NewNumericDate(now),
		ID:       uuid.NewString(),
	}
	if s.lifetime > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.lifetime))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks the token and returns the caller identity it names
func (s *TokenService) Validate(tokenString string) (entity.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return "", ErrExpiredToken
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	caller := entity.ParseIdentity(claims.Subject)
	if caller.IsZero() {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return caller, nil
}
