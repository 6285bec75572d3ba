package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultAccessTTL = 24 * time.Hour

// TokenService issues and validates signed session tokens. Tokens are
// self-contained: subject plus expiry under an HMAC signature, nothing is
// persisted and nothing can be revoked short of rotating the secret.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithAccessTTL overrides the default 24h token lifetime.
func WithAccessTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithIssuer sets the iss claim stamped on issued tokens.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			s.issuer = issuer
		}
	}
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService builds a token service around the signing secret. The
// secret must be supplied explicitly; there is no fallback default.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	s := &TokenService{
		secret: []byte(secret),
		issuer: "benchbook",
		ttl:    defaultAccessTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for the subject, valid from now until now+ttl.
func (s *TokenService) Issue(subject string) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("%w: token subject is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate checks signature and expiry and returns the embedded subject.
// Failures come back as *AuthenticationError with the concrete reason.
func (s *TokenService) Validate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", authnError(ReasonMissingToken, nil)
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", authnError(ReasonExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", authnError(ReasonBadSignature, err)
	default:
		return "", authnError(ReasonMalformed, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", authnError(ReasonMissingSubject, nil)
	}
	return claims.Subject, nil
}
