package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const issuer = "textbook-exchange"

// Claims is the payload of a bearer token. The subject is the user's e-mail.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 bearer tokens with one
// process-wide secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option customises a TokenService.
type Option func(*TokenService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret string, ttl time.Duration, opts ...Option) *TokenService {
	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for subject, valid from now until now+TTL.
func (s *TokenService) Issue(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is empty")
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, algorithm, issuer and expiry and returns the
// claims. Expired, malformed or foreign tokens yield an error.
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// ExtractSubject returns the token subject. Parse errors are returned as is
// and the caller must not assume a subject.
func (s *TokenService) ExtractSubject(tokenString string) (string, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ValidateToken reports whether the token is well formed, correctly signed
// and not expired. It never fails loudly.
func (s *TokenService) ValidateToken(tokenString string) bool {
	_, err := s.Parse(tokenString)
	return err == nil
}

// IsTokenValid is the strict check: the token must be valid and belong to
// expectedSubject.
func (s *TokenService) IsTokenValid(tokenString, expectedSubject string) bool {
	subject, err := s.ExtractSubject(tokenString)
	if err != nil {
		return false
	}
	return subject == expectedSubject
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
