// Package jwt issues and verifies the HS256-signed session tokens used by
// tasktrack, and adapts verification into an auth.Authenticator.
//
// Tokens are self-contained: the subject carries the user id, and the
// email and role claims are informational. Verification proves identity
// at issuance time only; the authenticator resolves the live role from
// the identity store on every request.
package jwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rhuss/tasktrack/pkg/auth"
)

// MinKeyBytes is the minimum HMAC key length (256 bits).
const MinKeyBytes = 32

// DefaultExpiration is used when Config.Expiration is zero.
const DefaultExpiration = time.Hour

// Verification errors. Every failure returned by Verify wraps exactly one.
var (
	ErrMalformed        = errors.New("token malformed")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
)

// ErrInvalidKey is returned by New for a secret that is not usable.
var ErrInvalidKey = errors.New("invalid signing key")

// Config holds the token service configuration.
type Config struct {
	// Secret is the base64-encoded HMAC key. It must decode to at least
	// MinKeyBytes bytes.
	Secret string

	// Expiration is the token lifetime. Default: 1 hour.
	Expiration time.Duration

	// Now overrides the clock, for tests. Default: time.Now.
	Now func() time.Time
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Expiration == 0 {
		c.Expiration = DefaultExpiration
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Claims is the token payload.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwtlib.RegisteredClaims
}

// Service issues and verifies tokens. It is immutable after New and safe
// for concurrent use.
type Service struct {
	key        []byte
	expiration time.Duration
	now        func() time.Time
}

// New creates a token service. It fails when the secret is not valid base64
// or is shorter than MinKeyBytes, or when the expiration is negative.
func New(cfg Config) (*Service, error) {
	cfg.applyDefaults()

	key, err := decodeKey(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(key) < MinKeyBytes {
		return nil, fmt.Errorf("%w: key is %d bits, need at least %d", ErrInvalidKey, len(key)*8, MinKeyBytes*8)
	}
	if cfg.Expiration < 0 {
		return nil, fmt.Errorf("token expiration must not be negative, got %s", cfg.Expiration)
	}

	return &Service{
		key:        key,
		expiration: cfg.Expiration,
		now:        cfg.Now,
	}, nil
}

// decodeKey accepts standard base64 with or without padding.
func decodeKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("secret is empty")
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err == nil {
		return key, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(secret); rawErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("secret is not valid base64: %w", err)
}

// Expiration returns the configured token lifetime.
func (s *Service) Expiration() time.Duration {
	return s.expiration
}

// Issue signs a token for p with iat = now and exp = now + expiration.
func (s *Service) Issue(p auth.Principal, email string) (string, error) {
	if !p.Role.Valid() {
		return "", fmt.Errorf("cannot issue token for role %q", p.Role)
	}

	now := s.now()
	claims := Claims{
		Email: email,
		Role:  string(p.Role),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   strconv.FormatInt(p.UserID, 10),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.expiration)),
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns the principal
// it names. The role is the one claimed at issuance.
func (s *Service) Verify(raw string) (auth.Principal, error) {
	claims, err := s.VerifyClaims(raw)
	if err != nil {
		return auth.Principal{}, err
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return auth.Principal{}, fmt.Errorf("%w: subject %q is not a user id", ErrMalformed, claims.Subject)
	}

	role, err := auth.ParseRole(claims.Role)
	if err != nil {
		return auth.Principal{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return auth.NewPrincipal(userID, role), nil
}

// VerifyClaims checks the signature and expiry of raw and returns its claims.
func (s *Service) VerifyClaims(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(token *jwtlib.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	}, s.parserOptions()...)
	if err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

// parserOptions builds JWT parser options.
func (s *Service) parserOptions() []jwtlib.ParserOption {
	return []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.now),
	}
}

// classify maps library errors onto the three verification outcomes.
// The library verifies the signature before any claim, so an expired token
// with a bad signature reports ErrInvalidSignature.
func classify(err error) error {
	switch {
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid), errors.Is(err, jwtlib.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

// Reason maps a Verify error to the failure reason recorded in logs and metrics.
func Reason(err error) auth.FailureReason {
	switch {
	case errors.Is(err, ErrInvalidSignature):
		return auth.ReasonInvalidSignature
	case errors.Is(err, ErrExpired):
		return auth.ReasonExpired
	default:
		return auth.ReasonMalformed
	}
}
