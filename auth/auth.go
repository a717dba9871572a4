// Package auth issues and validates the bearer tokens carried by storage
// trigger events. Tokens are HMAC-signed JWTs; the shared secret is
// provisioned to both the object-store notifier and this service.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config configures the token service.
type Config struct {
	// Secret is the HMAC signing key.
	Secret string `yaml:"secret" mapstructure:"secret"`
	// Issuer is the expected "iss" claim. Empty disables the check.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// Audience is the expected "aud" claim. Empty disables the check.
	Audience string `yaml:"audience" mapstructure:"audience"`
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.TokenTTL <= 0 {
		c.TokenTTL = time.Hour
	}
}

// Claims are the claims carried by trigger tokens.
type Claims struct {
	jwt.RegisteredClaims
	// Scope restricts what the token may trigger, e.g. "events:write".
	Scope string `json:"scope,omitempty"`
}

// Service signs and verifies trigger tokens.
type Service struct {
	cfg Config
}

// NewService creates a token service. The secret is required.
func NewService(cfg Config) (*Service, error) {
	cfg.ApplyDefaults()
	if cfg.Secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	return &Service{cfg: cfg}, nil
}

// Issue signs a token for the given subject and scope.
func (s *Service) Issue(subject, scope string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
		Scope: scope,
	}
	if s.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

// Validate verifies the signature and time claims and returns the parsed
// claims. Only HS256 tokens are accepted.
func (s *Service) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.Audience))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("auth: invalid token")
	}
	return claims, nil
}

func (s *Service) keyFunc(_ *jwt.Token) (interface{}, error) {
	return []byte(s.cfg.Secret), nil
}
