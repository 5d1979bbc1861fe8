package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig holds session token verification settings.
type JWTConfig struct {
	// Issuer is the expected iss claim. Empty disables the check.
	Issuer string
	// AuthorizedParties lists accepted azp values. Empty accepts any.
	AuthorizedParties []string
	// Leeway tolerates clock skew on exp and nbf.
	Leeway time.Duration
}

type sessionClaims struct {
	jwt.RegisteredClaims
	AuthorizedParty string `json:"azp,omitempty"`
	SessionID       string `json:"sid,omitempty"`
}

// JWTVerifier verifies RS256 session tokens issued by the identity provider.
type JWTVerifier struct {
	keyFunc    jwt.Keyfunc
	parser     *jwt.Parser
	authorized map[string]bool
}

// NewJWTVerifier creates a verifier that resolves signing keys through keyFunc.
func NewJWTVerifier(keyFunc jwt.Keyfunc, cfg JWTConfig) (*JWTVerifier, error) {
	if keyFunc == nil {
		return nil, errors.New("key function is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	authorized := make(map[string]bool, len(cfg.AuthorizedParties))
	for _, p := range cfg.AuthorizedParties {
		if p != "" {
			authorized[p] = true
		}
	}

	return &JWTVerifier{
		keyFunc:    keyFunc,
		parser:     jwt.NewParser(opts...),
		authorized: authorized,
	}, nil
}

// Verify parses and validates token and returns the session it asserts.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var claims sessionClaims
	_, err := v.parser.ParseWithClaims(token, &claims, v.keyFunc)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	if len(v.authorized) > 0 && claims.AuthorizedParty != "" && !v.authorized[claims.AuthorizedParty] {
		return nil, fmt.Errorf("%w: unauthorized party %q", ErrInvalidToken, claims.AuthorizedParty)
	}

	s := &Session{
		Subject:         claims.Subject,
		SessionID:       claims.SessionID,
		AuthorizedParty: claims.AuthorizedParty,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// JWKSConfig controls the remote key set.
type JWKSConfig struct {
	URL             string
	RefreshInterval time.Duration
	RefreshTimeout  time.Duration
}

// NewJWKS fetches the identity provider's key set and keeps it refreshed in
// the background until ctx is done.
func NewJWKS(ctx context.Context, cfg JWKSConfig) (*keyfunc.JWKS, error) {
	if cfg.URL == "" {
		return nil, errors.New("JWKS URL is required")
	}

	jwks, err := keyfunc.Get(cfg.URL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   cfg.RefreshInterval,
		RefreshTimeout:    cfg.RefreshTimeout,
		RefreshRateLimit:  time.Minute,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			slog.Warn("JWKS refresh failed", "error", err, "url", cfg.URL)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetching JWKS: %w", err)
	}

	return jwks, nil
}
