// Package jwtauth validates JWT bearer tokens against a configured
// issuer, audience, and signing policy. Keys come either from an
// auto-refreshing JWKS endpoint or from a caller-supplied keyfunc.
package jwtauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/openfacet/facet-go/auth"
)

// Config controls validation behavior for access tokens.
type Config struct {
	Issuer string
	// ExpectedAudiences contains the audiences the token may be issued
	// for. At least one must intersect the token's aud claim.
	ExpectedAudiences []string
	// RequiredScopes must all be present in the token's scope claim.
	// Empty means no scope policy.
	RequiredScopes []string
	AllowedAlgs    []string
	Leeway         time.Duration
}

func (c *Config) applyDefaults() {
	if len(c.AllowedAlgs) == 0 {
		c.AllowedAlgs = []string{"RS256"}
	}
	if c.Leeway == 0 {
		c.Leeway = 60 * time.Second
	}
}

type authenticator struct {
	cfg     Config
	keyfunc jwt.Keyfunc
}

var _ auth.Authenticator = (*authenticator)(nil)

// New constructs an Authenticator whose keys are fetched and refreshed
// from the JWKS document at jwksURI.
func New(ctx context.Context, cfg Config, jwksURI string) (auth.Authenticator, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if len(cfg.ExpectedAudiences) == 0 {
		return nil, errors.New("at least one expected audience is required")
	}
	if jwksURI == "" {
		return nil, errors.New("jwks uri is required")
	}

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURI})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}

	return NewWithKeyfunc(cfg, kf.Keyfunc)
}

// NewWithKeyfunc constructs an Authenticator around a caller-supplied
// key resolution function. Intended for static keys and tests.
func NewWithKeyfunc(cfg Config, kf jwt.Keyfunc) (auth.Authenticator, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if len(cfg.ExpectedAudiences) == 0 {
		return nil, errors.New("at least one expected audience is required")
	}
	if kf == nil {
		return nil, errors.New("keyfunc is required")
	}
	cfg.applyDefaults()

	return &authenticator{
		cfg: cfg,
		keyfunc: func(t *jwt.Token) (any, error) {
			alg := t.Method.Alg()
			allowed := false
			for _, a := range cfg.AllowedAlgs {
				if alg == a {
					allowed = true
					break
				}
			}
			if !allowed {
				return nil, fmt.Errorf("disallowed alg: %s", alg)
			}
			return kf(t)
		},
	}, nil
}

func (a *authenticator) CheckAuthentication(ctx context.Context, tok string) (auth.UserInfo, error) {
	if tok == "" {
		return nil, fmt.Errorf("%w: empty token", auth.ErrUnauthorized)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods(a.cfg.AllowedAlgs),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(a.cfg.Issuer),
		jwt.WithLeeway(a.cfg.Leeway),
	)

	parsed, err := parser.Parse(tok, a.keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: token parse/verify failed: %v", auth.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims type", auth.ErrUnauthorized)
	}

	if !audIntersects(claims["aud"], a.cfg.ExpectedAudiences) {
		return nil, fmt.Errorf("%w: audience mismatch", auth.ErrUnauthorized)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub", auth.ErrUnauthorized)
	}

	if len(a.cfg.RequiredScopes) > 0 {
		granted := scopeSet(claims["scope"])
		for _, want := range a.cfg.RequiredScopes {
			if _, ok := granted[want]; !ok {
				return nil, fmt.Errorf("%w: missing scope %q", auth.ErrInsufficientScope, want)
			}
		}
	}

	return &userInfo{sub: sub, claims: claims}, nil
}

type userInfo struct {
	sub    string
	claims map[string]any
}

func (u *userInfo) UserID() string { return u.sub }

func (u *userInfo) Claims(ref any) error {
	b, err := json.Marshal(u.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, ref)
}

// audIntersects checks the aud claim (string or array) against the
// expected audiences.
func audIntersects(aud any, wants []string) bool {
	wantSet := make(map[string]struct{}, len(wants))
	for _, w := range wants {
		wantSet[w] = struct{}{}
	}

	switch v := aud.(type) {
	case string:
		_, ok := wantSet[v]
		return ok
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				if _, ok := wantSet[s]; ok {
					return true
				}
			}
		}
	case []string:
		for _, s := range v {
			if _, ok := wantSet[s]; ok {
				return true
			}
		}
	}
	return false
}

// scopeSet parses an RFC 8693 style space-delimited scope claim.
func scopeSet(claim any) map[string]struct{} {
	out := map[string]struct{}{}
	s, ok := claim.(string)
	if !ok {
		return out
	}
	for _, sc := range strings.Fields(s) {
		out[sc] = struct{}{}
	}
	return out
}
