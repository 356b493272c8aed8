package jwtauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/openfacet/facet-go/auth"
)

var testKey = []byte("test-signing-key")

func testConfig() Config {
	return Config{
		Issuer:            "https://issuer.example.com",
		ExpectedAudiences: []string{"https://ui.example.com"},
		AllowedAlgs:       []string{"HS256"},
	}
}

func newTestAuthenticator(t *testing.T, cfg Config) auth.Authenticator {
	t.Helper()
	a, err := NewWithKeyfunc(cfg, func(token *jwt.Token) (any, error) {
		return testKey, nil
	})
	if err != nil {
		t.Fatalf("NewWithKeyfunc: %v", err)
	}
	return a
}

func mintToken(t *testing.T, mutate func(claims jwt.MapClaims)) string {
	t.Helper()
	claims := jwt.MapClaims{
		"iss": "https://issuer.example.com",
		"aud": "https://ui.example.com",
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	if mutate != nil {
		mutate(claims)
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return tok
}

func TestCheckAuthenticationValidToken(t *testing.T) {
	a := newTestAuthenticator(t, testConfig())

	userInfo, err := a.CheckAuthentication(context.Background(), mintToken(t, nil))
	if err != nil {
		t.Fatalf("CheckAuthentication: %v", err)
	}
	if userInfo.UserID() != "user-1" {
		t.Fatalf("user id = %q", userInfo.UserID())
	}

	var claims struct {
		Iss string `json:"iss"`
		Sub string `json:"sub"`
	}
	if err := userInfo.Claims(&claims); err != nil {
		t.Fatalf("Claims: %v", err)
	}
	if claims.Iss != "https://issuer.example.com" || claims.Sub != "user-1" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestCheckAuthenticationRejections(t *testing.T) {
	a := newTestAuthenticator(t, testConfig())

	tests := []struct {
		name   string
		token  string
		target error
	}{
		{"empty token", "", auth.ErrUnauthorized},
		{"garbage token", "not.a.jwt", auth.ErrUnauthorized},
		{
			"expired",
			mintToken(t, func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() }),
			auth.ErrUnauthorized,
		},
		{
			"missing exp",
			mintToken(t, func(c jwt.MapClaims) { delete(c, "exp") }),
			auth.ErrUnauthorized,
		},
		{
			"wrong issuer",
			mintToken(t, func(c jwt.MapClaims) { c["iss"] = "https://evil.example.com" }),
			auth.ErrUnauthorized,
		},
		{
			"wrong audience",
			mintToken(t, func(c jwt.MapClaims) { c["aud"] = "https://other.example.com" }),
			auth.ErrUnauthorized,
		},
		{
			"missing sub",
			mintToken(t, func(c jwt.MapClaims) { delete(c, "sub") }),
			auth.ErrUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.CheckAuthentication(context.Background(), tc.token)
			if !errors.Is(err, tc.target) {
				t.Fatalf("error = %v, want %v", err, tc.target)
			}
		})
	}
}

func TestCheckAuthenticationAudienceList(t *testing.T) {
	a := newTestAuthenticator(t, testConfig())

	tok := mintToken(t, func(c jwt.MapClaims) {
		c["aud"] = []string{"https://other.example.com", "https://ui.example.com"}
	})

	if _, err := a.CheckAuthentication(context.Background(), tok); err != nil {
		t.Fatalf("CheckAuthentication: %v", err)
	}
}

func TestCheckAuthenticationScopePolicy(t *testing.T) {
	cfg := testConfig()
	cfg.RequiredScopes = []string{"ui:read", "ui:write"}
	a := newTestAuthenticator(t, cfg)

	t.Run("all scopes granted", func(t *testing.T) {
		tok := mintToken(t, func(c jwt.MapClaims) { c["scope"] = "ui:read ui:write extra" })
		if _, err := a.CheckAuthentication(context.Background(), tok); err != nil {
			t.Fatalf("CheckAuthentication: %v", err)
		}
	})

	t.Run("missing scope", func(t *testing.T) {
		tok := mintToken(t, func(c jwt.MapClaims) { c["scope"] = "ui:read" })
		_, err := a.CheckAuthentication(context.Background(), tok)
		if !errors.Is(err, auth.ErrInsufficientScope) {
			t.Fatalf("error = %v, want ErrInsufficientScope", err)
		}
	})

	t.Run("no scope claim", func(t *testing.T) {
		tok := mintToken(t, nil)
		_, err := a.CheckAuthentication(context.Background(), tok)
		if !errors.Is(err, auth.ErrInsufficientScope) {
			t.Fatalf("error = %v, want ErrInsufficientScope", err)
		}
	})
}

func TestCheckAuthenticationDisallowedAlg(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedAlgs = []string{"RS256"}
	a := newTestAuthenticator(t, cfg)

	// Token is HS256-signed; only RS256 is allowed.
	_, err := a.CheckAuthentication(context.Background(), mintToken(t, nil))
	if !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
}

func TestNewWithKeyfuncValidation(t *testing.T) {
	kf := func(token *jwt.Token) (any, error) { return testKey, nil }

	if _, err := NewWithKeyfunc(Config{ExpectedAudiences: []string{"a"}}, kf); err == nil {
		t.Fatal("expected error for missing issuer")
	}
	if _, err := NewWithKeyfunc(Config{Issuer: "i"}, kf); err == nil {
		t.Fatal("expected error for missing audiences")
	}
	if _, err := NewWithKeyfunc(testConfig(), nil); err == nil {
		t.Fatal("expected error for nil keyfunc")
	}
}
