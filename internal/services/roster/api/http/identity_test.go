package httpapi

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
)

func signedToken(t *testing.T, key ed25519.PrivateKey, mutate func(*identityClaims)) string {
	t.Helper()
	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "iss",
			Audience:  jwt.ClaimStrings{"aud"},
			Subject:   "discord:42",
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Minute)),
		},
		Name: "Kael",
		Role: "lead",
	}
	if mutate != nil {
		mutate(&claims)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestVerifyToken(t *testing.T) {
	t.Parallel()

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	cfg := TokenConfig{Issuer: "iss", Audience: "aud", Key: pub, Now: func() time.Time { return testNow }}

	actor, err := VerifyToken(signedToken(t, priv, nil), cfg)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if actor.ExternalIdentity != "discord:42" || actor.DisplayName != "Kael" || actor.Role != "lead" {
		t.Fatalf("actor = %+v", actor)
	}

	tests := map[string]func(*identityClaims){
		"expired":        func(c *identityClaims) { c.ExpiresAt = jwt.NewNumericDate(testNow.Add(-time.Second)) },
		"missing exp":    func(c *identityClaims) { c.ExpiresAt = nil },
		"wrong issuer":   func(c *identityClaims) { c.Issuer = "other" },
		"wrong audience": func(c *identityClaims) { c.Audience = jwt.ClaimStrings{"other"} },
		"not yet valid":  func(c *identityClaims) { c.NotBefore = jwt.NewNumericDate(testNow.Add(time.Minute)) },
		"missing sub":    func(c *identityClaims) { c.Subject = " " },
	}
	for name, mutate := range tests {
		_, err := VerifyToken(signedToken(t, priv, mutate), cfg)
		if !apperrors.IsCode(err, apperrors.CodeUnauthenticated) {
			t.Fatalf("%s: err = %v, want UNAUTHENTICATED", name, err)
		}
	}

	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "x"}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign hs256: %v", err)
	}
	if _, err := VerifyToken(hs, cfg); !apperrors.IsCode(err, apperrors.CodeUnauthenticated) {
		t.Fatalf("hs256 err = %v, want UNAUTHENTICATED", err)
	}
	if _, err := VerifyToken("", cfg); !apperrors.IsCode(err, apperrors.CodeUnauthenticated) {
		t.Fatalf("empty err = %v", err)
	}
}

func TestLoadTokenConfig(t *testing.T) {
	t.Parallel()

	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	encoded := base64.RawStdEncoding.EncodeToString(pub)

	cfg, err := LoadTokenConfig(" iss ", "aud", encoded, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Issuer != "iss" || !cfg.Key.Equal(pub) || cfg.Now == nil {
		t.Fatalf("cfg = %+v", cfg)
	}

	bad := []struct{ issuer, audience, key string }{
		{"", "aud", encoded},
		{"iss", "", encoded},
		{"iss", "aud", ""},
		{"iss", "aud", "not base64!"},
		{"iss", "aud", base64.StdEncoding.EncodeToString([]byte("short"))},
	}
	for _, tt := range bad {
		if _, err := LoadTokenConfig(tt.issuer, tt.audience, tt.key, nil); err == nil {
			t.Fatalf("LoadTokenConfig(%q, %q, %q) succeeded", tt.issuer, tt.audience, tt.key)
		}
	}
}
