package httpapi

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
	"github.com/louisbranch/raidroster/internal/platform/requestctx"
)

// TokenConfig defines how bearer identity tokens are verified.
type TokenConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// identityClaims is the claims type used for JWT parsing. The subject is
// the caller's external identity.
type identityClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

// LoadTokenConfig validates raw verification settings. publicKey is a
// base64 encoded Ed25519 public key.
func LoadTokenConfig(issuer, audience, publicKey string, now func() time.Time) (TokenConfig, error) {
	issuer = strings.TrimSpace(issuer)
	audience = strings.TrimSpace(audience)
	publicKey = strings.TrimSpace(publicKey)
	if issuer == "" {
		return TokenConfig{}, errors.New("token issuer is required")
	}
	if audience == "" {
		return TokenConfig{}, errors.New("token audience is required")
	}
	if publicKey == "" {
		return TokenConfig{}, errors.New("token public key is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return TokenConfig{}, fmt.Errorf("decode token public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return TokenConfig{}, fmt.Errorf("token public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return TokenConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// VerifyToken checks signature, issuer, audience and lifetime and returns
// the identity the token asserts.
func VerifyToken(token string, cfg TokenConfig) (requestctx.Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return requestctx.Actor{}, apperrors.New(apperrors.CodeUnauthenticated, "bearer token is required")
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return requestctx.Actor{}, errors.New("token verifier is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var parsed identityClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return requestctx.Actor{}, mapJWTError(err)
	}

	if parsed.Issuer != cfg.Issuer {
		return requestctx.Actor{}, invalidToken("issuer")
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return requestctx.Actor{}, invalidToken("audience")
	}
	if parsed.ExpiresAt == nil {
		return requestctx.Actor{}, apperrors.New(apperrors.CodeUnauthenticated, "token exp is required")
	}
	now := cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.After(now) {
		return requestctx.Actor{}, apperrors.New(apperrors.CodeUnauthenticated, "token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time) {
		return requestctx.Actor{}, apperrors.New(apperrors.CodeUnauthenticated, "token not active yet")
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return requestctx.Actor{}, invalidToken("sub")
	}

	return requestctx.Actor{
		ExternalIdentity: strings.TrimSpace(parsed.Subject),
		DisplayName:      strings.TrimSpace(parsed.Name),
		Role:             strings.TrimSpace(parsed.Role),
	}, nil
}

// Authenticate verifies the Authorization bearer token and stores the
// asserted identity in the request context.
func Authenticate(cfg TokenConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeError(w, apperrors.New(apperrors.CodeUnauthenticated, "bearer token is required"))
				return
			}
			actor, err := VerifyToken(token, cfg)
			if err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithActor(r.Context(), actor)))
		})
	}
}

func invalidToken(field string) error {
	return apperrors.WithMetadata(apperrors.CodeUnauthenticated, "token "+field+" is invalid",
		map[string]string{"Field": field})
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeUnauthenticated, "token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeUnauthenticated, "token alg is invalid")
	}
	return apperrors.Wrap(apperrors.CodeUnauthenticated, "token is malformed", err)
}

func audienceContains(audience jwt.ClaimStrings, expected string) bool {
	for _, value := range audience {
		if value == expected {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
