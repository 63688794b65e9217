// Package jwtmanager signs, refreshes, and verifies bearer tokens using a
// pair of RSA keypairs sourced from the vault — the access keypair for
// short-lived tokens, the refresh keypair for longer-lived ones.
package jwtmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/toolbridge/gateway/internal/vault"
)

// ErrTokenExpired and ErrTokenInvalid are the tri-state validate() outcomes
// spec §4.3 requires (claims | expired | invalid).
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is not valid")
)

// KeySource supplies the RSA keypairs; implemented by *vault.Client in
// production and fakeable in tests.
type KeySource interface {
	Keys(ctx context.Context) (*vault.Keys, error)
}

// Manager is the JWT manager collaborator, constructor-injected rather than
// a module-level singleton (per the design note on global singletons).
type Manager struct {
	keys      KeySource
	algorithm string

	accessExpire  time.Duration
	refreshExpire time.Duration
}

func New(keys KeySource, algorithm string, accessExpire, refreshExpire time.Duration) *Manager {
	return &Manager{
		keys:          keys,
		algorithm:     algorithm,
		accessExpire:  accessExpire,
		refreshExpire: refreshExpire,
	}
}

// CreateToken signs claims ∪ {exp: now + access expiry} with the access
// private key.
func (m *Manager) CreateToken(ctx context.Context, claims map[string]any) (string, error) {
	keys, err := m.keys.Keys(ctx)
	if err != nil {
		return "", fmt.Errorf("jwtmanager: load keys: %w", err)
	}
	return m.sign(claims, m.accessExpire, keys.PrivateKey)
}

// RefreshToken signs claims ∪ {exp: now + refresh expiry} with the refresh
// private key.
func (m *Manager) RefreshToken(ctx context.Context, claims map[string]any) (string, error) {
	keys, err := m.keys.Keys(ctx)
	if err != nil {
		return "", fmt.Errorf("jwtmanager: load keys: %w", err)
	}
	return m.sign(claims, m.refreshExpire, keys.RefreshPrivateKey)
}

// signingMethod selects the configured ALGORITHM (spec §4.3), falling back
// to RS256 if it names something jwt.GetSigningMethod doesn't recognize or
// isn't set.
func (m *Manager) signingMethod() jwt.SigningMethod {
	if method := jwt.GetSigningMethod(m.algorithm); method != nil {
		return method
	}
	return jwt.SigningMethodRS256
}

func (m *Manager) sign(claims map[string]any, ttl time.Duration, key any) (string, error) {
	mc := jwt.MapClaims{}
	for k, v := range claims {
		if k == "password" {
			continue // sensitive fields must never reach the signed payload
		}
		mc[k] = v
	}
	mc["exp"] = time.Now().Add(ttl).Unix()

	tok := jwt.NewWithClaims(m.signingMethod(), mc)
	signed, err := tok.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("jwtmanager: sign: %w", err)
	}
	return signed, nil
}

// Validate verifies a token against the access public key, returning the
// claim set on success or one of ErrTokenExpired / ErrTokenInvalid.
func (m *Manager) Validate(ctx context.Context, tokenString string) (jwt.MapClaims, error) {
	keys, err := m.keys.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtmanager: load keys: %w", err)
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Method.Alg())
		}
		return keys.PublicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
