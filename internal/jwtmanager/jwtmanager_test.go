package jwtmanager

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/toolbridge/gateway/internal/vault"
)

// fakeKeySource stands in for the vault client in tests, the way the
// teacher's mockJWKSServer fixtures stand in for a live JWKS endpoint.
type fakeKeySource struct {
	keys *vault.Keys
}

func (f *fakeKeySource) Keys(context.Context) (*vault.Keys, error) {
	return f.keys, nil
}

func newFakeKeySource(t *testing.T) *fakeKeySource {
	t.Helper()
	access, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate access key: %v", err)
	}
	refresh, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate refresh key: %v", err)
	}
	return &fakeKeySource{keys: &vault.Keys{
		PrivateKey:        access,
		PublicKey:         &access.PublicKey,
		RefreshPrivateKey: refresh,
		RefreshPublicKey:  &refresh.PublicKey,
	}}
}

func TestCreateAndValidate_RoundTrip(t *testing.T) {
	ks := newFakeKeySource(t)
	m := New(ks, "RS256", time.Hour, 7*24*time.Hour)

	claims := map[string]any{"email": "a@b.c", "password": "shouldnotappear"}
	tok, err := m.CreateToken(context.Background(), claims)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	got, err := m.Validate(context.Background(), tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got["email"] != "a@b.c" {
		t.Fatalf("expected email claim to survive, got %v", got["email"])
	}
	if _, ok := got["password"]; ok {
		t.Fatalf("password claim must never be signed into the token")
	}
	if _, ok := got["exp"]; !ok {
		t.Fatalf("expected exp claim to be set")
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	ks := newFakeKeySource(t)
	m := New(ks, "RS256", -time.Minute, 7*24*time.Hour)

	tok, err := m.CreateToken(context.Background(), map[string]any{"email": "a@b.c"})
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	_, err = m.Validate(context.Background(), tok)
	if err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidate_InvalidToken(t *testing.T) {
	ks := newFakeKeySource(t)
	m := New(ks, "RS256", time.Hour, 7*24*time.Hour)

	_, err := m.Validate(context.Background(), "not-a-jwt")
	if err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestRefreshToken_UsesRefreshKey(t *testing.T) {
	ks := newFakeKeySource(t)
	m := New(ks, "RS256", time.Hour, 7*24*time.Hour)

	tok, err := m.RefreshToken(context.Background(), map[string]any{"email": "a@b.c"})
	if err != nil {
		t.Fatalf("refresh token: %v", err)
	}

	// Validating with the access manager (which checks against the access
	// public key) must fail since the refresh token was signed with a
	// different private key.
	if _, err := m.Validate(context.Background(), tok); err == nil {
		t.Fatalf("expected refresh token to fail access-key validation")
	}
}
