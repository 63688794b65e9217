package vault

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"testing"
)

func TestDecrypt_RoundTrip(t *testing.T) {
	secret := "test-vault-secret"
	plaintext := []byte(`{"hello":"world"}`)

	ct, err := encrypt(secret, plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	got, err := decrypt(secret, ct)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Fatalf("round trip mismatch: got %s", got)
	}
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	ct, err := encrypt("secret-a", []byte("payload"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := decrypt("secret-b", ct); err == nil {
		t.Fatalf("expected decrypt with wrong key to fail")
	}
}

func TestLoadPrivateAndPublicKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})

	privB64 := base64.StdEncoding.EncodeToString(privPEM)
	pubB64 := base64.StdEncoding.EncodeToString(pubPEM)

	gotPriv, err := loadPrivateKey(privB64)
	if err != nil {
		t.Fatalf("load private key: %v", err)
	}
	if gotPriv.N.Cmp(key.N) != 0 {
		t.Fatalf("private key mismatch")
	}

	gotPub, err := loadPublicKey(pubB64)
	if err != nil {
		t.Fatalf("load public key: %v", err)
	}
	if gotPub.N.Cmp(key.PublicKey.N) != 0 {
		t.Fatalf("public key mismatch")
	}
}

func TestDecryptedBundleShape(t *testing.T) {
	bundle := map[string]string{
		"private_key":         "x",
		"refresh_private_key": "y",
		"public_key":          "z",
		"refresh_public_key":  "w",
	}
	raw, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("marshal bundle: %v", err)
	}
	var back map[string]string
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal bundle: %v", err)
	}
	for k, v := range bundle {
		if back[k] != v {
			t.Fatalf("field %s mismatch", k)
		}
	}
}
