package vault

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// decrypt reverses the vault's symmetric encryption of its response
// payload. The source uses a Fernet key (AES-CBC + HMAC under a shared
// secret); the Go side uses an AEAD construction — XChaCha20-Poly1305 from
// the same x/crypto module the teacher already depends on — keyed by a
// SHA-256 digest of VAULT_SECRET_KEY so any configured secret string maps
// to a valid 32-byte key. The wire format is nonce || ciphertext, the
// nonce being chacha20poly1305.NonceSizeX bytes.
func decrypt(secretKey string, ciphertext []byte) ([]byte, error) {
	key := sha256.Sum256([]byte(secretKey))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("build aead: %w", err)
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext shorter than nonce")
	}
	nonce, box := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, box, nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return plaintext, nil
}

// encrypt is the inverse of decrypt; exercised only by tests that need to
// fabricate a vault response, mirroring how a real vault would produce one.
func encrypt(secretKey string, plaintext []byte) ([]byte, error) {
	key := sha256.Sum256([]byte(secretKey))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("build aead: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func loadPrivateKey(b64PEM string) (*rsa.PrivateKey, error) {
	raw, err := loadPEMField(b64PEM)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("invalid PEM block")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key is not RSA")
	}
	return key, nil
}

func loadPublicKey(b64PEM string) (*rsa.PublicKey, error) {
	raw, err := loadPEMField(b64PEM)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("invalid PEM block")
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("key is not RSA")
	}
	return key, nil
}
