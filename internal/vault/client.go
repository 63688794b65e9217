// Package vault is the Key Provider: it fetches the gateway's RSA key
// bundle from an external vault service over gRPC, decrypts the payload,
// and caches the parsed keys behind a TTL the way the teacher's jwksCache
// caches JWKS-fetched keys.
package vault

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/toolbridge/gateway/internal/vaultpb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Keys is the parsed RSA key bundle served by the vault.
type Keys struct {
	PrivateKey        *rsa.PrivateKey
	RefreshPrivateKey *rsa.PrivateKey
	PublicKey         *rsa.PublicKey
	RefreshPublicKey  *rsa.PublicKey
}

// Client fetches and caches the key bundle for one system code.
type Client struct {
	systemCode string
	secretKey  string
	addr       string

	cacheTTL time.Duration

	mu        sync.RWMutex
	cached    *Keys
	fetchedAt time.Time

	dialOnce sync.Once
	conn     *grpc.ClientConn
	dialErr  error
}

// NewClient builds a vault Client. The gRPC channel is dialed lazily on
// first use so that a transient vault outage doesn't block process startup.
func NewClient(addr, systemCode, secretKey string) *Client {
	return &Client{
		systemCode: systemCode,
		secretKey:  secretKey,
		addr:       addr,
		cacheTTL:   5 * time.Minute,
	}
}

func (c *Client) dial() (*grpc.ClientConn, error) {
	c.dialOnce.Do(func() {
		c.conn, c.dialErr = grpc.NewClient(
			c.addr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithDefaultCallOptions(grpc.ForceCodec(vaultpb.JSONCodec{})),
		)
	})
	return c.conn, c.dialErr
}

// Keys returns the cached bundle if fresh, otherwise fetches and decrypts a
// new one. Caching is optional per the source's contract; a cache miss or
// expiry always re-fetches, so correctness never depends on the cache.
func (c *Client) Keys(ctx context.Context) (*Keys, error) {
	c.mu.RLock()
	if c.cached != nil && time.Since(c.fetchedAt) < c.cacheTTL {
		k := c.cached
		c.mu.RUnlock()
		return k, nil
	}
	c.mu.RUnlock()

	keys, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cached = keys
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return keys, nil
}

func (c *Client) fetch(ctx context.Context) (*Keys, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, fmt.Errorf("vault: dial: %w", err)
	}
	client := vaultpb.NewKeysPairsServiceClient(conn)

	var resp *vaultpb.EncryptKeysResponse
	op := func() error {
		var rpcErr error
		resp, rpcErr = client.KeysPairs(ctx, &vaultpb.EncryptKeysRequest{SystemCode: c.systemCode})
		return rpcErr
	}
	boff := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)
	if err := backoff.Retry(op, boff); err != nil {
		return nil, fmt.Errorf("vault: keysPairs rpc: %w", err)
	}

	plaintext, err := decrypt(c.secretKey, resp.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("vault: decrypt payload: %w", err)
	}

	var bundle map[string]string
	if err := json.Unmarshal(plaintext, &bundle); err != nil {
		return nil, fmt.Errorf("vault: parse decrypted payload: %w", err)
	}

	keys := &Keys{}
	for field, dst := range map[string]**rsa.PrivateKey{
		"private_key":         &keys.PrivateKey,
		"refresh_private_key": &keys.RefreshPrivateKey,
	} {
		pk, err := loadPrivateKey(bundle[field])
		if err != nil {
			return nil, fmt.Errorf("vault: load %s: %w", field, err)
		}
		*dst = pk
	}
	for field, dst := range map[string]**rsa.PublicKey{
		"public_key":         &keys.PublicKey,
		"refresh_public_key": &keys.RefreshPublicKey,
	} {
		pub, err := loadPublicKey(bundle[field])
		if err != nil {
			return nil, fmt.Errorf("vault: load %s: %w", field, err)
		}
		*dst = pub
	}

	return keys, nil
}

func loadPEMField(b64 string) ([]byte, error) {
	if b64 == "" {
		return nil, fmt.Errorf("missing field")
	}
	return base64.StdEncoding.DecodeString(b64)
}

// Close releases the underlying gRPC connection, if one was dialed.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
