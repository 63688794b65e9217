// Package config loads the gateway's environment-driven configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every environment-driven setting the gateway needs at
// startup. All fields are required unless a default is noted below.
type Config struct {
	ProjectName string
	Algorithm   string

	DatabaseURL string

	SystemCode     string
	VaultSecretKey string
	GRPCServerAddr string

	AccessTokenExpire  time.Duration
	RefreshTokenExpire time.Duration

	RequestsPerSecond int
	RequestInterval   time.Duration
	BlockDuration     time.Duration

	HTTPAddr string
	Env      string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

// Load reads Config from the process environment, applying the defaults
// from spec §6 and failing fast on malformed (not missing) numeric fields.
func Load() (Config, error) {
	var cfg Config
	cfg.ProjectName = env("PROJECT_NAME", "toolbridge-gateway")
	cfg.Algorithm = env("ALGORITHM", "RS256")
	cfg.DatabaseURL = env("DATABASE_URL", "")
	cfg.SystemCode = env("SYSTEM_CODE", "")
	cfg.VaultSecretKey = env("VAULT_SECRET_KEY", "")
	cfg.GRPCServerAddr = env("GRPC_SERVER_ADDRESS", "")
	cfg.HTTPAddr = env("HTTP_ADDR", ":8080")
	cfg.Env = env("ENV", "")

	accessMin, err := envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 3600)
	if err != nil {
		return cfg, err
	}
	refreshMin, err := envInt("REFRESH_TOKEN_EXPIRE_MINUTES", 10080)
	if err != nil {
		return cfg, err
	}
	cfg.AccessTokenExpire = time.Duration(accessMin) * time.Minute
	cfg.RefreshTokenExpire = time.Duration(refreshMin) * time.Minute

	rps, err := envInt("REQUESTS_PER_SECOND", 15)
	if err != nil {
		return cfg, err
	}
	intervalSec, err := envInt("REQUEST_INTERVAL", 1)
	if err != nil {
		return cfg, err
	}
	blockSec, err := envInt("BLOCK_DURATION", 60)
	if err != nil {
		return cfg, err
	}
	cfg.RequestsPerSecond = rps
	cfg.RequestInterval = time.Duration(intervalSec) * time.Second
	cfg.BlockDuration = time.Duration(blockSec) * time.Second

	return cfg, nil
}

// Validate checks that the required fields are set, mirroring the
// teacher's fail-fast log.Fatal() checks in cmd/server/main.go but as an
// explicit error so main can decide how to surface it.
func (c Config) Validate() error {
	missing := func(name, v string) error {
		if v == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
	for _, check := range []struct {
		name string
		val  string
	}{
		{"DATABASE_URL", c.DatabaseURL},
		{"SYSTEM_CODE", c.SystemCode},
		{"VAULT_SECRET_KEY", c.VaultSecretKey},
		{"GRPC_SERVER_ADDRESS", c.GRPCServerAddr},
	} {
		if err := missing(check.name, check.val); err != nil {
			return err
		}
	}
	return nil
}
