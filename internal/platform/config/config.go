// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

Values come from OS environment variables mapped with 'caarlos0/env'. In local
development an optional .env file is loaded first with 'joho/godotenv'; variables
already present in the environment always win.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the Inkwell API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL      string        `env:"REDIS_URL,required"`
	RedisPoolSize int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	RedisTimeout  time.Duration `env:"REDIS_TIMEOUT"   envDefault:"500ms"`

	// JWTPubKeyPath points at the identity provider's RS256 public key.
	JWTPubKeyPath string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// EntitlementCacheTTL bounds how long a positive purchase lookup is cached.
	EntitlementCacheTTL time.Duration `env:"ENTITLEMENT_CACHE_TTL" envDefault:"10m"`

	// ModerationPolicy decides whether moderation status gates reader access.
	// One of: none, block_rejected, require_approved.
	ModerationPolicy string `env:"MODERATION_POLICY" envDefault:"none"`

	// Cross-Origin Resource Sharing
	CORSAllowedSuffix string `env:"CORS_ALLOWED_SUFFIX" envDefault:"inkwell.app"`
}

// # Configuration Loading

// Load reads an optional .env file and parses environment variables into a [Config].
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	// A missing .env is normal outside local development.
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	switch cfg.ModerationPolicy {
	case "none", "block_rejected", "require_approved":
	default:
		return nil, fmt.Errorf("config: unknown MODERATION_POLICY %q", cfg.ModerationPolicy)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AllowedOriginSuffix returns the host suffix accepted by the CORS middleware in production.
func (c *Config) AllowedOriginSuffix() string {
	return c.CORSAllowedSuffix
}
