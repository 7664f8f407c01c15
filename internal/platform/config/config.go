// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config loads the Gibiteca server settings from the environment with
caarlos0/env.

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

The result is read-only and handed to components through their constructors.
Catalog provider settings share the CATALOG_ prefix.
*/
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Gibiteca API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Cryptographic keys for identity signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Cover image blob store (local filesystem served under BlobPublicURL)
	BlobRoot      string `env:"BLOB_ROOT"       envDefault:"./data/covers"`
	BlobPublicURL string `env:"BLOB_PUBLIC_URL" envDefault:"http://localhost:8080/covers"`

	// External comic catalogs
	Catalog CatalogConfig `envPrefix:"CATALOG_"`

	// Extra CORS hosts, comma separated (subdomains match too)
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// CatalogConfig groups the settings of the external metadata providers.
//
// A provider is registered only when it is usable: Comic Vine requires an API key,
// the others are enabled by their base URL being non-empty.
type CatalogConfig struct {
	Timeout   time.Duration `env:"TIMEOUT"    envDefault:"12s"`
	UserAgent string        `env:"USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`

	ComicVineAPIKey     string `env:"COMICVINE_API_KEY"`
	ComicVineBaseURL    string `env:"COMICVINE_BASE_URL"    envDefault:"https://comicvine.gamespot.com/api"`
	ComicVineDeepCovers bool   `env:"COMICVINE_DEEP_COVERS" envDefault:"true"`

	MetronBaseURL  string `env:"METRON_BASE_URL" envDefault:"https://metron.cloud/api"`
	MetronUsername string `env:"METRON_USERNAME"`
	MetronPassword string `env:"METRON_PASSWORD"`

	GuiaBaseURL string `env:"GUIA_BASE_URL" envDefault:"http://www.guiadosquadrinhos.com"`
}

// # Configuration Loading

// Load parses the environment into a [Config] and rejects values the server
// cannot start with.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.Environment {
	case "development", "staging", "production":
	default:
		errs = append(errs, fmt.Errorf("ENVIRONMENT %q must be development, staging or production", c.Environment))
	}

	if c.Catalog.Timeout <= 0 {
		errs = append(errs, errors.New("CATALOG_TIMEOUT must be positive"))
	}

	if parsed, err := url.Parse(c.BlobPublicURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("BLOB_PUBLIC_URL %q must be an absolute URL", c.BlobPublicURL))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the extra hosts accepted by CORS outside development.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
