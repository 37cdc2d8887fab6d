package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/archiveview/secret"
)

// Options selects the sources Load reads.
type Options struct {
	// File is a YAML config file. Empty skips it; a missing named file is
	// an error.
	File string

	// DotEnv is a .env file. Missing files are ignored.
	DotEnv string

	// Environ overrides the process environment, mainly for tests. Nil
	// reads os.Environ.
	Environ map[string]string

	// Secrets resolves secret references. Nil uses the env and file
	// providers with strict expansion.
	Secrets *secret.Resolver

	// Override runs after the environment is applied, before secrets are
	// resolved. Command line flags use it.
	Override func(*Config)
}

// Load builds a validated Config from defaults, the YAML file, the .env
// file, the environment and secret references.
func Load(ctx context.Context, opts Options) (*Config, error) {
	cfg := Default()

	if opts.File != "" {
		if err := loadYAML(opts.File, &cfg); err != nil {
			return nil, err
		}
	}

	if opts.DotEnv != "" && opts.Environ == nil {
		if err := godotenv.Load(opts.DotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", opts.DotEnv, err)
		}
	}

	envOpts := env.Options{Prefix: EnvPrefix}
	if opts.Environ != nil {
		envOpts.Environment = opts.Environ
	}
	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if opts.Override != nil {
		opts.Override(&cfg)
	}

	resolver := opts.Secrets
	if resolver == nil {
		resolver = secret.NewDefaultResolver()
	}
	if err := cfg.resolveSecrets(ctx, resolver); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// resolveSecrets expands the fields that may carry credentials.
func (c *Config) resolveSecrets(ctx context.Context, r *secret.Resolver) error {
	fields := map[string]*string{
		"api.base_url":      &c.API.BaseURL,
		"storage.redis_url": &c.Storage.RedisURL,
		"storage.path":      &c.Storage.Path,
	}
	if err := r.ResolveFields(ctx, fields); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := r.ResolveMap(ctx, "api.headers", c.API.Headers); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
