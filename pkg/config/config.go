// Package config loads a project's sdl.yaml: which vendor adapter to
// instantiate and how to reach it, the entrypoint schema file, the
// search path used to resolve use-statement imports, and where
// upgrade plans are written. Mirrors housekeeper's pkg/config loading
// idiom (gopkg.in/yaml.v3, defaults filled in after decode).
package config

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/venusdb/sdl/pkg/consts"
	"gopkg.in/yaml.v3"
)

type (
	// Vendor holds the connection settings for the target database
	// driver (spec.md §6's vendor adapter contract, instantiated from
	// Driver and dialed with DSN).
	Vendor struct {
		// Driver selects the adapter implementation; "postgres" is the
		// only one implemented.
		Driver string `yaml:"driver,omitempty"`

		// DSN is the driver-specific connection string.
		DSN string `yaml:"dsn"`

		// MaxConns bounds the connection pool size.
		MaxConns int `yaml:"max_conns,omitempty"`

		// MaxAge is how long an idle pooled connection may live before
		// the reaper closes it. Accepts any duration string
		// time.ParseDuration understands (e.g. "5m", "30s").
		MaxAge string `yaml:"max_age,omitempty"`
	}

	// Config represents a project's sdl.yaml.
	Config struct {
		// Vendor configures the database adapter and connection pool.
		Vendor Vendor `yaml:"vendor"`

		// Entrypoint is the top-level schema file compilation starts from.
		Entrypoint string `yaml:"entrypoint,omitempty"`

		// SearchPath lists additional directories consulted, in order,
		// when resolving a use statement's import target.
		SearchPath []string `yaml:"search_path,omitempty"`

		// MigrationsDir is where generated upgrade plans are written.
		MigrationsDir string `yaml:"migrations_dir,omitempty"`
	}
)

// MaxAgeDuration parses Vendor.MaxAge, falling back to
// consts.DefaultMaxAgeSeconds when unset.
func (v Vendor) MaxAgeDuration() (time.Duration, error) {
	if v.MaxAge == "" {
		return consts.DefaultMaxAgeSeconds * time.Second, nil
	}
	d, err := time.ParseDuration(v.MaxAge)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid vendor.max_age %q", v.MaxAge)
	}
	return d, nil
}

// LoadConfig parses a project configuration from the provided
// io.Reader and fills in any unset fields with their defaults.
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal project config")
	}

	if cfg.Vendor.Driver == "" {
		cfg.Vendor.Driver = consts.DefaultVendor
	}
	if cfg.Vendor.MaxConns == 0 {
		cfg.Vendor.MaxConns = consts.DefaultMaxConns
	}
	if cfg.Entrypoint == "" {
		cfg.Entrypoint = consts.DefaultEntrypoint
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = consts.DefaultMigrationsDir
	}

	return &cfg, nil
}

// LoadConfigFile loads a project configuration from the specified file
// path. This is a convenience function that opens the file and calls
// LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}
