// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package config resolves the named options the identity core consumes.
// Precedence: defaults, then the YAML config file, then command-line
// flags. The resolved Config is constructed once at process start and
// injected; no ambient state.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/gatehouse/gatehouse/internal/identity"
	"github.com/gatehouse/gatehouse/internal/store"
)

// Config is the resolved configuration of the identity core and its
// collaborators.
type Config struct {
	Database     Database     `koanf:"database"`
	Registration Registration `koanf:"registration"`
	Auth         Auth         `koanf:"auth"`
	Hash         Hash         `koanf:"hash"`
	Mail         Mail         `koanf:"mail"`
	Metrics      Metrics      `koanf:"metrics"`
	Log          Log          `koanf:"log"`
}

// Database configures the store gateway.
type Database struct {
	URL string `koanf:"url"`
	// ParamStyle is the driver's declared placeholder style:
	// "question", "numeric" or "named".
	ParamStyle string `koanf:"param_style"`
}

// Registration configures the registration workflow.
type Registration struct {
	// Expiration is how long a pending registration stays valid.
	Expiration time.Duration `koanf:"expiration"`
}

// Auth configures the authentication workflow.
type Auth struct {
	MaxFailedAttempts  int           `koanf:"max_failed_attempts"`
	SuspensionDuration time.Duration `koanf:"suspension_duration"`
	DiscloseSuspension bool          `koanf:"disclose_suspension"`
}

// Hash configures the credential hasher.
type Hash struct {
	// Scheme selects the hasher: "sha256" (salted digest) or "argon2id".
	Scheme     string `koanf:"scheme"`
	SaltLength int    `koanf:"salt_length"`
}

// Mail configures the confirmation dispatcher.
type Mail struct {
	From         string `koanf:"from"`
	FromAddress  string `koanf:"from_address"`
	Subject      string `koanf:"subject"`
	TemplatePath string `koanf:"template_path"`
	SMTPAddr     string `koanf:"smtp_addr"`
}

// Metrics configures the observability server.
type Metrics struct {
	Addr string `koanf:"addr"`
}

// Log configures logging output.
type Log struct {
	// Format is "json" or "text".
	Format string `koanf:"format"`
	// Level is the minimum level emitted: "debug", "info", "warn" or
	// "error".
	Level string `koanf:"level"`
}

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		Database: Database{
			ParamStyle: string(store.StyleNumeric),
		},
		Registration: Registration{
			Expiration: identity.DefaultRegistrationExpiration,
		},
		Auth: Auth{
			MaxFailedAttempts:  identity.DefaultMaxFailedAttempts,
			SuspensionDuration: identity.DefaultSuspensionDuration,
		},
		Hash: Hash{
			Scheme:     "sha256",
			SaltLength: identity.DefaultSaltLength,
		},
		Mail: Mail{
			From:        "The Website People",
			FromAddress: "webmaster@localhost",
			Subject:     "Confirm your registration!",
			SMTPAddr:    "localhost:25",
		},
		Metrics: Metrics{
			Addr: "127.0.0.1:9100",
		},
		Log: Log{
			Format: "json",
			Level:  "info",
		},
	}
}

// Load resolves the configuration from defaults, the optional YAML file
// at path, and the given flag set.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// Seed the defaults first. The posflag provider keeps any key that
	// already exists when its flag was never set, so registered but
	// unchanged flags cannot clobber defaults or file values.
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, oops.Code("CONFIG_DEFAULTS_FAILED").Wrap(err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	switch store.ParamStyle(c.Database.ParamStyle) {
	case store.StyleQuestion, store.StyleNumeric, store.StyleNamed:
	default:
		return oops.Code("CONFIG_INVALID").
			With("param_style", c.Database.ParamStyle).
			Wrap(store.ErrUnsupportedParamStyle)
	}
	if c.Hash.SaltLength < identity.MinSaltLength || c.Hash.SaltLength > identity.MaxSaltLength {
		return oops.Code("CONFIG_INVALID").
			With("salt_length", c.Hash.SaltLength).
			Errorf("hash.salt_length must be between %d and %d",
				identity.MinSaltLength, identity.MaxSaltLength)
	}
	return c.Policy().Validate()
}

// Policy maps the configuration onto the identity policy tunables.
func (c *Config) Policy() identity.Policy {
	return identity.Policy{
		RegistrationExpiration: c.Registration.Expiration,
		MaxFailedAttempts:      c.Auth.MaxFailedAttempts,
		SuspensionDuration:     c.Auth.SuspensionDuration,
		DiscloseSuspension:     c.Auth.DiscloseSuspension,
	}
}
