// Package config loads the runtime configuration.
//
// Precedence (highest to lowest): flags > SQLSCRIPT_* environment (including
// a .env file) > sqlscript.yaml > defaults. Flags are applied by the CLI
// after Load.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/cybertec-postgresql/sqlscript/internal/dialect"
	apperrors "github.com/cybertec-postgresql/sqlscript/internal/errors"
	"github.com/cybertec-postgresql/sqlscript/pkg/types"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SQLSCRIPT_"

// Default values
const (
	DefaultDialect         = "standard"
	DefaultDelimiter       = ";"
	DefaultMaxInMemorySize = 50 << 20
	DefaultOutput          = "auto"
	DefaultTimeout         = 30 * time.Second
)

// configFiles are searched in the working directory when no path is given.
var configFiles = []string{"sqlscript.yaml", "sqlscript.yml"}

// Outputs lists the accepted output formats.
var Outputs = []string{"auto", "table", "plain", "json"}

// Drivers lists the accepted database drivers.
var Drivers = []string{"postgres", "mysql"}

func defaults() map[string]any {
	return map[string]any{
		"dialect":            DefaultDialect,
		"delimiter":          DefaultDelimiter,
		"max_in_memory_size": DefaultMaxInMemorySize,
		"output":             DefaultOutput,
		"timeout":            DefaultTimeout.String(),
		"driver":             "postgres",
		"verbose":            false,
	}
}

// Load builds the configuration. An explicit path must exist; without one
// sqlscript.yaml is used when present. envFile names a dotenv file whose
// variables are added to the environment without overriding it; a missing
// file is ignored.
func Load(path, envFile string) (*types.Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	cfgFile, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, apperrors.NewConfigError(cfgFile, "error reading config file", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewConfigError(envFile, "error reading env file", err)
		}
	}

	// SQLSCRIPT_MAX_IN_MEMORY_SIZE -> max_in_memory_size
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg types.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, apperrors.NewConfigError("config", "invalid configuration", err)
	}
	return &cfg, nil
}

func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", apperrors.NewConfigError(explicit, "config file not found", err)
		}
		return explicit, nil
	}
	for _, name := range configFiles {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", nil
}

// Validate checks the configuration for values the tools cannot use.
func Validate(cfg *types.Config) error {
	if _, err := ResolveDialect(cfg.Dialect); err != nil {
		return apperrors.NewConfigError("dialect", err.Error(), nil)
	}
	if strings.TrimSpace(cfg.Delimiter) == "" && !cfg.EmptyLineIsDelimiter {
		return apperrors.NewConfigError("delimiter", "a delimiter is required unless empty lines delimit statements", nil)
	}
	if cfg.MaxInMemorySize <= 0 {
		return apperrors.NewConfigError("max_in_memory_size", fmt.Sprintf("must be positive, got %d", cfg.MaxInMemorySize), nil)
	}
	if cfg.Timeout < 0 {
		return apperrors.NewConfigError("timeout", "must not be negative", nil)
	}
	if !contains(Outputs, cfg.Output) {
		return apperrors.NewConfigError("output", fmt.Sprintf("unknown format %q (want one of %s)", cfg.Output, strings.Join(Outputs, ", ")), nil)
	}
	if cfg.Driver != "" && !contains(Drivers, cfg.Driver) {
		return apperrors.NewConfigError("driver", fmt.Sprintf("unknown driver %q (want one of %s)", cfg.Driver, strings.Join(Drivers, ", ")), nil)
	}
	return nil
}

// ResolveDialect accepts a dialect name or alias, or a database identifier
// such as a JDBC URL.
func ResolveDialect(name string) (dialect.Dialect, error) {
	d, err := dialect.Parse(name)
	if err == nil {
		return d, nil
	}
	if strings.Contains(name, ":") {
		return dialect.FromDBID(name), nil
	}
	return d, err
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
