// Package config loads the CLI configuration for the constants generator.
//
// Sources, highest priority first:
//  1. Environment variables with the BUILDGATE_ prefix (BUILDGATE_SCAN_MODE
//     overrides scan.mode)
//  2. Config file (buildgate.yaml in the working directory, or an explicit
//     --config path)
//  3. Defaults
//
// Credentials never live in the config file: the token and signing secret
// are read from their environment variables at verification time, and only
// the names of those variables are configurable here.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/astrokit-dev/buildgate/codegen"
	"github.com/astrokit-dev/buildgate/jwtverify"
	"github.com/astrokit-dev/buildgate/secscan"
)

// Config holds all generator settings, grouped by concern.
type Config struct {
	Scan   ScanConfig   `mapstructure:"scan"`
	Token  TokenConfig  `mapstructure:"token"`
	Output OutputConfig `mapstructure:"output"`
	Log    LogConfig    `mapstructure:"log"`
}

// ScanConfig configures the secret scanner.
type ScanConfig struct {
	Mode      string   `mapstructure:"mode" validate:"oneof=error warn"`
	Blocklist []string `mapstructure:"blocklist"`
	Allowlist []string `mapstructure:"allowlist"`
}

// TokenConfig configures token verification.
type TokenConfig struct {
	Required              bool     `mapstructure:"required"`
	Issuer                string   `mapstructure:"issuer"`
	Subject               string   `mapstructure:"subject"`
	Audience              []string `mapstructure:"audience"`
	Algorithms            []string `mapstructure:"algorithms" validate:"min=1,dive,oneof=HS256 HS384 HS512"`
	ClockToleranceSeconds int      `mapstructure:"clock_tolerance_seconds" validate:"gte=0"`
	TokenEnv              string   `mapstructure:"token_env" validate:"required"`
	SecretEnv             string   `mapstructure:"secret_env" validate:"required"`
}

// OutputConfig configures the rendered artifact.
type OutputConfig struct {
	Path   string `mapstructure:"path" validate:"required"`
	Format string `mapstructure:"format" validate:"oneof=ts json"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// Load reads the configuration from the given file path, or from
// buildgate.yaml in the working directory when path is empty. A missing
// default file is fine; a missing explicit file is an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("buildgate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix("BUILDGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scan.mode", string(secscan.ModeError))

	v.SetDefault("token.required", false)
	v.SetDefault("token.algorithms", []string{string(jwtverify.HS256)})
	v.SetDefault("token.clock_tolerance_seconds", int(jwtverify.DefaultClockTolerance/time.Second))
	v.SetDefault("token.token_env", jwtverify.DefaultTokenEnv)
	v.SetDefault("token.secret_env", jwtverify.DefaultSecretEnv)

	v.SetDefault("output.path", "src/constants.ts")
	v.SetDefault("output.format", string(codegen.FormatTS))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// ScanOptions converts the scan section into scanner options.
func (c ScanConfig) ScanOptions() []secscan.Option {
	opts := []secscan.Option{secscan.WithMode(secscan.Mode(c.Mode))}
	if len(c.Blocklist) > 0 {
		opts = append(opts, secscan.WithBlocklist(c.Blocklist...))
	}
	if len(c.Allowlist) > 0 {
		opts = append(opts, secscan.WithAllowlist(c.Allowlist...))
	}
	return opts
}

// VerifyOptions converts the token section into verifier options. The token
// and secret values themselves stay with their environment variables.
func (c TokenConfig) VerifyOptions() jwtverify.Options {
	algorithms := make([]jwtverify.Algorithm, 0, len(c.Algorithms))
	for _, alg := range c.Algorithms {
		algorithms = append(algorithms, jwtverify.Algorithm(alg))
	}

	// The default is non-zero, so zero only arrives here when the user wrote
	// it. The verifier reads a negative tolerance as exactly none, while a
	// zero would select its 60s default.
	tolerance := time.Duration(c.ClockToleranceSeconds) * time.Second
	if tolerance == 0 {
		tolerance = -time.Second
	}

	return jwtverify.Options{
		Required:       c.Required,
		Issuer:         c.Issuer,
		Subject:        c.Subject,
		Audience:       c.Audience,
		Algorithms:     algorithms,
		ClockTolerance: tolerance,
		TokenEnv:       c.TokenEnv,
		SecretEnv:      c.SecretEnv,
	}
}

// RenderFormat returns the output format as a codegen type.
func (c OutputConfig) RenderFormat() codegen.Format {
	return codegen.Format(c.Format)
}
