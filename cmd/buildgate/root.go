// Command buildgate generates a build-time constants artifact, refusing to
// emit anything until the constants tree passes a secret scan and, when
// configured, a signed-token check.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/astrokit-dev/buildgate"
	"github.com/astrokit-dev/buildgate/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "buildgate",
	Short: "Security gate for generated build-time constants",
	Long: `buildgate renders a constants artifact (TypeScript module or JSON) from a
values file, after enforcing two guardrails: a secret scan over the values
tree and an optional HMAC-signed token check.

Credentials are read from the environment at run time:
  ASTRO_BUILD_TIME_TOKEN    the signed token
  ASTRO_BUILD_TIME_SECRET   the shared signing secret

Settings load from buildgate.yaml (see --config), overridable with
BUILDGATE_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the configuration file (default: ./buildgate.yaml)")
}

// newLogger builds the CLI logger from the log section of the config.
func newLogger(cfg *config.Config) (buildgate.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return buildgate.NewLogrusLogger(logger), nil
}

func newGate(cfg *config.Config, logger buildgate.Logger) (*buildgate.Gate, error) {
	return buildgate.New(
		buildgate.WithLogger(logger),
		buildgate.WithSecretScanning(cfg.Scan.ScanOptions()...),
		buildgate.WithTokenVerification(cfg.Token.VerifyOptions()),
	)
}
