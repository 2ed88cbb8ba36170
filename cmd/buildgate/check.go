package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrokit-dev/buildgate/internal/config"
	"github.com/astrokit-dev/buildgate/jwtverify"
)

var checkValuesPath string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Enforce the gate without writing anything (CI guard)",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkValuesPath, "values", "", "JSON or YAML file holding the custom constants tree")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	gate, err := newGate(cfg, logger)
	if err != nil {
		return err
	}

	custom, err := loadValues(checkValuesPath)
	if err != nil {
		return err
	}

	result, err := gate.Enforce(custom)
	if err != nil {
		logger.Errorf("check failed: %v", err)
		return err
	}

	if result == nil {
		cmd.Println("scan passed; no token required")
		return nil
	}

	cmd.Println("scan passed; token verified")
	printClaims(cmd, result)
	return nil
}

func printClaims(cmd *cobra.Command, result *jwtverify.Result) {
	if result.Payload.Issuer != "" {
		cmd.Printf("  issuer:   %s\n", result.Payload.Issuer)
	}
	if result.Payload.Subject != "" {
		cmd.Printf("  subject:  %s\n", result.Payload.Subject)
	}
	if len(result.Payload.Audience) > 0 {
		cmd.Printf("  audience: %s\n", strings.Join(result.Payload.Audience, ", "))
	}
	if result.Payload.ExpiresAt != nil {
		expiry := time.Unix(*result.Payload.ExpiresAt, 0).UTC()
		cmd.Printf("  expires:  %s\n", expiry.Format(time.RFC3339))
	}
}
