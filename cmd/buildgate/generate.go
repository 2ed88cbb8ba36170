package main

import (
	"github.com/spf13/cobra"

	"github.com/astrokit-dev/buildgate/codegen"
	"github.com/astrokit-dev/buildgate/internal/config"
)

var (
	valuesPath   string
	outputPath   string
	outputFormat string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Enforce the gate and write the constants artifact",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&valuesPath, "values", "", "JSON or YAML file holding the custom constants tree")
	generateCmd.Flags().StringVar(&outputPath, "out", "", "artifact path (overrides output.path)")
	generateCmd.Flags().StringVar(&outputFormat, "format", "", "artifact format, ts or json (overrides output.format)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("out") {
		cfg.Output.Path = outputPath
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = outputFormat
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	gate, err := newGate(cfg, logger)
	if err != nil {
		return err
	}

	custom, err := loadValues(valuesPath)
	if err != nil {
		return err
	}

	// Nothing is rendered or written until the gate clears the tree.
	if _, err := gate.Enforce(custom); err != nil {
		logger.Errorf("generation aborted: %v", err)
		return err
	}

	constants := codegen.New(custom)
	artifact, err := codegen.Render(constants, cfg.Output.RenderFormat())
	if err != nil {
		return err
	}
	if err := codegen.WriteFile(cfg.Output.Path, artifact); err != nil {
		return err
	}

	logger.Infof("wrote %s (build %s)", cfg.Output.Path, constants.BuildID)
	cmd.Printf("generated %s\n", cfg.Output.Path)
	return nil
}
