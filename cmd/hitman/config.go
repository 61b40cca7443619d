package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var saveConfig bool

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective settings, or write them to the config file",
		Args:  cobra.NoArgs,
		RunE:  runConfig,
	}
	cmd.Flags().BoolVar(&saveConfig, "save", false, "Write the effective settings to the config file")
	return cmd
}

func runConfig(cmd *cobra.Command, args []string) error {
	if saveConfig {
		if cfgFile == "" {
			return errors.New("no config location, use --config PATH")
		}
		if err := cfg.Save(cfgFile); err != nil {
			return err
		}
		logger.Info("Saved settings", zap.String("path", cfgFile))
		return nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
