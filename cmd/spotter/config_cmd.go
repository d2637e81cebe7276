package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"spotter/internal/config"
	"spotter/internal/diag"
	"spotter/internal/engine"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate rule configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file.yml]",
	Short: "Check a rule configuration against the registered rules",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigValidate,
}

var configDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default configuration of every registered rule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		data, err := reg.Defaults().YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (defaults merged with the user file)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSession(cmd)
		if err != nil {
			return err
		}
		data, err := s.registry.Defaults().Merge(s.user).YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configValidateCmd.Flags().Bool("fail-on-config-warnings", false, "treat notifications as errors")
	configCmd.AddCommand(configValidateCmd, configDefaultsCmd, configShowCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	strict, err := cmd.Flags().GetBool("fail-on-config-warnings")
	if err != nil {
		return fmt.Errorf("failed to get fail-on-config-warnings flag: %w", err)
	}
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		s.configPath = args[0]
		if s.user, err = config.Load(s.configPath); err != nil {
			return err
		}
	}
	if s.configPath == "" {
		return errors.New("no configuration file: pass one or set [analysis].config in spotter.toml")
	}
	strict = strict || s.settings.Analysis.FailOnConfigWarnings

	diags := s.validateConfig(strict)
	out := cmd.OutOrStdout()
	if len(diags) > 0 {
		fmt.Fprintln(out, diag.FormatShort(diags, nil))
	}
	// значения опций проверяются только при разрешении правил
	if _, err := engine.New(s.registry, s.user, engine.Options{}); err != nil {
		return fmt.Errorf("%s: %w", s.configPath, err)
	}
	if hasErrors(diags) {
		return &exitError{code: exitFailure}
	}
	fmt.Fprintf(out, "%s: %d notification(s)\n", s.configPath, len(diags))
	return nil
}
