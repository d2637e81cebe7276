package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spotter/internal/config"
	"spotter/internal/diag"
	"spotter/internal/project"
	"spotter/internal/rule"
	"spotter/internal/rules/style"
)

// session is the state every subcommand starts from: the manifest, the
// registry of bundled rules and the user rule configuration.
type session struct {
	manifest   *project.Manifest // nil without spotter.toml
	settings   project.Config
	configPath string
	registry   *rule.Registry
	user       *config.Tree
}

func newRegistry() (*rule.Registry, error) {
	reg := rule.NewRegistry()
	if err := style.Register(reg); err != nil {
		return nil, fmt.Errorf("register style rules: %w", err)
	}
	return reg, nil
}

func loadSession(cmd *cobra.Command) (*session, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	s := &session{settings: project.DefaultConfig()}
	m, found, err := project.Load(wd)
	if err != nil {
		return nil, err
	}
	if found {
		s.manifest = m
		s.settings = m.Config
		logger.Debug("using manifest", "path", m.Path)
	}

	configFlag, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	s.configPath = configFlag
	if s.configPath == "" {
		s.configPath = s.manifest.Resolve(s.settings.Analysis.Config)
	}

	if s.registry, err = newRegistry(); err != nil {
		return nil, err
	}
	s.user = config.EmptyTree
	if s.configPath != "" {
		if s.user, err = config.Load(s.configPath); err != nil {
			return nil, err
		}
		logger.Debug("loaded rule configuration", "path", s.configPath)
	}
	return s, nil
}

// validateConfig checks the user configuration against the defaults of the
// registered rules. failOnWarnings promotes every notification to an error.
func (s *session) validateConfig(failOnWarnings bool) []diag.Diagnostic {
	if s.configPath == "" {
		return nil
	}
	bag := diag.NewBag(0)
	for _, n := range config.Validate(s.user, s.registry.Defaults()) {
		bag.Add(n.Diagnostic(s.configPath))
	}
	if failOnWarnings {
		bag.Promote(diag.Code.IsConfig, diag.SevError)
	}
	return bag.Items()
}

func hasErrors(diags []diag.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diag.SevError {
			return true
		}
	}
	return false
}

// logDiagnostics writes diagnostics to the logger, one entry each.
func logDiagnostics(diags []diag.Diagnostic) {
	for _, d := range diags {
		kv := []any{"code", d.Code.ID()}
		if d.Path != "" {
			kv = append(kv, "path", d.Path)
		}
		switch d.Severity {
		case diag.SevError:
			logger.Error(d.Message, kv...)
		case diag.SevWarning:
			logger.Warn(d.Message, kv...)
		default:
			logger.Info(d.Message, kv...)
		}
	}
}
