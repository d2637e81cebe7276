// Package project reads spotter.toml, the per-project defaults for the
// command line.
package project

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// Report formats accepted in [report].format and on the command line.
var ReportFormats = []string{"short", "pretty", "json", "sarif"}

// Manifest is a loaded spotter.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Report   ReportConfig   `toml:"report"`
	Cache    CacheConfig    `toml:"cache"`
}

type AnalysisConfig struct {
	// Config is the rule configuration YAML, relative to the project root.
	Config   string   `toml:"config"`
	BasePath string   `toml:"base_path"`
	Inputs   []string `toml:"inputs"`
	Includes []string `toml:"includes"`
	Excludes []string `toml:"excludes"`
	Jobs     int      `toml:"jobs"`
	Parallel bool     `toml:"parallel"`

	MaxFindings          int  `toml:"max_findings"`
	FailOnConfigWarnings bool `toml:"fail_on_config_warnings"`
}

type ReportConfig struct {
	Format string `toml:"format"`
	Output string `toml:"output"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// DefaultConfig is used for sections and keys the manifest leaves out.
func DefaultConfig() Config {
	return Config{
		Analysis: AnalysisConfig{Parallel: true},
		Report:   ReportConfig{Format: "short"},
		Cache:    CacheConfig{Enabled: true},
	}
}

// Load finds spotter.toml above startDir and loads it. ok is false when
// there is no manifest; the defaults apply then.
func Load(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

// LoadConfig decodes path over DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Analysis.Jobs < 0 {
		return fmt.Errorf("[analysis].jobs must not be negative, got %d", c.Analysis.Jobs)
	}
	if c.Analysis.MaxFindings < 0 {
		return fmt.Errorf("[analysis].max_findings must not be negative, got %d", c.Analysis.MaxFindings)
	}
	if !slices.Contains(ReportFormats, c.Report.Format) {
		return fmt.Errorf("[report].format: unknown format %q, want one of %s", c.Report.Format, strings.Join(ReportFormats, "|"))
	}
	return nil
}

// Resolve makes a manifest-relative path absolute. Empty stays empty.
func (m *Manifest) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m == nil {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}

// EffectiveJobs returns the worker count implied by [analysis]: 1 when parallel
// analysis is off, otherwise jobs (0 meaning one per CPU).
func (c AnalysisConfig) EffectiveJobs() int {
	if !c.Parallel {
		return 1
	}
	return c.Jobs
}
