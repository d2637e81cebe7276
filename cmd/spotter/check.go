package main

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"spotter/internal/diag"
	"spotter/internal/driver"
	"spotter/internal/engine"
	"spotter/internal/finding"
	"spotter/internal/fix"
	"spotter/internal/observ"
	"spotter/internal/report"
	"spotter/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [path...]",
	Short: "Analyse syntax tree dumps and report findings",
	Long: `Analyse .ktree / .ktree.json dumps (files or directories) with the
configured rules. Without arguments the inputs of spotter.toml are used,
falling back to the current directory.`,
	RunE: runCheck,
}

func init() {
	flags := checkCmd.Flags()
	flags.StringP("format", "f", "", "report format (short|pretty|json|sarif)")
	flags.StringP("output", "o", "", "write the report to file instead of stdout")
	flags.String("path-mode", "auto", "how paths are shown (auto|absolute|relative|basename)")
	flags.StringSlice("include", nil, "only analyse dumps matching these globs")
	flags.StringSlice("exclude", nil, "skip dumps matching these globs")
	flags.String("base-path", "", "directory rule include/exclude globs are relative to")
	flags.IntP("jobs", "j", 0, "max files analysed in parallel (0=auto)")
	flags.Int("max-findings", 0, "cap findings per file (0=unlimited)")
	flags.String("fail-on", "warning", "lowest finding severity that fails the run (info|warning|error|none)")
	flags.Bool("fail-on-config-warnings", false, "treat configuration notifications as errors")
	flags.String("ui", "auto", "progress UI (auto|on|off)")
	flags.Bool("no-cache", false, "do not read or write the findings cache")
	flags.String("cache-dir", "", "findings cache directory")
	flags.Bool("show-fixes", false, "list available corrections in the report")
	flags.Bool("fix", false, "apply safe corrections to the analysed files")
	flags.Bool("fix-unsafe", false, "with --fix, also apply corrections that rely on heuristics")
	flags.Bool("fix-dry-run", false, "with --fix, compute corrections without writing files")
}

// checkOptions are the flag values after manifest defaults were applied.
type checkOptions struct {
	paths          []string
	format         report.Format
	output         string
	pathMode       report.PathMode
	filter         driver.InputFilter
	basePath       string
	jobs           int
	maxFindings    int
	failOn         diag.Severity
	failOnNone     bool
	failOnConfig   bool
	ui             uiMode
	cacheEnabled   bool
	cacheDir       string
	showFixes      bool
	fix            bool
	fixUnsafe      bool
	fixDryRun      bool
	timings        bool
	invocationArgs []string
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	opts, err := readCheckOptions(cmd, args, s)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	var profile *observ.Profile
	if opts.timings {
		profile = observ.NewProfile()
	}

	idx := timer.Begin("config")
	configDiags := s.validateConfig(opts.failOnConfig)
	if hasErrors(configDiags) {
		timer.End(idx, "invalid")
		logDiagnostics(configDiags)
		return &exitError{code: exitFailure}
	}
	eng, err := engine.New(s.registry, s.user, engine.Options{
		BasePath:    opts.basePath,
		MaxFindings: opts.maxFindings,
		Profile:     profile,
	})
	if err != nil {
		timer.End(idx, "invalid")
		return fmt.Errorf("%s: %w", cmp.Or(s.configPath, "configuration"), err)
	}
	timer.End(idx, fmt.Sprintf("%d active rules", len(eng.Rules())))

	req := driver.CheckRequest{
		Paths:   opts.paths,
		Filter:  opts.filter,
		BaseDir: opts.basePath,
		Engine:  eng,
		Timer:   timer,
		Analyze: driver.AnalyzeOptions{
			Jobs:    opts.jobs,
			Cache:   openCache(opts),
			Version: version.Current().Version,
		},
	}

	var res *driver.CheckResult
	if shouldUseTUI(opts.ui) && opts.output == "" {
		res, err = runCheckWithUI(cmd.Context(), "spotter check", req)
	} else {
		res, err = driver.Check(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	findings := res.Findings()
	diags := slices.Concat(configDiags, res.Diagnostics)
	byRule := finding.CountByRule(findings)
	for _, id := range slices.Sorted(maps.Keys(byRule)) {
		logger.Debug("findings", "rule", id, "count", byRule[id])
	}

	idx = timer.Begin("report")
	err = writeReport(opts, report.Report{Findings: findings, Diagnostics: diags, Files: len(res.Files)}, res, eng)
	timer.End(idx, opts.format.String())
	if err != nil {
		return err
	}
	if opts.format == report.FormatShort {
		logDiagnostics(diags)
	}

	if opts.fix {
		applyFixes(cmd.ErrOrStderr(), res, findings, opts)
	}
	if opts.timings {
		rep := timer.Report()
		rep.Rules = profile.Top(0)
		fmt.Fprint(cmd.ErrOrStderr(), rep.Summary())
	}

	switch {
	case hasErrors(diags):
		return &exitError{code: exitFailure}
	case failing(findings, opts):
		return &exitError{code: exitFindings}
	}
	return nil
}

func readCheckOptions(cmd *cobra.Command, args []string, s *session) (checkOptions, error) {
	flags := cmd.Flags()
	analysis := s.settings.Analysis
	opts := checkOptions{
		paths:          args,
		filter:         driver.InputFilter{Includes: analysis.Includes, Excludes: analysis.Excludes},
		basePath:       s.manifest.Resolve(analysis.BasePath),
		jobs:           analysis.EffectiveJobs(),
		maxFindings:    analysis.MaxFindings,
		failOnConfig:   analysis.FailOnConfigWarnings,
		output:         s.manifest.Resolve(s.settings.Report.Output),
		cacheEnabled:   s.settings.Cache.Enabled,
		cacheDir:       s.manifest.Resolve(s.settings.Cache.Dir),
		invocationArgs: os.Args[1:],
	}
	if len(opts.paths) == 0 {
		for _, in := range analysis.Inputs {
			opts.paths = append(opts.paths, s.manifest.Resolve(in))
		}
	}
	if len(opts.paths) == 0 {
		opts.paths = []string{"."}
	}
	if opts.basePath == "" && s.manifest != nil {
		opts.basePath = s.manifest.Root
	}

	var err error
	formatStr := s.settings.Report.Format
	if flags.Changed("format") {
		if formatStr, err = flags.GetString("format"); err != nil {
			return opts, err
		}
	}
	if opts.format, err = report.ParseFormat(formatStr); err != nil {
		return opts, err
	}
	if flags.Changed("output") {
		if opts.output, err = flags.GetString("output"); err != nil {
			return opts, err
		}
	}
	pathMode, err := flags.GetString("path-mode")
	if err != nil {
		return opts, err
	}
	if opts.pathMode, err = report.ParsePathMode(pathMode); err != nil {
		return opts, err
	}
	if flags.Changed("include") {
		if opts.filter.Includes, err = flags.GetStringSlice("include"); err != nil {
			return opts, err
		}
	}
	if flags.Changed("exclude") {
		if opts.filter.Excludes, err = flags.GetStringSlice("exclude"); err != nil {
			return opts, err
		}
	}
	if flags.Changed("base-path") {
		if opts.basePath, err = flags.GetString("base-path"); err != nil {
			return opts, err
		}
	}
	if flags.Changed("jobs") {
		if opts.jobs, err = flags.GetInt("jobs"); err != nil {
			return opts, err
		}
	}
	if flags.Changed("max-findings") {
		if opts.maxFindings, err = flags.GetInt("max-findings"); err != nil {
			return opts, err
		}
	}
	if flags.Changed("fail-on-config-warnings") {
		if opts.failOnConfig, err = flags.GetBool("fail-on-config-warnings"); err != nil {
			return opts, err
		}
	}
	failOn, err := flags.GetString("fail-on")
	if err != nil {
		return opts, err
	}
	if failOn == "none" {
		opts.failOnNone = true
	} else if opts.failOn, err = diag.ParseSeverity(failOn); err != nil {
		return opts, fmt.Errorf("invalid --fail-on: %w", err)
	}
	uiStr, err := flags.GetString("ui")
	if err != nil {
		return opts, err
	}
	if opts.ui, err = readUIMode(uiStr); err != nil {
		return opts, err
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return opts, err
	}
	if noCache {
		opts.cacheEnabled = false
	}
	if flags.Changed("cache-dir") {
		if opts.cacheDir, err = flags.GetString("cache-dir"); err != nil {
			return opts, err
		}
	}
	if opts.showFixes, err = flags.GetBool("show-fixes"); err != nil {
		return opts, err
	}
	if opts.fix, err = flags.GetBool("fix"); err != nil {
		return opts, err
	}
	if opts.fixUnsafe, err = flags.GetBool("fix-unsafe"); err != nil {
		return opts, err
	}
	if opts.fixDryRun, err = flags.GetBool("fix-dry-run"); err != nil {
		return opts, err
	}
	if (opts.fixUnsafe || opts.fixDryRun) && !opts.fix {
		return opts, errors.New("--fix-unsafe and --fix-dry-run require --fix")
	}
	if opts.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return opts, err
	}
	if opts.jobs < 0 || opts.maxFindings < 0 {
		return opts, errors.New("--jobs and --max-findings must not be negative")
	}
	return opts, nil
}

// openCache returns nil when caching is off or the directory is unusable;
// analysis then runs uncached.
func openCache(opts checkOptions) *driver.Cache {
	if !opts.cacheEnabled {
		return nil
	}
	dir := opts.cacheDir
	if dir == "" {
		var err error
		if dir, err = driver.DefaultCacheDir("spotter"); err != nil {
			logger.Warn("findings cache disabled", "err", err)
			return nil
		}
	}
	cache, err := driver.OpenCache(dir)
	if err != nil {
		logger.Warn("findings cache disabled", "dir", dir, "err", err)
		return nil
	}
	logger.Debug("findings cache", "dir", cache.Dir())
	return cache
}

func writeReport(opts checkOptions, rep report.Report, res *driver.CheckResult, eng *engine.Engine) (err error) {
	var w io.Writer = os.Stdout
	toTerminal := true
	if opts.output != "" {
		if dir := filepath.Dir(opts.output); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create report directory: %w", err)
			}
		}
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
		toTerminal = false
	}
	return report.Write(w, opts.format, rep, res.FileSet, report.Options{
		PathMode:       opts.pathMode,
		Color:          useColors && toTerminal,
		ShowFixes:      opts.showFixes,
		ShowPreview:    opts.showFixes,
		ToolName:       "spotter",
		ToolVersion:    version.Current().Version,
		Rules:          eng.Rules(),
		InvocationArgs: opts.invocationArgs,
	})
}

func applyFixes(out io.Writer, res *driver.CheckResult, findings []finding.Finding, opts checkOptions) {
	applied, err := fix.Apply(res.FileSet, findings, fix.ApplyOptions{
		Mode:   fix.ApplyModeAll,
		Unsafe: opts.fixUnsafe,
		DryRun: opts.fixDryRun,
	})
	if errors.Is(err, fix.ErrNoFixes) {
		logger.Info("no applicable corrections")
		return
	}
	if err != nil {
		logger.Error("applying corrections failed", "err", err)
	}
	if applied == nil {
		return
	}
	verb := "applied"
	if opts.fixDryRun {
		verb = "would apply"
	}
	fmt.Fprintf(out, "%s %d correction(s) in %d file(s)\n", verb, len(applied.Applied), len(applied.FileChanges))
	for _, a := range applied.Applied {
		fmt.Fprintf(out, "  %s: %s [%s]\n", a.Path, a.Title, a.RuleID)
	}
	for _, sk := range applied.Skipped {
		logger.Debug("correction skipped", "title", sk.Title, "reason", sk.Reason)
	}
}

func failing(findings []finding.Finding, opts checkOptions) bool {
	if opts.failOnNone {
		return false
	}
	for _, f := range findings {
		if f.Severity >= opts.failOn {
			return true
		}
	}
	return false
}
