package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"spotter/internal/observ"
	"spotter/internal/trace"
)

var (
	logger    = log.NewWithOptions(os.Stderr, log.Options{Prefix: "spotter", Level: log.WarnLevel})
	cleanups  []func()
	tornDown  bool
	useColors bool
)

// setupRun configures logging, colours, tracing and Go profiling for every
// subcommand. The matching cleanups run in teardown.
func setupRun(cmd *cobra.Command, _ []string) error {
	root := cmd.Root().PersistentFlags()

	levelStr, err := root.GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to get log-level flag: %w", err)
	}
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger.SetLevel(level)

	colorStr, err := root.GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorStr {
	case "on":
		useColors = true
	case "off":
		useColors = false
	case "auto":
		useColors = isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorStr)
	}

	if err := setupTracing(cmd); err != nil {
		return err
	}
	return setupProfiling(cmd)
}

// setupTracing inspects trace-related flags and attaches a tracer to the
// command context.
func setupTracing(cmd *cobra.Command) error {
	root := cmd.Root().PersistentFlags()

	traceOutput, err := root.GetString("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.GetString("trace-level")
	if err != nil {
		return fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	formatStr, err := root.GetString("trace-format")
	if err != nil {
		return fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := root.GetInt("trace-ring-size")
	if err != nil {
		return fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return err
	}
	// --trace без уровня включает фазы
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return nil
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Format:     format,
		OutputPath: traceOutput,
		RingSize:   ringSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanups = append(cleanups, func() {
		if err := tracer.Flush(); err != nil {
			logger.Warn("trace flush failed", "err", err)
		}
		if err := tracer.Close(); err != nil {
			logger.Warn("trace close failed", "err", err)
		}
	})
	return nil
}

func setupProfiling(cmd *cobra.Command) error {
	root := cmd.Root().PersistentFlags()
	cpuProfile, err := root.GetString("cpu-profile")
	if err != nil {
		return fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memProfile, err := root.GetString("mem-profile")
	if err != nil {
		return fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if cpuProfile == "" && memProfile == "" {
		return nil
	}
	stop, err := observ.StartPprof(observ.PprofConfig{CPUPath: cpuProfile, HeapPath: memProfile})
	if err != nil {
		return err
	}
	cleanups = append(cleanups, func() {
		if err := stop(); err != nil {
			logger.Warn("failed to write profile", "err", err)
		}
	})
	return nil
}

// teardown runs the cleanups registered by setupRun, newest first. cobra
// skips PersistentPostRun on error, so main calls it explicitly.
func teardown() {
	if tornDown {
		return
	}
	tornDown = true
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
