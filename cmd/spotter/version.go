package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"spotter/internal/version"
)

const versionTagline = "finds what the compiler lets through"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show spotter build metadata",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to get format flag: %w", err)
		}
		full, err := cmd.Flags().GetBool("full")
		if err != nil {
			return fmt.Errorf("failed to get full flag: %w", err)
		}
		info := version.Current()
		switch strings.ToLower(format) {
		case "pretty":
			renderVersionPretty(cmd.OutOrStdout(), info, full)
			return nil
		case "json":
			return renderVersionJSON(cmd.OutOrStdout(), info, full)
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
		}
	},
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().Bool("full", false, "show commit, build date and Go version")
}

func renderVersionPretty(out io.Writer, info version.Info, full bool) {
	v := info.Version
	if useColors {
		v = version.Colored(v)
	}
	fmt.Fprintf(out, "spotter %s: %s\n", v, versionTagline)
	if !full {
		return
	}
	fmt.Fprintf(out, "commit: %s\n", valueOrUnknown(info.GitCommit))
	fmt.Fprintf(out, "built:  %s\n", valueOrUnknown(info.BuildDate))
	fmt.Fprintf(out, "go:     %s\n", valueOrUnknown(info.GoVersion))
}

func renderVersionJSON(out io.Writer, info version.Info, full bool) error {
	payload := struct {
		Tool string `json:"tool"`
		version.Info
	}{Tool: "spotter", Info: info}
	if !full {
		payload.Info = version.Info{Version: info.Version}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
