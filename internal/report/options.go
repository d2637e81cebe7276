// Package report renders findings and tool diagnostics in the formats the
// CLI exposes: short, pretty, json and sarif.
package report

import (
	"fmt"
	"strings"

	"spotter/internal/rule"
)

// Format selects the renderer.
type Format uint8

const (
	FormatShort Format = iota
	FormatPretty
	FormatJSON
	FormatSARIF
)

func (f Format) String() string {
	switch f {
	case FormatShort:
		return "short"
	case FormatPretty:
		return "pretty"
	case FormatJSON:
		return "json"
	case FormatSARIF:
		return "sarif"
	}
	return "unknown"
}

// ParseFormat accepts the names returned by Format.String.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short", "":
		return FormatShort, nil
	case "pretty":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	case "sarif":
		return FormatSARIF, nil
	}
	return FormatShort, fmt.Errorf("unknown report format %q (want short, pretty, json or sarif)", s)
}

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto keeps short or relative paths and shortens long absolute ones.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

func (m PathMode) key() string {
	switch m {
	case PathModeAbsolute:
		return "absolute"
	case PathModeRelative:
		return "relative"
	case PathModeBasename:
		return "basename"
	default:
		return "auto"
	}
}

// ParsePathMode accepts auto, absolute, relative and basename.
func ParsePathMode(s string) (PathMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "":
		return PathModeAuto, nil
	case "absolute":
		return PathModeAbsolute, nil
	case "relative":
		return PathModeRelative, nil
	case "basename":
		return PathModeBasename, nil
	}
	return PathModeAuto, fmt.Errorf("unknown path mode %q", s)
}

// Options configures every renderer; fields a format has no use for are
// ignored.
type Options struct {
	PathMode PathMode
	// Color enables ANSI colours in the pretty format.
	Color bool
	// ShowFixes lists corrections (pretty) or includes them (json).
	ShowFixes bool
	// ShowPreview adds before/after lines to listed corrections.
	ShowPreview bool
	// Max truncates the rendered findings; <= 0 renders all.
	Max int
	// Tool metadata for sarif.
	ToolName    string
	ToolVersion string
	// Rules describes the active rules for the sarif driver section.
	Rules          []rule.Meta
	InvocationArgs []string
}
