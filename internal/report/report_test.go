package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotter/internal/diag"
	"spotter/internal/finding"
	"spotter/internal/fix"
	"spotter/internal/rule"
	"spotter/internal/source"
)

const sample = "fun f() {\n\tval x = 1 \n}\n"

func sampleReport(t *testing.T, path string) (Report, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual(path, []byte(sample))
	file := fs.Get(id)

	at := func(start, end uint32) finding.Location {
		loc, err := finding.NewLocation(file, source.Span{File: id, Start: start, End: end})
		require.NoError(t, err)
		return loc
	}
	trailing := source.Span{File: id, Start: 20, End: 21}
	rep := Report{
		Files: 1,
		Findings: []finding.Finding{
			{
				RuleID:   "Demo",
				RuleSet:  "test",
				Message:  "whole\nfunction",
				Severity: diag.SevError,
				Entity:   finding.Entity{Name: "f", Signature: "A.kt:f:fun f() {", Location: at(0, 23)},
			},
			{
				RuleID:      "TrailingWhitespace",
				RuleSet:     "style",
				Message:     "Line 2 ends with a whitespace.",
				Severity:    diag.SevWarning,
				Entity:      finding.Entity{Name: "file", Location: at(20, 21)},
				Corrections: []diag.Fix{fix.DeleteSpan("Remove trailing whitespace", trailing, " ")},
			},
		},
		Diagnostics: []diag.Diagnostic{
			diag.NewPathDiagnostic(diag.SevError, diag.FrontendLoadFailed, "broken.ktree", "cannot decode dump"),
		},
	}
	return rep, fs
}

func TestShort(t *testing.T) {
	rep, fs := sampleReport(t, "src/A.kt")
	var buf bytes.Buffer
	require.NoError(t, Short(&buf, rep, fs, Options{}))
	want := "src/A.kt:1:1: Demo whole function\n" +
		"src/A.kt:2:11: TrailingWhitespace Line 2 ends with a whitespace.\n"
	assert.Equal(t, want, buf.String())

	buf.Reset()
	require.NoError(t, Short(&buf, rep, fs, Options{Max: 1}))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestPathModes(t *testing.T) {
	rep, fs := sampleReport(t, "/home/user/project/src/A.kt")
	fs.SetBaseDir("/home/user/project")

	tests := []struct {
		mode PathMode
		want string
	}{
		{PathModeAbsolute, "/home/user/project/src/A.kt:2:11:"},
		{PathModeRelative, "src/A.kt:2:11:"},
		{PathModeBasename, "A.kt:2:11:"},
	}
	for _, tt := range tests {
		t.Run(tt.mode.key(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Short(&buf, rep, fs, Options{PathMode: tt.mode}))
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			require.Len(t, lines, 2)
			assert.True(t, strings.HasPrefix(lines[1], tt.want), "got %q", lines[1])
		})
	}
}

func TestPrettySnippetAndCarets(t *testing.T) {
	rep, fs := sampleReport(t, "src/A.kt")
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, rep, fs, Options{}))
	out := buf.String()

	assert.Contains(t, out, "src/A.kt:2:11: warning style/TrailingWhitespace: Line 2 ends with a whitespace.\n")
	assert.Contains(t, out, " 2 |     val x = 1 \n")
	// таб раскрывается в четыре пробела, каретка под пробелом в конце строки
	assert.Contains(t, out, "   | "+strings.Repeat(" ", 13)+"^\n")
	// многострочный span подчёркивается до конца первой строки
	assert.Contains(t, out, "   | ^^^^^^^^^\n")
	assert.Contains(t, out, "broken.ktree: error FE3001: cannot decode dump\n")
	assert.True(t, strings.HasSuffix(out, "2 findings in 1 file (1 errors, 1 warnings, 0 info)\n"), out)
	assert.NotContains(t, out, "\x1b[")
	assert.NotContains(t, out, "fix:")
}

func TestPrettyFixPreview(t *testing.T) {
	rep, fs := sampleReport(t, "src/A.kt")
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, rep, fs, Options{ShowFixes: true, ShowPreview: true}))
	out := buf.String()
	assert.Contains(t, out, "fix: Remove trailing whitespace (always-safe)\n")
	assert.Contains(t, out, "    -     val x = 1 \n")
	assert.Contains(t, out, "    +     val x = 1\n")
}

func TestPrettyColorAndEmpty(t *testing.T) {
	rep, fs := sampleReport(t, "src/A.kt")
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, rep, fs, Options{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")

	buf.Reset()
	require.NoError(t, Pretty(&buf, Report{Files: 3}, nil, Options{}))
	assert.Equal(t, "\nno findings in 3 files\n", buf.String())
}

func TestPrettyWideCharacters(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("W.kt", []byte("val 名前 = x\n"))
	loc, err := finding.NewLocation(fs.Get(id), source.Span{File: id, Start: 13, End: 14})
	require.NoError(t, err)
	rep := Report{Files: 1, Findings: []finding.Finding{{
		RuleID: "R", RuleSet: "s", Message: "m", Entity: finding.Entity{Location: loc},
	}}}
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, rep, fs, Options{}))
	// "val 名前 = " занимает 11 колонок: иероглифы двойной ширины
	assert.Contains(t, buf.String(), "   | "+strings.Repeat(" ", 11)+"^\n")
	assert.Contains(t, buf.String(), "W.kt:1:10:")
}

func TestJSON(t *testing.T) {
	rep, fs := sampleReport(t, "src/A.kt")
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, rep, fs, Options{ShowFixes: true, ShowPreview: true}))

	var out Output
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Findings, 2)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, 1, out.Files)

	ws := out.Findings[1]
	assert.Equal(t, "TrailingWhitespace", ws.RuleID)
	assert.Equal(t, "style", ws.RuleSet)
	assert.Equal(t, "warning", ws.Severity)
	assert.Equal(t, LocationJSON{File: "src/A.kt", StartByte: 20, EndByte: 21, StartLine: 2, StartCol: 11, EndLine: 2, EndCol: 12}, ws.Location)
	require.Len(t, ws.Fixes, 1)
	require.Len(t, ws.Fixes[0].Edits, 1)
	edit := ws.Fixes[0].Edits[0]
	assert.Equal(t, " ", edit.OldText)
	assert.Equal(t, []string{"\tval x = 1 "}, edit.BeforeLines)
	assert.Equal(t, []string{"\tval x = 1"}, edit.AfterLines)

	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, "FE3001", out.Diagnostics[0].Code)
	require.NotNil(t, out.Diagnostics[0].Location)
	assert.Equal(t, "broken.ktree", out.Diagnostics[0].Location.File)
}

func TestJSONWithoutFixes(t *testing.T) {
	rep, fs := sampleReport(t, "src/A.kt")
	out := BuildOutput(rep, fs, Options{Max: 1})
	require.Len(t, out.Findings, 1)
	assert.Equal(t, 2, out.Count)
	assert.Empty(t, out.Findings[0].Fixes)
}

func TestSARIF(t *testing.T) {
	rep, fs := sampleReport(t, "src/A.kt")
	var buf bytes.Buffer
	opts := Options{
		ToolVersion: "1.2.3",
		Rules: []rule.Meta{
			{ID: "TrailingWhitespace", RuleSet: "style", Description: "Checks trailing whitespace.", Autocorrect: true},
			{ID: "MaxLineLength", RuleSet: "style", Description: "Long lines."},
		},
		InvocationArgs: []string{"check", "."},
	}
	require.NoError(t, SARIF(&buf, rep, fs, opts))

	var log sarifLog
	require.NoError(t, json.Unmarshal(buf.Bytes(), &log))
	assert.Equal(t, "2.1.0", log.Version)
	require.Len(t, log.Runs, 1)
	run := log.Runs[0]
	assert.Equal(t, "spotter", run.Tool.Driver.Name)
	assert.Equal(t, "1.2.3", run.Tool.Driver.Version)

	ids := make([]string, 0, len(run.Tool.Driver.Rules))
	for _, r := range run.Tool.Driver.Rules {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"style/MaxLineLength", "style/TrailingWhitespace", "test/Demo"}, ids)

	require.Len(t, run.Results, 2)
	first := run.Results[0]
	assert.Equal(t, "test/Demo", first.RuleID)
	assert.Equal(t, "error", first.Level)
	require.NotNil(t, first.RuleIndex)
	assert.Equal(t, 2, *first.RuleIndex)
	assert.Equal(t, "A.kt:f:fun f() {", first.PartialFingerprints["signature/v1"])

	ws := run.Results[1]
	assert.Equal(t, "warning", ws.Level)
	region := ws.Locations[0].PhysicalLocation.Region
	require.NotNil(t, region)
	assert.Equal(t, uint32(2), region.StartLine)
	assert.Equal(t, uint32(11), region.StartColumn)
	require.Len(t, ws.Fixes, 1)
	repl := ws.Fixes[0].ArtifactChanges[0].Replacements[0]
	assert.Equal(t, uint32(20), repl.DeletedRegion.ByteOffset)
	assert.Equal(t, uint32(1), repl.DeletedRegion.ByteLength)
	assert.Nil(t, repl.InsertedContent)

	require.Len(t, run.Invocations, 1)
	inv := run.Invocations[0]
	assert.False(t, inv.ExecutionSuccessful)
	assert.Equal(t, []string{"check", "."}, inv.Arguments)
	require.Len(t, inv.Notifications, 1)
	assert.Equal(t, "FE3001", inv.Notifications[0].Descriptor.ID)
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{FormatShort, FormatPretty, FormatJSON, FormatSARIF} {
		got, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, Report{}, nil, Options{}))
	assert.Contains(t, buf.String(), `"findings": []`)
}
