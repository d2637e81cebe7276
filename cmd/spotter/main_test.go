package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"spotter/internal/config"
	"spotter/internal/diag"
	"spotter/internal/engine"
	"spotter/internal/finding"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{&exitError{code: exitFindings}, exitFindings},
		{fmt.Errorf("wrapped: %w", &exitError{code: exitFindings}), exitFindings},
		{errors.New("boom"), exitFailure},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestFailingThreshold(t *testing.T) {
	findings := []finding.Finding{{RuleID: "A", Severity: diag.SevWarning}}
	cases := []struct {
		name string
		opts checkOptions
		want bool
	}{
		{"warning threshold", checkOptions{failOn: diag.SevWarning}, true},
		{"error threshold", checkOptions{failOn: diag.SevError}, false},
		{"none", checkOptions{failOn: diag.SevInfo, failOnNone: true}, false},
	}
	for _, tc := range cases {
		if got := failing(findings, tc.opts); got != tc.want {
			t.Fatalf("%s: failing = %v, want %v", tc.name, got, tc.want)
		}
	}
	if failing(nil, checkOptions{failOn: diag.SevInfo}) {
		t.Fatal("no findings must not fail")
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, "on": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if !shouldUseTUI(uiModeOn) || shouldUseTUI(uiModeOff) {
		t.Fatal("explicit modes must win over terminal detection")
	}
}

func TestRuleRowsCoverRegistry(t *testing.T) {
	reg, err := newRegistry()
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}
	eng, err := engine.New(reg, config.EmptyTree, engine.Options{})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	rows, err := ruleRows(reg, eng)
	if err != nil {
		t.Fatalf("ruleRows: %v", err)
	}
	if len(rows) != reg.Len() {
		t.Fatalf("rows = %d, want %d", len(rows), reg.Len())
	}
	active := 0
	for _, r := range rows {
		if r.Active {
			active++
		}
	}
	if active != len(eng.Rules()) {
		t.Fatalf("active rows = %d, want %d", active, len(eng.Rules()))
	}

	table := renderRuleTable(rows)
	if !strings.Contains(table, "DESCRIPTION") || !strings.Contains(table, rows[0].ID) {
		t.Fatalf("unexpected table:\n%s", table)
	}
	if renderRuleTable(nil) != "No rules" {
		t.Fatal("empty table should say so")
	}
}
