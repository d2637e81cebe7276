package diag

import (
	"testing"

	"spotter/internal/source"
)

func TestFormatShort(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")
	id := fs.Add("/workspace/src/a.kt", []byte("a\nb\n"), 0)

	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	r.Report(New(SevWarning, RuleExecutionFailed, source.Span{File: id, Start: 2, End: 3}, "rule crashed\nLocation: x"))
	r.Report(New(SevWarning, RuleExecutionFailed, source.Span{File: id, Start: 2, End: 3}, "rule crashed\nLocation: x"))
	r.Report(NewPathDiagnostic(SevInfo, ConfigUnknownProperty, "spotter.yml", "Property 'style>Foo' is misspelled or does not exist."))
	bag.Sort()

	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics after dedup, got %d", bag.Len())
	}
	want := "warning RUN1001 src/a.kt:2:1 rule crashed Location: x\n" +
		"info CFG2001 spotter.yml Property 'style>Foo' is misspelled or does not exist."
	if got := FormatShort(bag.Items(), fs); got != want {
		t.Fatalf("unexpected output:\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestBagLimitAndPromote(t *testing.T) {
	bag := NewBag(2)
	for i := 0; i < 3; i++ {
		bag.Add(NewPathDiagnostic(SevWarning, ConfigUnknownProperty, "c.yml", "x"))
	}
	if bag.Len() != 2 {
		t.Fatalf("limit not applied: %d", bag.Len())
	}
	if bag.HasErrors() {
		t.Fatal("unexpected errors before promotion")
	}
	bag.Promote(func(c Code) bool { return c == ConfigUnknownProperty }, SevError)
	if !bag.HasErrors() {
		t.Fatal("expected errors after promotion")
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
		ok   bool
	}{
		{"error", SevError, true},
		{"Warning", SevWarning, true},
		{" info ", SevInfo, true},
		{"fatal", SevInfo, false},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, %v", tt.in, got, err)
		}
	}
}
