package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestColoredKeepsText(t *testing.T) {
	saved := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = saved }()

	tests := map[string]string{
		"0.3.0-dev": "0.3.0-dev",
		"1.2.3":     "1.2.3",
		"dev":       "dev",
	}
	for in, want := range tests {
		if got := Colored(in); got != want {
			t.Errorf("Colored(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCurrentDefaults(t *testing.T) {
	saved := Version
	Version = "  "
	defer func() { Version = saved }()
	if got := Current().Version; got != "dev" {
		t.Errorf("Version = %q, want dev", got)
	}
}
