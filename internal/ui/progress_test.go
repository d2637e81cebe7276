package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"spotter/internal/driver"
)

func feed(m *progressModel, events ...driver.FileEvent) {
	for _, ev := range events {
		m.Update(eventMsg(ev))
	}
}

func TestProgressModelTracksFiles(t *testing.T) {
	m := NewProgressModel("check", nil).(*progressModel)
	feed(m,
		driver.FileEvent{Index: 0, Path: "a.kt", State: driver.FileQueued},
		driver.FileEvent{Index: 1, Path: "b.kt", State: driver.FileQueued},
		driver.FileEvent{Index: 1, Path: "b.kt", State: driver.FileRunning},
		driver.FileEvent{Index: 1, Path: "b.kt", State: driver.FileDone, Findings: 3},
	)
	if len(m.items) != 2 {
		t.Fatalf("items = %d, want 2", len(m.items))
	}
	if got := m.percent(); got != 0.5 {
		t.Fatalf("percent = %v, want 0.5", got)
	}
	view := m.View()
	for _, want := range []string{"(1/2 files, 3 findings)", "queued", "done", "b.kt  3"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}

	m.Update(doneMsg{})
	if !m.done || !strings.Contains(m.View(), "done: check") {
		t.Fatalf("model not finished:\n%s", m.View())
	}
}

func TestProgressModelLimitsRows(t *testing.T) {
	m := NewProgressModel("check", nil).(*progressModel)
	m.maxRows = 2
	feed(m,
		driver.FileEvent{Index: 0, Path: "a.kt", State: driver.FileDone},
		driver.FileEvent{Index: 1, Path: "b.kt", State: driver.FileRunning},
		driver.FileEvent{Index: 2, Path: "c.kt", State: driver.FileQueued},
		driver.FileEvent{Index: 3, Path: "d.kt", State: driver.FileFailed},
	)
	rows := m.visibleItems()
	if len(rows) != 2 || rows[0].path != "b.kt" || rows[1].path != "d.kt" {
		t.Fatalf("visible = %+v", rows)
	}
	if !strings.Contains(m.View(), "... 2 more") {
		t.Errorf("view lacks overflow line:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	got := truncate("a/very/long/path.kt", 10)
	if !strings.HasSuffix(got, "...") || runewidth.StringWidth(got) > 10 {
		t.Errorf("truncate = %q", got)
	}
}

func TestProgressModelInterrupt(t *testing.T) {
	m := NewProgressModel("check", nil).(*progressModel)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil || !m.Interrupted() {
		t.Fatalf("ctrl+c did not interrupt: cmd=%v interrupted=%v", cmd, m.Interrupted())
	}
}
