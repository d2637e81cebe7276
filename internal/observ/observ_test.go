package observ

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	i := tm.Begin("config")
	tm.End(i, "3 rules")
	j := tm.Begin("analyze")
	tm.End(j, "")
	tm.End(99, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(r.Phases))
	}
	if r.Phases[0].Name != "config" || r.Phases[0].Note != "3 rules" {
		t.Errorf("phase[0] = %+v", r.Phases[0])
	}
	s := r.Summary()
	if !strings.Contains(s, "config") || !strings.Contains(s, "// 3 rules") || !strings.Contains(s, "total") {
		t.Errorf("summary = %q", s)
	}
	if NewTimer().Report().Phases != nil {
		t.Error("empty timer should report no phases")
	}
}

func TestProfileTop(t *testing.T) {
	p := NewProfile()
	p.Add("style/A", 2*time.Millisecond, 1)
	p.Add("style/B", 5*time.Millisecond, 0)
	p.Add("style/A", 1*time.Millisecond, 2)

	other := NewProfile()
	other.Add("style/C", time.Millisecond, 0)
	p.Merge(other)

	top := p.Top(0)
	if len(top) != 3 {
		t.Fatalf("len = %d, want 3", len(top))
	}
	if top[0].Rule != "style/B" || top[1].Rule != "style/A" {
		t.Errorf("order = %v", top)
	}
	if top[1].Files != 2 || top[1].Findings != 3 {
		t.Errorf("A = %+v", top[1])
	}
	if got := p.Top(1); len(got) != 1 {
		t.Errorf("Top(1) len = %d", len(got))
	}

	var nilProfile *Profile
	nilProfile.Add("x", time.Second, 1)
	if nilProfile.Top(0) != nil {
		t.Error("nil profile should be empty")
	}
}

func TestStartPprofWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	cfg := PprofConfig{CPUPath: filepath.Join(dir, "cpu.out"), HeapPath: filepath.Join(dir, "heap.out")}
	stop, err := StartPprof(cfg)
	if err != nil {
		t.Fatalf("StartPprof: %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	for _, p := range []string{cfg.CPUPath, cfg.HeapPath} {
		if st, err := os.Stat(p); err != nil || st.Size() == 0 {
			t.Errorf("%s not written: %v", p, err)
		}
	}
}
