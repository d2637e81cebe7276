package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadWalksUpAndAppliesDefaults(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[analysis]\nconfig = \"spotter.yml\"\nexcludes = [\"**/build/**\"]\n")
	nested := filepath.Join(root, "app", "src")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	m, ok, err := Load(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, root, m.Root)
	assert.Equal(t, filepath.Join(root, "spotter.yml"), m.Resolve(m.Config.Analysis.Config))
	assert.Equal(t, []string{"**/build/**"}, m.Config.Analysis.Excludes)
	assert.Equal(t, "short", m.Config.Report.Format)
	assert.True(t, m.Config.Cache.Enabled)
	assert.Equal(t, 0, m.Config.Analysis.EffectiveJobs())
}

func TestLoadWithoutManifest(t *testing.T) {
	m, ok, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"format", "[report]\nformat = \"xml\"\n", "unknown format"},
		{"jobs", "[analysis]\njobs = -1\n", "jobs"},
		{"unknown key", "[cache]\nttl = 3\n", "unknown keys: cache.ttl"},
		{"syntax", "[analysis\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.body)
			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEffectiveJobs(t *testing.T) {
	assert.Equal(t, 1, AnalysisConfig{Parallel: false, Jobs: 8}.EffectiveJobs())
	assert.Equal(t, 8, AnalysisConfig{Parallel: true, Jobs: 8}.EffectiveJobs())
}
