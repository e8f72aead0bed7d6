package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/wordbind/pkg/config"
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefaults(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, config.DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
	assert.True(t, cfg.PrettyOr(true))
	assert.False(t, cfg.PrettyOr(false))
	assert.NoError(t, cfg.Validate())
}

func TestLoadProjectFileWins(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	writeFile(t, filepath.Join(home, ".wordbind", "config.yaml"), "max_depth: 7\n")

	project := t.TempDir()
	writeFile(t, filepath.Join(project, ".wordbind.yaml"), `
max_depth: 64
log_level: debug
pretty: false
show_bindings: true
lib: lib/base.wb
`)

	cfg, err := config.Load(project)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.MaxDepth)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
	assert.False(t, cfg.PrettyOr(true))
	assert.True(t, cfg.ShowBindings)
	assert.Equal(t, filepath.Join(project, "lib", "base.wb"), cfg.Lib)
	assert.Equal(t, filepath.Join(project, ".wordbind.yaml"), cfg.Source)
}

func TestLoadFallsBackToUserFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	writeFile(t, filepath.Join(home, ".wordbind", "config.yaml"), "max_depth: 7\n")

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxDepth)
	assert.Equal(t, "info", cfg.LogLevel, "unset fields keep their defaults")
}

func TestLoadDefaultsWhenNoFiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.Source)
	assert.Equal(t, config.DefaultMaxDepth, cfg.MaxDepth)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := map[string]string{
		"bad yaml":  "max_depth: [",
		"zero":      "max_depth: 0",
		"bad level": "log_level: chatty",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			project := t.TempDir()
			writeFile(t, filepath.Join(project, ".wordbind.yaml"), content)

			_, err := config.Load(project)
			require.Error(t, err)
			assert.True(t, diagnostics.Is(err, diagnostics.EConfig), "got %v", err)
		})
	}
}
