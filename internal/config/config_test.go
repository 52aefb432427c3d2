package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Empty(t, cfg.DefaultBaseBranch)
	assert.Equal(t, []string{"main", "master", "develop"}, cfg.ProtectedBranches)
	assert.False(t, cfg.ShowRemotes)
	assert.True(t, cfg.AheadBehind)
	assert.True(t, cfg.AutoRefresh)
	assert.Equal(t, 30*24*time.Hour, cfg.MaxAge())
	assert.Equal(t, 2*time.Minute, cfg.FetchTimeout)
	assert.True(t, cfg.IsProtected("master"))
	assert.False(t, cfg.IsProtected("feature/x"))
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		check func(t *testing.T, cfg *AppConfig)
	}{
		{
			name:  "empty map keeps defaults",
			input: map[string]any{},
			check: func(t *testing.T, cfg *AppConfig) {
				assert.Equal(t, DefaultConfig(), cfg)
			},
		},
		{
			name: "base branch and email are trimmed",
			input: map[string]any{
				"default_base_branch": "  trunk ",
				"author_email":        " me@example.com",
			},
			check: func(t *testing.T, cfg *AppConfig) {
				assert.Equal(t, "trunk", cfg.DefaultBaseBranch)
				assert.Equal(t, "me@example.com", cfg.AuthorEmail)
			},
		},
		{
			name:  "protected list from yaml list",
			input: map[string]any{"protected_branches": []any{"main", "", nil, "release"}},
			check: func(t *testing.T, cfg *AppConfig) {
				assert.Equal(t, []string{"main", "release"}, cfg.ProtectedBranches)
			},
		},
		{
			name:  "protected list from comma string",
			input: map[string]any{"protected_branches": "main, prod"},
			check: func(t *testing.T, cfg *AppConfig) {
				assert.Equal(t, []string{"main", "prod"}, cfg.ProtectedBranches)
			},
		},
		{
			name: "lenient booleans",
			input: map[string]any{
				"show_remotes": "yes",
				"ahead_behind": 0,
				"auto_refresh": "off",
			},
			check: func(t *testing.T, cfg *AppConfig) {
				assert.True(t, cfg.ShowRemotes)
				assert.False(t, cfg.AheadBehind)
				assert.False(t, cfg.AutoRefresh)
			},
		},
		{
			name: "numbers",
			input: map[string]any{
				"max_age_days":          "14",
				"fetch_timeout_seconds": 10,
			},
			check: func(t *testing.T, cfg *AppConfig) {
				assert.Equal(t, 14, cfg.MaxAgeDays)
				assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
			},
		},
		{
			name:  "non-positive age is ignored",
			input: map[string]any{"max_age_days": -3},
			check: func(t *testing.T, cfg *AppConfig) {
				assert.Equal(t, 30, cfg.MaxAgeDays)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, parseConfig(tt.input))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("default location", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", dir)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "gbm"), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "gbm", "config.yml"),
			[]byte("default_base_branch: develop\nshow_remotes: true\n"), 0o600))

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "develop", cfg.DefaultBaseBranch)
		assert.True(t, cfg.ShowRemotes)
	})

	t.Run("missing default file yields defaults", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("protected_branches: [main\n"), 0o600))

		cfg, err := LoadConfig(path)
		require.Error(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("GBM_TEST_DIR", "/tmp/gbm")

	got, err := ExpandPath("~/logs/gbm.log")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs/gbm.log"), got)

	got, err = ExpandPath("$GBM_TEST_DIR/gbm.log")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/gbm/gbm.log", got)
}
