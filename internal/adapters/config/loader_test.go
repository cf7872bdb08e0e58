package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/seer/internal/adapters/config"
	"go.trai.ch/seer/internal/core/domain"
)

func writeSettings(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.SettingsFileName), []byte(content), 0o600))
}

func TestLoader_Defaults(t *testing.T) {
	settings, err := config.NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, runtime.NumCPU(), settings.Jobs)
	assert.Equal(t, domain.DefaultShimPath, settings.ShimPath)
	assert.Equal(t, 32, settings.ConnectionLimit)
	assert.Equal(t, 32, settings.InputParallelism)
	assert.NotEmpty(t, settings.SocketDir)
	assert.False(t, settings.Verbose)
}

func TestLoader_File(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, `
jobs: 3
shim: /opt/seer/fs_override.so
root_filter: /src
verbose: true
`)

	settings, err := config.NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, 3, settings.Jobs)
	assert.Equal(t, "/opt/seer/fs_override.so", settings.ShimPath)
	assert.Equal(t, "/src", settings.RootFilter)
	assert.True(t, settings.Verbose)
	assert.Equal(t, 32, settings.ConnectionLimit)
}

func TestLoader_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "jobs: 3\n")
	t.Setenv("SEER_JOBS", "7")
	t.Setenv("SEER_JSON_LOGS", "true")

	settings, err := config.NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, 7, settings.Jobs)
	assert.True(t, settings.JSONLogs)
}

func TestLoader_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"zero jobs", "jobs: 0\n", domain.ErrInvalidSettings.Error()},
		{"negative connection limit", "connection_limit: -1\n", domain.ErrInvalidSettings.Error()},
		{"malformed yaml", "jobs: [\n", domain.ErrSettingsLoadFailed.Error()},
		{"wrong type", "jobs: many\n", domain.ErrSettingsLoadFailed.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeSettings(t, dir, tt.content)

			_, err := config.NewLoader(dir).Load()
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
