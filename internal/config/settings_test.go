package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kk-code-lab/rfind/internal/search"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	for _, key := range []string{"RFIND_PAGE_SIZE", "RFIND_MODE", "RFIND_LOG_LEVEL", "RFIND_SHOW_HIDDEN", "RFIND_ROOT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return dir
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("rfind", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	settings, err := Load(nil)
	require.NoError(t, err)
	require.NoError(t, settings.Validate())

	assert.Equal(t, ".", settings.Root)
	assert.Equal(t, 20, settings.PageSize)
	assert.Equal(t, 10, settings.MaxDepth)
	assert.Equal(t, int64(10<<20), settings.MaxFileSize)
	assert.Equal(t, 100, settings.MaxHitsPerFile)
	assert.Equal(t, 1000, settings.MaxPreviewBytes)
	assert.Equal(t, 20000, settings.SyncThreshold)
	assert.True(t, settings.ShowHidden)
	assert.Equal(t, "info", settings.LogLevel)
	assert.Equal(t, search.ModeFilename, settings.SearchMode())
	assert.Empty(t, settings.ConfigFile)
}

func TestLoadPriority(t *testing.T) {
	dir := isolate(t)
	configDir := filepath.Join(dir, "config", "rfind")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	config := "page_size: 50\nmax_depth: 4\nmode: content\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(config), 0o644))

	t.Setenv("RFIND_PAGE_SIZE", "30")

	settings, err := Load(newFlags(t, "--max-depth", "2"))
	require.NoError(t, err)

	assert.Equal(t, 30, settings.PageSize, "environment beats the config file")
	assert.Equal(t, 2, settings.MaxDepth, "flags beat the config file")
	assert.Equal(t, search.ModeContent, settings.SearchMode())
	assert.Equal(t, "debug", settings.LogLevel)
	assert.Equal(t, filepath.Join(configDir, "config.yaml"), settings.ConfigFile)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("show_hidden: false\nquery: main\n"), 0o644))

	settings, err := Load(newFlags(t, "--config", path))
	require.NoError(t, err)
	assert.False(t, settings.ShowHidden)
	assert.Equal(t, "main", settings.Query)
}

func TestLoadMissingExplicitConfigFails(t *testing.T) {
	dir := isolate(t)
	_, err := Load(newFlags(t, "--config", filepath.Join(dir, "nope.yaml")))
	require.Error(t, err)
}

func TestLoadContentShorthand(t *testing.T) {
	isolate(t)
	settings, err := Load(newFlags(t, "-c", "-q", "hello"))
	require.NoError(t, err)
	assert.Equal(t, search.ModeContent, settings.SearchMode())
	assert.Equal(t, "hello", settings.Query)
}

func TestLoadExpandsHome(t *testing.T) {
	dir := isolate(t)
	settings, err := Load(newFlags(t, "--log-file", "~/rfind.log"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rfind.log"), settings.LogFile)
}

func TestValidate(t *testing.T) {
	valid := func() Settings {
		return Settings{
			Mode:            "filename",
			PageSize:        20,
			MaxDepth:        10,
			MaxFileSize:     1 << 20,
			MaxHitsPerFile:  100,
			MaxPreviewBytes: 1000,
			LogLevel:        "info",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"unknown mode", func(s *Settings) { s.Mode = "regex" }},
		{"zero page size", func(s *Settings) { s.PageSize = 0 }},
		{"negative workers", func(s *Settings) { s.Workers = -1 }},
		{"negative depth", func(s *Settings) { s.MaxDepth = -1 }},
		{"zero file size", func(s *Settings) { s.MaxFileSize = 0 }},
		{"zero hits per file", func(s *Settings) { s.MaxHitsPerFile = 0 }},
		{"zero preview", func(s *Settings) { s.MaxPreviewBytes = 0 }},
		{"bad log level", func(s *Settings) { s.LogLevel = "loud" }},
	}

	base := valid()
	require.NoError(t, base.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}
