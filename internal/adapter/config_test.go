package adapter

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := LoadConfig(NewViper(), "")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, SourceTypeModrinth, cfg.Source.Type)
	assert.Equal(t, 64, cfg.Cache.IconCapacity)
	assert.Equal(t, 4, cfg.Workers.Count)
	assert.Equal(t, 20*time.Second, cfg.Source.Timeout)
	assert.Equal(t, filepath.Join(home, ".local", "share", "modbrowse", "cache"), cfg.Cache.Dir)
}

func TestLoadConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: [unclosed"), 0644))

	_, err := LoadConfig(NewViper(), path)
	assert.Error(t, err)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source:
  type: local
  catalog_file: /tmp/catalog.json
  timeout: 5s
search:
  page_size: 10
  modpacks: true
  mc_version: "1.20.1"
cache:
  icon_capacity: 16
workers:
  count: 2
`), 0644))

	cfg, err := LoadConfig(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, SourceTypeLocal, cfg.Source.Type)
	assert.Equal(t, "/tmp/catalog.json", cfg.Source.CatalogFile)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 10, cfg.Search.PageSize)
	assert.True(t, cfg.Search.Modpacks)
	assert.Equal(t, "1.20.1", cfg.Search.MCVersion)
	assert.Equal(t, 16, cfg.Cache.IconCapacity)
	assert.Equal(t, 2, cfg.Workers.Count)
	assert.Equal(t, "modbrowse/dev", cfg.Source.UserAgent, "unset keys keep defaults")
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("MODBROWSE_WORKERS_COUNT", "7")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers:\n  count: 2\n"), 0644))

	cfg, err := LoadConfig(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers.Count)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.MCVersion = "1.21"
	cfg.Cache.IconCapacity = 32

	path, err := SaveConfig(cfg, filepath.Join(t.TempDir(), "nested", "config.yaml"))
	require.NoError(t, err)

	loaded, err := LoadConfig(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "1.21", loaded.Search.MCVersion)
	assert.Equal(t, 32, loaded.Cache.IconCapacity)
	assert.Equal(t, cfg.Source.Timeout, loaded.Source.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown source", func(c *Config) { c.Source.Type = "curse" }},
		{"modrinth without url", func(c *Config) { c.Source.URL = "" }},
		{"local without file", func(c *Config) { c.Source.Type = SourceTypeLocal }},
		{"zero page size", func(c *Config) { c.Search.PageSize = 0 }},
		{"huge page size", func(c *Config) { c.Search.PageSize = 500 }},
		{"zero capacity", func(c *Config) { c.Cache.IconCapacity = 0 }},
		{"zero workers", func(c *Config) { c.Workers.Count = 0 }},
	}
	require.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/mods")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "mods"), got)

	got, err = ExpandPath("/abs")
	require.NoError(t, err)
	assert.Equal(t, "/abs", got)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warning").String())
	assert.Equal(t, "INFO", parseLogLevel("bogus").String())
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "modbrowse.log")
	logger, closer, err := SetupLogger(&LoggingConfig{File: path, Level: "debug"})
	require.NoError(t, err)
	logger.Debug("page loaded", "added", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"page loaded"`)
}

func TestProjectURL(t *testing.T) {
	assert.Equal(t, "https://modrinth.com/mod/sodium",
		ProjectURL(domain.Item{ID: "AANobbMI", Slug: "sodium", Source: domain.SourceModrinth}))
	assert.Equal(t, "https://modrinth.com/modpack/abc",
		ProjectURL(domain.Item{ID: "abc", Modpack: true, Source: domain.SourceModrinth}))
	assert.Equal(t, "", ProjectURL(domain.Item{ID: "x", Source: domain.SourceLocal}))
}

func TestLauncherUsesConfiguredCommand(t *testing.T) {
	l := NewLauncher(OpenConfig{Command: "firefox", Args: []string{"--new-tab"}}, NullLogger())
	var got []string
	l.start = func(cmd *exec.Cmd) error {
		got = cmd.Args
		return nil
	}

	require.NoError(t, l.Launch("https://modrinth.com/mod/sodium"))
	assert.Equal(t, []string{"firefox", "--new-tab", "https://modrinth.com/mod/sodium"}, got)

	assert.Error(t, l.Launch(" "))
}

func TestRegisterFlags(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	v := NewViper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, RegisterFlags(fs, v))
	require.NoError(t, fs.Parse([]string{"--source", "local", "--catalog", "/tmp/c.json", "--workers", "3", "--modpacks"}))

	cfg, err := LoadConfig(v, "")
	require.NoError(t, err)

	assert.Equal(t, SourceTypeLocal, cfg.Source.Type)
	assert.Equal(t, "/tmp/c.json", cfg.Source.CatalogFile)
	assert.Equal(t, 3, cfg.Workers.Count)
	assert.True(t, cfg.Search.Modpacks)
	assert.Equal(t, 20, cfg.Search.PageSize, "unset flags keep defaults")
	assert.Equal(t, "INFO", cfg.Logging.Level)
}

func TestValidateNamesConfigKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.PageSize = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.page_size")
}
