package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// SourceType identifies the catalog backend
type SourceType string

const (
	SourceTypeModrinth SourceType = "modrinth"
	SourceTypeLocal    SourceType = "local"
)

// Config holds all application configuration
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Search  SearchConfig  `mapstructure:"search"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Workers WorkersConfig `mapstructure:"workers"`
	Install InstallConfig `mapstructure:"install"`
	Open    OpenConfig    `mapstructure:"open"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourceConfig holds catalog backend configuration
type SourceConfig struct {
	Type        SourceType    `mapstructure:"type" validate:"oneof=modrinth local"`
	URL         string        `mapstructure:"url" validate:"omitempty,url"` // API base URL (modrinth)
	CatalogFile string        `mapstructure:"catalog_file"`                 // JSON catalog (local)
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"` // Per-request bound, surfaced as a failure
}

// SearchConfig holds the initial search criteria and paging
type SearchConfig struct {
	PageSize  int    `mapstructure:"page_size" validate:"gt=0,lte=100"`
	Modpacks  bool   `mapstructure:"modpacks"`
	MCVersion string `mapstructure:"mc_version"`
}

// CacheConfig holds icon cache configuration
type CacheConfig struct {
	IconCapacity int    `mapstructure:"icon_capacity" validate:"gt=0"` // In-memory LRU size
	Dir          string `mapstructure:"dir"`                           // Disk tier, empty for memory only
}

// WorkersConfig holds worker pool configuration
type WorkersConfig struct {
	Count int `mapstructure:"count" validate:"gt=0"`
}

// InstallConfig holds install configuration
type InstallConfig struct {
	Dir string `mapstructure:"dir"`
}

// OpenConfig holds the command used to open project pages
type OpenConfig struct {
	Command string   `mapstructure:"command"` // Empty for the system default
	Args    []string `mapstructure:"args"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Type:      SourceTypeModrinth,
			URL:       "https://api.modrinth.com",
			UserAgent: "modbrowse/dev",
			Timeout:   20 * time.Second,
		},
		Search: SearchConfig{
			PageSize: 20,
		},
		Cache: CacheConfig{
			IconCapacity: 64,
			Dir:          defaultCachePath(),
		},
		Workers: WorkersConfig{
			Count: 4,
		},
		Install: InstallConfig{
			Dir: defaultInstallPath(),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "modbrowse", "modbrowse.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "modbrowse", "modbrowse.log")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "modbrowse")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "modbrowse")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "modbrowse", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "modbrowse", "cache")
	}
}

// defaultInstallPath returns the game's mods directory for the current OS
func defaultInstallPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), ".minecraft", "mods")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "minecraft", "mods")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".minecraft", "mods")
	}
}

// NewViper returns a viper instance preloaded with defaults, config search
// paths and environment overrides (MODBROWSE_SOURCE_TYPE, ...)
func NewViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()

	v.SetDefault("source.type", string(d.Source.Type))
	v.SetDefault("source.url", d.Source.URL)
	v.SetDefault("source.catalog_file", d.Source.CatalogFile)
	v.SetDefault("source.user_agent", d.Source.UserAgent)
	v.SetDefault("source.timeout", d.Source.Timeout)
	v.SetDefault("search.page_size", d.Search.PageSize)
	v.SetDefault("search.modpacks", d.Search.Modpacks)
	v.SetDefault("search.mc_version", d.Search.MCVersion)
	v.SetDefault("cache.icon_capacity", d.Cache.IconCapacity)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("workers.count", d.Workers.Count)
	v.SetDefault("install.dir", d.Install.Dir)
	v.SetDefault("open.command", d.Open.Command)
	v.SetDefault("open.args", d.Open.Args)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.level", d.Logging.Level)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(defaultConfigPath())
	v.AddConfigPath(".")

	// Environment variable overrides
	v.SetEnvPrefix("MODBROWSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadConfig reads configuration into a Config. configFile overrides the
// search paths when set. A missing config file is not an error.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	var err error
	for _, p := range []*string{&cfg.Source.CatalogFile, &cfg.Cache.Dir, &cfg.Install.Dir, &cfg.Logging.File} {
		if *p, err = ExpandPath(*p); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

var validate = newValidator()

// newValidator reports fields by their config key rather than Go name
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the configuration for values the application cannot use
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			key := fe.Namespace()
			if _, rest, ok := strings.Cut(key, "."); ok {
				key = rest
			}
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			return fmt.Errorf("%s: invalid value %v (want %s)", key, fe.Value(), rule)
		}
		return err
	}

	switch c.Source.Type {
	case SourceTypeModrinth:
		if c.Source.URL == "" {
			return errors.New("source.url is required for the modrinth source")
		}
	case SourceTypeLocal:
		if c.Source.CatalogFile == "" {
			return errors.New("source.catalog_file is required for the local source")
		}
	}
	return nil
}

// SaveConfig writes cfg as YAML to path, or to the default location when
// path is empty. Returns the file written.
func SaveConfig(cfg *Config, path string) (string, error) {
	if path == "" {
		path = filepath.Join(defaultConfigPath(), "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v := viper.New()
	v.Set("source.type", string(cfg.Source.Type))
	v.Set("source.url", cfg.Source.URL)
	v.Set("source.catalog_file", cfg.Source.CatalogFile)
	v.Set("source.user_agent", cfg.Source.UserAgent)
	v.Set("source.timeout", cfg.Source.Timeout.String())
	v.Set("search.page_size", cfg.Search.PageSize)
	v.Set("search.modpacks", cfg.Search.Modpacks)
	v.Set("search.mc_version", cfg.Search.MCVersion)
	v.Set("cache.icon_capacity", cfg.Cache.IconCapacity)
	v.Set("cache.dir", cfg.Cache.Dir)
	v.Set("workers.count", cfg.Workers.Count)
	v.Set("install.dir", cfg.Install.Dir)
	v.Set("open.command", cfg.Open.Command)
	v.Set("open.args", cfg.Open.Args)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}
