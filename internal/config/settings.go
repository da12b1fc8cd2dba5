package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kk-code-lab/rfind/internal/search"
)

const envPrefix = "RFIND"

// Settings holds the resolved configuration.
type Settings struct {
	Root            string `mapstructure:"root"`
	Query           string `mapstructure:"query"`
	Mode            string `mapstructure:"mode"`
	List            bool   `mapstructure:"list"`
	PageSize        int    `mapstructure:"page_size"`
	Workers         int    `mapstructure:"workers"`
	MaxDepth        int    `mapstructure:"max_depth"`
	MaxFileSize     int64  `mapstructure:"max_file_size"`
	MaxHitsPerFile  int    `mapstructure:"max_hits_per_file"`
	MaxPreviewBytes int    `mapstructure:"max_preview_bytes"`
	ShowHidden      bool   `mapstructure:"show_hidden"`
	SyncThreshold   int    `mapstructure:"sync_threshold"`
	LogFile         string `mapstructure:"log_file"`
	LogLevel        string `mapstructure:"log_level"`

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string `mapstructure:"-"`
}

// flagKeys maps command-line flag names onto settings keys.
var flagKeys = map[string]string{
	"query":             "query",
	"mode":              "mode",
	"list":              "list",
	"page-size":         "page_size",
	"workers":           "workers",
	"max-depth":         "max_depth",
	"max-file-size":     "max_file_size",
	"max-hits-per-file": "max_hits_per_file",
	"hidden":            "show_hidden",
	"log-file":          "log_file",
	"log-level":         "log_level",
}

// RegisterFlags adds the flags understood by Load to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("query", "q", "", "initial query")
	flags.String("mode", "filename", "initial search mode (filename|content)")
	flags.BoolP("content", "c", false, "start in content mode")
	flags.Bool("list", false, "print the results of --query and exit")
	flags.Int("page-size", 20, "results per page")
	flags.Int("workers", 0, "content scan workers (0 picks a default)")
	flags.Int("max-depth", search.DefaultMaxDepth, "maximum directory depth (0 for unlimited)")
	flags.Int64("max-file-size", search.DefaultMaxFileSize, "largest file searched in content mode, in bytes")
	flags.Int("max-hits-per-file", search.DefaultMaxHitsPerFile, "content hits kept per file")
	flags.Bool("hidden", true, "include hidden files and directories (--hidden=false skips them)")
	flags.String("config", "", "config file (default $XDG_CONFIG_HOME/rfind/config.yaml)")
	flags.String("log-file", "", "write logs to this file")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")
}

// Load resolves settings. Priority: flags > RFIND_* environment > config file > defaults.
// flags may be nil.
func Load(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("root", ".")
	v.SetDefault("query", "")
	v.SetDefault("mode", search.ModeFilename.String())
	v.SetDefault("list", false)
	v.SetDefault("page_size", 20)
	v.SetDefault("workers", 0)
	v.SetDefault("max_depth", search.DefaultMaxDepth)
	v.SetDefault("max_file_size", int64(search.DefaultMaxFileSize))
	v.SetDefault("max_hits_per_file", search.DefaultMaxHitsPerFile)
	v.SetDefault("max_preview_bytes", search.DefaultMaxPreviewBytes)
	v.SetDefault("show_hidden", true)
	v.SetDefault("sync_threshold", 20000)
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFile := ""
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
		if f := flags.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}

	if configFile != "" {
		v.SetConfigFile(expandHomeDir(configFile))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else if dir := defaultConfigDir(); dir != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	settings.ConfigFile = v.ConfigFileUsed()

	// --content is shorthand for --mode=content.
	if flags != nil {
		if content, err := flags.GetBool("content"); err == nil && content {
			settings.Mode = search.ModeContent.String()
		}
	}

	settings.Root = expandHomeDir(settings.Root)
	settings.LogFile = expandHomeDir(settings.LogFile)
	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))
	return &settings, nil
}

// Validate rejects settings the engine cannot run with.
func (s *Settings) Validate() error {
	if _, err := search.ParseMode(s.Mode); err != nil {
		return err
	}
	if s.PageSize < 1 {
		return fmt.Errorf("page-size must be positive, got %d", s.PageSize)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", s.Workers)
	}
	if s.MaxDepth < 0 {
		return fmt.Errorf("max-depth cannot be negative, got %d", s.MaxDepth)
	}
	if s.MaxFileSize <= 0 {
		return fmt.Errorf("max-file-size must be positive, got %d", s.MaxFileSize)
	}
	if s.MaxHitsPerFile <= 0 {
		return fmt.Errorf("max-hits-per-file must be positive, got %d", s.MaxHitsPerFile)
	}
	if s.MaxPreviewBytes <= 0 {
		return fmt.Errorf("max-preview-bytes must be positive, got %d", s.MaxPreviewBytes)
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.New("log-level must be one of debug, info, warn, error; got: " + s.LogLevel)
	}
	return nil
}

// SearchMode returns the parsed initial mode. Call Validate first.
func (s *Settings) SearchMode() search.Mode {
	mode, _ := search.ParseMode(s.Mode)
	return mode
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rfind")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rfind")
}

func expandHomeDir(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
