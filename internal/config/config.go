package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type LogConfig struct {
	Level slog.Level `mapstructure:"level"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ExportConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type ReportConfig struct {
	HTML bool `mapstructure:"html"`
}

type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Export ExportConfig `mapstructure:"export"`
	Report ReportConfig `mapstructure:"report"`
}

// cacheBase returns the base cache directory for apiperms.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/apiperms as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "apiperms")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "apiperms")
	}
	return filepath.Join(os.TempDir(), "apiperms")
}

// DBPath returns the default path of the DuckDB export file.
func DBPath() string {
	return filepath.Join(cacheBase(), "apiperms.duckdb")
}

// CASDir returns the path to the snapshot store.
func CASDir() string {
	return filepath.Join(cacheBase(), "cas")
}

// InitializeViper registers config search paths, defaults and env bindings.
// An explicit file path, when non-empty, replaces the search paths.
func InitializeViper(file string) error {
	viper.SetConfigType("toml")
	if file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			viper.AddConfigPath(filepath.Join(xdg, "apiperms"))
		} else if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "apiperms"))
		}
	}

	viper.SetDefault("log.level", "info")
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("export.db_path", "")
	viper.SetDefault("report.html", false)

	viper.SetEnvPrefix("APIPERMS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func stringToLevelHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(slog.Level(0)) || f.Kind() != reflect.String {
			return data, nil
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(data.(string))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", data, err)
		}
		return level, nil
	}
}

// Load reads the config file (if any), environment and defaults.
func Load(file string) (*Config, error) {
	if err := InitializeViper(file); err != nil {
		return nil, err
	}
	return decode(viper.AllSettings())
}

func decode(settings map[string]interface{}) (*Config, error) {
	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToLevelHookFunc(),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Export.DBPath == "" {
		config.Export.DBPath = DBPath()
	} else {
		config.Export.DBPath = expandHome(config.Export.DBPath)
	}

	return &config, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
