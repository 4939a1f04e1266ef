package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/pkglink-dev/pkglink/internal/branding"
	"github.com/pkglink-dev/pkglink/internal/platform"
	"github.com/pkglink-dev/pkglink/internal/probe"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Setting keys.
const (
	KeyDependencyDir = "dependency_dir"
	KeyManifestFile  = "manifest_file"
	KeyStorePath     = "store_path"
	KeyJournal       = "journal"
	KeyLogLevel      = "log_level"
	KeyEditor        = "editor"
)

var defaults = map[string]any{
	KeyDependencyDir: "node_modules",
	KeyManifestFile:  "package.json",
	KeyStorePath:     "",
	KeyJournal:       true,
	KeyLogLevel:      "warn",
	KeyEditor:        "",
}

// Settings is a typed snapshot of the loaded configuration.
type Settings struct {
	DependencyDir string
	ManifestFile  string
	StorePath     string
	Journal       bool
	LogLevel      string
	Editor        string
}

// Layout returns the probe layout the settings describe.
func (s Settings) Layout() probe.Layout {
	return probe.Layout{DependencyDir: s.DependencyDir, DescriptorFile: s.ManifestFile}
}

// Dir returns the config directory: $PKGLINK_HOME, else ~/.pkglink.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, platform.DirPerm); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper with defaults, the config file and environment
// overrides. A missing config file is not an error.
func Load() error {
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading config %s: %w", FilePath(), err)
	}
	return nil
}

// Keys returns every known setting key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether key is a known setting.
func IsKey(key string) bool {
	_, ok := defaults[key]
	return ok
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Current returns the loaded settings.
func Current() Settings {
	return Settings{
		DependencyDir: viper.GetString(KeyDependencyDir),
		ManifestFile:  viper.GetString(KeyManifestFile),
		StorePath:     viper.GetString(KeyStorePath),
		Journal:       viper.GetBool(KeyJournal),
		LogLevel:      viper.GetString(KeyLogLevel),
		Editor:        viper.GetString(KeyEditor),
	}
}

// Validate checks a value for key before it is stored.
func Validate(key, value string) error {
	switch key {
	case KeyDependencyDir:
		if value == "" || filepath.IsAbs(value) || strings.Contains(value, "..") {
			return fmt.Errorf("%s must be a relative directory name, got %q", key, value)
		}
	case KeyManifestFile:
		if value == "" || strings.ContainsAny(value, `/\`) {
			return fmt.Errorf("%s must be a file name, got %q", key, value)
		}
	case KeyStorePath:
		if value != "" && !filepath.IsAbs(value) {
			return fmt.Errorf("%s must be an absolute path, got %q", key, value)
		}
	case KeyJournal:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s must be true or false, got %q", key, value)
		}
	case KeyLogLevel:
		if _, err := ParseLevel(value); err != nil {
			return err
		}
	case KeyEditor:
	default:
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

// Set validates and writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := Validate(key, value); err != nil {
		return err
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	if key == KeyJournal {
		b, _ := strconv.ParseBool(value)
		viper.Set(key, b)
	} else {
		viper.Set(key, value)
	}

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ParseLevel maps a log level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn, fmt.Errorf("log level must be debug, info, warn or error, got %q", s)
	}
	return level, nil
}
