// Package branding provides compile-time identity values for the CLI.
//
// Values come from branding.yaml, baked in with //go:embed. Forks that rename
// the tool only edit that file.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

// defaults holds the parsed branding values, loaded once on first access.
var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName       string `yaml:"cli_name"`
	DisplayName   string `yaml:"display_name"`
	Description   string `yaml:"description"`
	HomeDir       string `yaml:"home_dir"`
	EnvPrefix     string `yaml:"env_prefix"`
	GoModule      string `yaml:"go_module"`
	WorkspaceFile string `yaml:"workspace_file"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:       "pkglink",
			DisplayName:   "pkglink",
			Description:   "Local package links without npm link",
			HomeDir:       ".pkglink",
			EnvPrefix:     "PKGLINK",
			GoModule:      "github.com/pkglink-dev/pkglink",
			WorkspaceFile: ".pkglink.toml",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "pkglink").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".pkglink").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "PKGLINK").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Used by release tooling only.
func GoModule() string { load(); return defaults.GoModule }

// WorkspaceFile returns the per-workspace scan config name (e.g., ".pkglink.toml").
func WorkspaceFile() string { load(); return defaults.WorkspaceFile }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("STORE") -> "PKGLINK_STORE".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
