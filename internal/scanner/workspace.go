package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/pkglink-dev/pkglink/internal/platform"
)

// WorkspaceConfig is the per-workspace scan configuration file.
type WorkspaceConfig struct {
	AutoLink AutoLink `toml:"auto_link"`
}

// AutoLink selects which discovered packages are added by "scan --add".
// When disabled every package is included.
type AutoLink struct {
	Enabled  bool     `toml:"enabled"`
	Patterns []string `toml:"patterns"`
	Exclude  []string `toml:"exclude"`
}

// LoadWorkspaceConfig reads file from dir. A missing file yields the zero
// config.
func LoadWorkspaceConfig(dir, file string) (*WorkspaceConfig, error) {
	p := filepath.Join(dir, file)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &WorkspaceConfig{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}

	var cfg WorkspaceConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	return &cfg, nil
}

// SaveWorkspaceConfig writes cfg to dir/file.
func SaveWorkspaceConfig(dir, file string, cfg *WorkspaceConfig) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling workspace config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, file), data, platform.FilePerm); err != nil {
		return fmt.Errorf("writing workspace config: %w", err)
	}
	return nil
}

// Includes reports whether the auto-link rules accept name. Exclusions win
// over patterns; no patterns means everything not excluded.
func (c *WorkspaceConfig) Includes(name string) bool {
	if !c.AutoLink.Enabled {
		return true
	}
	for _, p := range c.AutoLink.Exclude {
		if MatchPattern(name, p) {
			return false
		}
	}
	if len(c.AutoLink.Patterns) == 0 {
		return true
	}
	for _, p := range c.AutoLink.Patterns {
		if MatchPattern(name, p) {
			return true
		}
	}
	return false
}

// Filter marks each package's Included field and returns the included ones.
func (c *WorkspaceConfig) Filter(pkgs []Package) []Package {
	var out []Package
	for i := range pkgs {
		pkgs[i].Included = c.Includes(pkgs[i].Name)
		if pkgs[i].Included {
			out = append(out, pkgs[i])
		}
	}
	return out
}

// MatchPattern matches a package name against "prefix*", "*suffix", or any
// other path.Match pattern. A trailing or leading star also spans the scope
// separator, so "@acme*" matches "@acme/ui".
func MatchPattern(name, pattern string) bool {
	switch {
	case pattern == "*":
		return true
	case strings.HasSuffix(pattern, "*") && !strings.ContainsAny(pattern[:len(pattern)-1], "*?["):
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	case strings.HasPrefix(pattern, "*") && !strings.ContainsAny(pattern[1:], "*?["):
		return strings.HasSuffix(name, pattern[1:])
	}
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}
