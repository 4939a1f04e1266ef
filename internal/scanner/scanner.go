package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/pkglink-dev/pkglink/internal/manifest"
)

// DefaultMaxDepth limits how many directories below the root are searched.
const DefaultMaxDepth = 6

// skipDirs are never descended into.
var skipDirs = []string{"node_modules", ".git", "target"}

// Package is a discovered package source.
type Package struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Version string `json:"version,omitempty"`
	// Dist marks build output directories such as dist/ or dist-esm/.
	Dist bool `json:"dist"`
	// Included is set by Filter for packages the auto-link rules accept.
	Included bool `json:"included"`
}

// Options controls a scan.
type Options struct {
	Root           string
	MaxDepth       int
	DescriptorFile string
}

// Scan walks opts.Root and returns every directory holding a valid
// descriptor, sorted by name and then path. Unreadable entries and invalid
// descriptors are skipped.
func Scan(opts Options) ([]Package, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving scan root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	var result []Package
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root {
			if slices.Contains(skipDirs, d.Name()) {
				return fs.SkipDir
			}
			if depth(root, path) > opts.MaxDepth {
				return fs.SkipDir
			}
		}

		desc, err := manifest.Read(path, opts.DescriptorFile)
		if err != nil {
			return nil
		}
		result = append(result, Package{
			Name:    desc.Name,
			Path:    path,
			Version: desc.Version,
			Dist:    strings.Contains(d.Name(), "dist"),
		})
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].Path < result[j].Path
	})
	return result, nil
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return len(strings.Split(rel, string(filepath.Separator)))
}

// Suggest keeps the packages that appear in the project's dependencies or
// devDependencies.
func Suggest(pkgs []Package, project *manifest.Descriptor) []Package {
	deps := project.DependencyNames()
	var out []Package
	for _, p := range pkgs {
		if slices.Contains(deps, p.Name) {
			out = append(out, p)
		}
	}
	return out
}
