package linkstore

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// CurrentVersion is the document format version written by Save.
const CurrentVersion = 1

// ErrInvalidName is returned for names that cannot be mapped to a path under
// a dependency directory.
var ErrInvalidName = errors.New("invalid package name")

// LinkRecord is the desired-state description of one package.
type LinkRecord struct {
	Name            string   `yaml:"name" json:"name"`
	SourcePath      string   `yaml:"source_path" json:"source_path"`
	DeclaredVersion string   `yaml:"declared_version,omitempty" json:"declared_version,omitempty"`
	LinkedProjects  []string `yaml:"linked_projects,omitempty" json:"linked_projects"`
}

// Document is the persisted form of the store.
type Document struct {
	Version int          `yaml:"version"`
	Links   []LinkRecord `yaml:"links"`
}

// Clone returns a deep copy so callers cannot mutate store state.
func (r LinkRecord) Clone() LinkRecord {
	r.LinkedProjects = slices.Clone(r.LinkedProjects)
	return r
}

// IsLinkedTo reports whether project is in LinkedProjects.
func (r LinkRecord) IsLinkedTo(project string) bool {
	return slices.Contains(r.LinkedProjects, filepath.Clean(project))
}

func (d *Document) clone() *Document {
	out := &Document{Version: d.Version, Links: make([]LinkRecord, len(d.Links))}
	for i, r := range d.Links {
		out.Links[i] = r.Clone()
	}
	return out
}

func (d *Document) index(name string) int {
	return slices.IndexFunc(d.Links, func(r LinkRecord) bool { return r.Name == name })
}

// ValidateName checks that name is "pkg" or "@scope/pkg" with no path
// traversal, so it maps to exactly one entry under a dependency directory.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, `\`) || strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	segments := strings.Split(name, "/")
	if strings.HasPrefix(name, "@") {
		if len(segments) != 2 || len(segments[0]) < 2 {
			return fmt.Errorf("%w: %q: scoped names look like @scope/name", ErrInvalidName, name)
		}
	} else if len(segments) != 1 {
		return fmt.Errorf("%w: %q: only scoped names may contain '/'", ErrInvalidName, name)
	}

	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." || seg == "@" {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// LinkSubpath returns the relative path of name inside a dependency
// directory, with the scope as a subdirectory.
func LinkSubpath(name string) string {
	return filepath.FromSlash(name)
}
