package probe

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkglink-dev/pkglink/internal/linkstore"
	"github.com/pkglink-dev/pkglink/internal/manifest"
	"github.com/pkglink-dev/pkglink/internal/platform"
)

// DefaultDependencyDir is the directory links are created under.
const DefaultDependencyDir = "node_modules"

// LinkState describes what occupies a link path.
type LinkState int

const (
	LinkAbsent      LinkState = iota // nothing at the path
	LinkCorrect                      // symlink resolving to the source path
	LinkWrongTarget                  // symlink to some other existing path
	LinkDangling                     // symlink to a path that does not exist
	LinkOccupied                     // regular file or directory, or unreadable
)

var linkStateNames = map[LinkState]string{
	LinkAbsent:      "absent",
	LinkCorrect:     "correct",
	LinkWrongTarget: "wrong-target",
	LinkDangling:    "dangling",
	LinkOccupied:    "occupied",
}

func (s LinkState) String() string {
	if n, ok := linkStateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("LinkState(%d)", int(s))
}

// MarshalText renders the state name for JSON output.
func (s LinkState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsSymlink reports whether the state is one of the symlink states.
func (s LinkState) IsSymlink() bool {
	return s == LinkCorrect || s == LinkWrongTarget || s == LinkDangling
}

// Layout names the per-project dependency directory and the descriptor file
// read from a package source.
type Layout struct {
	DependencyDir  string
	DescriptorFile string
}

// DefaultLayout is node_modules and package.json.
func DefaultLayout() Layout {
	return Layout{DependencyDir: DefaultDependencyDir, DescriptorFile: manifest.DefaultFile}
}

func (l Layout) withDefaults() Layout {
	if l.DependencyDir == "" {
		l.DependencyDir = DefaultDependencyDir
	}
	if l.DescriptorFile == "" {
		l.DescriptorFile = manifest.DefaultFile
	}
	return l
}

// Result is one observation. It is never persisted.
type Result struct {
	SourceExists    bool
	DescriptorValid bool
	// DescriptorErr explains an invalid descriptor.
	DescriptorErr   error
	DescriptorName  string
	ObservedVersion string

	// Project is empty for a source-only probe.
	Project    string
	LinkPath   string
	Link       LinkState
	LinkTarget string
	// LinkErr is set when the link path could not be inspected.
	LinkErr error
}

// HasProject reports whether the result covers a specific project.
func (r Result) HasProject() bool {
	return r.Project != ""
}

// Prober runs probes against one layout.
type Prober struct {
	layout Layout
}

// New returns a Prober; zero fields of layout take their defaults.
func New(layout Layout) *Prober {
	return &Prober{layout: layout.withDefaults()}
}

// Layout returns the effective layout.
func (p *Prober) Layout() Layout {
	return p.layout
}

// LinkPath is project/<dependency-dir>/<name>, with a scope as a subdirectory.
func (p *Prober) LinkPath(project, name string) string {
	return filepath.Join(project, p.layout.DependencyDir, linkstore.LinkSubpath(name))
}

// Source probes only the source directory and its descriptor.
func (p *Prober) Source(rec linkstore.LinkRecord) Result {
	var r Result

	info, err := os.Stat(rec.SourcePath)
	if err != nil || !info.IsDir() {
		return r
	}
	r.SourceExists = true

	d, err := manifest.Read(rec.SourcePath, p.layout.DescriptorFile)
	if err != nil {
		r.DescriptorErr = err
		return r
	}
	r.DescriptorName = d.Name
	r.ObservedVersion = d.Version
	if d.Name != rec.Name {
		r.DescriptorErr = fmt.Errorf("descriptor name %q does not match %q", d.Name, rec.Name)
		return r
	}
	r.DescriptorValid = true
	return r
}

// Probe inspects the source and the link for rec inside project.
func (p *Prober) Probe(rec linkstore.LinkRecord, project string) Result {
	r := p.Source(rec)
	r.Project = filepath.Clean(project)
	r.LinkPath = p.LinkPath(r.Project, rec.Name)
	r.Link, r.LinkTarget, r.LinkErr = InspectLink(r.LinkPath, rec.SourcePath)
	return r
}

// InspectLink classifies what occupies path relative to the expected
// source. Only one level of symlink indirection is followed.
func InspectLink(path, source string) (LinkState, string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LinkAbsent, "", nil
		}
		return LinkOccupied, "", err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return LinkOccupied, "", nil
	}

	target, err := platform.ReadSymlinkTarget(path)
	if err != nil {
		return LinkOccupied, "", err
	}
	if target == filepath.Clean(source) {
		return LinkCorrect, target, nil
	}
	if _, err := os.Stat(target); err != nil {
		return LinkDangling, target, nil
	}
	return LinkWrongTarget, target, nil
}

// InstalledLink is a symlink found directly in a project's dependency
// directory.
type InstalledLink struct {
	Name     string `json:"name"`
	LinkPath string `json:"link_path"`
	Target   string `json:"target"`
}

// Symlinks lists the symlinks in project's dependency directory, looking one
// level into @scope directories. A missing dependency directory yields none.
func (p *Prober) Symlinks(project string) ([]InstalledLink, error) {
	dir := filepath.Join(project, p.layout.DependencyDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var out []InstalledLink
	for _, e := range entries {
		name := e.Name()
		if e.Type()&fs.ModeSymlink != 0 {
			out = append(out, installedLink(filepath.Join(dir, name), name))
			continue
		}
		if !e.IsDir() || !strings.HasPrefix(name, "@") {
			continue
		}
		scoped, err := os.ReadDir(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filepath.Join(dir, name), err)
		}
		for _, s := range scoped {
			if s.Type()&fs.ModeSymlink != 0 {
				out = append(out, installedLink(filepath.Join(dir, name, s.Name()), name+"/"+s.Name()))
			}
		}
	}
	return out, nil
}

func installedLink(path, name string) InstalledLink {
	target, _ := platform.ReadSymlinkTarget(path)
	return InstalledLink{Name: name, LinkPath: path, Target: target}
}
