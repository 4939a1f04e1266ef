// Package project resolves which project a command operates on: the nearest
// directory holding a package manifest, searched upward from the working
// directory and bounded by the enclosing git worktree.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"github.com/pkglink-dev/pkglink/internal/linkerr"
	"github.com/pkglink-dev/pkglink/internal/manifest"
	"github.com/pkglink-dev/pkglink/internal/probe"
)

// Context is a resolved project.
type Context struct {
	// Root is the absolute, symlink-free project directory.
	Root string
	// DependencyDir is the absolute directory links are created in.
	DependencyDir string
}

// Resolver finds projects. The zero value uses package.json and node_modules.
type Resolver struct {
	ManifestFile  string
	DependencyDir string
}

// NewResolver builds a Resolver from a probe layout.
func NewResolver(layout probe.Layout) *Resolver {
	return &Resolver{ManifestFile: layout.DescriptorFile, DependencyDir: layout.DependencyDir}
}

func (r *Resolver) manifestFile() string {
	if r.ManifestFile == "" {
		return manifest.DefaultFile
	}
	return r.ManifestFile
}

func (r *Resolver) context(root string) Context {
	dep := r.DependencyDir
	if dep == "" {
		dep = probe.DefaultDependencyDir
	}
	return Context{Root: root, DependencyDir: filepath.Join(root, dep)}
}

// Resolve walks upward from cwd to the first directory holding the manifest
// file. The walk stops at the filesystem root, or after the root of the git
// worktree containing cwd.
func (r *Resolver) Resolve(cwd string) (Context, error) {
	start, err := canonical(cwd)
	if err != nil {
		return Context{}, linkerr.New(linkerr.KindNoProjectFound, "", cwd, err)
	}
	boundary := worktreeRoot(start)

	dir := start
	for {
		if manifest.Exists(dir, r.manifestFile()) {
			return r.context(dir), nil
		}
		if dir == boundary {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return Context{}, linkerr.New(linkerr.KindNoProjectFound, "", start,
		fmt.Errorf("no %s in %s or its parents", r.manifestFile(), start))
}

// Explicit accepts a caller-supplied project root. It must be an existing
// directory; a manifest is not required.
func (r *Resolver) Explicit(path string) (Context, error) {
	root, err := canonical(path)
	if err != nil {
		return Context{}, linkerr.New(linkerr.KindNotFound, "", path, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return Context{}, linkerr.New(linkerr.KindNotFound, "", path, err)
	}
	if !info.IsDir() {
		return Context{}, linkerr.New(linkerr.KindNotFound, "", path, errors.New("not a directory"))
	}
	return r.context(root), nil
}

// ResolveOrExplicit uses path when set and otherwise resolves from cwd.
func (r *Resolver) ResolveOrExplicit(path, cwd string) (Context, error) {
	if path != "" {
		return r.Explicit(path)
	}
	return r.Resolve(cwd)
}

// Canonical makes path absolute and resolves symlinks in it.
func Canonical(path string) (string, error) {
	return canonical(path)
}

func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// worktreeRoot returns the canonical root of the git worktree containing
// dir, or "" when dir is not inside one.
func worktreeRoot(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	wt, err := repo.Worktree()
	if err != nil {
		return ""
	}
	root, err := canonical(wt.Filesystem.Root())
	if err != nil {
		return ""
	}
	return root
}
