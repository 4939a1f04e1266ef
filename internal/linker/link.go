package linker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkglink-dev/pkglink/internal/health"
	"github.com/pkglink-dev/pkglink/internal/linkerr"
	"github.com/pkglink-dev/pkglink/internal/linkstore"
	"github.com/pkglink-dev/pkglink/internal/platform"
	"github.com/pkglink-dev/pkglink/internal/probe"
)

// Link makes name available in project. The source must exist and carry a
// matching descriptor. A correct link is left alone; anything else at the
// link path is only replaced when force is set. On success the project is
// recorded in the package's linked projects.
func (l *Linker) Link(ctx context.Context, name, project string, force bool) (*Report, error) {
	rep := newReport("link")
	project, err := absProject(project)
	if err != nil {
		return rep, err
	}
	rec, err := l.store.Lookup(name)
	if err != nil {
		return rep, err
	}
	a := l.link(rec, project, force)
	l.emit(ctx, rep, a)
	if a.Err != nil {
		return rep, a.Err
	}
	if h, ok := l.assessCurrent(name, []string{a.Project}); ok {
		rep.Health = append(rep.Health, h)
	}
	return rep, nil
}

// LinkAll links every record into project. Failures are reported per
// package and do not stop the batch.
func (l *Linker) LinkAll(ctx context.Context, project string, force bool) (*Report, error) {
	rep := newReport("link")
	project, err := absProject(project)
	if err != nil {
		return rep, err
	}
	for _, rec := range l.store.List() {
		a := l.link(rec, project, force)
		l.emit(ctx, rep, a)
		if h, ok := l.assessCurrent(rec.Name, []string{project}); ok {
			rep.Health = append(rep.Health, h)
		}
	}
	return rep, rep.Err()
}

func (l *Linker) link(rec linkstore.LinkRecord, project string, force bool) Action {
	r := l.prober.Probe(rec, project)
	a := Action{Package: rec.Name, Project: project, LinkPath: r.LinkPath, Verdict: health.Classify(rec, r)}

	if err := sourceError(rec, r); err != nil {
		return failed(a, err)
	}
	if err := projectError(rec.Name, project); err != nil {
		return failed(a, err)
	}

	switch r.Link {
	case probe.LinkCorrect:
		a.Kind = ActionUnchanged
	case probe.LinkAbsent:
		if err := os.MkdirAll(filepath.Dir(r.LinkPath), platform.DirPerm); err != nil {
			return failed(a, linkerr.FromFS(rec.Name, filepath.Dir(r.LinkPath), err))
		}
		if err := platform.CreateSymlink(rec.SourcePath, r.LinkPath, false); err != nil {
			return failed(a, linkerr.FromFS(rec.Name, r.LinkPath, err))
		}
		a.Kind = ActionCreated
	default:
		if !force {
			return failed(a, brokenLinkError(rec.Name, r))
		}
		if err := platform.CreateSymlink(rec.SourcePath, r.LinkPath, true); err != nil {
			return failed(a, linkerr.FromFS(rec.Name, r.LinkPath, err))
		}
		a.Kind = ActionReplaced
	}

	if err := l.store.RecordLink(rec.Name, project); err != nil {
		if a.Kind == ActionCreated {
			_ = platform.RemoveSymlink(r.LinkPath)
			removeEmptyScopeDir(r.LinkPath, rec.Name)
		}
		return failed(a, fmt.Errorf("recording link: %w", err))
	}
	return a
}

// Unlink removes name's link from project when it points at the package's
// source. A missing link is a no-op. A link that points elsewhere, or a
// file or directory in its place, is only removed when force is set. The
// project is always dropped from the record on success.
func (l *Linker) Unlink(ctx context.Context, name, project string, force bool) (*Report, error) {
	rep := newReport("unlink")
	project, err := absProject(project)
	if err != nil {
		return rep, err
	}
	rec, err := l.store.Lookup(name)
	if err != nil {
		return rep, err
	}
	a := l.unlink(rec, project, force)
	l.emit(ctx, rep, a)
	return rep, a.Err
}

// UnlinkAll unlinks every record from project. Records that were never
// linked there and have no symlink at their link path, such as packages the
// package manager installed itself, are skipped.
func (l *Linker) UnlinkAll(ctx context.Context, project string, force bool) (*Report, error) {
	rep := newReport("unlink")
	project, err := absProject(project)
	if err != nil {
		return rep, err
	}
	for _, rec := range l.store.List() {
		if !rec.IsLinkedTo(project) {
			linkPath := l.prober.LinkPath(project, rec.Name)
			state, _, err := probe.InspectLink(linkPath, rec.SourcePath)
			if err == nil && !state.IsSymlink() {
				l.emit(ctx, rep, Action{
					Package:  rec.Name,
					Project:  project,
					LinkPath: linkPath,
					Kind:     ActionSkipped,
					Detail:   "not linked here (" + state.String() + ")",
				})
				continue
			}
		}
		l.emit(ctx, rep, l.unlink(rec, project, force))
	}
	return rep, rep.Err()
}

func (l *Linker) unlink(rec linkstore.LinkRecord, project string, force bool) Action {
	linkPath := l.prober.LinkPath(project, rec.Name)
	a := Action{Package: rec.Name, Project: project, LinkPath: linkPath}

	state, target, err := probe.InspectLink(linkPath, rec.SourcePath)
	switch {
	case err != nil && !force:
		return failed(a, linkerr.FromFS(rec.Name, linkPath, err))
	case state == probe.LinkAbsent:
		a.Kind = ActionUnchanged
	case state == probe.LinkCorrect:
		if err := platform.RemoveSymlink(linkPath); err != nil {
			return failed(a, linkerr.FromFS(rec.Name, linkPath, err))
		}
		a.Kind = ActionRemoved
	case !force:
		a.Verdict = health.BrokenSymlink
		return failed(a, brokenLinkError(rec.Name, probe.Result{LinkPath: linkPath, Link: state, LinkTarget: target}))
	case state.IsSymlink():
		if err := platform.RemoveSymlink(linkPath); err != nil {
			return failed(a, linkerr.FromFS(rec.Name, linkPath, err))
		}
		a.Kind = ActionRemoved
	default:
		if err := os.RemoveAll(linkPath); err != nil {
			return failed(a, linkerr.FromFS(rec.Name, linkPath, err))
		}
		a.Kind = ActionRemoved
	}
	if a.Kind == ActionRemoved {
		removeEmptyScopeDir(linkPath, rec.Name)
	}

	if err := l.store.RecordUnlink(rec.Name, project); err != nil {
		return failed(a, fmt.Errorf("recording unlink: %w", err))
	}
	return a
}

// absProject makes a caller-supplied project path absolute and clean, so
// only absolute paths reach linked_projects.
func absProject(project string) (string, error) {
	abs, err := filepath.Abs(project)
	if err != nil {
		return "", fmt.Errorf("resolving project path %q: %w", project, err)
	}
	return abs, nil
}

// sourceError returns the error for an unusable source, or nil.
func sourceError(rec linkstore.LinkRecord, r probe.Result) error {
	switch {
	case !r.SourceExists:
		return linkerr.New(linkerr.KindMissingSource, rec.Name, rec.SourcePath, nil)
	case !r.DescriptorValid:
		return linkerr.New(linkerr.KindInvalidDescriptor, rec.Name, rec.SourcePath, r.DescriptorErr)
	}
	return nil
}

func projectError(name, project string) error {
	if info, err := os.Stat(project); err != nil || !info.IsDir() {
		return linkerr.New(linkerr.KindNotFound, name, project, errors.New("project directory missing"))
	}
	return nil
}

func brokenLinkError(name string, r probe.Result) error {
	var cause error
	switch r.Link {
	case probe.LinkWrongTarget:
		cause = fmt.Errorf("link points to %s", r.LinkTarget)
	case probe.LinkDangling:
		cause = fmt.Errorf("link points to missing %s", r.LinkTarget)
	default:
		cause = errors.New("path is occupied by a file or directory")
		if r.LinkErr != nil {
			cause = r.LinkErr
		}
	}
	return linkerr.New(linkerr.KindBrokenSymlink, name, r.LinkPath, cause)
}

func failed(a Action, err error) Action {
	a.Kind = ActionFailed
	a.Err = err
	return a
}

// removeEmptyScopeDir drops the @scope directory left empty after its last
// package link was removed.
func removeEmptyScopeDir(linkPath, name string) {
	if len(name) == 0 || name[0] != '@' {
		return
	}
	scopeDir := filepath.Dir(linkPath)
	if entries, err := os.ReadDir(scopeDir); err == nil && len(entries) == 0 {
		_ = os.Remove(scopeDir)
	}
}
