package linker

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pkglink-dev/pkglink/internal/health"
	"github.com/pkglink-dev/pkglink/internal/linkerr"
	"github.com/pkglink-dev/pkglink/internal/linkstore"
	"github.com/pkglink-dev/pkglink/internal/manifest"
	"github.com/pkglink-dev/pkglink/internal/project"
)

// Add registers the package at path. When name is empty it is read from
// the package descriptor. The declared version is captured from the
// descriptor when one can be read.
func (l *Linker) Add(ctx context.Context, name, path string) (*Report, error) {
	rep := newReport("add")

	source, err := project.Canonical(path)
	if err != nil {
		return rep, linkerr.New(linkerr.KindMissingSource, name, path, err)
	}
	if info, err := os.Stat(source); err != nil || !info.IsDir() {
		return rep, linkerr.New(linkerr.KindMissingSource, name, source, errors.New("not a directory"))
	}

	layout := l.prober.Layout()
	d, descErr := manifest.Read(source, layout.DescriptorFile)
	if name == "" {
		if descErr != nil {
			return rep, linkerr.New(linkerr.KindInvalidDescriptor, "", source,
				fmt.Errorf("cannot detect package name: %w", descErr))
		}
		name = d.Name
	}
	if err := linkstore.ValidateName(name); err != nil {
		return rep, err
	}

	version := ""
	if descErr == nil {
		version = d.Version
	} else {
		l.logger.Debug("no version captured", "package", name, "error", descErr)
	}

	if err := l.store.Add(name, source, version); err != nil {
		return rep, err
	}
	rec, _ := l.store.Get(name)
	h := l.assess(rec, nil)
	l.emit(ctx, rep, Action{Package: name, Kind: ActionAdded, Verdict: h.Verdict, Detail: source})
	rep.Health = append(rep.Health, h)
	return rep, nil
}

// Remove deletes the record for name. With unlinkFirst its links are
// removed from every linked project first; the record is kept if any of
// them cannot be removed.
func (l *Linker) Remove(ctx context.Context, name string, unlinkFirst bool) (*Report, error) {
	rep := newReport("remove")
	rec, err := l.store.Lookup(name)
	if err != nil {
		return rep, err
	}

	if unlinkFirst {
		for _, p := range rec.LinkedProjects {
			a := l.unlink(rec, p, false)
			a.Op = "unlink"
			l.emit(ctx, rep, a)
		}
		if err := rep.Err(); err != nil {
			return rep, fmt.Errorf("keeping %s: %w", name, err)
		}
	}

	if err := l.store.Remove(name); err != nil {
		return rep, err
	}
	l.emit(ctx, rep, Action{Package: name, Kind: ActionDeleted})
	return rep, nil
}

// Refresh sets the declared version of name to the version its descriptor
// currently carries, clearing a VersionDrift verdict.
func (l *Linker) Refresh(ctx context.Context, name string) (*Report, error) {
	rep := newReport("refresh")
	rec, err := l.store.Lookup(name)
	if err != nil {
		return rep, err
	}
	a := l.refresh(rec)
	l.emit(ctx, rep, a)
	if h, ok := l.assessCurrent(name, nil); ok {
		rep.Health = append(rep.Health, h)
	}
	return rep, a.Err
}

// RefreshAll refreshes every record.
func (l *Linker) RefreshAll(ctx context.Context) (*Report, error) {
	rep := newReport("refresh")
	for _, rec := range l.store.List() {
		l.emit(ctx, rep, l.refresh(rec))
		if h, ok := l.assessCurrent(rec.Name, nil); ok {
			rep.Health = append(rep.Health, h)
		}
	}
	return rep, rep.Err()
}

func (l *Linker) refresh(rec linkstore.LinkRecord) Action {
	src := l.prober.Source(rec)
	a := Action{Package: rec.Name, Verdict: health.Classify(rec, src)}
	if err := sourceError(rec, src); err != nil {
		return failed(a, err)
	}
	if src.ObservedVersion == rec.DeclaredVersion {
		a.Kind = ActionUnchanged
		return a
	}
	if err := l.store.UpdateVersion(rec.Name, src.ObservedVersion); err != nil {
		return failed(a, err)
	}
	a.Kind = ActionUpdated
	a.Detail = fmt.Sprintf("%s -> %s", displayVersion(rec.DeclaredVersion), displayVersion(src.ObservedVersion))
	return a
}

func displayVersion(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}
