package linker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkglink-dev/pkglink/internal/health"
	"github.com/pkglink-dev/pkglink/internal/linkerr"
	"github.com/pkglink-dev/pkglink/internal/linkstore"
	"github.com/pkglink-dev/pkglink/internal/platform"
	"github.com/pkglink-dev/pkglink/internal/probe"
)

// Verify sweeps every record's linked projects and drops the ones whose
// link is broken. It never touches the filesystem, so every removal it
// reports was a recorded project before the call.
func (l *Linker) Verify(ctx context.Context) (*Report, error) {
	rep := newReport("verify")
	for _, rec := range l.store.List() {
		var stale []string
		var pending []Action
		for _, project := range rec.LinkedProjects {
			r := l.prober.Probe(rec, project)
			if v := health.Classify(rec, r); v == health.BrokenSymlink {
				stale = append(stale, project)
				pending = append(pending, Action{
					Package:  rec.Name,
					Project:  project,
					LinkPath: r.LinkPath,
					Kind:     ActionPruned,
					Verdict:  v,
					Detail:   brokenLinkError(rec.Name, r).Error(),
				})
			}
		}
		if len(stale) == 0 {
			rep.Health = append(rep.Health, l.assess(rec, rec.LinkedProjects))
			continue
		}

		err := l.store.RecordUnlinkMany(rec.Name, stale)
		for _, a := range pending {
			if err != nil {
				a = failed(a, fmt.Errorf("pruning %s: %w", a.Project, err))
			}
			l.emit(ctx, rep, a)
		}
		if h, ok := l.assessCurrent(rec.Name, nil); ok {
			rep.Health = append(rep.Health, h)
		}
	}
	return rep, rep.Err()
}

// Sync recreates the link for every record in every linked project.
// Missing links are created and wrong or dangling symlinks replaced; a file
// or directory in the way is only replaced when force is set. Records whose
// source is missing or invalid are skipped.
func (l *Linker) Sync(ctx context.Context, force bool) (*Report, error) {
	rep := newReport("sync")
	for _, rec := range l.store.List() {
		src := l.prober.Source(rec)
		if err := sourceError(rec, src); err != nil {
			for _, project := range rec.LinkedProjects {
				l.emit(ctx, rep, Action{
					Package:  rec.Name,
					Project:  project,
					LinkPath: l.prober.LinkPath(project, rec.Name),
					Kind:     ActionSkipped,
					Verdict:  health.Classify(rec, src),
					Detail:   err.Error(),
				})
			}
			rep.Health = append(rep.Health, l.assess(rec, rec.LinkedProjects))
			continue
		}

		for _, project := range rec.LinkedProjects {
			l.emit(ctx, rep, l.syncOne(rec, project, force))
		}
		rep.Health = append(rep.Health, l.assess(rec, rec.LinkedProjects))
	}
	return rep, rep.Err()
}

func (l *Linker) syncOne(rec linkstore.LinkRecord, project string, force bool) Action {
	r := l.prober.Probe(rec, project)
	a := Action{Package: rec.Name, Project: project, LinkPath: r.LinkPath, Verdict: health.Classify(rec, r)}

	if err := projectError(rec.Name, project); err != nil {
		return failed(a, err)
	}

	switch r.Link {
	case probe.LinkCorrect:
		a.Kind = ActionUnchanged
		return a
	case probe.LinkAbsent:
		if err := os.MkdirAll(filepath.Dir(r.LinkPath), platform.DirPerm); err != nil {
			return failed(a, linkerr.FromFS(rec.Name, filepath.Dir(r.LinkPath), err))
		}
		a.Kind = ActionCreated
	case probe.LinkOccupied:
		if !force {
			return failed(a, brokenLinkError(rec.Name, r))
		}
		a.Kind = ActionReplaced
	default:
		a.Kind = ActionReplaced
	}

	if err := platform.CreateSymlink(rec.SourcePath, r.LinkPath, a.Kind == ActionReplaced); err != nil {
		return failed(a, linkerr.FromFS(rec.Name, r.LinkPath, err))
	}
	return a
}
