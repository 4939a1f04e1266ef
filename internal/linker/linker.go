package linker

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkglink-dev/pkglink/internal/health"
	"github.com/pkglink-dev/pkglink/internal/journal"
	"github.com/pkglink-dev/pkglink/internal/linkerr"
	"github.com/pkglink-dev/pkglink/internal/linkstore"
	"github.com/pkglink-dev/pkglink/internal/probe"
)

// Recorder receives every action a Linker takes. *journal.Journal
// implements it.
type Recorder interface {
	Append(ctx context.Context, e journal.Entry) error
}

// Linker owns all link mutations for one store and layout.
type Linker struct {
	store    *linkstore.Store
	prober   *probe.Prober
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a Linker.
type Option func(*Linker)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Linker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithRecorder journals every action to r.
func WithRecorder(r Recorder) Option {
	return func(l *Linker) { l.recorder = r }
}

// New returns a Linker over store using prober's layout.
func New(store *linkstore.Store, prober *probe.Prober, opts ...Option) *Linker {
	l := &Linker{
		store:  store,
		prober: prober,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Store returns the record store.
func (l *Linker) Store() *linkstore.Store {
	return l.store
}

// Prober returns the prober.
func (l *Linker) Prober() *probe.Prober {
	return l.prober
}

// emit logs and journals a, then appends it to rep. Journal failures are
// logged and otherwise ignored.
func (l *Linker) emit(ctx context.Context, rep *Report, a Action) {
	rep.add(a)
	a = rep.Actions[len(rep.Actions)-1]

	attrs := []any{"op", a.Op, "package", a.Package, "kind", a.Kind}
	if a.Project != "" {
		attrs = append(attrs, "project", a.Project)
	}
	if a.Err != nil {
		l.logger.Warn("link action failed", append(attrs, "error", a.Err, "error_kind", linkerr.KindOf(a.Err))...)
	} else {
		l.logger.Debug("link action", attrs...)
	}

	if l.recorder == nil {
		return
	}
	entry := journal.Entry{
		Op:      a.Op,
		Package: a.Package,
		Project: a.Project,
		Outcome: string(a.Kind),
		Verdict: a.Verdict.String(),
	}
	if a.Err != nil || a.Detail != "" {
		entry.Message = a.Message()
	}
	if err := l.recorder.Append(ctx, entry); err != nil {
		l.logger.Warn("journal append failed", "error", err)
	}
}

// assess probes rec in the given projects and classifies the results.
func (l *Linker) assess(rec linkstore.LinkRecord, projects []string) health.Report {
	src := l.prober.Source(rec)
	results := make([]probe.Result, 0, len(projects))
	for _, p := range projects {
		results = append(results, l.prober.Probe(rec, p))
	}
	return health.Assess(rec, src, results)
}

// assessCurrent re-reads name from the store and assesses it.
func (l *Linker) assessCurrent(name string, projects []string) (health.Report, bool) {
	rec, ok := l.store.Get(name)
	if !ok {
		return health.Report{}, false
	}
	if projects == nil {
		projects = rec.LinkedProjects
	}
	return l.assess(rec, projects), true
}

// Status assesses every record. With a project it reports each record's
// state in that project; without one, in all of its linked projects.
func (l *Linker) Status(project string) []health.Report {
	if abs, err := absProject(project); err == nil && project != "" {
		project = abs
	}
	records := l.store.List()
	out := make([]health.Report, 0, len(records))
	for _, rec := range records {
		projects := rec.LinkedProjects
		if project != "" {
			projects = []string{project}
		}
		out = append(out, l.assess(rec, projects))
	}
	return out
}

// StatusOf assesses a single record, like Status.
func (l *Linker) StatusOf(name, project string) (health.Report, error) {
	rec, err := l.store.Lookup(name)
	if err != nil {
		return health.Report{}, err
	}
	projects := rec.LinkedProjects
	if project != "" {
		if project, err = absProject(project); err != nil {
			return health.Report{}, err
		}
		projects = []string{project}
	}
	return l.assess(rec, projects), nil
}

// Untracked lists the symlinks in project's dependency directory whose
// package name has no record, such as links made by hand or by the package
// manager's own link command.
func (l *Linker) Untracked(project string) ([]probe.InstalledLink, error) {
	project, err := absProject(project)
	if err != nil {
		return nil, err
	}
	links, err := l.prober.Symlinks(project)
	if err != nil {
		return nil, err
	}
	var out []probe.InstalledLink
	for _, link := range links {
		if _, ok := l.store.Get(link.Name); !ok {
			out = append(out, link)
		}
	}
	return out, nil
}
