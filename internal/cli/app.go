package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/pkglink-dev/pkglink/internal/config"
	"github.com/pkglink-dev/pkglink/internal/journal"
	"github.com/pkglink-dev/pkglink/internal/linker"
	"github.com/pkglink-dev/pkglink/internal/linkstore"
	"github.com/pkglink-dev/pkglink/internal/probe"
	"github.com/pkglink-dev/pkglink/internal/project"
	"github.com/pkglink-dev/pkglink/internal/userdata"
)

// app bundles the services a command needs, built from the loaded config.
type app struct {
	settings  config.Settings
	storePath string
	store     *linkstore.Store
	journal   *journal.Journal
	linker    *linker.Linker
	resolver  *project.Resolver
}

// openApp opens the link store and, when enabled, the journal. A journal
// that cannot be opened is logged and skipped.
func openApp(ctx context.Context) (*app, error) {
	settings := config.Current()
	a := &app{
		settings:  settings,
		storePath: userdata.StorePath(settings.StorePath),
		resolver:  project.NewResolver(settings.Layout()),
	}

	store, err := linkstore.OpenFile(a.storePath, logger)
	if err != nil {
		return nil, err
	}
	a.store = store

	opts := []linker.Option{linker.WithLogger(logger)}
	if settings.Journal {
		j, err := journal.Open(ctx, userdata.JournalPath())
		if err != nil {
			logger.Warn("journal disabled", "error", err)
		} else {
			a.journal = j
			opts = append(opts, linker.WithRecorder(j))
		}
	}
	a.linker = linker.New(store, probe.New(settings.Layout()), opts...)
	return a, nil
}

func (a *app) Close() {
	if err := a.journal.Close(); err != nil {
		logger.Warn("closing journal", "error", err)
	}
}

// projectRoot returns the --project directory, or the project enclosing
// the working directory when flag is empty.
func (a *app) projectRoot(flag string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	pc, err := a.resolver.ResolveOrExplicit(flag, cwd)
	if err != nil {
		return "", err
	}
	logger.Debug("project resolved", "root", pc.Root, "dependency_dir", pc.DependencyDir)
	return pc.Root, nil
}
