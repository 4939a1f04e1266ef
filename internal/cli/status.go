package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pkglink-dev/pkglink/internal/branding"
	"github.com/pkglink-dev/pkglink/internal/health"
	"github.com/pkglink-dev/pkglink/internal/linker"
	"github.com/pkglink-dev/pkglink/internal/linkstore"
	"github.com/pkglink-dev/pkglink/internal/probe"
	"github.com/pkglink-dev/pkglink/internal/watch"
)

var (
	statusProject  string
	statusHere     bool
	statusJSON     bool
	statusDetailed bool
	statusWatch    bool
)

func init() {
	statusCmd.Flags().StringVarP(&statusProject, "project", "p", "", "Check links in this project only")
	statusCmd.Flags().BoolVar(&statusHere, "here", false, "Check links in the project enclosing the current directory")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	statusCmd.Flags().BoolVar(&statusDetailed, "detailed", false, "Show one row per package and project")
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Re-run whenever sources, links or the store change")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:               "status [name]",
	Short:             "Show the health of registered packages",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completePackageNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		proj := ""
		if statusProject != "" || statusHere {
			if proj, err = a.projectRoot(statusProject); err != nil {
				return err
			}
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		}

		out := cmd.OutOrStdout()
		if !statusWatch {
			return printStatus(out, a.linker, name, proj)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		opts := watch.Options{
			Paths:  watchPaths(a.store, a.settings.DependencyDir, a.storePath, proj),
			Logger: logger,
		}
		return watch.Run(ctx, opts, func(context.Context) error {
			// The store file may have been rewritten by another process.
			store, err := linkstore.OpenFile(a.storePath, logger)
			if err != nil {
				fmt.Fprintf(out, "  [FAIL] %v\n", err)
				return nil
			}
			l := linker.New(store, probe.New(a.settings.Layout()), linker.WithLogger(logger))
			if clearScreen(out) {
				fmt.Fprint(out, "\033[H\033[2J")
			}
			fmt.Fprintf(out, "\n%s\n", dimStyle.Render(time.Now().Format("15:04:05")))
			if err := printStatus(out, l, name, proj); err != nil {
				fmt.Fprintf(out, "  [FAIL] %v\n", err)
			}
			return nil
		})
	},
}

// clearScreen reports whether watch passes should redraw in place: only
// when writing straight to an interactive terminal.
func clearScreen(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && f == os.Stdout && term.IsTerminal(int(f.Fd()))
}

// statusOutput is the --json shape. Untracked links are only collected
// when a project is given.
type statusOutput struct {
	Packages       []health.Report       `json:"packages"`
	UntrackedLinks []probe.InstalledLink `json:"untracked_links"`
}

func printStatus(w io.Writer, l *linker.Linker, name, project string) error {
	var reports []health.Report
	if name != "" {
		r, err := l.StatusOf(name, project)
		if err != nil {
			return err
		}
		reports = []health.Report{r}
	} else {
		reports = l.Status(project)
	}

	untracked := []probe.InstalledLink{}
	if project != "" && name == "" {
		links, err := l.Untracked(project)
		if err != nil {
			logger.Warn("scanning dependency directory failed", "project", project, "error", err)
		}
		untracked = append(untracked, links...)
	}

	if statusJSON {
		return printJSON(w, statusOutput{Packages: reports, UntrackedLinks: untracked})
	}
	renderStatusTable(w, reports, statusDetailed)
	if len(untracked) > 0 {
		fmt.Fprintf(w, "\nUntracked links in %s:\n", project)
		for _, u := range untracked {
			fmt.Fprintf(w, "  %s -> %s\n", u.Name, orDash(u.Target))
		}
		fmt.Fprintln(w, dimStyle.Render("  Register them with '"+branding.CLIName()+" add <path>' to manage them."))
	}
	return nil
}

// watchPaths lists the directories whose changes can alter a status pass:
// every source, every dependency directory the links live in, and the
// store's directory.
func watchPaths(store *linkstore.Store, depDir, storePath, project string) []string {
	seen := map[string]bool{}
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	add(filepath.Dir(storePath))
	for _, rec := range store.List() {
		add(rec.SourcePath)
		projects := rec.LinkedProjects
		if project != "" {
			projects = []string{project}
		}
		for _, p := range projects {
			link := filepath.Join(p, depDir, linkstore.LinkSubpath(rec.Name))
			add(filepath.Dir(link))
		}
	}
	return paths
}
