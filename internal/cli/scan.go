package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pkglink-dev/pkglink/internal/branding"
	"github.com/pkglink-dev/pkglink/internal/linkerr"
	"github.com/pkglink-dev/pkglink/internal/manifest"
	"github.com/pkglink-dev/pkglink/internal/scanner"
)

var (
	scanPath    string
	scanDepth   int
	scanAdd     bool
	scanSuggest bool
	scanJSON    bool
)

func init() {
	scanCmd.Flags().StringVar(&scanPath, "path", "", "Directory to scan (default: current directory)")
	scanCmd.Flags().IntVar(&scanDepth, "depth", scanner.DefaultMaxDepth, "Maximum directory depth")
	scanCmd.Flags().BoolVar(&scanAdd, "add", false, "Register every package the auto-link rules accept")
	scanCmd.Flags().BoolVar(&scanSuggest, "suggest", false, "Only show packages the current project depends on")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover package sources under a directory",
	Long: `Walk a directory tree looking for package descriptors. node_modules, .git
and target directories are skipped. A ` + branding.WorkspaceFile() + ` file in the scanned
directory can restrict which packages --add registers:

  [auto_link]
  enabled = true
  patterns = ["@acme*"]
  exclude = ["*-internal"]`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	root := scanPath
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
		root = cwd
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	pkgs, err := scanner.Scan(scanner.Options{
		Root:           root,
		MaxDepth:       scanDepth,
		DescriptorFile: a.settings.ManifestFile,
	})
	if err != nil {
		return err
	}
	ws, err := scanner.LoadWorkspaceConfig(root, branding.WorkspaceFile())
	if err != nil {
		return err
	}
	included := ws.Filter(pkgs)

	if scanSuggest {
		proj, err := a.projectRoot("")
		if err != nil {
			return err
		}
		d, err := manifest.Read(proj, a.settings.ManifestFile)
		if err != nil {
			return fmt.Errorf("reading project descriptor: %w", err)
		}
		pkgs = scanner.Suggest(pkgs, d)
		included = scanner.Suggest(included, d)
	}

	out := cmd.OutOrStdout()
	if scanJSON {
		if err := printJSON(out, pkgs); err != nil {
			return err
		}
	} else if len(pkgs) == 0 {
		fmt.Fprintf(out, "No packages found under %s.\n", root)
	} else {
		t := newTable(out)
		t.AppendHeader(table.Row{"NAME", "VERSION", "PATH", "DIST", "AUTO-LINK"})
		for _, p := range pkgs {
			t.AppendRow(table.Row{p.Name, orDash(p.Version), p.Path, yesNo(p.Dist), yesNo(p.Included)})
		}
		t.Render()
	}

	if !scanAdd {
		return nil
	}
	var errs []error
	for _, p := range included {
		if _, ok := a.store.Get(p.Name); ok {
			fmt.Fprintf(out, "  [ -- ] %s: already registered\n", p.Name)
			continue
		}
		if _, err := a.linker.Add(cmd.Context(), p.Name, p.Path); err != nil {
			if errors.Is(err, linkerr.ErrDuplicateName) {
				fmt.Fprintf(out, "  [ -- ] %s: already registered\n", p.Name)
				continue
			}
			fmt.Fprintf(out, "  [FAIL] %s: %v\n", p.Name, err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(out, "  [ OK ] %s: added from %s\n", p.Name, p.Path)
	}
	return errors.Join(errs...)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
