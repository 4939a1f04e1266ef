package userdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pkglink-dev/pkglink/internal/config"
	"github.com/pkglink-dev/pkglink/internal/journal"
	"github.com/pkglink-dev/pkglink/internal/linkerr"
	"github.com/pkglink-dev/pkglink/internal/linkstore"
	"github.com/pkglink-dev/pkglink/internal/platform"
	"github.com/pkglink-dev/pkglink/internal/probe"
)

// DoctorInput is what Doctor inspects.
type DoctorInput struct {
	Settings    config.Settings
	StorePath   string
	JournalPath string
}

// Doctor checks the state directory, the link store, symlink support, the
// journal, the layout settings and every record's source. It writes one
// line per check and returns how many checks failed or warned. When fix is
// true it creates a missing state directory.
func Doctor(ctx context.Context, w io.Writer, in DoctorInput, fix bool) int {
	problems := 0
	report := func(ok bool) {
		if !ok {
			problems++
		}
	}

	fmt.Fprintln(w, "State check:")
	report(checkRoot(w, fix))
	store, ok := checkStore(w, in.StorePath)
	report(ok)
	report(checkSymlinks(w))
	report(checkJournal(ctx, w, in))

	fmt.Fprintln(w, "Settings check:")
	report(checkSetting(w, config.KeyDependencyDir, in.Settings.DependencyDir))
	report(checkSetting(w, config.KeyManifestFile, in.Settings.ManifestFile))

	if store == nil {
		return problems
	}
	fmt.Fprintln(w, "Sources check:")
	if store.Len() == 0 {
		fmt.Fprintln(w, "  [INFO] No packages configured")
		return problems
	}
	prober := probe.New(in.Settings.Layout())
	for _, rec := range store.List() {
		report(checkSource(w, prober, rec))
	}
	return problems
}

func checkRoot(w io.Writer, fix bool) bool {
	root := Root()
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		if fix {
			if err := EnsureRoot(); err != nil {
				fmt.Fprintf(w, "  [FAIL] Could not create %s: %v\n", root, err)
				return false
			}
			fmt.Fprintf(w, "  [FIX ] Created %s\n", root)
			return true
		}
		fmt.Fprintf(w, "  [MISS] %s does not exist (created on first add)\n", root)
		return true
	}
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", root, err)
		return false
	}
	if !info.IsDir() {
		fmt.Fprintf(w, "  [FAIL] %s exists but is not a directory\n", root)
		return false
	}
	fmt.Fprintf(w, "  [ OK ] %s exists\n", root)
	return true
}

func checkStore(w io.Writer, path string) (*linkstore.Store, bool) {
	store, err := linkstore.OpenFile(path, nil)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		var le *linkerr.Error
		if errors.As(err, &le) {
			fmt.Fprintf(w, "         %s\n", le.Suggestion())
		}
		return nil, false
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		fmt.Fprintf(w, "  [MISS] %s does not exist yet\n", path)
		return store, true
	}
	fmt.Fprintf(w, "  [ OK ] %s (%d packages)\n", path, store.Len())
	return store, true
}

func checkSymlinks(w io.Writer) bool {
	if !platform.IsSymlinkSupported() {
		fmt.Fprintln(w, "  [FAIL] Symlinks are not supported (enable Developer Mode on Windows)")
		return false
	}
	fmt.Fprintln(w, "  [ OK ] Symlinks supported")
	return true
}

func checkJournal(ctx context.Context, w io.Writer, in DoctorInput) bool {
	if !in.Settings.Journal {
		fmt.Fprintln(w, "  [INFO] Journal disabled")
		return true
	}
	j, err := journal.Open(ctx, in.JournalPath)
	if err != nil {
		fmt.Fprintf(w, "  [WARN] Journal %s: %v\n", in.JournalPath, err)
		return false
	}
	_ = j.Close()
	fmt.Fprintf(w, "  [ OK ] Journal %s\n", in.JournalPath)
	return true
}

func checkSetting(w io.Writer, key, value string) bool {
	if err := config.Validate(key, value); err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return false
	}
	fmt.Fprintf(w, "  [ OK ] %s = %s\n", key, value)
	return true
}

func checkSource(w io.Writer, prober *probe.Prober, rec linkstore.LinkRecord) bool {
	r := prober.Source(rec)
	switch {
	case !r.SourceExists:
		fmt.Fprintf(w, "  [MISS] %s: %s does not exist\n", rec.Name, rec.SourcePath)
		return false
	case !r.DescriptorValid:
		fmt.Fprintf(w, "  [WARN] %s: %v\n", rec.Name, r.DescriptorErr)
		return false
	}
	fmt.Fprintf(w, "  [ OK ] %s -> %s\n", rec.Name, rec.SourcePath)
	return true
}
