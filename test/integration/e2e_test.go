//go:build integration

package integration_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pkglink-dev/pkglink/internal/health"
	"github.com/pkglink-dev/pkglink/internal/journal"
	"github.com/pkglink-dev/pkglink/internal/linkerr"
	"github.com/pkglink-dev/pkglink/internal/manifest"
	"github.com/pkglink-dev/pkglink/internal/project"
	"github.com/pkglink-dev/pkglink/internal/scanner"
)

// TestFullFlowScanLinkVerifySync walks the whole lifecycle:
// scan a workspace -> add what it found -> link into a project ->
// break the links -> verify and sync -> unlink.
func TestFullFlowScanLinkVerifySync(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	uiKit := env.writePackage(t, "ui-kit/dist", "@acme/ui-kit", "2.3.1")
	utils := env.writePackage(t, "utils", "utils", "1.0.0")
	env.writePackage(t, "unrelated", "unrelated", "0.0.1")

	// Step 1: scan and narrow to what the project depends on.
	pkgs, err := scanner.Scan(scanner.Options{Root: env.WorkspaceDir})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(pkgs) != 3 {
		t.Fatalf("expected 3 packages, got %d", len(pkgs))
	}
	d, err := manifest.Read(env.ProjectDir, "")
	if err != nil {
		t.Fatalf("reading project descriptor: %v", err)
	}
	wanted := scanner.Suggest(pkgs, d)
	if len(wanted) != 2 {
		t.Fatalf("expected 2 suggestions, got %+v", wanted)
	}

	// Step 2: add them.
	l, _ := env.openLinker(t)
	for _, p := range wanted {
		if _, err := l.Add(ctx, "", p.Path); err != nil {
			t.Fatalf("Add(%s): %v", p.Path, err)
		}
	}

	// Step 3: resolve the project from a nested directory and link all.
	nested := filepath.Join(env.ProjectDir, "src", "app")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	pc, err := project.NewResolver(l.Prober().Layout()).Resolve(nested)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if pc.Root != env.ProjectDir {
		t.Fatalf("resolved %s, want %s", pc.Root, env.ProjectDir)
	}
	rep, err := l.LinkAll(ctx, pc.Root, false)
	if err != nil {
		t.Fatalf("LinkAll: %v", err)
	}
	if got := rep.Summary(); got != "2 created" {
		t.Errorf("summary = %q", got)
	}
	uiLink := filepath.Join(env.ProjectDir, "node_modules", "@acme", "ui-kit")
	utilsLink := filepath.Join(env.ProjectDir, "node_modules", "utils")
	assertSymlinkTo(t, uiLink, uiKit)
	assertSymlinkTo(t, utilsLink, utils)

	// Step 4: a fresh process sees the same state.
	l, _ = env.openLinker(t)
	for _, r := range l.Status("") {
		if r.Verdict != health.Healthy {
			t.Errorf("%s: verdict %s, want Healthy", r.Name, r.Verdict)
		}
	}

	// Step 5: point utils elsewhere and wipe the ui-kit link.
	if err := os.Remove(utilsLink); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("/old/path", utilsLink); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(uiLink); err != nil {
		t.Fatal(err)
	}

	// Step 6: sync repairs both without force.
	rep, err = l.Sync(ctx, false)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if rep.Count("created") != 1 || rep.Count("replaced") != 1 {
		t.Errorf("unexpected sync report: %s", rep.Summary())
	}
	assertSymlinkTo(t, uiLink, uiKit)
	assertSymlinkTo(t, utilsLink, utils)

	// Step 7: verify after sync removes nothing.
	rep, err = l.Verify(ctx)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if n := len(rep.Removals()); n != 0 {
		t.Errorf("verify after sync removed %d entries", n)
	}

	// Step 8: unlink everything; the empty scope directory goes too.
	if _, err := l.UnlinkAll(ctx, env.ProjectDir, false); err != nil {
		t.Fatalf("UnlinkAll: %v", err)
	}
	assertNotExists(t, utilsLink)
	assertNotExists(t, filepath.Join(env.ProjectDir, "node_modules", "@acme"))
	for _, r := range l.Store().List() {
		if len(r.LinkedProjects) != 0 {
			t.Errorf("%s still records %v", r.Name, r.LinkedProjects)
		}
	}
}

// TestVerifyPrunesStaleLinkAcrossRestart checks that a broken link found by
// verify is dropped from the persisted store, not just from memory.
func TestVerifyPrunesStaleLinkAcrossRestart(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	utils := env.writePackage(t, "utils", "utils", "1.0.0")

	l, _ := env.openLinker(t)
	if _, err := l.Add(ctx, "", utils); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := l.Link(ctx, "utils", env.ProjectDir, false); err != nil {
		t.Fatalf("Link: %v", err)
	}

	link := filepath.Join(env.ProjectDir, "node_modules", "utils")
	os.Remove(link)
	if err := os.Symlink("/old/path", link); err != nil {
		t.Fatal(err)
	}

	r, err := l.StatusOf("utils", "")
	if err != nil {
		t.Fatal(err)
	}
	if r.Verdict != health.BrokenSymlink {
		t.Fatalf("verdict %s, want BrokenSymlink", r.Verdict)
	}

	rep, err := l.Verify(ctx)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(rep.Removals()) != 1 {
		t.Fatalf("expected 1 removal, got %s", rep.Summary())
	}
	// verify never touches disk
	assertSymlinkTo(t, link, "/old/path")

	l, _ = env.openLinker(t)
	rec, _ := l.Store().Get("utils")
	if slices.Contains(rec.LinkedProjects, env.ProjectDir) {
		t.Errorf("stale project survived restart: %v", rec.LinkedProjects)
	}
}

// TestMissingSourceIsReportedNotFixed covers the deleted-source scenario.
func TestMissingSourceIsReportedNotFixed(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	utils := env.writePackage(t, "utils", "utils", "1.0.0")

	l, _ := env.openLinker(t)
	if _, err := l.Add(ctx, "", utils); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := os.RemoveAll(utils); err != nil {
		t.Fatal(err)
	}

	r, _ := l.StatusOf("utils", "")
	if r.Verdict != health.MissingSource {
		t.Errorf("verdict %s, want MissingSource", r.Verdict)
	}
	_, err := l.Link(ctx, "utils", env.ProjectDir, false)
	if !errors.Is(err, linkerr.ErrMissingSource) {
		t.Errorf("expected ErrMissingSource, got %v", err)
	}
	assertNotExists(t, filepath.Join(env.ProjectDir, "node_modules"))
}

// TestJournalRecordsEveryAction checks the journal written by one run.
func TestJournalRecordsEveryAction(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	utils := env.writePackage(t, "utils", "utils", "1.0.0")

	l, j := env.openLinker(t)
	if _, err := l.Add(ctx, "", utils); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Link(ctx, "utils", env.ProjectDir, false); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Unlink(ctx, "utils", env.ProjectDir, false); err != nil {
		t.Fatal(err)
	}

	entries, err := j.Recent(ctx, journal.Filter{RunID: j.RunID()})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	var ops []string
	for _, e := range entries {
		ops = append(ops, e.Op+":"+e.Outcome)
	}
	want := []string{"unlink:removed", "link:created", "add:added"}
	if !slices.Equal(ops, want) {
		t.Errorf("journal ops = %v, want %v", ops, want)
	}
}
