//go:build integration

package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkglink-dev/pkglink/internal/journal"
	"github.com/pkglink-dev/pkglink/internal/linker"
	"github.com/pkglink-dev/pkglink/internal/linkstore"
	"github.com/pkglink-dev/pkglink/internal/probe"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir      string // PKGLINK_HOME: store file and journal
	WorkspaceDir string // package sources live here
	ProjectDir   string // a mock consumer project
}

// setupTestEnv creates isolated temp directories and points PKGLINK_HOME at
// one of them so nothing touches the real home directory.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("resolving temp dir: %v", err)
	}
	env := &testEnv{
		HomeDir:      filepath.Join(root, "home"),
		WorkspaceDir: filepath.Join(root, "workspace"),
		ProjectDir:   filepath.Join(root, "storefront"),
	}
	t.Setenv("PKGLINK_HOME", env.HomeDir)

	writeFile(t, filepath.Join(env.ProjectDir, "package.json"),
		`{"name":"storefront","version":"0.1.0","dependencies":{"@acme/ui-kit":"^2.0.0","utils":"^1.0.0"}}`)
	return env
}

func (e *testEnv) storePath() string   { return filepath.Join(e.HomeDir, "links.yaml") }
func (e *testEnv) journalPath() string { return filepath.Join(e.HomeDir, "journal.db") }

// writePackage creates a package source under the workspace and returns its path.
func (e *testEnv) writePackage(t *testing.T, dir, name, version string) string {
	t.Helper()
	path := filepath.Join(e.WorkspaceDir, dir)
	writeFile(t, filepath.Join(path, "package.json"), `{"name":"`+name+`","version":"`+version+`"}`)
	return path
}

// openLinker opens the file-backed store and journal the way the CLI does.
// Calling it again simulates a fresh process.
func (e *testEnv) openLinker(t *testing.T) (*linker.Linker, *journal.Journal) {
	t.Helper()
	store, err := linkstore.OpenFile(e.storePath(), nil)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	j, err := journal.Open(context.Background(), e.journalPath())
	if err != nil {
		t.Fatalf("opening journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return linker.New(store, probe.New(probe.DefaultLayout()), linker.WithRecorder(j)), j
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func assertSymlinkTo(t *testing.T, link, target string) {
	t.Helper()
	got, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("expected symlink at %s: %v", link, err)
	}
	if got != target {
		t.Errorf("symlink %s points to %s, want %s", link, got, target)
	}
}

func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to not exist (err=%v)", path, err)
	}
}
