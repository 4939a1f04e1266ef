package linker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkglink-dev/pkglink/internal/journal"
	"github.com/pkglink-dev/pkglink/internal/linkstore"
	"github.com/pkglink-dev/pkglink/internal/probe"
	"github.com/pkglink-dev/pkglink/internal/testutil"
)

type fixture struct {
	t       *testing.T
	root    string
	backend *linkstore.MemoryBackend
	store   *linkstore.Store
	linker  *Linker
	journal *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	backend := &linkstore.MemoryBackend{}
	logger := testutil.NewTestLogger(t)
	store, err := linkstore.Open(backend, logger)
	require.NoError(t, err)

	rec := &fakeRecorder{}
	return &fixture{
		t:       t,
		root:    root,
		backend: backend,
		store:   store,
		linker:  New(store, probe.New(probe.Layout{}), WithRecorder(rec), WithLogger(logger)),
		journal: rec,
	}
}

func (f *fixture) path(parts ...string) string {
	return filepath.Join(append([]string{f.root}, parts...)...)
}

// pkg writes a package source with a descriptor and registers it.
func (f *fixture) pkg(name, version string) string {
	f.t.Helper()
	dir := f.path("pkgs", filepath.FromSlash(name))
	f.writeDescriptor(dir, name, version)
	require.NoError(f.t, f.store.Add(name, dir, version))
	return dir
}

func (f *fixture) writeDescriptor(dir, name, version string) {
	f.t.Helper()
	require.NoError(f.t, os.MkdirAll(dir, 0755))
	body := `{"name":"` + name + `","version":"` + version + `"}`
	require.NoError(f.t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(body), 0644))
}

// project creates an empty project directory with a manifest.
func (f *fixture) project(name string) string {
	f.t.Helper()
	dir := f.path("work", name)
	require.NoError(f.t, os.MkdirAll(dir, 0755))
	require.NoError(f.t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"`+name+`"}`), 0644))
	return dir
}

func (f *fixture) linkPath(project, name string) string {
	return filepath.Join(project, "node_modules", filepath.FromSlash(name))
}

func (f *fixture) record(name string) linkstore.LinkRecord {
	f.t.Helper()
	rec, ok := f.store.Get(name)
	require.True(f.t, ok, "record %s", name)
	return rec
}

func (f *fixture) symlink(target, link string) {
	f.t.Helper()
	require.NoError(f.t, os.MkdirAll(filepath.Dir(link), 0755))
	require.NoError(f.t, os.Symlink(target, link))
}

func readLink(t *testing.T, path string) string {
	t.Helper()
	target, err := os.Readlink(path)
	require.NoError(t, err)
	return target
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []journal.Entry
	err     error
}

func (r *fakeRecorder) Append(_ context.Context, e journal.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeRecorder) ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Op + ":" + e.Outcome
	}
	return out
}

var errDiskFull = errors.New("disk full")

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}
