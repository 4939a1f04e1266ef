package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkglink-dev/pkglink/internal/linkerr"
	"github.com/pkglink-dev/pkglink/internal/scanner"
)

type cliEnv struct {
	home    string
	src     string
	project string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	e := &cliEnv{
		home:    filepath.Join(root, "home"),
		src:     filepath.Join(root, "src", "utils"),
		project: filepath.Join(root, "app"),
	}
	t.Setenv("PKGLINK_HOME", e.home)
	t.Setenv("PKGLINK_STORE", "")
	t.Setenv("PKGLINK_JOURNAL", "")
	viper.Reset()
	t.Cleanup(viper.Reset)

	writeJSON(t, e.src, `{"name":"utils","version":"1.0.0"}`)
	writeJSON(t, e.project, `{"name":"app","dependencies":{"utils":"^1.0.0"}}`)
	return e
}

func writeJSON(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(body), 0644))
}

func resetFlags() {
	verbose = false
	removeUnlink = false
	listJSON = false
	linkProject, linkForce = "", false
	unlinkProject, unlinkForce = "", false
	statusProject, statusHere, statusJSON, statusDetailed, statusWatch = "", false, false, false, false
	syncForce = false
	refreshAll = false
	scanPath, scanDepth, scanAdd, scanSuggest, scanJSON = "", scanner.DefaultMaxDepth, false, false, false
	doctorFix = false
	historyLimit, historyRun, historyJSON, historyPrune = 20, "", false, 0
	versionShort, versionJSON = false, false
}

// run executes the command tree and returns combined output, printing the
// error the way Execute does.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err != nil {
		printError(&out, err)
	}
	return out.String(), err
}

func assertLinked(t *testing.T, e *cliEnv, link string) {
	t.Helper()
	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, e.src, target)
}

type statusRow struct {
	Name            string   `json:"name"`
	Verdict         string   `json:"verdict"`
	DeclaredVersion string   `json:"declared_version"`
	ObservedVersion string   `json:"observed_version"`
	Drift           string   `json:"drift"`
	LinkedProjects  []string `json:"linked_projects"`
	Projects        []struct {
		Project string `json:"project"`
		Verdict string `json:"verdict"`
	} `json:"projects"`
}

type statusDoc struct {
	Packages       []statusRow `json:"packages"`
	UntrackedLinks []struct {
		Name   string `json:"name"`
		Target string `json:"target"`
	} `json:"untracked_links"`
}

func statusJSONDoc(t *testing.T, args ...string) statusDoc {
	t.Helper()
	out, err := run(t, append([]string{"status", "--json"}, args...)...)
	require.NoError(t, err, out)
	var doc statusDoc
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	return doc
}

func status(t *testing.T, args ...string) []statusRow {
	t.Helper()
	return statusJSONDoc(t, args...).Packages
}

func TestAddLinkStatusUnlink(t *testing.T) {
	e := newCLIEnv(t)

	out, err := run(t, "add", e.src)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added utils -> "+e.src+" (1.0.0)")

	rows := status(t, "--project", e.project)
	require.Len(t, rows, 1)
	assert.Equal(t, "NotLinked", rows[0].Verdict)

	out, err = run(t, "link", "utils", "--project", e.project)
	require.NoError(t, err, out)
	assert.Contains(t, out, "[ OK ] utils in "+e.project+": created")

	assertLinked(t, e, filepath.Join(e.project, "node_modules", "utils"))

	rows = status(t)
	require.Len(t, rows, 1)
	assert.Equal(t, "Healthy", rows[0].Verdict)
	assert.Equal(t, []string{e.project}, rows[0].LinkedProjects)

	out, err = run(t, "link", "utils", "--project", e.project)
	require.NoError(t, err, out)
	assert.Contains(t, out, "unchanged")

	out, err = run(t, "unlink", "utils", "-p", e.project)
	require.NoError(t, err, out)
	assert.NoFileExists(t, filepath.Join(e.project, "node_modules", "utils"))
	assert.Empty(t, status(t)[0].LinkedProjects)
}

func TestStatusReportsUntrackedLinks(t *testing.T) {
	e := newCLIEnv(t)
	_, err := run(t, "add", e.src)
	require.NoError(t, err)
	out, err := run(t, "link", "utils", "-p", e.project)
	require.NoError(t, err, out)

	other := filepath.Join(filepath.Dir(e.src), "left-pad")
	require.NoError(t, os.MkdirAll(other, 0755))
	require.NoError(t, os.Symlink(other, filepath.Join(e.project, "node_modules", "left-pad")))

	doc := statusJSONDoc(t, "-p", e.project)
	require.Len(t, doc.Packages, 1)
	require.Len(t, doc.UntrackedLinks, 1)
	assert.Equal(t, "left-pad", doc.UntrackedLinks[0].Name)
	assert.Equal(t, other, doc.UntrackedLinks[0].Target)

	assert.Empty(t, statusJSONDoc(t).UntrackedLinks, "untracked links need a project")

	out, err = run(t, "status", "-p", e.project)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Untracked links in "+e.project)
	assert.Contains(t, out, "left-pad -> "+other)
}

func TestLinkResolvesProjectFromWorkingDirectory(t *testing.T) {
	e := newCLIEnv(t)
	_, err := run(t, "add", e.src)
	require.NoError(t, err)

	nested := filepath.Join(e.project, "src", "components")
	require.NoError(t, os.MkdirAll(nested, 0755))
	chdir(t, nested)

	out, err := run(t, "link", "utils")
	require.NoError(t, err, out)
	assertLinked(t, e, filepath.Join(e.project, "node_modules", "utils"))
}

func TestVersionDriftClearedByRefresh(t *testing.T) {
	e := newCLIEnv(t)
	_, err := run(t, "add", e.src)
	require.NoError(t, err)
	_, err = run(t, "link", "utils", "-p", e.project)
	require.NoError(t, err)

	writeJSON(t, e.src, `{"name":"utils","version":"1.1.0"}`)
	rows := status(t)
	assert.Equal(t, "VersionDrift", rows[0].Verdict)
	assert.Equal(t, "newer", rows[0].Drift)

	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "1.0.0 -> 1.1.0 (newer)")

	out, err = run(t, "refresh", "utils")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1.0.0 -> 1.1.0")

	rows = status(t)
	assert.Equal(t, "Healthy", rows[0].Verdict)
	assert.Equal(t, "1.1.0", rows[0].DeclaredVersion)
}

func TestUnknownPackageSuggestsClosestName(t *testing.T) {
	e := newCLIEnv(t)
	_, err := run(t, "add", e.src)
	require.NoError(t, err)

	out, err := run(t, "link", "utisl", "-p", e.project)
	require.Error(t, err)
	assert.ErrorIs(t, err, linkerr.ErrNotFound)
	assert.Contains(t, out, `Did you mean "utils"?`)
}

func TestLinkAllReportsFailuresAndExitsNonZero(t *testing.T) {
	e := newCLIEnv(t)
	_, err := run(t, "add", e.src)
	require.NoError(t, err)

	gone := filepath.Join(filepath.Dir(e.src), "gone")
	writeJSON(t, gone, `{"name":"gone","version":"0.1.0"}`)
	_, err = run(t, "add", gone)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(gone))

	out, err := run(t, "link-all", "-p", e.project)
	require.Error(t, err)
	assert.Contains(t, out, "[ OK ] utils")
	assert.Contains(t, out, "[FAIL] gone")
	assert.Contains(t, out, "link: 1 created, 1 failed")
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestVerifyThenSync(t *testing.T) {
	e := newCLIEnv(t)
	_, err := run(t, "add", e.src)
	require.NoError(t, err)
	_, err = run(t, "link", "utils", "-p", e.project)
	require.NoError(t, err)

	out, err := run(t, "verify")
	require.NoError(t, err, out)
	assert.Contains(t, out, "no stale links")

	require.NoError(t, os.RemoveAll(filepath.Join(e.project, "node_modules")))
	out, err = run(t, "sync")
	require.NoError(t, err, out)
	assert.Contains(t, out, "sync: 1 created")
	assertLinked(t, e, filepath.Join(e.project, "node_modules", "utils"))
}

func TestListJSON(t *testing.T) {
	e := newCLIEnv(t)
	_, err := run(t, "add", "tools", e.src)
	require.NoError(t, err)

	out, err := run(t, "list", "--json")
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "tools", records[0]["name"])
	assert.Empty(t, records[0]["linked_projects"])
}

func TestRemove(t *testing.T) {
	e := newCLIEnv(t)
	_, err := run(t, "add", e.src)
	require.NoError(t, err)
	_, err = run(t, "link", "utils", "-p", e.project)
	require.NoError(t, err)

	out, err := run(t, "remove", "utils", "--unlink")
	require.NoError(t, err, out)
	assert.Contains(t, out, "removed")
	assert.NoFileExists(t, filepath.Join(e.project, "node_modules", "utils"))

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No packages configured.")
}

func TestRefreshArgs(t *testing.T) {
	newCLIEnv(t)
	_, err := run(t, "refresh")
	assert.EqualError(t, err, "pass a package name or --all")
}

func TestScanAdd(t *testing.T) {
	e := newCLIEnv(t)
	ws := filepath.Dir(e.src)
	writeJSON(t, filepath.Join(ws, "internal-tools"), `{"name":"internal-tools","version":"0.0.1"}`)
	require.NoError(t, scanner.SaveWorkspaceConfig(ws, ".pkglink.toml", &scanner.WorkspaceConfig{
		AutoLink: scanner.AutoLink{Enabled: true, Exclude: []string{"internal-*"}},
	}))

	out, err := run(t, "scan", "--path", ws, "--add")
	require.NoError(t, err, out)
	assert.Contains(t, out, "[ OK ] utils: added from "+e.src)
	assert.NotContains(t, out, "internal-tools: added")

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "utils")
	assert.NotContains(t, out, "internal-tools")
}

func TestConfigSetGet(t *testing.T) {
	newCLIEnv(t)

	out, err := run(t, "config", "set", "dependency_dir", "vendor_modules")
	require.NoError(t, err, out)

	out, err = run(t, "config", "get", "dependency_dir")
	require.NoError(t, err)
	assert.Equal(t, "vendor_modules\n", out)

	_, err = run(t, "config", "set", "dependency_dir", "/abs")
	assert.Error(t, err)
	_, err = run(t, "config", "get", "nope")
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	e := newCLIEnv(t)
	_, err := run(t, "add", e.src)
	require.NoError(t, err)
	_, err = run(t, "link", "utils", "-p", e.project)
	require.NoError(t, err)

	out, err := run(t, "history", "--json")
	require.NoError(t, err, out)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "link", entries[0]["op"])
	assert.Equal(t, "add", entries[1]["op"])
}

func TestVersion(t *testing.T) {
	newCLIEnv(t)
	buildVersion = "1.2.3"
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)
}

func TestCompletePackageNames(t *testing.T) {
	e := newCLIEnv(t)
	_, err := run(t, "add", e.src)
	require.NoError(t, err)
	_, err = run(t, "add", "tools", e.src)
	require.NoError(t, err)

	names, directive := completePackageNames(linkCmd, nil, "ut")
	assert.Equal(t, []string{"utils"}, names)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)

	names, _ = completePackageNames(linkCmd, []string{"utils"}, "")
	assert.Empty(t, names)
}

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
