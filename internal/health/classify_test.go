package health

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkglink-dev/pkglink/internal/linkstore"
	"github.com/pkglink-dev/pkglink/internal/probe"
)

var utils = linkstore.LinkRecord{Name: "utils", SourcePath: "/pkgs/utils", DeclaredVersion: "1.0.0"}

func validSource(version string) probe.Result {
	return probe.Result{SourceExists: true, DescriptorValid: true, ObservedVersion: version}
}

func inProject(r probe.Result, state probe.LinkState) probe.Result {
	r.Project = "/work/app"
	r.LinkPath = "/work/app/node_modules/utils"
	r.Link = state
	return r
}

func TestClassifyPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		result probe.Result
		want   Verdict
	}{
		{"missing source beats everything", probe.Result{Project: "/work/app", Link: probe.LinkDangling, ObservedVersion: "9.9.9"}, MissingSource},
		{"invalid descriptor", probe.Result{SourceExists: true}, InvalidDescriptor},
		{"invalid descriptor beats broken link", inProject(probe.Result{SourceExists: true}, probe.LinkOccupied), InvalidDescriptor},
		{"wrong target", inProject(validSource("1.0.0"), probe.LinkWrongTarget), BrokenSymlink},
		{"dangling", inProject(validSource("1.0.0"), probe.LinkDangling), BrokenSymlink},
		{"occupied", inProject(validSource("1.0.0"), probe.LinkOccupied), BrokenSymlink},
		{"broken beats drift", inProject(validSource("1.1.0"), probe.LinkWrongTarget), BrokenSymlink},
		{"not linked", inProject(validSource("1.0.0"), probe.LinkAbsent), NotLinked},
		{"not linked beats drift", inProject(validSource("1.1.0"), probe.LinkAbsent), NotLinked},
		{"drift in project", inProject(validSource("1.1.0"), probe.LinkCorrect), VersionDrift},
		{"drift source only", validSource("1.1.0"), VersionDrift},
		{"no observed version", validSource(""), Healthy},
		{"healthy in project", inProject(validSource("1.0.0"), probe.LinkCorrect), Healthy},
		{"healthy source only", validSource("1.0.0"), Healthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(utils, tt.result))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	r := inProject(validSource("1.1.0"), probe.LinkCorrect)
	first := Classify(utils, r)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(utils, r))
	}
}

func TestClassifyDriftIsExactStringInequality(t *testing.T) {
	rec := utils
	rec.DeclaredVersion = "v1.0.0"
	assert.Equal(t, VersionDrift, Classify(rec, validSource("1.0.0")))
}

func TestWorstOrdering(t *testing.T) {
	all := All()
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i].Worse(all[i-1]), "%s should be worse than %s", all[i], all[i-1])
	}
	assert.Equal(t, MissingSource, Worst(NotLinked, MissingSource, VersionDrift))
	assert.Equal(t, BrokenSymlink, Worst(NotLinked, BrokenSymlink, Healthy))
	assert.Equal(t, Healthy, Worst())
}

func TestVerdictText(t *testing.T) {
	for _, v := range All() {
		b, err := v.MarshalText()
		require.NoError(t, err)

		var back Verdict
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, v, back)
	}
	_, err := ParseVerdict("Sick")
	assert.Error(t, err)
	assert.True(t, VersionDrift.OK())
	assert.False(t, NotLinked.OK())
}

func TestAssessPerProjectBreakdown(t *testing.T) {
	rec := utils
	rec.LinkedProjects = []string{"/work/a", "/work/b"}

	src := validSource("1.0.0")
	a := src
	a.Project, a.Link = "/work/a", probe.LinkCorrect
	b := src
	b.Project, b.Link = "/work/b", probe.LinkDangling

	rep := Assess(rec, src, []probe.Result{a, b})
	assert.Equal(t, BrokenSymlink, rep.Verdict)
	require.Len(t, rep.Projects, 2)
	assert.Equal(t, Healthy, rep.Projects[0].Verdict)
	assert.Equal(t, BrokenSymlink, rep.Projects[1].Verdict)
	assert.Equal(t, DriftNone, rep.Drift)
}

func TestAssessSourceOnly(t *testing.T) {
	rep := Assess(utils, validSource("1.2.0"), nil)
	assert.Equal(t, VersionDrift, rep.Verdict)
	assert.Equal(t, DriftNewer, rep.Drift)
	assert.Empty(t, rep.Projects)
	assert.Equal(t, []string{}, rep.LinkedProjects)
}

func TestAssessDetail(t *testing.T) {
	rep := Assess(utils, probe.Result{}, nil)
	assert.Equal(t, MissingSource, rep.Verdict)
	assert.NotEmpty(t, rep.Detail)

	rep = Assess(utils, probe.Result{SourceExists: true, DescriptorErr: errors.New("name mismatch")}, nil)
	assert.Equal(t, InvalidDescriptor, rep.Verdict)
	assert.Equal(t, "name mismatch", rep.Detail)
}

func TestReportJSON(t *testing.T) {
	rec := utils
	rec.LinkedProjects = []string{"/work/app"}
	rep := Assess(rec, validSource("1.0.0"), []probe.Result{inProject(validSource("1.0.0"), probe.LinkAbsent)})

	data, err := json.Marshal(rep)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "utils", out["name"])
	assert.Equal(t, "NotLinked", out["verdict"])
	assert.Equal(t, []any{"/work/app"}, out["linked_projects"])
	assert.NotContains(t, out, "drift")

	projects := out["projects"].([]any)
	require.Len(t, projects, 1)
	p := projects[0].(map[string]any)
	assert.Equal(t, "/work/app", p["project"])
	assert.Equal(t, "NotLinked", p["verdict"])
	assert.Equal(t, "absent", p["link_state"])
}

func TestCounts(t *testing.T) {
	counts := Counts([]Report{{Verdict: Healthy}, {Verdict: Healthy}, {Verdict: NotLinked}})
	assert.Equal(t, 2, counts[Healthy])
	assert.Equal(t, 1, counts[NotLinked])
}
