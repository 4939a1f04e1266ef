package health

import (
	"github.com/pkglink-dev/pkglink/internal/linkstore"
	"github.com/pkglink-dev/pkglink/internal/probe"
)

// ProjectVerdict is the verdict for one record in one project.
type ProjectVerdict struct {
	Project    string          `json:"project"`
	Verdict    Verdict         `json:"verdict"`
	LinkPath   string          `json:"link_path"`
	Link       probe.LinkState `json:"link_state"`
	LinkTarget string          `json:"link_target,omitempty"`
}

// Report is the assessed health of one record.
type Report struct {
	Name            string           `json:"name"`
	SourcePath      string           `json:"source_path"`
	DeclaredVersion string           `json:"declared_version"`
	ObservedVersion string           `json:"observed_version"`
	Verdict         Verdict          `json:"verdict"`
	Drift           Drift            `json:"drift,omitempty"`
	LinkedProjects  []string         `json:"linked_projects"`
	Projects        []ProjectVerdict `json:"projects"`

	// Detail explains a MissingSource or InvalidDescriptor verdict.
	Detail string `json:"detail,omitempty"`
}

// Assess combines a source probe and per-project probes into a Report. The
// record verdict is the worst of the source verdict and every project
// verdict; with no project probes it is the source verdict alone.
func Assess(rec linkstore.LinkRecord, source probe.Result, projects []probe.Result) Report {
	rep := Report{
		Name:            rec.Name,
		SourcePath:      rec.SourcePath,
		DeclaredVersion: rec.DeclaredVersion,
		ObservedVersion: source.ObservedVersion,
		LinkedProjects:  rec.LinkedProjects,
		Projects:        make([]ProjectVerdict, 0, len(projects)),
	}
	if rep.LinkedProjects == nil {
		rep.LinkedProjects = []string{}
	}

	rep.Verdict = Classify(rec, source)
	for _, r := range projects {
		pv := ProjectVerdict{
			Project:    r.Project,
			Verdict:    Classify(rec, r),
			LinkPath:   r.LinkPath,
			Link:       r.Link,
			LinkTarget: r.LinkTarget,
		}
		rep.Projects = append(rep.Projects, pv)
		rep.Verdict = Worst(rep.Verdict, pv.Verdict)
	}

	if source.ObservedVersion != "" {
		rep.Drift = CompareVersions(rec.DeclaredVersion, source.ObservedVersion)
	}
	switch {
	case !source.SourceExists:
		rep.Detail = "source directory not found"
	case source.DescriptorErr != nil:
		rep.Detail = source.DescriptorErr.Error()
	}
	return rep
}

// Counts tallies reports by verdict.
func Counts(reports []Report) map[Verdict]int {
	counts := make(map[Verdict]int, len(verdictNames))
	for _, r := range reports {
		counts[r.Verdict]++
	}
	return counts
}
