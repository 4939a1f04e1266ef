package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pkglink-dev/pkglink/internal/health"
	"github.com/pkglink-dev/pkglink/internal/linker"
	"github.com/pkglink-dev/pkglink/internal/linkerr"
)

var verdictStyles = map[health.Verdict]lipgloss.Style{
	health.Healthy:           lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	health.VersionDrift:      lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	health.NotLinked:         lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	health.BrokenSymlink:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	health.InvalidDescriptor: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	health.MissingSource:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
}

var dimStyle = lipgloss.NewStyle().Faint(true)

func styleVerdict(v health.Verdict) string {
	return verdictStyles[v].Render(v.String())
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// versionCell shows the declared version and, when the live descriptor
// differs, the observed one with its direction.
func versionCell(r health.Report) string {
	declared := orDash(r.DeclaredVersion)
	if r.ObservedVersion == "" || r.ObservedVersion == r.DeclaredVersion {
		return declared
	}
	return fmt.Sprintf("%s -> %s (%s)", declared, r.ObservedVersion, r.Drift)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func renderStatusTable(w io.Writer, reports []health.Report, detailed bool) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No packages configured.")
		return
	}

	t := newTable(w)
	if detailed {
		t.AppendHeader(table.Row{"PACKAGE", "VERDICT", "VERSION", "PROJECT", "LINK"})
	} else {
		t.AppendHeader(table.Row{"PACKAGE", "VERDICT", "VERSION", "PROJECTS", "SOURCE"})
	}
	for _, r := range reports {
		if !detailed {
			t.AppendRow(table.Row{r.Name, styleVerdict(r.Verdict), versionCell(r), len(r.LinkedProjects), r.SourcePath})
			continue
		}
		if len(r.Projects) == 0 {
			t.AppendRow(table.Row{r.Name, styleVerdict(r.Verdict), versionCell(r), "-", orDash(r.Detail)})
			continue
		}
		for _, p := range r.Projects {
			link := p.Link.String()
			if p.LinkTarget != "" && p.Link.IsSymlink() {
				link += " -> " + p.LinkTarget
			}
			t.AppendRow(table.Row{r.Name, styleVerdict(p.Verdict), versionCell(r), p.Project, link})
		}
	}
	t.Render()
	fmt.Fprintln(w, verdictSummary(reports))
}

// verdictSummary is a line such as "3 packages: 2 Healthy, 1 NotLinked".
func verdictSummary(reports []health.Report) string {
	counts := health.Counts(reports)
	var parts []string
	for _, v := range health.All() {
		if n := counts[v]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, v))
		}
	}
	return fmt.Sprintf("%d packages: %s", len(reports), strings.Join(parts, ", "))
}

func actionTag(k linker.ActionKind) string {
	switch {
	case k == linker.ActionFailed:
		return "[FAIL]"
	case k == linker.ActionSkipped:
		return "[SKIP]"
	case k.Changed():
		return "[ OK ]"
	default:
		return "[ -- ]"
	}
}

// renderReport prints one line per action followed by the summary.
func renderReport(w io.Writer, rep *linker.Report) {
	for _, a := range rep.Actions {
		target := a.Package
		if a.Project != "" {
			target += " in " + a.Project
		}
		fmt.Fprintf(w, "  %s %s: %s\n", actionTag(a.Kind), target, a.Message())
		var le *linkerr.Error
		if a.Err != nil && errors.As(a.Err, &le) {
			fmt.Fprintf(w, "         %s\n", dimStyle.Render(le.Suggestion()))
		}
	}
	fmt.Fprintf(w, "%s: %s\n", rep.Op, rep.Summary())
}

// batchError turns a report with failures into the command's error so the
// process exits non-zero after the report has been printed.
func batchError(rep *linker.Report) error {
	failed := rep.Failed()
	if len(failed) == 0 {
		return nil
	}
	names := make([]string, 0, len(failed))
	for _, a := range failed {
		names = append(names, a.Package)
	}
	sort.Strings(names)
	return fmt.Errorf("%s failed for %d of %d entries (%s)", rep.Op, len(failed), len(rep.Actions), strings.Join(names, ", "))
}
