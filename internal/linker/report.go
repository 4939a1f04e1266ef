package linker

import (
	"errors"
	"fmt"

	"github.com/pkglink-dev/pkglink/internal/health"
)

// ActionKind is what an operation did to one package in one project.
type ActionKind string

const (
	ActionCreated   ActionKind = "created"
	ActionReplaced  ActionKind = "replaced"
	ActionRemoved   ActionKind = "removed"
	ActionPruned    ActionKind = "pruned"
	ActionUpdated   ActionKind = "updated"
	ActionAdded     ActionKind = "added"
	ActionDeleted   ActionKind = "deleted"
	ActionUnchanged ActionKind = "unchanged"
	ActionSkipped   ActionKind = "skipped"
	ActionFailed    ActionKind = "failed"
)

// Changed reports whether the action modified disk or the store.
func (k ActionKind) Changed() bool {
	switch k {
	case ActionUnchanged, ActionSkipped, ActionFailed:
		return false
	default:
		return true
	}
}

// Action is one entry of a Report.
type Action struct {
	Op       string         `json:"op"`
	Package  string         `json:"package"`
	Project  string         `json:"project,omitempty"`
	LinkPath string         `json:"link_path,omitempty"`
	Kind     ActionKind     `json:"kind"`
	Verdict  health.Verdict `json:"verdict"`
	Detail   string         `json:"detail,omitempty"`
	Err      error          `json:"-"`
}

// Message is a one-line description of the action's outcome.
func (a Action) Message() string {
	switch {
	case a.Err != nil:
		return a.Err.Error()
	case a.Detail != "":
		return a.Detail
	default:
		return string(a.Kind)
	}
}

// Report collects the actions of one operation and the resulting health of
// the records it touched.
type Report struct {
	Op      string          `json:"op"`
	Actions []Action        `json:"actions"`
	Health  []health.Report `json:"health,omitempty"`
}

func newReport(op string) *Report {
	return &Report{Op: op, Actions: []Action{}}
}

func (r *Report) add(a Action) {
	if a.Op == "" {
		a.Op = r.Op
	}
	r.Actions = append(r.Actions, a)
}

// Count returns how many actions have kind k.
func (r *Report) Count(k ActionKind) int {
	n := 0
	for _, a := range r.Actions {
		if a.Kind == k {
			n++
		}
	}
	return n
}

// Failed returns the failed actions.
func (r *Report) Failed() []Action {
	var out []Action
	for _, a := range r.Actions {
		if a.Kind == ActionFailed {
			out = append(out, a)
		}
	}
	return out
}

// Removals returns the actions that pruned a recorded project.
func (r *Report) Removals() []Action {
	var out []Action
	for _, a := range r.Actions {
		if a.Kind == ActionPruned {
			out = append(out, a)
		}
	}
	return out
}

// Err joins the errors of all failed actions, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, a := range r.Failed() {
		errs = append(errs, a.Err)
	}
	return errors.Join(errs...)
}

// Summary is a short count line such as "2 created, 1 failed".
func (r *Report) Summary() string {
	order := []ActionKind{
		ActionAdded, ActionCreated, ActionReplaced, ActionRemoved, ActionPruned,
		ActionUpdated, ActionDeleted, ActionUnchanged, ActionSkipped, ActionFailed,
	}
	s := ""
	for _, k := range order {
		if n := r.Count(k); n > 0 {
			if s != "" {
				s += ", "
			}
			s += fmt.Sprintf("%d %s", n, k)
		}
	}
	if s == "" {
		return "nothing to do"
	}
	return s
}
