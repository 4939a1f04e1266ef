package linkerr

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/pkglink-dev/pkglink/internal/branding"
)

// Kind classifies a link failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindDuplicateName
	KindNotFound
	KindNoProjectFound
	KindMissingSource
	KindInvalidDescriptor
	KindBrokenSymlink
	KindPermissionDenied
	KindCorrupt
)

// Sentinels for errors.Is. A *Error matches the sentinel of its Kind.
var (
	ErrDuplicateName     = errors.New("duplicate package name")
	ErrNotFound          = errors.New("not found")
	ErrNoProjectFound    = errors.New("no project found")
	ErrMissingSource     = errors.New("source path missing")
	ErrInvalidDescriptor = errors.New("invalid package descriptor")
	ErrBrokenSymlink     = errors.New("broken symlink")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrCorrupt           = errors.New("link store corrupt")
)

var sentinels = map[Kind]error{
	KindDuplicateName:     ErrDuplicateName,
	KindNotFound:          ErrNotFound,
	KindNoProjectFound:    ErrNoProjectFound,
	KindMissingSource:     ErrMissingSource,
	KindInvalidDescriptor: ErrInvalidDescriptor,
	KindBrokenSymlink:     ErrBrokenSymlink,
	KindPermissionDenied:  ErrPermissionDenied,
	KindCorrupt:           ErrCorrupt,
}

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindDuplicateName:
		return "DuplicateName"
	case KindNotFound:
		return "NotFound"
	case KindNoProjectFound:
		return "NoProjectFound"
	case KindMissingSource:
		return "MissingSource"
	case KindInvalidDescriptor:
		return "InvalidDescriptor"
	case KindBrokenSymlink:
		return "BrokenSymlink"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindCorrupt:
		return "Corrupt"
	default:
		return "Unknown"
	}
}

// Error is a link failure with enough context for the user to act on it.
type Error struct {
	Kind    Kind
	Package string
	Path    string
	// Hint overrides the default suggestion for the kind.
	Hint string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(sentinels[e.Kind].Error())
	if e.Package != "" {
		fmt.Fprintf(&b, ": %s", e.Package)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// Suggestion returns the corrective operation to show next to the error.
func (e *Error) Suggestion() string {
	if e.Hint != "" {
		return e.Hint
	}
	cli := branding.CLIName()
	switch e.Kind {
	case KindDuplicateName:
		return fmt.Sprintf("Run '%s remove %s' first, or pick another name.", cli, e.Package)
	case KindNotFound:
		return fmt.Sprintf("Run '%s list' to see configured packages.", cli)
	case KindNoProjectFound:
		return "Run the command inside a project, or pass --project <dir>."
	case KindMissingSource:
		return fmt.Sprintf("Check that %s exists, or run '%s remove %s'.", e.Path, cli, e.Package)
	case KindInvalidDescriptor:
		return fmt.Sprintf("Check the package descriptor in %s; its name must be %q.", e.Path, e.Package)
	case KindBrokenSymlink:
		return fmt.Sprintf("Run '%s sync --force' to replace it, or '%s verify' to drop the stale entry.", cli, cli)
	case KindPermissionDenied:
		return fmt.Sprintf("Check write permissions on %s.", e.Path)
	case KindCorrupt:
		return fmt.Sprintf("Fix or move %s by hand; it is never reset automatically.", e.Path)
	default:
		return ""
	}
}

// New builds an *Error.
func New(kind Kind, pkg, path string, err error) *Error {
	return &Error{Kind: kind, Package: pkg, Path: path, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnknown
}

// FromFS maps an OS error from a filesystem operation onto the taxonomy.
// Permission failures become PermissionDenied; everything else is wrapped as-is.
func FromFS(pkg, path string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrPermission) {
		return New(KindPermissionDenied, pkg, path, err)
	}
	return err
}

// PackageNotFound returns a NotFound error whose hint names the closest
// configured packages.
func PackageNotFound(name string, available []string) *Error {
	e := New(KindNotFound, name, "", nil)
	if len(available) == 0 {
		e.Hint = fmt.Sprintf("No packages are configured. Use '%s add <name> <path>' to add one.", branding.CLIName())
		return e
	}
	sorted := append([]string(nil), available...)
	sort.Strings(sorted)
	if similar := Similar(name, sorted, 3); len(similar) > 0 {
		e.Hint = fmt.Sprintf("Did you mean %q? Available: %s", similar[0], strings.Join(sorted, ", "))
	} else {
		e.Hint = "Available: " + strings.Join(sorted, ", ")
	}
	return e
}
