package health

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Drift tells which way an observed version moved from the declared one.
// It is display-only; the VersionDrift verdict uses string inequality.
type Drift int

const (
	DriftNone Drift = iota
	DriftNewer
	DriftOlder
	// DriftIncomparable covers versions that differ but are not both semver,
	// or are semver-equal with different spelling.
	DriftIncomparable
)

func (d Drift) String() string {
	switch d {
	case DriftNewer:
		return "newer"
	case DriftOlder:
		return "older"
	case DriftIncomparable:
		return "changed"
	default:
		return ""
	}
}

// MarshalText renders the drift direction for JSON output.
func (d Drift) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// CompareVersions returns the direction from declared to observed.
func CompareVersions(declared, observed string) Drift {
	if observed == "" || declared == observed {
		return DriftNone
	}
	dv, err := parseSemver(declared)
	if err != nil {
		return DriftIncomparable
	}
	ov, err := parseSemver(observed)
	if err != nil {
		return DriftIncomparable
	}
	switch ov.Compare(dv) {
	case 1:
		return DriftNewer
	case -1:
		return DriftOlder
	default:
		return DriftIncomparable
	}
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(version, "v"))
}
