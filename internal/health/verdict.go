package health

import "fmt"

// Verdict is the health of one record, or of one record in one project.
// Constants are declared in increasing severity; adding a verdict means
// placing it in that order.
type Verdict int

const (
	Healthy Verdict = iota
	VersionDrift
	NotLinked
	BrokenSymlink
	InvalidDescriptor
	MissingSource
)

var verdictNames = [...]string{
	Healthy:           "Healthy",
	VersionDrift:      "VersionDrift",
	NotLinked:         "NotLinked",
	BrokenSymlink:     "BrokenSymlink",
	InvalidDescriptor: "InvalidDescriptor",
	MissingSource:     "MissingSource",
}

// All lists every verdict from least to most severe.
func All() []Verdict {
	return []Verdict{Healthy, VersionDrift, NotLinked, BrokenSymlink, InvalidDescriptor, MissingSource}
}

func (v Verdict) String() string {
	if v >= 0 && int(v) < len(verdictNames) {
		return verdictNames[v]
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// MarshalText renders the verdict name for JSON output.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses a verdict name.
func (v *Verdict) UnmarshalText(b []byte) error {
	parsed, err := ParseVerdict(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseVerdict parses a verdict name as produced by String.
func ParseVerdict(s string) (Verdict, error) {
	for i, n := range verdictNames {
		if n == s {
			return Verdict(i), nil
		}
	}
	return Healthy, fmt.Errorf("unknown verdict %q", s)
}

// Worse reports whether v is more severe than other.
func (v Verdict) Worse(other Verdict) bool {
	return v > other
}

// OK reports whether the verdict needs no action. Version drift is reported
// but does not make a link unusable.
func (v Verdict) OK() bool {
	return v == Healthy || v == VersionDrift
}

// Worst returns the most severe verdict, or Healthy for none.
func Worst(verdicts ...Verdict) Verdict {
	worst := Healthy
	for _, v := range verdicts {
		if v.Worse(worst) {
			worst = v
		}
	}
	return worst
}
