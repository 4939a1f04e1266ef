package health

import (
	"github.com/pkglink-dev/pkglink/internal/linkstore"
	"github.com/pkglink-dev/pkglink/internal/probe"
)

// Classify maps a record and one probe result to a verdict. The first
// matching rule wins:
//
//  1. source missing                    -> MissingSource
//  2. descriptor invalid                -> InvalidDescriptor
//  3. project probe, link path wrong    -> BrokenSymlink
//  4. project probe, nothing at path    -> NotLinked
//  5. observed version != declared      -> VersionDrift
//  6. otherwise                         -> Healthy
func Classify(rec linkstore.LinkRecord, r probe.Result) Verdict {
	switch {
	case !r.SourceExists:
		return MissingSource
	case !r.DescriptorValid:
		return InvalidDescriptor
	case r.HasProject() && r.Link != probe.LinkAbsent && r.Link != probe.LinkCorrect:
		return BrokenSymlink
	case r.HasProject() && r.Link == probe.LinkAbsent:
		return NotLinked
	case r.ObservedVersion != "" && r.ObservedVersion != rec.DeclaredVersion:
		return VersionDrift
	default:
		return Healthy
	}
}
