package semver

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BuildMetaData is the "+..." suffix of a version: everything about where a
// version came from (commit count, branch, sha, commit date) that matters
// for traceability but never participates in version ordering.
type BuildMetaData struct {
	CommitsSinceTag           *int64
	Branch                    string
	Sha                       string
	ShortSha                  string
	VersionSourceSha          string
	CommitDate                time.Time
	CommitsSinceVersionSource int64
	UncommittedChanges        int64
}

// String renders just the commits-since-tag count, or "" if unset.
func (m BuildMetaData) String() string {
	if m.CommitsSinceTag == nil {
		return ""
	}
	return strconv.FormatInt(*m.CommitsSinceTag, 10)
}

// Padded is String with the count zero-padded to pad digits.
func (m BuildMetaData) Padded(pad int) string {
	if m.CommitsSinceTag == nil {
		return ""
	}
	return fmt.Sprintf("%0*d", pad, *m.CommitsSinceTag)
}

// FullString renders every populated component dot-joined, e.g.
// "5.Branch.main.Sha.abc1234". Components that are unset are omitted
// entirely rather than appearing as empty segments.
func (m BuildMetaData) FullString() string {
	segments := make([]string, 0, 3)
	if m.CommitsSinceTag != nil {
		segments = append(segments, strconv.FormatInt(*m.CommitsSinceTag, 10))
	}
	if m.Branch != "" {
		segments = append(segments, "Branch."+m.Branch)
	}
	if m.Sha != "" {
		segments = append(segments, "Sha."+m.Sha)
	}
	return strings.Join(segments, ".")
}
