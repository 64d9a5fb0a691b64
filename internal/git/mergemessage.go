package git

import (
	"regexp"
	"strconv"
	"strings"
)

// MergeMessageFormat pairs a human name with the regex that recognizes it,
// e.g. GitHub's "Merge pull request #123 from owner/branch".
type MergeMessageFormat struct {
	Name    string
	Pattern *regexp.Regexp
}

// MergeMessage is what a merge or squash-merge commit message decoded to:
// which format matched, which branch (and possibly PR) it named.
type MergeMessage struct {
	FormatName          string
	MergedBranch        string
	TargetBranch        string
	PullRequestNumber   int
	IsMergedPullRequest bool
}

// IsEmpty reports whether no format matched the message ParseMergeMessage
// was given.
func (m MergeMessage) IsEmpty() bool {
	return m.FormatName == ""
}

var builtinMergeFormats = []MergeMessageFormat{
	{
		Name:    "Default",
		Pattern: regexp.MustCompile(`(?i)^Merge (branch|tag) '(?P<SourceBranch>[^']*)'(?: into (?P<TargetBranch>\S*))*`),
	},
	{
		Name:    "SmartGit",
		Pattern: regexp.MustCompile(`(?i)^Finish (?P<SourceBranch>\S*)(?: into (?P<TargetBranch>\S*))*`),
	},
	{
		Name:    "BitBucketPull",
		Pattern: regexp.MustCompile(`(?i)^Merge pull request #(?P<PullRequestNumber>\d+) (?:from|in) (?P<Source>.*) from (?P<SourceBranch>\S*) to (?P<TargetBranch>\S*)`),
	},
	{
		Name:    "BitBucketPullv7",
		Pattern: regexp.MustCompile(`(?is)^Pull request #(?P<PullRequestNumber>\d+).*\n\nMerge in (?P<Source>.*) from (?P<SourceBranch>\S*) to (?P<TargetBranch>\S*)`),
	},
	{
		Name:    "GitHubPull",
		Pattern: regexp.MustCompile(`(?i)^Merge pull request #(?P<PullRequestNumber>\d+) (?:from|in) (?P<SourceBranch>\S*)(?: into (?P<TargetBranch>\S*))*`),
	},
	{
		Name:    "RemoteTracking",
		Pattern: regexp.MustCompile(`(?i)^Merge remote-tracking branch '(?P<SourceBranch>[^']*)'(?: into (?P<TargetBranch>\S*))*`),
	},
}

var builtinSquashFormats = []MergeMessageFormat{
	{
		Name:    "GitHubSquash",
		Pattern: regexp.MustCompile(`^.+\(#(?P<PullRequestNumber>\d+)\)$`),
	},
	{
		Name:    "BitBucketSquash",
		Pattern: regexp.MustCompile(`(?i)^Merged in (?P<SourceBranch>\S*) \(pull request #(?P<PullRequestNumber>\d+)\)`),
	},
}

// DefaultMergeMessageFormats returns the built-in real-merge-commit formats.
func DefaultMergeMessageFormats() []MergeMessageFormat {
	return builtinMergeFormats
}

// SquashMergeMessageFormats returns the built-in squash-merge formats.
func SquashMergeMessageFormats() []MergeMessageFormat {
	return builtinSquashFormats
}

// ParseMergeMessage matches message against customFormats (highest
// priority), then the built-in merge formats, then the built-in squash
// formats, returning the first hit. An unmatched message yields a zero
// MergeMessage.
func ParseMergeMessage(message string, customFormats map[string]string) MergeMessage {
	for _, format := range compileCustomFormats(customFormats) {
		if mm, ok := matchMergeFormat(message, format); ok {
			return mm
		}
	}
	for _, format := range builtinMergeFormats {
		if mm, ok := matchMergeFormat(message, format); ok {
			return mm
		}
	}
	for _, format := range builtinSquashFormats {
		if mm, ok := matchMergeFormat(message, format); ok {
			return mm
		}
	}
	return MergeMessage{}
}

func compileCustomFormats(customFormats map[string]string) []MergeMessageFormat {
	var formats []MergeMessageFormat
	for name, pattern := range customFormats {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			continue
		}
		formats = append(formats, MergeMessageFormat{Name: name, Pattern: re})
	}
	return formats
}

func matchMergeFormat(message string, format MergeMessageFormat) (MergeMessage, bool) {
	match := format.Pattern.FindStringSubmatch(message)
	if match == nil {
		return MergeMessage{}, false
	}

	mm := MergeMessage{FormatName: format.Name}
	for i, name := range format.Pattern.SubexpNames() {
		if i == 0 || name == "" || match[i] == "" {
			continue
		}
		switch name {
		case "SourceBranch":
			mm.MergedBranch = match[i]
		case "TargetBranch":
			mm.TargetBranch = match[i]
		case "PullRequestNumber":
			if n, err := strconv.Atoi(match[i]); err == nil {
				mm.PullRequestNumber = n
				mm.IsMergedPullRequest = true
			}
		}
	}
	return mm, true
}

// versionLikeRe matches a bare semantic version segment: "1", "1.2", or
// "1.2.0", with no surrounding text.
var versionLikeRe = regexp.MustCompile(`^\d+(\.\d+){0,2}$`)

// ExtractVersionFromBranch pulls a semantic version out of branchName by
// splitting on '/' then '-' and testing each segment against
// versionLikeRe, after stripping tagPrefix. "release/1.2.0" and
// "release-1.3" both match; "feature/auth" does not. Any numeric segment
// qualifies, so "feature/JIRA-123" yields 123.0.0.
func ExtractVersionFromBranch(branchName, tagPrefix string) (string, bool) {
	prefixRe := compileTagPrefix(tagPrefix)

	for _, part := range strings.Split(branchName, "/") {
		if v, ok := versionSegment(part, prefixRe); ok {
			return v, true
		}
		if _, after, found := strings.Cut(part, "-"); found {
			if v, ok := versionSegment(after, prefixRe); ok {
				return v, true
			}
		}
	}
	return "", false
}

func compileTagPrefix(tagPrefix string) *regexp.Regexp {
	if tagPrefix == "" {
		return nil
	}
	re, _ := regexp.Compile("^(?:" + tagPrefix + ")")
	return re
}

func versionSegment(s string, prefixRe *regexp.Regexp) (string, bool) {
	cleaned := s
	if prefixRe != nil {
		cleaned = prefixRe.ReplaceAllString(s, "")
	}
	if cleaned == "" || !versionLikeRe.MatchString(cleaned) {
		return "", false
	}
	return padToThreeSegments(cleaned), true
}

func padToThreeSegments(v string) string {
	parts := strings.Split(v, ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return strings.Join(parts, ".")
}
