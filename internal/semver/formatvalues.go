package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FormatConfig tunes the handful of knobs ComputeFormatValues needs beyond
// the version itself: zero-padding width, the commit-date layout, and the
// weight added to a pre-release number for sort-friendly output.
type FormatConfig struct {
	Padding             int
	CommitDateFormat    string
	TagPreReleaseWeight int64
}

// DefaultFormatConfig mirrors GitVersion's own defaults.
func DefaultFormatConfig() FormatConfig {
	return FormatConfig{
		Padding:             4,
		CommitDateFormat:    "2006-01-02",
		TagPreReleaseWeight: 60000,
	}
}

func (c FormatConfig) withDefaults() FormatConfig {
	if c.Padding <= 0 {
		c.Padding = 4
	}
	if c.CommitDateFormat == "" {
		c.CommitDateFormat = "2006-01-02"
	}
	if c.TagPreReleaseWeight == 0 {
		c.TagPreReleaseWeight = 60000
	}
	return c
}

var disallowedBranchChars = regexp.MustCompile(`[^a-zA-Z0-9-]`)

func escapeBranchName(name string) string {
	return disallowedBranchChars.ReplaceAllString(name, "-")
}

// valueSet accumulates the named output variables that ComputeFormatValues
// produces; it exists so each section below can read as "set this group of
// variables" instead of repeated bare map writes.
type valueSet map[string]string

func (vs valueSet) set(name, value string) {
	vs[name] = value
}

// ComputeFormatValues derives every named output variable (MajorMinorPatch,
// SemVer, NuGetVersion, ...) from a calculated version. Pure function, no
// side effects.
func ComputeFormatValues(ver SemanticVersion, cfg FormatConfig) map[string]string {
	cfg = cfg.withDefaults()
	vs := make(valueSet, 35)

	vs.setVersionComponents(ver)
	vs.setSemVerFormats(ver, cfg.Padding)
	vs.setPreReleaseInfo(ver, cfg.TagPreReleaseWeight)
	vs.setBuildMetaData(ver, cfg.Padding)
	vs.setGitInfo(ver)
	vs.setCommitTracking(ver, cfg.Padding)
	vs.setCommitDate(ver, cfg.CommitDateFormat)
	vs.setAssemblyInfo(ver)
	vs.setNuGetInfo(ver, cfg.Padding)

	return vs
}

func (vs valueSet) setVersionComponents(ver SemanticVersion) {
	major, minor, patch := formatInt(ver.Major), formatInt(ver.Minor), formatInt(ver.Patch)
	vs.set("Major", major)
	vs.set("Minor", minor)
	vs.set("Patch", patch)
	vs.set("MajorMinorPatch", major+"."+minor+"."+patch)
}

func (vs valueSet) setSemVerFormats(ver SemanticVersion, pad int) {
	vs.set("SemVer", ver.SemVer())
	vs.set("FullSemVer", ver.FullSemVer())
	vs.set("LegacySemVer", ver.LegacySemVer())
	vs.set("LegacySemVerPadded", ver.LegacySemVerPadded(pad))
	vs.set("InformationalVersion", ver.InformationalVersion())
}

func (vs valueSet) setPreReleaseInfo(ver SemanticVersion, weight int64) {
	tag := ver.PreReleaseTag
	vs.set("PreReleaseTag", tag.String())
	vs.set("PreReleaseTagWithDash", dashPrefixed(tag.String()))
	vs.set("PreReleaseLabel", tag.Name)
	vs.set("PreReleaseLabelWithDash", dashPrefixed(tag.Name))

	if tag.Number != nil {
		vs.set("PreReleaseNumber", formatInt(*tag.Number))
		vs.set("WeightedPreReleaseNumber", formatInt(weight+*tag.Number))
	} else {
		vs.set("PreReleaseNumber", "")
		vs.set("WeightedPreReleaseNumber", "")
	}
}

func (vs valueSet) setBuildMetaData(ver SemanticVersion, pad int) {
	vs.set("BuildMetaData", ver.BuildMetaData.String())
	vs.set("BuildMetaDataPadded", ver.BuildMetaData.Padded(pad))
	vs.set("FullBuildMetaData", ver.BuildMetaData.FullString())
}

func (vs valueSet) setGitInfo(ver SemanticVersion) {
	vs.set("BranchName", ver.BuildMetaData.Branch)
	vs.set("EscapedBranchName", escapeBranchName(ver.BuildMetaData.Branch))
	vs.set("Sha", ver.BuildMetaData.Sha)
	vs.set("ShortSha", ver.BuildMetaData.ShortSha)
}

func (vs valueSet) setCommitTracking(ver SemanticVersion, pad int) {
	vs.set("VersionSourceSha", ver.BuildMetaData.VersionSourceSha)
	vs.set("CommitsSinceVersionSource", formatInt(ver.BuildMetaData.CommitsSinceVersionSource))
	vs.set("CommitsSinceVersionSourcePadded", fmt.Sprintf("%0*d", pad, ver.BuildMetaData.CommitsSinceVersionSource))
	vs.set("UncommittedChanges", formatInt(ver.BuildMetaData.UncommittedChanges))
}

func (vs valueSet) setCommitDate(ver SemanticVersion, layout string) {
	if ver.BuildMetaData.CommitDate.IsZero() {
		vs.set("CommitDate", "")
		vs.set("CommitTag", "")
		return
	}
	vs.set("CommitDate", ver.BuildMetaData.CommitDate.Format(translateDateFormat(layout)))
	year, week := ver.BuildMetaData.CommitDate.ISOWeek()
	vs.set("CommitTag", fmt.Sprintf("%02d.%02d.%s", year%100, week, ver.BuildMetaData.ShortSha))
}

// setAssemblyInfo fills the .NET-assembly-flavored variables. verso never
// rewrites assembly files, so these exist purely as output text for callers
// who want them.
func (vs valueSet) setAssemblyInfo(ver SemanticVersion) {
	assemblyVer := fmt.Sprintf("%d.%d.%d.0", ver.Major, ver.Minor, ver.Patch)
	vs.set("AssemblySemVer", assemblyVer)
	vs.set("AssemblySemFileVer", assemblyVer)
	vs.set("AssemblyInformationalVersion", ver.InformationalVersion())
}

func (vs valueSet) setNuGetInfo(ver SemanticVersion, pad int) {
	nugetVer := ver.LegacySemVerPadded(pad)
	vs.set("NuGetVersionV2", nugetVer)
	vs.set("NuGetVersion", nugetVer)
	nugetTag := ver.PreReleaseTag.LegacyPadded(pad)
	vs.set("NuGetPreReleaseTagV2", nugetTag)
	vs.set("NuGetPreReleaseTag", nugetTag)
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func dashPrefixed(s string) string {
	if s == "" {
		return ""
	}
	return "-" + s
}

// dotNetDateTokens maps .NET/Java date format tokens to Go's reference-time
// layout tokens. Longer tokens are listed before their prefixes (e.g.
// "yyyy" before "yy") since replacement is a straight left-to-right scan.
var dotNetDateTokens = []struct{ token, goLayout string }{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"dd", "02"},
	{"HH", "15"},
	{"hh", "03"},
	{"mm", "04"},
	{"ss", "05"},
	{"tt", "PM"},
	{"fff", "000"},
	{"ff", "00"},
	{"f", "0"},
}

// translateDateFormat converts a .NET/Java-style layout (e.g. "yyyy-MM-dd")
// into a Go time layout. A string already containing Go's reference year
// ("2006") is assumed to already be a Go layout and passed through.
func translateDateFormat(format string) string {
	if strings.Contains(format, "2006") {
		return format
	}
	translated := format
	for _, t := range dotNetDateTokens {
		translated = strings.ReplaceAll(translated, t.token, t.goLayout)
	}
	return translated
}
