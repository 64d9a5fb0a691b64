// Package calculator turns a chosen base version plus the commits between it
// and HEAD into a final SemanticVersion: scanning commit messages for bump
// directives, applying the configured increment rules, and attaching
// pre-release/build metadata.
package calculator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/context"
	"github.com/versoci/verso/internal/git"
	"github.com/versoci/verso/internal/semver"
	"github.com/versoci/verso/internal/strategy"
)

// IncrementExplanation accumulates the human-readable trail of reasoning
// that led to an increment decision. A nil *IncrementExplanation is valid
// and simply discards every step, so callers don't need an explain-mode
// branch at every call site.
type IncrementExplanation struct {
	Steps []string
}

func (e *IncrementExplanation) Add(step string) {
	if e == nil {
		return
	}
	e.Steps = append(e.Steps, step)
}

func (e *IncrementExplanation) Addf(format string, args ...any) {
	if e == nil {
		return
	}
	e.Steps = append(e.Steps, fmt.Sprintf(format, args...))
}

// IncrementResult is the field to bump plus, in explain mode, why.
type IncrementResult struct {
	Field       semver.VersionField
	Explanation *IncrementExplanation
}

// commitMessagePatterns holds the two regexes used to recognize a
// Conventional Commits header and a BREAKING CHANGE footer.
var commitMessagePatterns = struct {
	header         *regexp.Regexp
	breakingFooter *regexp.Regexp
}{
	header:         regexp.MustCompile(`^(\w+)(?:\(.+?\))?(!)?:\s`),
	breakingFooter: regexp.MustCompile(`(?m)^BREAKING[ -]CHANGE:\s`),
}

// IncrementStrategyFinder walks the commit log between a base version and
// HEAD and works out the largest version bump implied by the commit
// messages, honoring the configured convention and increment mode.
type IncrementStrategyFinder struct {
	store *git.RepositoryStore
}

func NewIncrementStrategyFinder(store *git.RepositoryStore) *IncrementStrategyFinder {
	return &IncrementStrategyFinder{store: store}
}

// DetermineIncrementedField is DetermineIncrementedFieldExplained without
// the reasoning trail.
func (f *IncrementStrategyFinder) DetermineIncrementedField(
	ctx *context.GitVersionContext,
	bv strategy.BaseVersion,
	ec config.EffectiveConfiguration,
) (semver.VersionField, error) {
	result, err := f.DetermineIncrementedFieldExplained(ctx, bv, ec, false)
	return result.Field, err
}

// DetermineIncrementedFieldExplained computes the version field to bump for
// the commits since bv's source. When commit-message incrementing is
// disabled entirely, the branch's configured default is used unconditionally
// instead of scanning anything.
func (f *IncrementStrategyFinder) DetermineIncrementedFieldExplained(
	ctx *context.GitVersionContext,
	bv strategy.BaseVersion,
	ec config.EffectiveConfiguration,
	explain bool,
) (IncrementResult, error) {
	var exp *IncrementExplanation
	if explain {
		exp = &IncrementExplanation{}
	}

	if ec.CommitMessageIncrementing == semver.CommitMessageIncrementDisabled {
		field := f.branchDefault(bv, ec)
		exp.Addf("commit message incrementing disabled, using branch default: %s", field)
		return IncrementResult{Field: field, Explanation: exp}, nil
	}

	var sourceCommit git.Commit
	if bv.BaseVersionSource != nil {
		sourceCommit = *bv.BaseVersionSource
	}

	commits, err := f.store.GetCommitLog(sourceCommit, ctx.CurrentCommit)
	if err != nil {
		return IncrementResult{}, err
	}
	exp.Addf("scanned %d commits", len(commits))

	field := f.highestFieldAcross(commits, bv, ec, exp)
	field = capPreReleaseMajor(bv.SemanticVersion, field, exp)
	field = f.applyBranchFloor(field, bv, ec, exp)

	return IncrementResult{Field: field, Explanation: exp}, nil
}

// highestFieldAcross scans each commit (skipping the base version source
// commit itself) and keeps the single largest bump found.
func (f *IncrementStrategyFinder) highestFieldAcross(
	commits []git.Commit,
	bv strategy.BaseVersion,
	ec config.EffectiveConfiguration,
	exp *IncrementExplanation,
) semver.VersionField {
	highest := semver.VersionFieldNone

	for _, c := range commits {
		if bv.BaseVersionSource != nil && c.Sha == bv.BaseVersionSource.Sha {
			continue
		}

		field := f.analyzeCommit(c, ec)
		if field != semver.VersionFieldNone {
			exp.Addf("commit %s %q -> %s (%s)", c.ShortSha(), firstLineOf(c.Message), field, describeConvention(c.Message, ec))
		}
		if field > highest {
			highest = field
		}
	}

	exp.Addf("highest increment from commits: %s", highest)
	return highest
}

// capPreReleaseMajor enforces that versions below 1.0.0 never take a Major
// bump from commit messages — GitVersion's own pre-1.0 rule.
func capPreReleaseMajor(base semver.SemanticVersion, field semver.VersionField, exp *IncrementExplanation) semver.VersionField {
	if base.Major == 0 && field == semver.VersionFieldMajor {
		exp.Add("pre-1.0: capping Major -> Minor")
		return semver.VersionFieldMinor
	}
	return field
}

// applyBranchFloor raises field up to the branch's configured default when
// the branch says ShouldIncrement and the commits alone implied less than
// that default.
func (f *IncrementStrategyFinder) applyBranchFloor(
	field semver.VersionField,
	bv strategy.BaseVersion,
	ec config.EffectiveConfiguration,
	exp *IncrementExplanation,
) semver.VersionField {
	if !bv.ShouldIncrement {
		return field
	}
	floor := f.branchDefault(bv, ec)
	if field >= floor {
		return field
	}
	exp.Addf("ShouldIncrement=true, branch default=%s > %s, using %s", floor, field, floor)
	return floor
}

// branchDefault is the field implied by the branch's own increment
// strategy, falling back to Patch when Inherit/None resolves to nothing and
// the branch still wants an increment.
func (f *IncrementStrategyFinder) branchDefault(bv strategy.BaseVersion, ec config.EffectiveConfiguration) semver.VersionField {
	if !bv.ShouldIncrement {
		return semver.VersionFieldNone
	}
	if field := ec.BranchIncrement.ToVersionField(); field != semver.VersionFieldNone {
		return field
	}
	return semver.VersionFieldPatch
}

// AnalyzeCommitIncrement is the single-commit form of analyzeCommit, exposed
// for MainlineVersionCalculator's EachCommit mode.
func (f *IncrementStrategyFinder) AnalyzeCommitIncrement(c git.Commit, ec config.EffectiveConfiguration) semver.VersionField {
	return f.analyzeCommit(c, ec)
}

// analyzeCommit dispatches a single commit message to whichever
// convention(s) are configured and returns the largest resulting bump.
func (f *IncrementStrategyFinder) analyzeCommit(c git.Commit, ec config.EffectiveConfiguration) semver.VersionField {
	if ec.CommitMessageIncrementing == semver.CommitMessageIncrementMergeMessageOnly && !c.IsMerge() {
		return semver.VersionFieldNone
	}

	switch ec.CommitMessageConvention {
	case semver.CommitMessageConventionConventionalCommits:
		return analyzeConventionalCommit(c.Message)
	case semver.CommitMessageConventionBumpDirective:
		return analyzeBumpDirective(c.Message, ec)
	case semver.CommitMessageConventionBoth:
		return maxField(analyzeConventionalCommit(c.Message), analyzeBumpDirective(c.Message, ec))
	default:
		return semver.VersionFieldNone
	}
}

// analyzeConventionalCommit reads a Conventional Commits header: "feat:"
// bumps Minor, "fix:" bumps Patch, a "!" marker or a BREAKING CHANGE footer
// bumps Major. Any other type is a no-op.
func analyzeConventionalCommit(msg string) semver.VersionField {
	header := firstLineOf(msg)
	groups := commitMessagePatterns.header.FindStringSubmatch(header)
	if groups == nil {
		return semver.VersionFieldNone
	}

	if groups[2] == "!" || commitMessagePatterns.breakingFooter.MatchString(msg) {
		return semver.VersionFieldMajor
	}

	switch strings.ToLower(groups[1]) {
	case "feat":
		return semver.VersionFieldMinor
	case "fix":
		return semver.VersionFieldPatch
	default:
		return semver.VersionFieldNone
	}
}

// analyzeBumpDirective looks for any of the three configured "+semver: ..."
// style directives in msg, checked in Major/Minor/Patch priority order.
func analyzeBumpDirective(msg string, ec config.EffectiveConfiguration) semver.VersionField {
	directives := []struct {
		pattern string
		field   semver.VersionField
	}{
		{ec.MajorVersionBumpMessage, semver.VersionFieldMajor},
		{ec.MinorVersionBumpMessage, semver.VersionFieldMinor},
		{ec.PatchVersionBumpMessage, semver.VersionFieldPatch},
	}
	for _, d := range directives {
		if matchesPattern(msg, d.pattern) {
			return d.field
		}
	}
	return semver.VersionFieldNone
}

// describeConvention labels, for explain-mode output, which convention
// actually produced a commit's bump.
func describeConvention(msg string, ec config.EffectiveConfiguration) string {
	switch ec.CommitMessageConvention {
	case semver.CommitMessageConventionBumpDirective:
		return "Bump Directive"
	case semver.CommitMessageConventionBoth:
		cc, bd := analyzeConventionalCommit(msg), analyzeBumpDirective(msg, ec)
		if cc >= bd && cc != semver.VersionFieldNone {
			return "Conventional Commits"
		}
		if bd != semver.VersionFieldNone {
			return "Bump Directive"
		}
		return "Conventional Commits"
	default:
		return "Conventional Commits"
	}
}

func matchesPattern(msg, pattern string) bool {
	if pattern == "" {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(msg)
}

func maxField(a, b semver.VersionField) semver.VersionField {
	if a > b {
		return a
	}
	return b
}

func firstLineOf(msg string) string {
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		return msg[:idx]
	}
	return msg
}
