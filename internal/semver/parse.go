package semver

import (
	"fmt"
	"strings"
)

// MainlineIncrementMode controls how mainline mode turns a run of commits
// into a version bump: Aggregate folds the whole run into one increment,
// EachCommit walks the run and increments once per commit.
type MainlineIncrementMode int

const (
	MainlineIncrementAggregate MainlineIncrementMode = iota
	MainlineIncrementEachCommit
)

func (m MainlineIncrementMode) String() string {
	switch m {
	case MainlineIncrementAggregate:
		return "Aggregate"
	case MainlineIncrementEachCommit:
		return "EachCommit"
	default:
		return "Unknown"
	}
}

// normalizeEnumToken lowercases s and strips hyphens so config authors can
// write "each-commit", "EachCommit", or "eachcommit" interchangeably.
func normalizeEnumToken(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "-", ""))
}

var versioningModeByToken = map[string]VersioningMode{
	"continuousdelivery":  VersioningModeContinuousDelivery,
	"continuousdeployment": VersioningModeContinuousDeployment,
	"mainline":             VersioningModeMainline,
}

// ParseVersioningMode parses a config string into a VersioningMode,
// ignoring case and hyphenation.
func ParseVersioningMode(s string) (VersioningMode, error) {
	mode, ok := versioningModeByToken[normalizeEnumToken(s)]
	if !ok {
		return 0, fmt.Errorf("unknown versioning mode: %q", s)
	}
	return mode, nil
}

var incrementStrategyByToken = map[string]IncrementStrategy{
	"none":    IncrementStrategyNone,
	"major":   IncrementStrategyMajor,
	"minor":   IncrementStrategyMinor,
	"patch":   IncrementStrategyPatch,
	"inherit": IncrementStrategyInherit,
}

// ParseIncrementStrategy parses a config string into an IncrementStrategy,
// ignoring case.
func ParseIncrementStrategy(s string) (IncrementStrategy, error) {
	strategy, ok := incrementStrategyByToken[normalizeEnumToken(s)]
	if !ok {
		return 0, fmt.Errorf("unknown increment strategy: %q", s)
	}
	return strategy, nil
}

var commitMessageIncrementModeByToken = map[string]CommitMessageIncrementMode{
	"enabled":          CommitMessageIncrementEnabled,
	"disabled":         CommitMessageIncrementDisabled,
	"mergemessageonly": CommitMessageIncrementMergeMessageOnly,
}

// ParseCommitMessageIncrementMode parses a config string into a
// CommitMessageIncrementMode, ignoring case.
func ParseCommitMessageIncrementMode(s string) (CommitMessageIncrementMode, error) {
	mode, ok := commitMessageIncrementModeByToken[normalizeEnumToken(s)]
	if !ok {
		return 0, fmt.Errorf("unknown commit message increment mode: %q", s)
	}
	return mode, nil
}

var commitMessageConventionByToken = map[string]CommitMessageConvention{
	"conventionalcommits": CommitMessageConventionConventionalCommits,
	"bumpdirective":        CommitMessageConventionBumpDirective,
	"both":                 CommitMessageConventionBoth,
}

// ParseCommitMessageConvention parses a config string into a
// CommitMessageConvention, ignoring case and hyphenation (e.g.
// "conventional-commits").
func ParseCommitMessageConvention(s string) (CommitMessageConvention, error) {
	convention, ok := commitMessageConventionByToken[normalizeEnumToken(s)]
	if !ok {
		return 0, fmt.Errorf("unknown commit message convention: %q", s)
	}
	return convention, nil
}

var mainlineIncrementModeByToken = map[string]MainlineIncrementMode{
	"aggregate":  MainlineIncrementAggregate,
	"eachcommit": MainlineIncrementEachCommit,
}

// ParseMainlineIncrementMode parses a config string into a
// MainlineIncrementMode, ignoring case and hyphenation (e.g. "each-commit").
func ParseMainlineIncrementMode(s string) (MainlineIncrementMode, error) {
	mode, ok := mainlineIncrementModeByToken[normalizeEnumToken(s)]
	if !ok {
		return 0, fmt.Errorf("unknown mainline increment mode: %q", s)
	}
	return mode, nil
}
