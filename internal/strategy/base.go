// Package strategy implements the handful of independent ways a base
// version can be discovered from git history and configuration — tags,
// merge messages, branch names, config overrides, and a last-resort
// fallback. Each one is blind to the others; BaseVersionCalculator is what
// ranks their output against each other.
package strategy

import (
	"fmt"

	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/context"
	"github.com/versoci/verso/internal/git"
	"github.com/versoci/verso/internal/semver"
)

// BaseVersion is one strategy's answer to "what version should this commit
// build from". ShouldIncrement tells the ranking step whether this
// candidate's version is the final word (a tag on HEAD) or needs a bump
// applied before it's comparable to other candidates.
type BaseVersion struct {
	Source string

	ShouldIncrement bool

	SemanticVersion semver.SemanticVersion

	// BaseVersionSource is nil when the candidate came from somewhere other
	// than a specific commit, e.g. a pinned config value.
	BaseVersionSource *git.Commit

	// BranchNameOverride replaces the branch name used for pre-release tag
	// rendering; set by VersionInBranchNameStrategy, since a release
	// branch's own name usually isn't what should appear in a tag.
	BranchNameOverride string

	Explanation *Explanation
}

func (bv BaseVersion) String() string {
	source := "external"
	if bv.BaseVersionSource != nil {
		source = bv.BaseVersionSource.ShortSha()
	}
	return fmt.Sprintf("%s: %s (source: %s, increment: %t)",
		bv.Source, bv.SemanticVersion.SemVer(), source, bv.ShouldIncrement)
}

// Explanation records how a strategy derived a BaseVersion.
type Explanation struct {
	// Strategy is the name of the strategy that produced this version.
	Strategy string

	// Steps records the reasoning chain in order.
	Steps []string
}

// NewExplanation creates a new Explanation for the given strategy name.
func NewExplanation(strategy string) *Explanation {
	return &Explanation{Strategy: strategy}
}

// Add appends a reasoning step. Nil-safe.
func (e *Explanation) Add(step string) {
	if e != nil {
		e.Steps = append(e.Steps, step)
	}
}

// Addf appends a formatted reasoning step. Nil-safe.
func (e *Explanation) Addf(format string, args ...any) {
	if e != nil {
		e.Steps = append(e.Steps, fmt.Sprintf(format, args...))
	}
}

// VersionStrategy is the interface implemented by all version discovery strategies.
type VersionStrategy interface {
	// Name returns the human-readable name of this strategy.
	Name() string

	// GetBaseVersions computes zero or more candidate base versions.
	// When explain is true, strategies populate Explanation on each
	// returned BaseVersion.
	GetBaseVersions(
		ctx *context.GitVersionContext,
		ec config.EffectiveConfiguration,
		explain bool,
	) ([]BaseVersion, error)
}
