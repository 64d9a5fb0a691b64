// Package context assembles the one immutable snapshot every strategy and
// calculator reads from: which commit is being versioned, what its tag
// status is, and the configuration in effect for the branch it lives on.
// Nothing under internal/strategy or internal/calculator talks to a
// Repository directly once this snapshot exists.
package context

import (
	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/git"
	"github.com/versoci/verso/internal/semver"
)

// GitVersionContext is built once per invocation and handed unchanged to
// every strategy.
type GitVersionContext struct {
	// CurrentBranch is the branch being versioned.
	CurrentBranch git.Branch

	// CurrentCommit is the commit being versioned: the branch tip, or an
	// explicit SHA in detached-HEAD mode.
	CurrentCommit git.Commit

	// FullConfiguration is defaults overlaid with every user override.
	FullConfiguration *config.Config

	// CurrentCommitTaggedVersion is the version a tag on CurrentCommit
	// names, read only when IsCurrentCommitTagged is true.
	CurrentCommitTaggedVersion semver.SemanticVersion

	IsCurrentCommitTagged bool

	// NumberOfUncommittedChanges is the dirty-working-tree count folded
	// into a build-metadata suffix when configured.
	NumberOfUncommittedChanges int
}

// GetEffectiveConfiguration resolves branchName against the branch-config
// table and overlays it onto the root config, the per-branch view every
// strategy actually reasons about.
func (ctx *GitVersionContext) GetEffectiveConfiguration(branchName string) (config.EffectiveConfiguration, error) {
	bc, _, err := ctx.FullConfiguration.GetBranchConfiguration(branchName)
	if err != nil {
		return config.EffectiveConfiguration{}, err
	}
	return config.NewEffectiveConfiguration(ctx.FullConfiguration, bc), nil
}
