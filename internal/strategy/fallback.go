package strategy

import (
	"fmt"

	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/context"
	"github.com/versoci/verso/internal/git"
	"github.com/versoci/verso/internal/semver"
)

// defaultBaseVersion is what FallbackStrategy hands back when
// ec.BaseVersion can't be parsed at all, matching a repo's very first
// release being "0.1.0".
var defaultBaseVersion = semver.SemanticVersion{Minor: 1}

// FallbackStrategy is the strategy of last resort: when no tag, branch
// name, merge message, or config field offers anything to build from, it
// anchors the calculation to the repository's root commit and the
// configured (or default) base version.
type FallbackStrategy struct {
	store *git.RepositoryStore
}

func NewFallbackStrategy(store *git.RepositoryStore) *FallbackStrategy {
	return &FallbackStrategy{store: store}
}

func (s *FallbackStrategy) Name() string { return "Fallback" }

func (s *FallbackStrategy) GetBaseVersions(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	explain bool,
) ([]BaseVersion, error) {
	if ctx.CurrentBranch.Tip == nil {
		return nil, git.ErrNoCommits
	}

	rootCommit, err := s.store.GetBaseVersionSource(ctx.CurrentCommit)
	if err != nil {
		return nil, fmt.Errorf("finding root commit: %w", err)
	}

	ver, err := semver.Parse(ec.BaseVersion, "")
	if err != nil {
		ver = defaultBaseVersion
	}

	var exp *Explanation
	if explain {
		exp = NewExplanation(s.Name())
		exp.Addf("using base version %s from root commit %s", ver.SemVer(), rootCommit.ShortSha())
	}

	return []BaseVersion{{
		Source:            "Fallback base version",
		ShouldIncrement:   false,
		SemanticVersion:   ver,
		BaseVersionSource: &rootCommit,
		Explanation:       exp,
	}}, nil
}
