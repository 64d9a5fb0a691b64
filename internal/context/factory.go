package context

import (
	"fmt"

	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/git"
)

// defaultTagPrefix matches GitVersion's own default: an optional leading
// "v" or "V" before the numeric version.
const defaultTagPrefix = "[vV]"

// Options overrides what NewContext would otherwise resolve from HEAD.
type Options struct {
	// TargetBranch overrides HEAD. Empty means resolve HEAD itself.
	TargetBranch string

	// CommitID overrides the branch tip. Empty means use the branch tip.
	CommitID string
}

// NewContext resolves the branch and commit being versioned, whether that
// commit already carries a version tag, and the repository's dirty-file
// count, then bundles all of it into a GitVersionContext.
func NewContext(store *git.RepositoryStore, repo git.Repository, cfg *config.Config, opts Options) (*GitVersionContext, error) {
	branch, err := store.GetTargetBranch(opts.TargetBranch)
	if err != nil {
		return nil, fmt.Errorf("resolving target branch: %w", err)
	}

	commit, err := store.GetCurrentCommit(branch, opts.CommitID)
	if err != nil {
		return nil, fmt.Errorf("resolving current commit: %w", err)
	}

	if branch.IsDetachedHead {
		resolved, found, err := resolveDetachedBranch(store, cfg, commit)
		if err != nil {
			return nil, err
		}
		if found {
			branch = resolved
		}
	}

	taggedVersion, isTagged, err := store.GetCurrentCommitTaggedVersion(commit, tagPrefixOf(cfg))
	if err != nil {
		return nil, fmt.Errorf("checking version tag: %w", err)
	}

	uncommitted, err := store.GetNumberOfUncommittedChanges()
	if err != nil {
		return nil, fmt.Errorf("counting uncommitted changes: %w", err)
	}

	return &GitVersionContext{
		CurrentBranch:              branch,
		CurrentCommit:              commit,
		FullConfiguration:          cfg,
		CurrentCommitTaggedVersion: taggedVersion,
		IsCurrentCommitTagged:      isTagged,
		NumberOfUncommittedChanges: uncommitted,
	}, nil
}

func tagPrefixOf(cfg *config.Config) string {
	if cfg.TagPrefix != nil {
		return *cfg.TagPrefix
	}
	return defaultTagPrefix
}

// resolveDetachedBranch finds which real branch a detached HEAD commit
// belongs to, since a bare SHA carries no branch-config identity of its own
// and every downstream strategy needs one.
func resolveDetachedBranch(store *git.RepositoryStore, cfg *config.Config, commit git.Commit) (git.Branch, bool, error) {
	branches, err := store.GetBranchesContainingCommit(commit)
	if err != nil {
		return git.Branch{}, false, fmt.Errorf("finding branches for detached HEAD: %w", err)
	}
	best, ok := pickBestBranch(branches, cfg)
	return best, ok, nil
}

// branchCandidate pairs a branch with the priority its matching config
// entry assigns it, so pickBestBranch can rank them without recomputing
// the lookup.
type branchCandidate struct {
	branch   git.Branch
	priority int
}

// pickBestBranch picks which of several branches containing the same
// commit should stand in for it: local branches only, ranked by their
// branch-config priority, highest wins. If none carry explicit priority
// (or none are local), it falls back to the first local branch, or failing
// that the first branch of any kind.
func pickBestBranch(branches []git.Branch, cfg *config.Config) (git.Branch, bool) {
	if len(branches) == 0 {
		return git.Branch{}, false
	}

	local := localCandidates(branches, cfg)
	if len(local) == 0 {
		return firstLocalOrAny(branches), true
	}

	best := local[0]
	for _, c := range local[1:] {
		if c.priority > best.priority {
			best = c
		}
	}
	return best.branch, true
}

func localCandidates(branches []git.Branch, cfg *config.Config) []branchCandidate {
	var candidates []branchCandidate
	for _, b := range branches {
		if b.IsRemote {
			continue
		}
		candidates = append(candidates, branchCandidate{branch: b, priority: branchPriority(b, cfg)})
	}
	return candidates
}

func branchPriority(b git.Branch, cfg *config.Config) int {
	bc, _, err := cfg.GetBranchConfiguration(b.FriendlyName())
	if err != nil || bc.Priority == nil {
		return 0
	}
	return *bc.Priority
}

func firstLocalOrAny(branches []git.Branch) git.Branch {
	for _, b := range branches {
		if !b.IsRemote {
			return b
		}
	}
	return branches[0]
}
