package git

import (
	"fmt"
	"path/filepath"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

var _ Repository = (*GoGitRepository)(nil)

// GoGitRepository backs Repository with a local go-git checkout — the
// implementation every command-line invocation uses, as opposed to the
// GraphQL-backed implementation used for operations that need GitHub state
// the local clone doesn't have (PR metadata, remote-only refs).
type GoGitRepository struct {
	repo    *gogit.Repository
	path    string
	workDir string
}

// Open locates and opens the git repository containing path, searching
// parent directories the way `git` itself does.
func Open(path string) (*GoGitRepository, error) {
	r, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: opening git repository at %s: %w", ErrRepository, path, err)
	}

	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: getting worktree: %w", ErrRepository, err)
	}
	root := wt.Filesystem.Root()

	return &GoGitRepository{repo: r, path: filepath.Join(root, ".git"), workDir: root}, nil
}

func (r *GoGitRepository) Path() string            { return r.path }
func (r *GoGitRepository) WorkingDirectory() string { return r.workDir }

func (r *GoGitRepository) IsHeadDetached() bool {
	ref, err := r.repo.Head()
	return err == nil && !ref.Name().IsBranch()
}

func (r *GoGitRepository) Head() (Branch, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Branch{}, fmt.Errorf("%w: getting HEAD: %w", ErrRepository, err)
	}

	commit, err := r.commitFromHash(ref.Hash())
	if err != nil {
		return Branch{}, fmt.Errorf("%w: getting HEAD commit: %w", ErrRepository, err)
	}

	return Branch{
		Name:           NewReferenceName(string(ref.Name())),
		Tip:            &commit,
		IsRemote:       false,
		IsDetachedHead: !ref.Name().IsBranch(),
	}, nil
}

// Branches lists local branches first, then every remote-tracking ref;
// filters are accepted for interface symmetry with the GraphQL-backed
// Repository but go-git's local clone always sees the whole tree, so there
// is nothing to restrict.
func (r *GoGitRepository) Branches(_ ...PathFilter) ([]Branch, error) {
	local, err := r.refsToBranches(r.repo.Branches, false, func(*plumbing.Reference) bool { return true })
	if err != nil {
		return nil, fmt.Errorf("%w: listing local branches: %w", ErrRepository, err)
	}

	remote, err := r.refsToBranches(r.repo.References, true, func(ref *plumbing.Reference) bool {
		return ref.Name().IsRemote()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing references: %w", ErrRepository, err)
	}

	return append(local, remote...), nil
}

// refsToBranches drives any go-git reference iterator (r.repo.Branches or
// r.repo.References), keeping only refs accepted by keep, and resolves
// each to a Branch. A ref whose commit can't be loaded is silently
// skipped rather than failing the whole listing.
func (r *GoGitRepository) refsToBranches(
	iterate func() (storer.ReferenceIter, error),
	isRemote bool,
	keep func(*plumbing.Reference) bool,
) ([]Branch, error) {
	iter, err := iterate()
	if err != nil {
		return nil, err
	}

	var branches []Branch
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if !keep(ref) {
			return nil
		}
		commit, err := r.commitFromHash(ref.Hash())
		if err != nil {
			return nil
		}
		branches = append(branches, Branch{
			Name:     NewReferenceName(string(ref.Name())),
			Tip:      &commit,
			IsRemote: isRemote,
		})
		return nil
	})
	return branches, err
}

func (r *GoGitRepository) Tags(_ ...PathFilter) ([]Tag, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("%w: listing tags: %w", ErrRepository, err)
	}

	var tags []Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, Tag{
			Name:      NewReferenceName(string(ref.Name())),
			TargetSha: ref.Hash().String(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: iterating tags: %w", ErrRepository, err)
	}
	return tags, nil
}

func (r *GoGitRepository) CommitFromSha(sha string) (Commit, error) {
	return r.commitFromHash(plumbing.NewHash(sha))
}

// CommitLog walks every ancestor of to (all parents at each merge),
// stopping as soon as it reaches from — from itself is excluded.
func (r *GoGitRepository) CommitLog(from, to string, _ ...PathFilter) ([]Commit, error) {
	commits, err := r.walkAncestors(to, from)
	if err != nil {
		return nil, fmt.Errorf("%w: getting commit log: %w", ErrRepository, err)
	}
	return commits, nil
}

func (r *GoGitRepository) walkAncestors(to, stopAt string) ([]Commit, error) {
	iter, err := r.repo.Log(&gogit.LogOptions{
		From:  plumbing.NewHash(to),
		Order: gogit.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, err
	}

	stopHash := plumbing.ZeroHash
	if stopAt != "" {
		stopHash = plumbing.NewHash(stopAt)
	}

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if c.Hash == stopHash {
			return storer.ErrStop
		}
		commits = append(commits, convertCommit(c))
		return nil
	})
	return commits, err
}

// MainlineCommitLog walks only the first parent at every merge, matching
// mainline-mode's rule that a branch's own release history is whatever
// landed directly on it, not what was folded in from merged-in branches.
func (r *GoGitRepository) MainlineCommitLog(from, to string, _ ...PathFilter) ([]Commit, error) {
	var stopHash plumbing.Hash
	if from != "" {
		stopHash = plumbing.NewHash(from)
	}

	var commits []Commit
	hash := plumbing.NewHash(to)
	for hash != plumbing.ZeroHash && hash != stopHash {
		c, err := r.repo.CommitObject(hash)
		if err != nil {
			return nil, fmt.Errorf("%w: walking mainline at %s: %w", ErrRepository, hash.String(), err)
		}
		commits = append(commits, convertCommit(c))

		if c.NumParents() == 0 {
			break
		}
		hash = c.ParentHashes[0]
	}
	return commits, nil
}

func (r *GoGitRepository) BranchCommits(branch Branch, _ ...PathFilter) ([]Commit, error) {
	if branch.Tip == nil {
		return nil, nil
	}
	return r.CommitLog("", branch.Tip.Sha)
}

func (r *GoGitRepository) CommitsPriorTo(olderThan time.Time, branch Branch) ([]Commit, error) {
	allCommits, err := r.BranchCommits(branch)
	if err != nil {
		return nil, err
	}

	result := make([]Commit, 0, len(allCommits))
	for _, c := range allCommits {
		if c.When.Before(olderThan) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (r *GoGitRepository) FindMergeBase(sha1, sha2 string) (string, error) {
	c1, err := r.repo.CommitObject(plumbing.NewHash(sha1))
	if err != nil {
		return "", fmt.Errorf("%w: loading commit %s: %w", ErrRepository, sha1, err)
	}
	c2, err := r.repo.CommitObject(plumbing.NewHash(sha2))
	if err != nil {
		return "", fmt.Errorf("%w: loading commit %s: %w", ErrRepository, sha2, err)
	}

	bases, err := c1.MergeBase(c2)
	if err != nil {
		return "", fmt.Errorf("%w: computing merge base: %w", ErrRepository, err)
	}
	if len(bases) == 0 {
		return "", nil
	}
	return bases[0].Hash.String(), nil
}

func (r *GoGitRepository) BranchesContainingCommit(sha string) ([]Branch, error) {
	target := plumbing.NewHash(sha)
	all, err := r.Branches()
	if err != nil {
		return nil, err
	}

	var result []Branch
	for _, b := range all {
		if b.Tip != nil && r.branchContains(b, target) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (r *GoGitRepository) branchContains(b Branch, target plumbing.Hash) bool {
	tip := plumbing.NewHash(b.Tip.Sha)
	if tip == target {
		return true
	}

	tipCommit, err := r.repo.CommitObject(tip)
	if err != nil {
		return false
	}
	targetCommit, err := r.repo.CommitObject(target)
	if err != nil {
		return false
	}

	isAncestor, err := targetCommit.IsAncestor(tipCommit)
	return err == nil && isAncestor
}

func (r *GoGitRepository) NumberOfUncommittedChanges() (int, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return 0, fmt.Errorf("%w: getting worktree: %w", ErrRepository, err)
	}

	status, err := wt.Status()
	if err != nil {
		return 0, fmt.Errorf("%w: getting worktree status: %w", ErrRepository, err)
	}

	count := 0
	for _, s := range status {
		if s.Staging != gogit.Unmodified || s.Worktree != gogit.Unmodified {
			count++
		}
	}
	return count, nil
}

// PeelTagToCommit resolves tag to the commit it ultimately points at.
// Annotated tags may chain through other annotated tags before reaching a
// commit; lightweight tags point at a commit directly.
func (r *GoGitRepository) PeelTagToCommit(tag Tag) (string, error) {
	hash := plumbing.NewHash(tag.TargetSha)

	if tagObj, err := r.repo.TagObject(hash); err == nil {
		commit, err := tagObj.Commit()
		if err != nil {
			return "", fmt.Errorf("%w: peeling annotated tag %s: %w", ErrRepository, tag.Name.Friendly, err)
		}
		return commit.Hash.String(), nil
	}

	if _, err := r.repo.CommitObject(hash); err != nil {
		return "", fmt.Errorf("tag %s does not point to a commit: %w", tag.Name.Friendly, err)
	}
	return tag.TargetSha, nil
}

func (r *GoGitRepository) commitFromHash(hash plumbing.Hash) (Commit, error) {
	c, err := r.repo.CommitObject(hash)
	if err != nil {
		return Commit{}, fmt.Errorf("%w: loading commit %s: %w", ErrRepository, hash.String(), err)
	}
	return convertCommit(c), nil
}

func convertCommit(c *object.Commit) Commit {
	parents := make([]string, 0, c.NumParents())
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return Commit{
		Sha:     c.Hash.String(),
		Parents: parents,
		When:    c.Committer.When,
		Message: c.Message,
	}
}
