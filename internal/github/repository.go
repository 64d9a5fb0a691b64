package github

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/versoci/verso/internal/calculator"
	"github.com/versoci/verso/internal/git"

	gh "github.com/google/go-github/v68/github"
)

// shaPattern recognizes a full 40-character hex commit SHA, the one thing
// that tells a ref string apart from a branch or tag name everywhere a ref
// is accepted (WithRef, Head).
var shaPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// describeFailure turns a raw API error into one that distinguishes a
// cancelled request from an ordinary failure, so callers can tell the two
// apart with errors.Is against calculator.ErrCancelled or git.ErrRepository.
func describeFailure(ctx context.Context, action string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w: %w", action, calculator.ErrCancelled, ctx.Err())
	}
	return fmt.Errorf("%s: %w: %w", action, git.ErrRepository, err)
}

var _ git.Repository = (*GitHubRepository)(nil)

const defaultCommitBudget = 1000

// GitHubRepository satisfies git.Repository entirely through GitHub's REST
// and GraphQL APIs, for version calculation runs that have no local clone to
// read — a CI check on a PR from a fork, or a bot reacting to a webhook.
type GitHubRepository struct {
	client  *gh.Client
	owner   string
	repo    string
	ref     string // target ref: branch name, tag, or full SHA
	baseURL string // overrides the GraphQL endpoint in tests and for GHE
	budget  int    // hard cap on how many commits a single walk will fetch
	cache   *apiCache
	ctx     context.Context

	// versionTagSHAs records every commit SHA a tag resolves to, populated
	// by Tags() so CommitLog's paginated walk knows where it's safe to
	// stop early.
	versionTagSHAs map[string]bool
}

// Option configures a GitHubRepository at construction time.
type Option func(*GitHubRepository)

// WithRef pins the ref HEAD resolves to: a branch name, a tag, or a SHA.
func WithRef(ref string) Option {
	return func(r *GitHubRepository) { r.ref = ref }
}

// WithMaxCommits overrides the default commit walk budget.
func WithMaxCommits(n int) Option {
	return func(r *GitHubRepository) { r.budget = n }
}

// WithBaseURL points the GraphQL client at a GitHub Enterprise instance
// (or, in tests, a local httptest server) instead of github.com.
func WithBaseURL(url string) Option {
	return func(r *GitHubRepository) { r.baseURL = url }
}

// NewGitHubRepository builds a GitHubRepository for owner/repo using client
// for REST calls.
func NewGitHubRepository(client *gh.Client, owner, repo string, opts ...Option) *GitHubRepository {
	r := &GitHubRepository{
		client:         client,
		owner:          owner,
		repo:           repo,
		budget:         defaultCommitBudget,
		cache:          newCache(),
		versionTagSHAs: make(map[string]bool),
		ctx:            context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *GitHubRepository) Path() string { return fmt.Sprintf("github.com/%s/%s", r.owner, r.repo) }

func (r *GitHubRepository) WorkingDirectory() string { return "" }

func (r *GitHubRepository) IsHeadDetached() bool { return shaPattern.MatchString(r.ref) }

func (r *GitHubRepository) Head() (git.Branch, error) {
	if branch, ok := r.cache.getHead(); ok {
		return *branch, nil
	}

	ref := r.ref
	if ref == "" {
		info, _, err := r.client.Repositories.Get(r.ctx, r.owner, r.repo)
		if err != nil {
			return git.Branch{}, describeFailure(r.ctx, "getting repository info", err)
		}
		ref = info.GetDefaultBranch()
	}

	if shaPattern.MatchString(ref) {
		return r.detachedHeadAt(ref)
	}
	return r.branchHead(ref)
}

func (r *GitHubRepository) detachedHeadAt(sha string) (git.Branch, error) {
	commit, err := r.CommitFromSha(sha)
	if err != nil {
		return git.Branch{}, describeFailure(r.ctx, "getting HEAD commit", err)
	}
	branch := git.Branch{
		Name:           git.NewReferenceName("HEAD"),
		Tip:            &commit,
		IsDetachedHead: true,
	}
	r.cache.putHead(branch)
	return branch, nil
}

func (r *GitHubRepository) branchHead(name string) (git.Branch, error) {
	ghBranch, _, err := r.client.Repositories.GetBranch(r.ctx, r.owner, r.repo, name, 0)
	if err != nil {
		return git.Branch{}, describeFailure(r.ctx, fmt.Sprintf("getting branch %s", name), err)
	}

	tip := convertGitHubRepoCommit(ghBranch.GetCommit())
	r.cache.putCommit(tip)

	branch := git.Branch{
		Name: git.NewBranchReferenceName(name),
		Tip:  &tip,
	}
	r.cache.putHead(branch)
	return branch, nil
}

func (r *GitHubRepository) Branches(_ ...git.PathFilter) ([]git.Branch, error) {
	if branches, ok := r.cache.getBranches(); ok {
		return branches, nil
	}

	branches, err := r.fetchAllBranchesGraphQL()
	if err != nil {
		return nil, err
	}

	r.cache.putBranches(branches)
	return branches, nil
}

func (r *GitHubRepository) Tags(_ ...git.PathFilter) ([]git.Tag, error) {
	if tags, ok := r.cache.getTags(); ok {
		return tags, nil
	}

	tags, err := r.fetchAllTagsGraphQL()
	if err != nil {
		return nil, err
	}
	r.rememberTaggedCommits(tags)

	r.cache.putTags(tags)
	return tags, nil
}

// rememberTaggedCommits records, for every tag already peeled by the
// GraphQL fetch, which commit it resolves to — the paginated commit walk
// uses this set to know it can stop once every reachable release is behind
// it.
func (r *GitHubRepository) rememberTaggedCommits(tags []git.Tag) {
	for _, tag := range tags {
		if sha, ok := r.cache.getTagPeel(tag.TargetSha); ok {
			r.versionTagSHAs[sha] = true
		}
	}
}

func (r *GitHubRepository) CommitFromSha(sha string) (git.Commit, error) {
	if commit, ok := r.cache.getCommit(sha); ok {
		return commit, nil
	}

	ghCommit, _, err := r.client.Repositories.GetCommit(r.ctx, r.owner, r.repo, sha, nil)
	if err != nil {
		return git.Commit{}, describeFailure(r.ctx, fmt.Sprintf("getting commit %s", sha), err)
	}

	commit := convertGitHubRepoCommit(ghCommit)
	r.cache.putCommit(commit)
	return commit, nil
}

// CommitLog answers a bounded range (from set) with the compare API, which
// is one call instead of N pages, falling back to the paginated walk when
// compare can't (it caps out at 250 commits). An unbounded request (from
// empty) always needs the paginated walk, since compare has nothing to pin
// the other end to.
func (r *GitHubRepository) CommitLog(from, to string, filters ...git.PathFilter) ([]git.Commit, error) {
	key := commitLogKey(from, to, filters...)
	if log, ok := r.cache.getCommitLog(key); ok {
		return log, nil
	}

	commits, err := r.commitsBetween(from, to, filters...)
	if err != nil {
		return nil, err
	}

	r.cache.putCommitLog(key, commits)
	return commits, nil
}

func (r *GitHubRepository) commitsBetween(from, to string, filters ...git.PathFilter) ([]git.Commit, error) {
	if from == "" {
		return r.walkCommitPages(from, to, filters...)
	}
	if commits, err := r.compareCommitRange(from, to); err == nil {
		return commits, nil
	}
	return r.walkCommitPages(from, to, filters...)
}

// compareCommitRange resolves from..to with a single compare call. It
// fails (deliberately, so the caller falls back) when the range holds more
// commits than the API will return in one response.
func (r *GitHubRepository) compareCommitRange(from, to string) ([]git.Commit, error) {
	comparison, _, err := r.client.Repositories.CompareCommits(r.ctx, r.owner, r.repo, from, to, nil)
	if err != nil {
		return nil, describeFailure(r.ctx, "comparing commits", err)
	}
	if comparison.GetTotalCommits() > len(comparison.Commits) {
		return nil, fmt.Errorf("compare API returned partial results (%d/%d commits)", len(comparison.Commits), comparison.GetTotalCommits())
	}

	// The compare API orders oldest-first; every other commit source in
	// this package returns newest-first, so reverse it on the way out.
	commits := make([]git.Commit, 0, len(comparison.Commits))
	for i := len(comparison.Commits) - 1; i >= 0; i-- {
		commit := convertGitHubRepoCommit(comparison.Commits[i])
		r.cache.putCommit(commit)
		commits = append(commits, commit)
	}
	return commits, nil
}

// walkCommitPages lists commits page by page from to backwards, stopping
// at from (exclusive) if given. Without a from boundary it still needs a
// stopping rule: once a tagged commit has been seen, one further page is
// fetched as a buffer and then the walk gives up, on the assumption that
// nothing past the most recent release matters to a version calculation.
// A hard budget caps runaway walks against repositories with no tags at
// all.
func (r *GitHubRepository) walkCommitPages(from, to string, filters ...git.PathFilter) ([]git.Commit, error) {
	opts := &gh.CommitsListOptions{
		SHA:         to,
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	for _, f := range filters {
		if f != "" {
			opts.Path = string(f) // GitHub's list-commits API takes at most one path filter.
			break
		}
	}

	var commits []git.Commit
	pagesSinceTag := -1

	for {
		ghCommits, resp, err := r.client.Repositories.ListCommits(r.ctx, r.owner, r.repo, opts)
		if err != nil {
			return nil, describeFailure(r.ctx, "listing commits", err)
		}

		reachedBoundary := false
		for _, ghCommit := range ghCommits {
			sha := ghCommit.GetSHA()
			if from != "" && sha == from {
				reachedBoundary = true
				break
			}

			commit := convertGitHubRepoCommit(ghCommit)
			r.cache.putCommit(commit)
			commits = append(commits, commit)

			if pagesSinceTag < 0 && r.versionTagSHAs[sha] {
				pagesSinceTag = 0
			}
		}

		if reachedBoundary || len(commits) >= r.budget {
			break
		}
		if pagesSinceTag >= 0 {
			pagesSinceTag++
			if pagesSinceTag > 1 {
				break
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return commits, nil
}

// MainlineCommitLog reconstructs the first-parent chain from to back to
// from by fetching the full log once and then following Parents[0] links
// in memory, since the REST commit-list API has no mode for "first parent
// only."
func (r *GitHubRepository) MainlineCommitLog(from, to string, filters ...git.PathFilter) ([]git.Commit, error) {
	all, err := r.CommitLog(from, to, filters...)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}

	bySha := make(map[string]git.Commit, len(all))
	for _, c := range all {
		bySha[c.Sha] = c
	}

	var mainline []git.Commit
	current := all[0]
	for {
		mainline = append(mainline, current)
		if len(current.Parents) == 0 {
			break
		}
		firstParent := current.Parents[0]
		if from != "" && firstParent == from {
			break
		}
		next, ok := bySha[firstParent]
		if !ok {
			break
		}
		current = next
	}
	return mainline, nil
}

func (r *GitHubRepository) BranchCommits(branch git.Branch, filters ...git.PathFilter) ([]git.Commit, error) {
	if branch.Tip == nil {
		return nil, nil
	}
	return r.CommitLog("", branch.Tip.Sha, filters...)
}

func (r *GitHubRepository) CommitsPriorTo(olderThan time.Time, branch git.Branch) ([]git.Commit, error) {
	if branch.Tip == nil {
		return nil, nil
	}

	opts := &gh.CommitsListOptions{
		SHA:         branch.Tip.Sha,
		Until:       olderThan,
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var commits []git.Commit
	for {
		ghCommits, resp, err := r.client.Repositories.ListCommits(r.ctx, r.owner, r.repo, opts)
		if err != nil {
			return nil, describeFailure(r.ctx, fmt.Sprintf("listing commits prior to %s", olderThan), err)
		}
		for _, ghCommit := range ghCommits {
			commit := convertGitHubRepoCommit(ghCommit)
			r.cache.putCommit(commit)
			commits = append(commits, commit)
		}
		if len(commits) >= r.budget || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return commits, nil
}

func (r *GitHubRepository) FindMergeBase(sha1, sha2 string) (string, error) {
	if base, ok := r.cache.getMergeBase(sha1, sha2); ok {
		return base, nil
	}

	comparison, _, err := r.client.Repositories.CompareCommits(r.ctx, r.owner, r.repo, sha1, sha2, nil)
	if err != nil {
		return "", describeFailure(r.ctx, "comparing commits for merge base", err)
	}

	base := ""
	if comparison.MergeBaseCommit != nil {
		base = comparison.MergeBaseCommit.GetSHA()
	}
	r.cache.putMergeBase(sha1, sha2, base)
	return base, nil
}

func (r *GitHubRepository) BranchesContainingCommit(sha string) ([]git.Branch, error) {
	branches, err := r.Branches()
	if err != nil {
		return nil, err
	}

	var result []git.Branch
	for _, b := range branches {
		if b.Tip == nil {
			continue
		}
		if b.Tip.Sha == sha || r.branchDescendsFrom(sha, b.Tip.Sha) {
			result = append(result, b)
		}
	}
	return result, nil
}

// branchDescendsFrom reports whether tip's history includes sha, using the
// compare API's ahead/identical status rather than walking commits
// ourselves. A compare failure (e.g. an unrelated history) is treated as
// "no", not an error — callers are scanning every branch and one bad
// comparison shouldn't fail the whole scan.
func (r *GitHubRepository) branchDescendsFrom(sha, tip string) bool {
	comparison, _, err := r.client.Repositories.CompareCommits(r.ctx, r.owner, r.repo, sha, tip, nil)
	if err != nil {
		return false
	}
	status := comparison.GetStatus()
	return status == "ahead" || status == "identical"
}

func (r *GitHubRepository) NumberOfUncommittedChanges() (int, error) {
	// No working tree exists behind a GitHub API view of a repository.
	return 0, nil
}

func (r *GitHubRepository) PeelTagToCommit(tag git.Tag) (string, error) {
	if sha, ok := r.cache.getTagPeel(tag.TargetSha); ok {
		return sha, nil
	}

	if tagObj, _, err := r.client.Git.GetTag(r.ctx, r.owner, r.repo, tag.TargetSha); err == nil && tagObj.GetObject() != nil {
		sha := tagObj.GetObject().GetSHA()
		r.cache.putTagPeel(tag.TargetSha, sha)
		return sha, nil
	}

	// Not an annotated tag object: a lightweight tag points at the commit directly.
	r.cache.putTagPeel(tag.TargetSha, tag.TargetSha)
	return tag.TargetSha, nil
}

// FetchFileContent loads path's content from the repository at r.ref (or
// the default branch if unset), the mechanism the config loader uses to
// resolve a configuration file that lives in the repository being
// versioned rather than on the caller's local disk.
func (r *GitHubRepository) FetchFileContent(path string) (string, error) {
	opts := &gh.RepositoryContentGetOptions{}
	if r.ref != "" {
		opts.Ref = r.ref
	}

	content, _, _, err := r.client.Repositories.GetContents(r.ctx, r.owner, r.repo, path, opts)
	if err != nil {
		return "", describeFailure(r.ctx, fmt.Sprintf("fetching file %s", path), err)
	}
	if content == nil {
		return "", fmt.Errorf("%w: file %s not found", git.ErrRepository, path)
	}

	decoded, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding file content: %w", err)
	}
	return decoded, nil
}

// convertGitHubRepoCommit adapts a REST RepositoryCommit (returned by both
// the single-commit and list-commits endpoints) to the package-neutral
// git.Commit every Repository implementation returns.
func convertGitHubRepoCommit(ghCommit *gh.RepositoryCommit) git.Commit {
	if ghCommit == nil {
		return git.Commit{}
	}

	parents := make([]string, 0, len(ghCommit.Parents))
	for _, p := range ghCommit.Parents {
		parents = append(parents, p.GetSHA())
	}

	var when time.Time
	var message string
	if ghCommit.Commit != nil {
		if ghCommit.Commit.Committer != nil && ghCommit.Commit.Committer.Date != nil {
			when = ghCommit.Commit.Committer.Date.Time
		}
		message = ghCommit.Commit.GetMessage()
	}

	return git.Commit{
		Sha:     ghCommit.GetSHA(),
		Parents: parents,
		When:    when,
		Message: message,
	}
}
