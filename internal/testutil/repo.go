// Package testutil builds disposable on-disk git repositories so calculator
// and strategy tests exercise real go-git reads instead of a hand-rolled
// mock of every Repository method.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gogitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TestRepo drives a temporary git repository through the commit, tag, and
// branch operations a version-calculation test needs, advancing a synthetic
// clock so commits sort in creation order regardless of how fast the test
// runs.
type TestRepo struct {
	t    testing.TB
	path string
	repo *gogit.Repository
	now  time.Time
}

// NewTestRepo initializes a fresh repository under t.TempDir().
func NewTestRepo(t testing.TB) *TestRepo {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}

	return &TestRepo{
		t:    t,
		path: dir,
		repo: repo,
		now:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Path returns the repository root directory.
func (r *TestRepo) Path() string { return r.path }

// AddCommit commits a new file named after the commit's timestamp,
// guaranteeing every commit touches something, and returns its SHA.
func (r *TestRepo) AddCommit(message string) string {
	r.t.Helper()
	return r.commit(message, fmt.Sprintf("file-%d.txt", r.tick().Unix()), nil)
}

// MergeCommit commits a merge of the current HEAD with otherSha, recording
// both as parents, and returns the merge commit's SHA.
func (r *TestRepo) MergeCommit(message, otherSha string) string {
	r.t.Helper()
	head, err := r.repo.Head()
	if err != nil {
		r.t.Fatalf("getting HEAD: %v", err)
	}
	parents := []plumbing.Hash{head.Hash(), plumbing.NewHash(otherSha)}
	return r.commit(message, fmt.Sprintf("merge-%d.txt", r.tick().Unix()), parents)
}

// commit stages a single file holding message's content and commits it,
// backing both AddCommit and MergeCommit — they differ only in the parent
// list go-git should record.
func (r *TestRepo) commit(message, filename string, parents []plumbing.Hash) string {
	wt, err := r.repo.Worktree()
	if err != nil {
		r.t.Fatalf("getting worktree: %v", err)
	}

	path := filepath.Join(r.path, filename)
	if err := os.WriteFile(path, []byte(message), 0o644); err != nil {
		r.t.Fatalf("writing file: %v", err)
	}
	if _, err := wt.Add(filename); err != nil {
		r.t.Fatalf("staging file: %v", err)
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author:  r.signatureAt(r.now),
		Parents: parents,
	})
	if err != nil {
		r.t.Fatalf("committing: %v", err)
	}
	return hash.String()
}

// tick advances the synthetic clock by a minute and returns the new time,
// so successive commits never collide on the same filename or timestamp.
func (r *TestRepo) tick() time.Time {
	r.now = r.now.Add(time.Minute)
	return r.now
}

func (r *TestRepo) signatureAt(when time.Time) *object.Signature {
	return &object.Signature{Name: "Test", Email: "test@example.com", When: when}
}

// CreateTag creates a lightweight tag pointing directly at sha.
func (r *TestRepo) CreateTag(name, sha string) {
	r.t.Helper()
	ref := plumbing.NewReferenceFromStrings("refs/tags/"+name, sha)
	if err := r.repo.Storer.SetReference(ref); err != nil {
		r.t.Fatalf("creating tag %s: %v", name, err)
	}
}

// CreateAnnotatedTag creates an annotated tag object pointing at sha.
func (r *TestRepo) CreateAnnotatedTag(name, sha, message string) {
	r.t.Helper()
	r.now = r.now.Add(time.Second)

	_, err := r.repo.CreateTag(name, plumbing.NewHash(sha), &gogit.CreateTagOptions{
		Tagger:  r.signatureAt(r.now),
		Message: message,
	})
	if err != nil {
		r.t.Fatalf("creating annotated tag %s: %v", name, err)
	}
}

// CreateBranch points a new branch ref at sha and registers it in the
// repository's git config, the way an actual `git branch` would, so
// go-git's branch-tracking metadata matches what strategies expect to read.
func (r *TestRepo) CreateBranch(name, sha string) {
	r.t.Helper()

	ref := plumbing.NewReferenceFromStrings("refs/heads/"+name, sha)
	if err := r.repo.Storer.SetReference(ref); err != nil {
		r.t.Fatalf("creating branch %s: %v", name, err)
	}

	cfg, err := r.repo.Config()
	if err != nil {
		r.t.Fatalf("reading config: %v", err)
	}
	cfg.Branches[name] = &gogitconfig.Branch{
		Name:  name,
		Merge: plumbing.ReferenceName("refs/heads/" + name),
	}
	if err := r.repo.SetConfig(cfg); err != nil {
		r.t.Fatalf("saving config: %v", err)
	}
}

// Checkout switches HEAD to branch.
func (r *TestRepo) Checkout(branch string) {
	r.t.Helper()
	wt, err := r.repo.Worktree()
	if err != nil {
		r.t.Fatalf("getting worktree: %v", err)
	}
	if err := wt.Checkout(&gogit.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(branch)}); err != nil {
		r.t.Fatalf("checking out %s: %v", branch, err)
	}
}

// WriteConfig writes content as the repository's verso.yml.
func (r *TestRepo) WriteConfig(content string) {
	r.t.Helper()
	path := filepath.Join(r.path, "verso.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatalf("writing config: %v", err)
	}
}

// WriteConfigAt writes content to relPath under the repository root,
// creating any missing parent directories.
func (r *TestRepo) WriteConfigAt(relPath, content string) {
	r.t.Helper()
	path := filepath.Join(r.path, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatalf("creating config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatalf("writing config: %v", err)
	}
}

// HeadSha returns the current HEAD commit SHA.
func (r *TestRepo) HeadSha() string {
	r.t.Helper()
	head, err := r.repo.Head()
	if err != nil {
		r.t.Fatalf("getting HEAD: %v", err)
	}
	return head.Hash().String()
}
