package git

import "errors"

// ErrNoCommits indicates the repository has zero commits reachable from
// the commit being versioned. Fatal — there is no history to calculate from.
var ErrNoCommits = errors.New("no commits reachable from the current branch")

// ErrRepository wraps adapter-reported I/O or corruption errors so callers
// can distinguish them from configuration or calculation-logic failures.
var ErrRepository = errors.New("repository error")
