package calculator

import "errors"

// ErrAmbiguousVersion indicates base version arbitration produced more than
// one equally-ranked candidate with contradictory ShouldIncrement decisions
// after tie-breaking was exhausted. BaseVersionCalculator's tie-break order
// (highest effective version, then oldest source commit) is meant to be
// total, so reaching this path signals a bug in the arbiter rather than a
// problem with the repository or configuration.
var ErrAmbiguousVersion = errors.New("ambiguous version: arbitration did not converge on a single candidate")

// ErrCancelled is returned when a calculation is aborted via context
// cancellation, typically while waiting on a remote repository adapter.
var ErrCancelled = errors.New("version calculation cancelled")
