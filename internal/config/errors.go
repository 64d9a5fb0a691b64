package config

import "errors"

// ErrConfiguration wraps fatal configuration problems, among them an
// unreadable or unparsable config file, an invalid tag-prefix or branch
// regex, a branch with no regex, and a malformed NextVersion (reported when
// the ConfigNextVersion strategy runs). Branch fields are not checked
// against each other for contradictions.
var ErrConfiguration = errors.New("invalid configuration")
