package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// branchCandidate is one BranchConfig whose regex matched a given branch
// name, carrying enough to break ties between multiple matches.
type branchCandidate struct {
	name     string
	branch   *BranchConfig
	priority int
}

// GetBranchConfiguration finds every BranchConfig whose regex matches
// branchName and returns the one with the highest priority (ties broken by
// config key name, for determinism), along with that key name.
func (cfg *Config) GetBranchConfiguration(branchName string) (*BranchConfig, string, error) {
	candidates, err := cfg.matchingBranchConfigs(branchName)
	if err != nil {
		return nil, "", err
	}
	if len(candidates) == 0 {
		return nil, "", fmt.Errorf("no branch configuration matches %q", branchName)
	}

	best := highestPriority(candidates)
	return best.branch, best.name, nil
}

func (cfg *Config) matchingBranchConfigs(branchName string) ([]branchCandidate, error) {
	var matches []branchCandidate
	for name, branch := range cfg.Branches {
		if branch.Regex == nil {
			continue
		}
		re, err := regexp.Compile(*branch.Regex)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid regex for branch %q: %w", ErrConfiguration, name, err)
		}
		if !re.MatchString(branchName) {
			continue
		}
		priority := 0
		if branch.Priority != nil {
			priority = *branch.Priority
		}
		matches = append(matches, branchCandidate{name: name, branch: branch, priority: priority})
	}
	return matches, nil
}

func highestPriority(candidates []branchCandidate) branchCandidate {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].priority != candidates[j].priority {
			return candidates[i].priority > candidates[j].priority
		}
		return candidates[i].name < candidates[j].name
	})
	return candidates[0]
}

// GetReleaseBranchConfig returns every configured branch flagged
// is-release-branch: true.
func (cfg *Config) GetReleaseBranchConfig() map[string]*BranchConfig {
	result := make(map[string]*BranchConfig)
	for name, branch := range cfg.Branches {
		if branch.IsReleaseBranch != nil && *branch.IsReleaseBranch {
			result[name] = branch
		}
	}
	return result
}

// IsReleaseBranch reports whether branchName matches the regex of any
// configured branch flagged is-release-branch: true.
func (cfg *Config) IsReleaseBranch(branchName string) bool {
	for _, branch := range cfg.GetReleaseBranchConfig() {
		if branch.Regex == nil {
			continue
		}
		if re, err := regexp.Compile(*branch.Regex); err == nil && re.MatchString(branchName) {
			return true
		}
	}
	return false
}

// releaseBranchPrefixes lists the conventional path prefixes stripped from
// a branch name before it's substituted into a {BranchName} tag template,
// so "feature/foo" and "foo" produce the same pre-release label.
var releaseBranchPrefixes = []string{
	"feature/", "features/",
	"hotfix/", "hotfixes/",
	"bugfix/", "bugfixes/",
	"release/", "releases/",
	"support/",
	"pull/", "pull-requests/", "pr/",
}

var disallowedTagChars = regexp.MustCompile(`[^a-zA-Z0-9-]`)

// GetBranchSpecificTag resolves a branch's configured pre-release tag
// template. Templates without {BranchName} are returned unchanged;
// otherwise the branch name has its conventional prefix stripped and any
// character that wouldn't be valid in a SemVer pre-release label replaced
// with a hyphen before substitution.
func GetBranchSpecificTag(branchName, tag string) string {
	if !strings.Contains(tag, "{BranchName}") {
		return tag
	}
	label := disallowedTagChars.ReplaceAllString(withoutReleasePrefix(branchName), "-")
	return strings.ReplaceAll(tag, "{BranchName}", label)
}

func withoutReleasePrefix(name string) string {
	for _, prefix := range releaseBranchPrefixes {
		if strings.HasPrefix(name, prefix) {
			return name[len(prefix):]
		}
	}
	return name
}
