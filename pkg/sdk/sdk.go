// Package sdk provides a public Go API for calculating semantic versions
// from git history. It supports both local repositories (via go-git) and remote
// GitHub repositories (via the GitHub API).
//
// Basic usage:
//
//	result, err := sdk.Calculate(sdk.LocalOptions{
//	    Path: "/path/to/repo",
//	})
//	fmt.Println(result.Variables["SemVer"]) // "1.2.3"
//
//	result, err := sdk.CalculateRemote(sdk.RemoteOptions{
//	    Owner: "myorg",
//	    Repo:  "myrepo",
//	    Token: os.Getenv("GITHUB_TOKEN"),
//	})
//	fmt.Println(result.Variables["FullSemVer"]) // "1.2.3+5"
package sdk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/versoci/verso/internal/calculator"
	"github.com/versoci/verso/internal/config"
	configctx "github.com/versoci/verso/internal/context"
	"github.com/versoci/verso/internal/git"
	ghprovider "github.com/versoci/verso/internal/github"
	"github.com/versoci/verso/internal/output"
	"github.com/versoci/verso/internal/strategy"
)

// LocalOptions configures version calculation from a local git repository.
type LocalOptions struct {
	// Path to the git repository. Defaults to "." if empty.
	Path string

	// Branch overrides the target branch. Empty means use HEAD.
	Branch string

	// Commit overrides the branch tip with a specific SHA. Empty means use tip.
	Commit string

	// ConfigPath is the path to a verso (or GitVersion-compatible) YAML config file.
	// If empty, auto-detects GitVersion.yml or verso.yml, checking .github/
	// before the repo root.
	ConfigPath string

	// Explain enables explain mode, populating ExplainResult on the returned Result.
	Explain bool
}

// RemoteOptions configures version calculation via the GitHub API.
type RemoteOptions struct {
	// Owner is the GitHub repository owner (required).
	Owner string

	// Repo is the GitHub repository name (required).
	Repo string

	// Token is a GitHub personal access token or GITHUB_TOKEN.
	Token string

	// AppID is the GitHub App ID for app authentication.
	AppID int64

	// AppKeyPath is the path to a GitHub App private key PEM file.
	AppKeyPath string

	// BaseURL is a custom GitHub API base URL for GitHub Enterprise.
	BaseURL string

	// Ref is the git ref to version: branch, tag, or SHA. Defaults to the
	// repository's default branch.
	Ref string

	// MaxCommits is the hard cap on commit walk depth. Defaults to 1000.
	MaxCommits int

	// Branch overrides the target branch for context resolution.
	Branch string

	// Commit overrides the branch tip with a specific SHA.
	Commit string

	// ConfigPath is a local config file path that overrides remote config.
	ConfigPath string

	// RemoteConfigPath is a config file path inside the remote repository,
	// fetched over the API instead of probing the default file names.
	// Ignored when ConfigPath is set.
	RemoteConfigPath string

	// Explain enables explain mode, populating ExplainResult on the returned Result.
	Explain bool
}

// Result holds the calculated version and all output variables.
type Result struct {
	// Variables contains all 30+ output variables keyed by name.
	// Common keys: SemVer, FullSemVer, MajorMinorPatch, Major, Minor, Patch,
	// PreReleaseTag, PreReleaseNumber, CommitsSinceVersionSource, Sha, ShortSha,
	// BranchName, etc.
	Variables map[string]string

	// ExplainResult contains the full explain output. Nil when Explain is false.
	ExplainResult *ExplainResult
}

// ExplainResult holds structured explain data for programmatic consumption.
type ExplainResult struct {
	// Candidates lists all candidate base versions evaluated by strategies.
	Candidates []ExplainCandidate

	// SelectedSource is the human-readable name of the winning strategy.
	SelectedSource string

	// IncrementField is the final step of the increment reasoning chain,
	// e.g. "highest increment: Minor" or "no increment applied".
	IncrementField string

	// IncrementSteps records the reasoning for the increment decision.
	IncrementSteps []string

	// PreReleaseSteps records the reasoning for pre-release tag resolution.
	PreReleaseSteps []string

	// FinalVersion is the fully-qualified version string.
	FinalVersion string

	// FormattedOutput is the human-readable explain text (same as CLI --explain).
	FormattedOutput string
}

// ExplainCandidate describes a single candidate base version from a strategy.
type ExplainCandidate struct {
	// Strategy is the name of the strategy that produced this candidate.
	Strategy string

	// Version is the semantic version string (e.g. "1.2.0").
	Version string

	// Source is the short SHA of the source commit, or "external".
	Source string

	// ShouldIncrement indicates whether this candidate would be incremented.
	ShouldIncrement bool

	// Steps records the reasoning chain for how the strategy derived this version.
	Steps []string
}

// configFileNames lists the files searched for configuration in order: a
// .github/ override is checked before the repository root.
var configFileNames = []string{
	".github/GitVersion.yml",
	".github/verso.yml",
	"GitVersion.yml",
	"verso.yml",
}

// Calculate computes the next semantic version from a local git repository.
func Calculate(opts LocalOptions) (*Result, error) {
	path := opts.Path
	if path == "" {
		path = "."
	}

	repo, err := git.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	cfg, err := loadLocalConfig(opts.ConfigPath, repo.WorkingDirectory())
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	return calculate(repo, cfg, opts.Branch, opts.Commit, opts.Explain)
}

// CalculateRemote computes the next semantic version via the GitHub API.
func CalculateRemote(opts RemoteOptions) (*Result, error) {
	if opts.Owner == "" || opts.Repo == "" {
		return nil, errors.New("owner and repo are required")
	}

	ghRepo, err := openRemoteRepository(opts)
	if err != nil {
		return nil, err
	}

	cfg, err := loadRemoteConfig(opts.ConfigPath, opts.RemoteConfigPath, ghRepo)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	return calculate(ghRepo, cfg, opts.Branch, opts.Commit, opts.Explain)
}

func openRemoteRepository(opts RemoteOptions) (*ghprovider.GitHubRepository, error) {
	client, err := ghprovider.NewClient(ghprovider.ClientConfig{
		Token:      opts.Token,
		AppID:      opts.AppID,
		AppKeyPath: opts.AppKeyPath,
		BaseURL:    opts.BaseURL,
		Owner:      opts.Owner,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GitHub client: %w", err)
	}

	maxCommits := opts.MaxCommits
	if maxCommits <= 0 {
		maxCommits = 1000
	}
	ghOpts := []ghprovider.Option{ghprovider.WithMaxCommits(maxCommits)}
	if opts.Ref != "" {
		ghOpts = append(ghOpts, ghprovider.WithRef(opts.Ref))
	}
	if opts.BaseURL != "" {
		ghOpts = append(ghOpts, ghprovider.WithBaseURL(opts.BaseURL))
	}
	return ghprovider.NewGitHubRepository(client, opts.Owner, opts.Repo, ghOpts...), nil
}

// calculate runs the version-calculation pipeline shared by Calculate and
// CalculateRemote: both land on a git.Repository by the time they call this,
// one backed by an on-disk clone, the other by the GitHub API.
func calculate(repo git.Repository, cfg *config.Config, branch, commit string, explain bool) (*Result, error) {
	store := git.NewRepositoryStore(repo)

	ctx, err := configctx.NewContext(store, repo, cfg, configctx.Options{
		TargetBranch: branch,
		CommitID:     commit,
	})
	if err != nil {
		return nil, fmt.Errorf("building context: %w", err)
	}

	ec, err := ctx.GetEffectiveConfiguration(ctx.CurrentBranch.FriendlyName())
	if err != nil {
		return nil, fmt.Errorf("resolving branch configuration: %w", err)
	}

	calc := calculator.NewNextVersionCalculator(store, strategy.AllStrategies(store))
	result, err := calc.Calculate(ctx, ec, explain)
	if err != nil {
		return nil, fmt.Errorf("calculating version: %w", err)
	}

	r := &Result{Variables: output.GetVariables(result.Version, ec)}
	if explain {
		r.ExplainResult = buildExplainResult(result)
	}
	return r, nil
}

// buildExplainResult maps calculator.VersionResult onto the public
// ExplainResult shape.
func buildExplainResult(result calculator.VersionResult) *ExplainResult {
	er := &ExplainResult{
		SelectedSource:  result.BaseVersion.Source,
		FinalVersion:    result.Version.FullSemVer(),
		PreReleaseSteps: result.PreReleaseSteps,
		FormattedOutput: output.FormatExplanation(result),
	}

	if result.IncrementExplanation != nil {
		steps := result.IncrementExplanation.Steps
		er.IncrementSteps = steps
		if n := len(steps); n > 0 {
			er.IncrementField = steps[n-1]
		}
	}

	for _, c := range result.AllCandidates {
		er.Candidates = append(er.Candidates, explainCandidateFrom(c))
	}
	return er
}

func explainCandidateFrom(c strategy.BaseVersion) ExplainCandidate {
	ec := ExplainCandidate{
		Version:         c.SemanticVersion.SemVer(),
		ShouldIncrement: c.ShouldIncrement,
		Source:          "external",
	}
	if c.BaseVersionSource != nil {
		ec.Source = c.BaseVersionSource.ShortSha()
	}
	if c.Explanation != nil {
		ec.Strategy = c.Explanation.Strategy
		ec.Steps = c.Explanation.Steps
	}
	return ec
}

// loadLocalConfig loads configuration from configPath, or failing that the
// first configFileNames match under workDir.
func loadLocalConfig(configPath, workDir string) (*config.Config, error) {
	builder := config.NewBuilder()

	if configPath == "" {
		configPath = findConfigFile(workDir)
	}
	if configPath != "" {
		userCfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		builder.Add(userCfg)
	}

	return builder.Build()
}

func findConfigFile(dir string) string {
	for _, name := range configFileNames {
		if path := filepath.Join(dir, name); fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// loadRemoteConfig prefers configPath when set; otherwise it fetches
// remoteConfigPath, or probes configFileNames, in the remote repository over
// the API.
func loadRemoteConfig(configPath, remoteConfigPath string, ghRepo *ghprovider.GitHubRepository) (*config.Config, error) {
	builder := config.NewBuilder()

	if configPath != "" {
		userCfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		builder.Add(userCfg)
		return builder.Build()
	}

	names := configFileNames
	if remoteConfigPath != "" {
		names = []string{remoteConfigPath}
	}
	for _, name := range names {
		content, err := ghRepo.FetchFileContent(name)
		if err != nil {
			if ghprovider.IsNotFoundError(err) {
				continue
			}
			return nil, fmt.Errorf("fetching remote config %s: %w", name, err)
		}
		userCfg, err := config.LoadFromBytes([]byte(content))
		if err != nil {
			return nil, fmt.Errorf("parsing remote config %s: %w", name, err)
		}
		builder.Add(userCfg)
		break
	}

	return builder.Build()
}
