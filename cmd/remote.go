package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/versoci/verso/internal/calculator"
	"github.com/versoci/verso/internal/config"
	configctx "github.com/versoci/verso/internal/context"
	"github.com/versoci/verso/internal/git"
	ghprovider "github.com/versoci/verso/internal/github"
	"github.com/versoci/verso/internal/output"
	"github.com/versoci/verso/internal/strategy"

	"github.com/spf13/cobra"
)

var (
	flagToken      string
	flagAppID      int64
	flagAppKeyPath string
	flagGitHubURL  string
	flagRef        string
	flagMaxCommits int
)

var remoteCmd = &cobra.Command{
	Use:   "remote owner/repo",
	Short: "Calculate version from a GitHub repository via API",
	Long: `Calculate the next semantic version by reading git history from the
GitHub API. No local clone is required.

Authentication (checked in order):
  1. --token flag or GITHUB_TOKEN env var
  2. --github-app-id + --github-app-key flags or GH_APP_ID + GH_APP_PRIVATE_KEY env vars

Examples:
  GITHUB_TOKEN=ghp_xxx verso remote myorg/myrepo
  verso remote myorg/myrepo --token ghp_xxx --ref main
  verso remote myorg/myrepo --github-app-id 12345 --github-app-key /path/to/key.pem`,
	Args: cobra.ExactArgs(1),
	RunE: remoteRunE,
}

func init() {
	flags := remoteCmd.Flags()
	flags.StringVar(&flagToken, "token", "", "GitHub token (or set GITHUB_TOKEN env var)")
	flags.Int64Var(&flagAppID, "github-app-id", 0, "GitHub App ID (or set GH_APP_ID env var)")
	flags.StringVar(&flagAppKeyPath, "github-app-key", "", "path to GitHub App private key PEM file (or set GH_APP_PRIVATE_KEY env var)")
	flags.StringVar(&flagGitHubURL, "github-url", "", "GitHub API base URL for GitHub Enterprise (or set GITHUB_API_URL env var)")
	flags.StringVar(&flagRef, "ref", "", "git ref to version: branch, tag, or SHA (default: repo default branch)")
	flags.IntVar(&flagMaxCommits, "max-commits", 1000, "maximum commit depth to walk via API")

	rootCmd.AddCommand(remoteCmd)
}

func remoteRunE(_ *cobra.Command, args []string) error {
	owner, repoName, err := parseOwnerRepo(args[0])
	if err != nil {
		return err
	}

	ghRepo, err := openRemoteRepository(owner, repoName)
	if err != nil {
		return err
	}

	cfg, err := loadRemoteConfig(ghRepo)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if flagShowConfig {
		return showConfig(cfg)
	}

	result, ec, err := calculateVersion(ghRepo, cfg)
	if err != nil {
		return err
	}

	if flagExplain {
		if err := output.WriteExplanation(os.Stderr, result); err != nil {
			return fmt.Errorf("writing explanation: %w", err)
		}
	}

	return writeOutput(output.GetVariables(result.Version, ec))
}

// openRemoteRepository builds a GitHubRepository for owner/repoName,
// authenticating via flagToken or the GitHub App flags and pointing at
// flagGitHubURL when the caller targets GitHub Enterprise.
func openRemoteRepository(owner, repoName string) (*ghprovider.GitHubRepository, error) {
	baseURL := ghprovider.ResolveBaseURL(flagGitHubURL)

	client, err := ghprovider.NewClient(ghprovider.ClientConfig{
		Token:      flagToken,
		AppID:      flagAppID,
		AppKeyPath: flagAppKeyPath,
		BaseURL:    baseURL,
		Owner:      owner,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GitHub client: %w", err)
	}

	var opts []ghprovider.Option
	if flagRef != "" {
		opts = append(opts, ghprovider.WithRef(flagRef))
	}
	if flagMaxCommits > 0 {
		opts = append(opts, ghprovider.WithMaxCommits(flagMaxCommits))
	}
	if baseURL != "" {
		opts = append(opts, ghprovider.WithBaseURL(baseURL))
	}
	return ghprovider.NewGitHubRepository(client, owner, repoName, opts...), nil
}

// parseOwnerRepo splits "owner/repo" into its two parts, rejecting anything
// with more or fewer than one slash or an empty side.
func parseOwnerRepo(s string) (string, string, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format %q, expected owner/repo", s)
	}
	return parts[0], parts[1], nil
}

// loadRemoteConfig prefers an explicit --config file; otherwise it probes
// configFileNames against the remote repository root over the API, using
// the first one that exists.
func loadRemoteConfig(ghRepo *ghprovider.GitHubRepository) (*config.Config, error) {
	builder := config.NewBuilder()

	if flagConfig != "" {
		userCfg, err := config.LoadFromFile(flagConfig)
		if err != nil {
			return nil, err
		}
		builder.Add(userCfg)
		return builder.Build()
	}

	if err := addFirstRemoteConfig(builder, ghRepo); err != nil {
		return nil, err
	}
	return builder.Build()
}

func addFirstRemoteConfig(builder *config.Builder, ghRepo *ghprovider.GitHubRepository) error {
	for _, name := range configFileNames {
		content, err := ghRepo.FetchFileContent(name)
		if err != nil {
			if ghprovider.IsNotFoundError(err) {
				continue
			}
			return fmt.Errorf("fetching remote config %s: %w", name, err)
		}
		userCfg, err := config.LoadFromBytes([]byte(content))
		if err != nil {
			return fmt.Errorf("parsing remote config %s: %w", name, err)
		}
		builder.Add(userCfg)
		return nil
	}
	return nil
}
