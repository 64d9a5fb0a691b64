package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/versoci/verso/internal/config"
)

// ClientConfig holds the configuration for creating a GitHub API client.
type ClientConfig struct {
	// Token is a GitHub personal access token or GITHUB_TOKEN.
	// Falls back to GITHUB_TOKEN env var if empty.
	Token string

	// AppID is the GitHub App ID for app authentication.
	// Falls back to GH_APP_ID env var if zero.
	AppID int64

	// AppKeyPath is the path to a GitHub App private key PEM file.
	// Falls back to GH_APP_PRIVATE_KEY env var if empty.
	AppKeyPath string

	// BaseURL is a custom GitHub API base URL for GitHub Enterprise.
	// Falls back to GITHUB_API_URL env var if empty.
	BaseURL string

	// Owner is the repository owner, used for auto-detecting the app installation.
	Owner string
}

// NewClient creates an authenticated GitHub API client.
// Auth resolution order: Token flag → GITHUB_TOKEN env → App credentials → error.
func NewClient(cfg ClientConfig) (*gh.Client, error) {
	baseURL := resolveString(cfg.BaseURL, "GITHUB_API_URL")

	if token := resolveString(cfg.Token, "GITHUB_TOKEN"); token != "" {
		return tokenClient(token, baseURL)
	}

	appID := resolveAppID(cfg.AppID)
	appKey := resolveString(cfg.AppKeyPath, "GH_APP_PRIVATE_KEY")
	if appID != 0 && appKey != "" {
		return appInstallationClient(appID, appKey, cfg.Owner, baseURL)
	}

	return nil, fmt.Errorf("%w: no GitHub authentication provided: set GITHUB_TOKEN, use --token, or provide --github-app-id and --github-app-key", config.ErrConfiguration)
}

func resolveAppID(flagValue int64) int64 {
	if flagValue != 0 {
		return flagValue
	}
	s := os.Getenv("GH_APP_ID")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func tokenClient(token, baseURL string) (*gh.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	return withEnterpriseURL(gh.NewClient(httpClient), baseURL)
}

// appInstallationClient authenticates as a GitHub App: an app-level
// transport first, just to look up the target owner's installation ID,
// then a second, installation-scoped transport the returned client
// actually uses.
func appInstallationClient(appID int64, keyPath, owner, baseURL string) (*gh.Client, error) {
	appTransport, err := ghinstallation.NewAppsTransportKeyFromFile(http.DefaultTransport, appID, keyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: creating GitHub App transport: %w", config.ErrConfiguration, err)
	}
	if baseURL != "" {
		appTransport.BaseURL = baseURL
	}

	appClient, err := withEnterpriseURL(gh.NewClient(&http.Client{Transport: appTransport}), baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: setting enterprise URL: %w", config.ErrConfiguration, err)
	}

	installationID, err := findInstallation(appClient, owner)
	if err != nil {
		return nil, err
	}

	installTransport, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, appID, installationID, keyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: creating installation transport: %w", config.ErrConfiguration, err)
	}
	if baseURL != "" {
		installTransport.BaseURL = baseURL
	}

	return withEnterpriseURL(gh.NewClient(&http.Client{Transport: installTransport}), baseURL)
}

func withEnterpriseURL(client *gh.Client, baseURL string) (*gh.Client, error) {
	if baseURL == "" {
		return client, nil
	}
	return client.WithEnterpriseURLs(baseURL, baseURL)
}

// findInstallation finds the GitHub App installation for the given owner.
func findInstallation(client *gh.Client, owner string) (int64, error) {
	ctx := context.Background()
	opts := &gh.ListOptions{PerPage: 100}

	for {
		installations, resp, err := client.Apps.ListInstallations(ctx, opts)
		if err != nil {
			return 0, fmt.Errorf("listing GitHub App installations: %w", err)
		}

		for _, inst := range installations {
			if inst.GetAccount().GetLogin() == owner {
				return inst.GetID(), nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return 0, fmt.Errorf("no GitHub App installation found for owner %q", owner)
}

// IsNotFoundError returns true if the error represents an HTTP 404 response
// from the GitHub API. Used to distinguish "file not found" from auth failures,
// rate limits, and other errors that should not be silently ignored.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		return ghErr.Response != nil && ghErr.Response.StatusCode == 404
	}
	return false
}

// resolveString returns the flag value if non-empty, otherwise the env var value.
func resolveString(flag, envKey string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(envKey)
}

// ResolveBaseURL resolves the GitHub API base URL from the flag value or
// the GITHUB_API_URL environment variable. Returns empty string for github.com.
func ResolveBaseURL(flagValue string) string {
	return resolveString(flagValue, "GITHUB_API_URL")
}
