package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/versoci/verso/internal/calculator"
	"github.com/versoci/verso/internal/config"
	configctx "github.com/versoci/verso/internal/context"
	"github.com/versoci/verso/internal/git"
	"github.com/versoci/verso/internal/output"
	"github.com/versoci/verso/internal/strategy"

	"github.com/spf13/cobra"
)

// configFileNames lists configuration file candidates in search order: a
// .github/ override is checked before the repository root, matching where
// CI workflow authors conventionally keep generated or checked-in config.
var configFileNames = []string{
	".github/GitVersion.yml",
	".github/verso.yml",
	"GitVersion.yml",
	"verso.yml",
}

func calculateRunE(_ *cobra.Command, _ []string) error {
	repo, err := git.Open(flagPath)
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}

	cfg, err := loadConfig(repo.WorkingDirectory())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if flagShowConfig {
		return showConfig(cfg)
	}

	result, ec, err := calculateVersion(repo, cfg)
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

// calculateVersion builds the version-calculation context for repo under
// cfg and runs every strategy against it, returning the final result
// alongside the effective configuration that produced it (writeOutput and
// the --explain path both need the latter).
func calculateVersion(repo git.Repository, cfg *config.Config) (calculator.VersionResult, config.EffectiveConfiguration, error) {
	store := git.NewRepositoryStore(repo)
	ctx, err := configctx.NewContext(store, repo, cfg, configctx.Options{
		TargetBranch: flagBranch,
		CommitID:     flagCommit,
	})
	if err != nil {
		return calculator.VersionResult{}, config.EffectiveConfiguration{}, fmt.Errorf("building context: %w", err)
	}

	ec, err := ctx.GetEffectiveConfiguration(ctx.CurrentBranch.FriendlyName())
	if err != nil {
		return calculator.VersionResult{}, config.EffectiveConfiguration{}, fmt.Errorf("resolving branch configuration: %w", err)
	}

	calc := calculator.NewNextVersionCalculator(store, strategy.AllStrategies(store))
	result, err := calc.Calculate(ctx, ec, flagExplain)
	if err != nil {
		return calculator.VersionResult{}, config.EffectiveConfiguration{}, fmt.Errorf("calculating version: %w", err)
	}
	return result, ec, nil
}

// loadConfig builds the effective Config by overlaying any file found at
// --config, or failing that the first configFileNames match under workDir,
// onto the built-in defaults.
func loadConfig(workDir string) (*config.Config, error) {
	builder := config.NewBuilder()

	path := flagConfig
	if path == "" {
		path = findConfigFile(workDir)
	}
	if path != "" {
		userCfg, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		builder.Add(userCfg)
	}

	return builder.Build()
}

// findConfigFile returns the first configFileNames entry that exists under
// dir, or "" if none do.
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

// showConfig prints cfg as indented JSON, the --show-config diagnostic path.
func showConfig(cfg *config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// writeOutput renders vars in whichever of --show-variable, --output, or
// the bare key=value default the caller selected.
func writeOutput(vars map[string]string) error {
	w := os.Stdout

	if flagShowVariable != "" {
		return output.WriteVariable(w, vars, flagShowVariable)
	}

	switch flagOutput {
	case "json":
		return output.WriteJSON(w, vars)
	case "":
		return output.WriteAll(w, vars)
	default:
		return fmt.Errorf("unknown output format %q", flagOutput)
	}
}
