package strategy

import (
	"fmt"

	"github.com/versoci/verso/internal/config"
	"github.com/versoci/verso/internal/context"
	"github.com/versoci/verso/internal/semver"
)

// ConfigNextVersionStrategy lets a config author pin the next version
// directly (next-version: 3.0.0) rather than relying on tags or commit
// messages. It only applies when HEAD isn't already a tagged release.
type ConfigNextVersionStrategy struct{}

func NewConfigNextVersionStrategy() *ConfigNextVersionStrategy {
	return &ConfigNextVersionStrategy{}
}

func (s *ConfigNextVersionStrategy) Name() string { return "ConfigNextVersion" }

func (s *ConfigNextVersionStrategy) GetBaseVersions(
	ctx *context.GitVersionContext,
	ec config.EffectiveConfiguration,
	explain bool,
) ([]BaseVersion, error) {
	var exp *Explanation
	if explain {
		exp = NewExplanation(s.Name())
	}

	pinned := ec.NextVersion
	switch {
	case pinned == "":
		exp.Add("next-version not configured, skipping")
		return nil, nil
	case ctx.IsCurrentCommitTagged:
		exp.Addf("next-version=%q but current commit is tagged, skipping", pinned)
		return nil, nil
	}

	ver, err := semver.Parse(pinned, "")
	if err != nil {
		return nil, fmt.Errorf("%w: parsing next-version %q: %w", config.ErrConfiguration, pinned, err)
	}
	exp.Addf("next-version=%q parsed as %s", pinned, ver.SemVer())

	return []BaseVersion{{
		Source:          "NextVersion in configuration file",
		ShouldIncrement: false,
		SemanticVersion: ver,
		Explanation:     exp,
	}}, nil
}
