package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/versoci/verso/internal/calculator"
	"github.com/versoci/verso/internal/strategy"
)

// strategyDisplayOrder is the fixed order strategies print in, independent
// of evaluation order, so a rerun with the same config always produces the
// same --explain transcript.
var strategyDisplayOrder = []string{
	"ConfigNextVersion",
	"TaggedCommit",
	"MergeMessage",
	"VersionInBranchName",
	"TrackReleaseBranches",
	"Fallback",
}

const stepArrow = "\u2192"

// WriteExplanation renders a full trace of how result was reached: every
// strategy's candidates, which one won, how the increment was chosen, any
// pre-release tag resolution steps, and the final version.
func WriteExplanation(w io.Writer, result calculator.VersionResult) error {
	writeStrategySection(w, groupByStrategy(result.AllCandidates))
	writeSelectedSection(w, result.BaseVersion)
	writeStepSection(w, "Increment", stepsOf(result.IncrementExplanation))
	writeStepSection(w, "Pre-release", result.PreReleaseSteps)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Result: %s\n", result.Version.FullSemVer())
	return nil
}

func groupByStrategy(candidates []strategy.BaseVersion) map[string][]strategy.BaseVersion {
	byStrategy := make(map[string][]strategy.BaseVersion)
	for _, c := range candidates {
		name := ""
		if c.Explanation != nil {
			name = c.Explanation.Strategy
		}
		byStrategy[name] = append(byStrategy[name], c)
	}
	return byStrategy
}

func writeStrategySection(w io.Writer, byStrategy map[string][]strategy.BaseVersion) {
	fmt.Fprintln(w, "Strategies evaluated:")
	for _, name := range strategyDisplayOrder {
		candidates := byStrategy[name]
		if len(candidates) == 0 {
			fmt.Fprintf(w, "  %-22s (none)\n", name+":")
			continue
		}
		for i, c := range candidates {
			label := ""
			if i == 0 {
				label = name + ":"
			}
			fmt.Fprintf(w, "  %-22s %s (source: %s, increment: %t)\n",
				label, c.SemanticVersion.SemVer(), candidateSource(c), c.ShouldIncrement)
			if c.Explanation != nil {
				writeSteps(w, c.Explanation.Steps)
			}
		}
	}
}

func writeSelectedSection(w io.Writer, selected strategy.BaseVersion) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Selected: %s (%s, source: %s)\n",
		selected.Source, selected.SemanticVersion.SemVer(), candidateSource(selected))
}

func writeStepSection(w io.Writer, title string, steps []string) {
	if len(steps) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", title)
	writeSteps(w, steps)
}

func writeSteps(w io.Writer, steps []string) {
	for _, step := range steps {
		fmt.Fprintf(w, "    %s %s\n", stepArrow, step)
	}
}

func candidateSource(c strategy.BaseVersion) string {
	if c.BaseVersionSource != nil {
		return c.BaseVersionSource.ShortSha()
	}
	return "external"
}

func stepsOf(explanation *calculator.IncrementExplanation) []string {
	if explanation == nil {
		return nil
	}
	return explanation.Steps
}

// FormatExplanation renders WriteExplanation's output to a string.
func FormatExplanation(result calculator.VersionResult) string {
	var sb strings.Builder
	_ = WriteExplanation(&sb, result)
	return sb.String()
}
