package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// IgnoreConfig excludes commits from base-version discovery: everything
// before a cutoff date, or a fixed list of SHAs, is invisible to the
// strategies that walk commit history.
type IgnoreConfig struct {
	CommitsBefore *time.Time `yaml:"commits-before"`
	Sha           []string   `yaml:"sha"`
}

// IsEmpty returns true when no ignore rules are configured.
func (c IgnoreConfig) IsEmpty() bool {
	return c.CommitsBefore == nil && len(c.Sha) == 0
}

// looseDateLayouts are tried in order when decoding commits-before, from
// most to least specific, so that a bare "2024-01-01" and a full RFC3339
// timestamp both parse without the author choosing a format up front.
var looseDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseLooseDate(s string) (time.Time, error) {
	for _, layout := range looseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q: expected RFC3339 or YYYY-MM-DD", s)
}

// looseDate decodes a YAML scalar through parseLooseDate instead of yaml.v3's
// stricter built-in time handling.
type looseDate time.Time

func (d *looseDate) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	t, err := parseLooseDate(s)
	if err != nil {
		return err
	}
	*d = looseDate(t)
	return nil
}

// UnmarshalYAML routes commits-before through looseDate before copying the
// decoded fields onto c.
func (c *IgnoreConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		CommitsBefore *looseDate `yaml:"commits-before"`
		Sha           []string   `yaml:"sha"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.CommitsBefore != nil {
		t := time.Time(*raw.CommitsBefore)
		c.CommitsBefore = &t
	}
	c.Sha = raw.Sha
	return nil
}
