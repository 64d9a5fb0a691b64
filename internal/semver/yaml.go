package semver

import "gopkg.in/yaml.v3"

// decodeEnumString reads value as a plain YAML string and hands it to
// parse, the common shape behind every enum's UnmarshalYAML below.
func decodeEnumString[T any](value *yaml.Node, parse func(string) (T, error)) (T, error) {
	var s string
	var zero T
	if err := value.Decode(&s); err != nil {
		return zero, err
	}
	return parse(s)
}

func (m *VersioningMode) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := decodeEnumString(value, ParseVersioningMode)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (s *IncrementStrategy) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := decodeEnumString(value, ParseIncrementStrategy)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (m *CommitMessageIncrementMode) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := decodeEnumString(value, ParseCommitMessageIncrementMode)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (c *CommitMessageConvention) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := decodeEnumString(value, ParseCommitMessageConvention)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (m *MainlineIncrementMode) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := decodeEnumString(value, ParseMainlineIncrementMode)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
