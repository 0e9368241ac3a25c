package formatting

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"confkeeper/internal/tree"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// FormatTree formats a tree as a block YAML document with sorted keys.
func (f *YAMLFormatter) FormatTree(t tree.Tree) (string, error) {
	if t == nil {
		t = tree.Tree{}
	}
	return f.FormatValue(map[string]any(t))
}

// FormatValue formats any value as YAML.
func (f *YAMLFormatter) FormatValue(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal yaml: %w", err)
	}
	return string(out), nil
}
