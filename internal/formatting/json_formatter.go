package formatting

import (
	"encoding/json"
	"fmt"

	"confkeeper/internal/tree"
)

// JSONFormatter provides JSON output formatting
type JSONFormatter struct {
	options Options
}

// FormatTree formats a tree as an indented JSON object.
func (f *JSONFormatter) FormatTree(t tree.Tree) (string, error) {
	if t == nil {
		t = tree.Tree{}
	}
	return f.FormatValue(map[string]any(t))
}

// FormatValue formats any value as indented JSON.
func (f *JSONFormatter) FormatValue(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal json: %w", err)
	}
	return string(b) + "\n", nil
}
