// Package tree holds the structured form of a configuration file.
//
// A Tree is the decoded YAML document: scalars (string, int, float64, bool,
// nil), nested mappings (map[string]any) and arrays ([]any). Arrays are
// opaque; Merge never looks inside them. Key order inside a Tree carries no
// meaning because the layout of any rendered file comes from the template.
package tree
