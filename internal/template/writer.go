package template

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"confkeeper/internal/tree"
)

// Render walks lines and substitutes values from values, producing the text
// of a configuration file laid out exactly like the template.
//
// A key whose value equals the template's own value keeps the template text,
// block lines included. Otherwise the block lines the key owned are dropped
// and the new value is written in its place.
func Render(lines []Line, values tree.Tree) string {
	out := make([]string, 0, len(lines))
	parent := ""
	keepBlock := false

	for i, line := range lines {
		switch line.Kind {
		case TopKey:
			parent = line.Key
			value, ok := values[line.Key]
			var rendered []string
			rendered, keepBlock = renderKey(lines, i, value, ok)
			out = append(out, rendered...)

		case SubKey:
			keepBlock = false
			section, isMap := tree.Mapping(values[parent])
			if !isMap {
				continue
			}
			value, ok := section[line.Key]
			if !ok {
				continue
			}
			var rendered []string
			rendered, keepBlock = renderKey(lines, i, value, true)
			out = append(out, rendered...)

		case Block:
			if keepBlock {
				out = append(out, line.Text)
			}

		default:
			out = append(out, line.Text)
		}
	}

	return strings.Join(out, "\n")
}

// renderKey renders the key line at lines[i] and reports whether the block
// lines following it are still part of the output.
func renderKey(lines []Line, i int, value any, present bool) ([]string, bool) {
	line := lines[i]
	prefix := line.Indent + line.Key + ":"
	bare := []string{prefix + line.Comment + line.EOL}

	if !present {
		return bare, false
	}
	if literal, ok := literalValue(lines, i); ok && reflect.DeepEqual(literal, value) {
		return []string{prefix + line.Sep + line.Value + line.Comment + line.EOL}, true
	}
	if value == nil {
		return bare, false
	}
	if _, isMap := tree.Mapping(value); isMap && line.Kind == TopKey && hasSubKeys(lines, i) {
		return bare, false
	}
	if items, ok := value.([]any); ok && len(items) > 0 {
		if itemPrefix, ok := sequencePrefix(lines, i); ok {
			out := bare
			for _, item := range items {
				out = append(out, itemPrefix+Format(item)+line.EOL)
			}
			return out, false
		}
	}
	return []string{prefix + separator(line.Sep) + Format(value) + line.Comment + line.EOL}, false
}

// ownedBlock returns the Block lines that follow the key line at lines[i].
func ownedBlock(lines []Line, i int) []Line {
	var owned []Line
	for j := i + 1; j < len(lines); j++ {
		switch lines[j].Kind {
		case TopKey, SubKey:
			return owned
		case Block:
			owned = append(owned, lines[j])
		}
	}
	return owned
}

// literalValue decodes the value the template itself gives the key at lines[i].
func literalValue(lines []Line, i int) (any, bool) {
	line := lines[i]

	var b strings.Builder
	b.WriteString("k:" + line.Sep + line.Value + line.Comment + "\n")
	for _, owned := range ownedBlock(lines, i) {
		b.WriteString(strings.TrimSuffix(owned.Text, "\r") + "\n")
	}

	t, err := tree.Decode(b.String())
	if err != nil {
		return nil, false
	}
	v, ok := t["k"]
	return v, ok
}

func hasSubKeys(lines []Line, i int) bool {
	for j := i + 1; j < len(lines); j++ {
		switch lines[j].Kind {
		case TopKey:
			return false
		case SubKey:
			return true
		}
	}
	return false
}

// sequencePrefix returns the indentation and dash of the template's first
// block sequence item under the key at lines[i].
func sequencePrefix(lines []Line, i int) (string, bool) {
	if lines[i].Value != "" {
		return "", false
	}
	for _, owned := range ownedBlock(lines, i) {
		text := strings.TrimSuffix(owned.Text, "\r")
		trimmed := strings.TrimLeft(text, " \t")
		if !isItem(trimmed) {
			continue
		}
		indent := text[:len(text)-len(trimmed)]
		rest := strings.TrimLeft(trimmed[1:], " \t")
		gap := trimmed[1 : len(trimmed)-len(rest)]
		if gap == "" {
			gap = " "
		}
		return indent + "-" + gap, true
	}
	return "", false
}

func separator(sep string) string {
	if sep == "" {
		return " "
	}
	return sep
}

// Format returns the text written for a value.
//
// Scalars use their natural representation. A string containing '@' is
// single-quoted, since '@' is reserved in YAML, and so is any string that
// would not read back as the same string when written plain. Strings with
// control characters are double-quoted. Arrays and mappings are written as
// YAML flow collections.
func Format(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return formatString(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return formatFloat(v)
	case []any, map[string]any, tree.Tree:
		return formatFlow(v)
	default:
		return fmt.Sprint(v)
	}
}

func formatString(s string) string {
	if strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return strconv.Quote(s)
	}
	if strings.Contains(s, "@") || !plainSafe(s) {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return s
}

// plainSafe reports whether s reads back as the same string when written
// as a plain scalar.
func plainSafe(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	var m map[string]any
	if err := yaml.Unmarshal([]byte("k: "+s), &m); err != nil {
		return false
	}
	got, ok := m["k"].(string)
	return ok && len(m) == 1 && got == s
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

func formatFlow(v any) string {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	node.Style = yaml.FlowStyle

	data, err := yaml.Marshal(&node)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(string(data), "\n")
}
