package formatting

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"confkeeper/internal/template"
	"confkeeper/internal/tree"
	pkgstrings "confkeeper/pkg/strings"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// FormatTree formats a tree as KEY/VALUE rows, one per leaf.
func (f *TableFormatter) FormatTree(t tree.Tree) (string, error) {
	rows := flatten("", t)
	if len(rows) == 0 {
		return f.colorize(text.FgYellow, "No values found") + "\n", nil
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row{f.colorize(text.FgHiCyan, "KEY"), f.colorize(text.FgHiCyan, "VALUE")})
	for _, r := range rows {
		tw.AppendRow(table.Row{f.colorize(text.FgHiCyan, r.key), pkgstrings.Truncate(r.value, pkgstrings.DefaultValueMaxLen)})
	}
	return tw.Render() + "\n", nil
}

// FormatValue formats one value the way it is written to the file.
// Sections are shown as YAML.
func (f *TableFormatter) FormatValue(v any) (string, error) {
	if _, ok := tree.Mapping(v); ok {
		return (&YAMLFormatter{options: f.options}).FormatValue(v)
	}
	return template.Format(v) + "\n", nil
}

func (f *TableFormatter) colorize(color text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return color.Sprint(s)
}

type row struct {
	key   string
	value string
}

func flatten(prefix string, m map[string]any) []row {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows []row
	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if section, ok := tree.Mapping(m[k]); ok && len(section) > 0 {
			rows = append(rows, flatten(key, section)...)
			continue
		}
		rows = append(rows, row{key: key, value: template.Format(m[k])})
	}
	return rows
}
