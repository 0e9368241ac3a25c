package template

import (
	"regexp"
	"strings"
)

// Kind classifies a template line.
type Kind int

const (
	// Raw lines (blank, comment, structural) are emitted verbatim.
	Raw Kind = iota
	// TopKey lines declare a key at column 0.
	TopKey
	// SubKey lines declare an indented key under the preceding TopKey.
	SubKey
	// Block lines belong to the value of the key line before them: block
	// sequence items, block scalar bodies and content nested under a sub-key.
	Block
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Raw:
		return "raw"
	case TopKey:
		return "top-key"
	case SubKey:
		return "sub-key"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// Line is one classified template line.
type Line struct {
	Kind Kind
	// Text is the verbatim line for Raw and Block lines.
	Text string
	// Key is the declared key for TopKey and SubKey lines.
	Key string
	// Indent is the leading whitespace of a SubKey line.
	Indent string
	// Sep is the whitespace between the colon and the value in the template.
	Sep string
	// Value is the template's literal value text on key lines.
	Value string
	// Comment is the trailing comment including the whitespace before '#'.
	Comment string
	// EOL is "\r" for templates with CRLF line endings.
	EOL string
}

var (
	topKeyPattern = regexp.MustCompile(`^([\w-]+):(.*)$`)
	subKeyPattern = regexp.MustCompile(`^(\s+)([\w-]+):(.*)$`)
)

// Scan classifies every line of text. It is pure and deterministic.
//
// A sub-key line that appears before any top-level key has no parent to
// resolve against and is classified as Raw.
func Scan(text string) []Line {
	rawLines := strings.Split(text, "\n")
	lines := make([]Line, 0, len(rawLines))
	seenTopKey := false
	var blk block

	for _, raw := range rawLines {
		body, eol := raw, ""
		if strings.HasSuffix(body, "\r") {
			body, eol = strings.TrimSuffix(body, "\r"), "\r"
		}

		if blk.active {
			if blk.owns(body) {
				lines = append(lines, Line{Kind: Block, Text: raw})
				continue
			}
			if !blk.active {
				releaseTrailingBlanks(lines)
			}
		}

		if m := topKeyPattern.FindStringSubmatch(body); m != nil {
			seenTopKey = true
			sep, value, comment := splitRest(m[2])
			lines = append(lines, Line{Kind: TopKey, Key: m[1], Sep: sep, Value: value, Comment: comment, EOL: eol})
			blk = openBlock(value, 0, true)
			continue
		}

		if m := subKeyPattern.FindStringSubmatch(body); m != nil && seenTopKey {
			sep, value, comment := splitRest(m[3])
			lines = append(lines, Line{Kind: SubKey, Indent: m[1], Key: m[2], Sep: sep, Value: value, Comment: comment, EOL: eol})
			blk = openBlock(value, len(m[1]), false)
			continue
		}

		lines = append(lines, Line{Kind: Raw, Text: raw})
	}

	releaseTrailingBlanks(lines)
	return lines
}

// block tracks the value block opened by a key line with an empty value
// (a sequence or nested content) or a '|' / '>' block scalar header.
type block struct {
	active      bool
	scalar      bool
	top         bool
	ownerIndent int
	itemIndent  int
}

func openBlock(value string, indent int, top bool) block {
	switch {
	case value == "":
		return block{active: true, top: top, ownerIndent: indent, itemIndent: -1}
	case value[0] == '|' || value[0] == '>':
		return block{active: true, scalar: true, top: top, ownerIndent: indent, itemIndent: -1}
	default:
		return block{}
	}
}

// owns reports whether body belongs to the open block. It closes the block
// on the first line that does not; blank and comment lines inside a
// sequence are left to the caller without closing it.
func (b *block) owns(body string) bool {
	trimmed := strings.TrimLeft(body, " \t")
	indent := len(body) - len(trimmed)

	if b.scalar {
		if trimmed == "" || indent > b.ownerIndent {
			return true
		}
		b.active = false
		return false
	}

	if trimmed == "" || trimmed[0] == '#' {
		return false
	}
	if isItem(trimmed) && indent >= b.ownerIndent {
		b.itemIndent = indent
		return true
	}
	if b.itemIndent >= 0 && indent > b.itemIndent {
		return true
	}
	if !b.top && indent > b.ownerIndent {
		return true
	}
	b.active = false
	return false
}

func isItem(trimmed string) bool {
	return trimmed == "-" || strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "-\t")
}

// releaseTrailingBlanks hands blank lines at the end of a block scalar back
// to the surrounding layout.
func releaseTrailingBlanks(lines []Line) {
	for i := len(lines) - 1; i >= 0 && lines[i].Kind == Block; i-- {
		if strings.TrimSpace(lines[i].Text) != "" {
			return
		}
		lines[i].Kind = Raw
	}
}

// splitRest splits the text after a key's colon into the separator, the
// literal value and the trailing comment.
func splitRest(rest string) (sep, value, comment string) {
	start := commentStart(rest)
	if start >= 0 {
		// Pull the whitespace run before '#' into the comment so it round-trips.
		ws := start
		for ws > 0 && isBlank(rest[ws-1]) {
			ws--
		}
		comment = rest[ws:]
		rest = rest[:ws]
	}

	trimmed := strings.TrimLeft(rest, " \t")
	return rest[:len(rest)-len(trimmed)], trimmed, comment
}

// commentStart returns the index of the '#' opening a YAML comment, or -1.
// A '#' only opens a comment at the start or after whitespace, and never
// inside a quoted scalar. Quotes only count when they open the value.
func commentStart(s string) int {
	var quote byte
	inValue := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '#' && (i == 0 || isBlank(s[i-1])):
			return i
		case (c == '\'' || c == '"') && !inValue:
			quote = c
			inValue = true
		case !isBlank(c):
			inValue = true
		}
	}
	return -1
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}
