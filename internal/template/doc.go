// Package template scans a default configuration template into classified
// lines and renders value trees back through that layout.
//
// The template is the authoritative layout of every file the engine writes:
// line order, blank lines, comment lines and inline comments all come from
// the template, values come from the tree. Only the two-level shape is
// understood:
//
//	# comment lines and blank lines are copied verbatim
//	name: demo            # top-level key with a scalar
//	server:               # top-level key with a mapping
//	  host: localhost     # indented sub-key
//	  port: 8090
//
// A sub-key the tree does not define is dropped from the output. Scalars are
// written in their natural text form; a value containing '@' is single-quoted.
package template
