package docgen

import (
	"regexp"
	"strings"

	"documind/internal/analyzer"
)

var (
	fenceRe      = regexp.MustCompile("(?s)^```[\\w-]*\\s*\\n(.*?)\\n?```$")
	blankRunRe   = regexp.MustCompile(`\n[ \t]*\n([ \t]*\n)+`)
	quoteEdgesRe = regexp.MustCompile(`^[rRuU]?("""|''')|("""|''')$`)
)

// cleanOutput strips what models tend to wrap a docstring in: code fences
// and triple quotes.
func cleanOutput(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	text = quoteEdgesRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// stripDocstrings removes the existing docstring of def and of its methods
// from its source, so the model is not steered by stale text. Code sharing a
// line with a docstring is kept. A body left empty gets a `pass` statement.
// Runs of blank lines are collapsed and the result is dedented.
func stripDocstrings(source string, def analyzer.Definition) string {
	lines := strings.Split(source, "\n")
	offset := def.StartLine - 1

	// Removing from the bottom up keeps the earlier line numbers valid.
	spans := append([]analyzer.Definition{def}, def.Methods...)
	for i := len(spans) - 1; i >= 0; i-- {
		d := spans[i]
		if d.Docstring == nil {
			continue
		}
		start, end := d.Docstring.StartLine-1-offset, d.Docstring.EndLine-offset
		if start < 0 || end > len(lines) || d.BodyColumn > len(lines[start]) {
			continue
		}
		prefix := lines[start][:d.BodyColumn]
		tail := docstringTail(lines[end-1], d.Docstring.EndColumn)

		var replacement []string
		switch {
		case tail != "" && !strings.HasPrefix(tail, "#"):
			replacement = []string{prefix + tail}
		case d.Docstring.EndLine == d.EndLine:
			line := prefix + "pass"
			if tail != "" {
				line += "  " + tail
			}
			replacement = []string{line}
		}
		lines = append(lines[:start], append(replacement, lines[end:]...)...)
	}

	out := strings.Join(lines, "\n")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return analyzer.Dedent(strings.Trim(out, "\n"))
}

// InsertDocstring returns snippet with docstring placed as the first
// statement of its first function or class, replacing any docstring already
// there. The snippet may be indented as a whole.
func InsertDocstring(snippet, docstring string) (string, error) {
	indent := analyzer.CommonIndent(snippet)
	src := analyzer.Dedent(snippet)

	defs, err := analyzer.Outline(src)
	if err != nil {
		return "", err
	}
	if len(defs) == 0 {
		return "", ErrNoDefinition
	}
	def := defs[0]
	if def.BodyLine == 0 {
		return "", ErrNoDefinition
	}

	lines := strings.Split(src, "\n")
	bodyLine := lines[def.BodyLine-1]
	head := bodyLine[:def.BodyColumn]

	var out []string
	switch {
	case def.Docstring != nil && strings.TrimSpace(head) == "":
		out = append(out, lines[:def.Docstring.StartLine-1]...)
		out = append(out, quoteDocstring(docstring, head)...)
		if tail := docstringTail(lines[def.Docstring.EndLine-1], def.Docstring.EndColumn); tail != "" {
			out = append(out, head+tail)
		}
		out = append(out, lines[def.Docstring.EndLine:]...)
	case strings.TrimSpace(head) == "":
		doc := quoteDocstring(docstring, head)
		out = append(out, lines[:def.BodyLine-1]...)
		out = append(out, doc...)
		out = append(out, lines[def.BodyLine-1:]...)
	default:
		// Body on the header line: move it below the docstring.
		defLine := lines[def.Line-1]
		bodyIndent := defLine[:len(defLine)-len(strings.TrimLeft(defLine, " \t"))] + "    "
		tail, after := bodyLine[def.BodyColumn:], def.BodyLine
		if def.Docstring != nil {
			tail = docstringTail(lines[def.Docstring.EndLine-1], def.Docstring.EndColumn)
			after = def.Docstring.EndLine
		}
		out = append(out, lines[:def.BodyLine-1]...)
		out = append(out, strings.TrimRight(head, " \t"))
		out = append(out, quoteDocstring(docstring, bodyIndent)...)
		if tail != "" {
			out = append(out, bodyIndent+tail)
		}
		out = append(out, lines[after:]...)
	}

	return analyzer.Indent(strings.Join(out, "\n"), indent), nil
}

// docstringTail returns the code following a docstring on its last line,
// without the separating semicolon.
func docstringTail(line string, column int) string {
	if column >= len(line) {
		return ""
	}
	rest := strings.TrimSpace(line[column:])
	return strings.TrimSpace(strings.TrimPrefix(rest, ";"))
}

// quoteDocstring renders docstring as triple-quoted lines at indent.
func quoteDocstring(docstring, indent string) []string {
	text := strings.ReplaceAll(strings.TrimSpace(docstring), `"""`, `\"\"\"`)
	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		return []string{indent + `"""` + lines[0] + `"""`}
	}
	lines = append(lines[:1], strings.Split(analyzer.Dedent(strings.Join(lines[1:], "\n")), "\n")...)
	out := []string{indent + `"""` + lines[0]}
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) == "" {
			out = append(out, "")
			continue
		}
		out = append(out, indent+strings.TrimRight(l, " \t"))
	}
	return append(out, indent+`"""`)
}
