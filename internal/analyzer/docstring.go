package analyzer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// ExtractDocstrings returns the docstring of every function and class in the
// file, nested ones included, keyed by name. Nodes are visited breadth-first
// and a later definition with the same name replaces an earlier one.
func ExtractDocstrings(source string) (map[string]string, error) {
	src := []byte(source)
	tree, err := parse(src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	docs := make(map[string]string)
	queue := []*sitter.Node{tree.RootNode()}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		switch n.Type() {
		case "function_definition", "class_definition":
			name := n.ChildByFieldName("name")
			if doc := blockDocstring(n.ChildByFieldName("body"), src); name != nil && doc != nil {
				docs[name.Content(src)] = *doc
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			queue = append(queue, n.NamedChild(i))
		}
	}
	return docs, nil
}

// firstStatement returns the first non-comment statement of a block or module.
func firstStatement(block *sitter.Node) *sitter.Node {
	if block == nil {
		return nil
	}
	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		if child.Type() != "comment" {
			return child
		}
	}
	return nil
}

// blockDocstring applies the docstring rule: the first statement must be a
// bare, plain string literal. Assigned strings, f-strings, byte strings and
// concatenations do not qualify.
func blockDocstring(block *sitter.Node, src []byte) *string {
	stmt := firstStatement(block)
	if stmt == nil || stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
		return nil
	}
	lit := stmt.NamedChild(0)
	if lit.Type() != "string" {
		return nil
	}
	for i := 0; i < int(lit.NamedChildCount()); i++ {
		if lit.NamedChild(i).Type() == "interpolation" {
			return nil
		}
	}
	value, ok := stringValue(lit.Content(src))
	if !ok {
		return nil
	}
	return &value
}

// stringValue decodes a single Python str literal, prefix and quotes
// included. It reports false for byte strings and f-strings.
func stringValue(raw string) (string, bool) {
	prefixLen := strings.IndexAny(raw, `"'`)
	if prefixLen < 0 {
		return "", false
	}
	prefix := strings.ToLower(raw[:prefixLen])
	if strings.ContainsAny(prefix, "bf") {
		return "", false
	}
	body := raw[prefixLen:]

	quote := body[:1]
	if strings.HasPrefix(body, strings.Repeat(quote, 3)) && len(body) >= 6 {
		quote = strings.Repeat(quote, 3)
	}
	if len(body) < 2*len(quote) || !strings.HasSuffix(body, quote) {
		return "", false
	}
	content := body[len(quote) : len(body)-len(quote)]
	if strings.Contains(prefix, "r") {
		return content, true
	}
	return unescape(content), true
}

// unescape resolves Python escape sequences. Unknown escapes keep their
// backslash, as Python does.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch esc := s[i]; esc {
		case '\n':
		case '\\', '\'', '"':
			b.WriteByte(esc)
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[esc]
			if r, ok := hexRune(s, i+1, width); ok {
				b.WriteRune(r)
				i += width
			} else {
				b.WriteByte('\\')
				b.WriteByte(esc)
			}
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			b.WriteRune(rune(v))
			i = j - 1
		default:
			b.WriteByte('\\')
			b.WriteByte(esc)
		}
	}
	return b.String()
}

func hexRune(s string, start, width int) (rune, bool) {
	if start+width > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[start:start+width], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, false
	}
	return rune(v), true
}
