package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// DefinitionKind tells functions and classes apart in an outline.
type DefinitionKind string

const (
	FunctionDefinition DefinitionKind = "function"
	ClassDefinition    DefinitionKind = "class"
)

// Span is an inclusive 1-based line range. EndColumn is the 0-based byte
// column just past the spanned code on EndLine.
type Span struct {
	StartLine int
	EndLine   int
	EndColumn int
}

// Definition locates a top-level function or class, or a method, in the
// source text. StartLine includes decorators; Line is the def/class line.
// BodyLine and BodyColumn (0-based, in bytes) point at the first statement
// of the body.
type Definition struct {
	Kind       DefinitionKind
	Name       string
	StartLine  int
	Line       int
	EndLine    int
	BodyLine   int
	BodyColumn int
	Docstring  *Span
	Methods    []Definition
}

// Lines returns the source lines the definition covers, decorators included.
func (d Definition) Lines(source string) []string {
	lines := strings.Split(source, "\n")
	if d.StartLine < 1 || d.EndLine > len(lines) || d.StartLine > d.EndLine {
		return nil
	}
	return lines[d.StartLine-1 : d.EndLine]
}

// Source returns the text of the definition, decorators included.
func (d Definition) Source(source string) string {
	return strings.Join(d.Lines(source), "\n")
}

// Outline lists the top-level functions and classes of source in document
// order. Classes carry their directly defined methods.
func Outline(source string) ([]Definition, error) {
	src := []byte(source)
	tree, err := parse(src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	return outlineBlock(tree.RootNode(), src, true), nil
}

func outlineBlock(block *sitter.Node, src []byte, withMethods bool) []Definition {
	defs := []Definition{}
	if block == nil {
		return defs
	}
	for i := 0; i < int(block.NamedChildCount()); i++ {
		stmt := block.NamedChild(i)
		outer, def := stmt, stmt
		if stmt.Type() == "decorated_definition" {
			def = stmt.ChildByFieldName("definition")
			if def == nil {
				continue
			}
		}

		var kind DefinitionKind
		switch def.Type() {
		case "function_definition":
			kind = FunctionDefinition
		case "class_definition":
			kind = ClassDefinition
		default:
			continue
		}

		d := Definition{
			Kind:      kind,
			StartLine: startLine(outer),
			Line:      startLine(def),
			EndLine:   endLine(def),
		}
		if name := def.ChildByFieldName("name"); name != nil {
			d.Name = name.Content(src)
		}

		body := def.ChildByFieldName("body")
		if first := firstStatement(body); first != nil {
			d.BodyLine = startLine(first)
			d.BodyColumn = int(first.StartPoint().Column)
			if blockDocstring(body, src) != nil {
				d.Docstring = &Span{
					StartLine: startLine(first),
					EndLine:   endLine(first),
					EndColumn: int(first.EndPoint().Column),
				}
			}
		}
		if kind == ClassDefinition && withMethods {
			for _, m := range outlineBlock(body, src, false) {
				if m.Kind == FunctionDefinition {
					d.Methods = append(d.Methods, m)
				}
			}
		}
		defs = append(defs, d)
	}
	return defs
}

// CommonIndent returns the leading whitespace shared by every non-blank line.
func CommonIndent(source string) string {
	prefix, found := "", false
	for _, l := range strings.Split(source, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lead := l[:len(l)-len(strings.TrimLeft(l, " \t"))]
		if !found {
			prefix, found = lead, true
			continue
		}
		for !strings.HasPrefix(lead, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}

// Dedent strips the common leading whitespace from every non-blank line, so
// a snippet copied out of an indented block parses as a module.
func Dedent(source string) string {
	indent := CommonIndent(source)
	if indent == "" {
		return source
	}
	lines := strings.Split(source, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			lines[i] = l[len(indent):]
		}
	}
	return strings.Join(lines, "\n")
}

// Indent prefixes every non-blank line with indent.
func Indent(source, indent string) string {
	if indent == "" {
		return source
	}
	lines := strings.Split(source, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			lines[i] = indent + l
		}
	}
	return strings.Join(lines, "\n")
}
