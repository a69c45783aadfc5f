package diagram

import (
	"fmt"
	"strings"

	"documind/internal/analyzer"
)

// NoClassesFound is emitted instead of an empty diagram.
const NoClassesFound = "classDiagram\n    class NoClassesFound"

// ClassShape is the part of a class the diagram shows.
type ClassShape struct {
	Name    string
	Methods []MethodShape
}

// MethodShape is a method name with its parameter names, receiver excluded.
type MethodShape struct {
	Name   string
	Params []string
}

func (m MethodShape) Signature() string {
	return fmt.Sprintf("%s(%s)", m.Name, strings.Join(m.Params, ", "))
}

// Project selects the top-level classes of result and the functions defined
// directly in their bodies. Only positional-or-keyword parameters are listed,
// and a leading `self` is dropped.
func Project(result *analyzer.AnalysisResult) []ClassShape {
	shapes := make([]ClassShape, 0, len(result.Classes))
	for _, cls := range result.Classes {
		shape := ClassShape{Name: cls.Name, Methods: make([]MethodShape, 0, len(cls.Methods))}
		for _, fn := range cls.Methods {
			var params []string
			for _, p := range fn.Parameters {
				if p.Kind == analyzer.ParamPositionalOrKeyword {
					params = append(params, p.Name)
				}
			}
			if len(params) > 0 && params[0] == "self" {
				params = params[1:]
			}
			shape.Methods = append(shape.Methods, MethodShape{Name: fn.Name, Params: params})
		}
		shapes = append(shapes, shape)
	}
	return shapes
}

// Render writes shapes as a Mermaid class diagram without a trailing newline.
func Render(shapes []ClassShape) string {
	if len(shapes) == 0 {
		return NoClassesFound
	}

	var sb strings.Builder
	sb.WriteString("classDiagram")
	for _, cls := range shapes {
		sb.WriteString(fmt.Sprintf("\n    class %s {", cls.Name))
		for _, m := range cls.Methods {
			sb.WriteString("\n        + ")
			sb.WriteString(m.Signature())
		}
		sb.WriteString("\n    }")
	}
	return sb.String()
}

// FromResult projects and renders an analysis result.
func FromResult(result *analyzer.AnalysisResult) string {
	return Render(Project(result))
}

// FromSource renders the diagram for a source snippet. The snippet is dedented
// first, so a class copied out of a larger indented block still parses.
func FromSource(source string) (string, error) {
	result, err := analyzer.Analyze(analyzer.Dedent(source))
	if err != nil {
		return "", err
	}
	return FromResult(result), nil
}

// FromFile renders the diagram for a file on disk.
func FromFile(path string) (string, error) {
	result, err := analyzer.AnalyzeFile(path)
	if err != nil {
		return "", err
	}
	return FromResult(result), nil
}

// Fenced wraps a diagram in a Markdown mermaid code block.
func Fenced(diagram string) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString(diagram)
	sb.WriteString("\n```\n")
	return sb.String()
}
