package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"documind/internal/analysis"
	"documind/internal/analyzer"
	"documind/internal/crawler"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	itemStyle    = lipgloss.NewStyle().PaddingLeft(2)
)

// Text renders a terminal summary of one analyzed file.
func Text(path string, result *analyzer.AnalysisResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(path) + "\n")

	fi := result.File
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d lines (%d code, %d comment, %d blank), %d characters",
		fi.TotalLines, fi.CodeLines, fi.CommentLines, fi.BlankLines, fi.TotalCharacters)) + "\n")

	m := result.Structure.ComplexityMetrics
	b.WriteString(fmt.Sprintf("functions: %d  classes: %d  imports: %d  variables: %d  avg complexity: %.2f\n",
		m.TotalFunctions, m.TotalClasses, m.TotalImports, m.TotalVariables, m.AverageFunctionComplexity))

	if deps := result.Structure.Dependencies; len(deps) > 0 {
		b.WriteString(headingStyle.Render("Dependencies") + "\n")
		b.WriteString(itemStyle.Render(strings.Join(deps, ", ")) + "\n")
	}

	if len(result.Functions) > 0 {
		b.WriteString(headingStyle.Render("Functions") + "\n")
		for _, fn := range result.Functions {
			b.WriteString(itemStyle.Render(functionLine(fn)) + "\n")
		}
	}

	if len(result.Classes) > 0 {
		b.WriteString(headingStyle.Render("Classes") + "\n")
		for _, cls := range result.Classes {
			line := fmt.Sprintf("%s (lines %d-%d)", cls.Name, cls.Line, cls.EndLine)
			if len(cls.BaseClasses) > 0 {
				line = fmt.Sprintf("%s(%s) (lines %d-%d)", cls.Name, strings.Join(cls.BaseClasses, ", "), cls.Line, cls.EndLine)
			}
			b.WriteString(itemStyle.Render(line) + "\n")
			for _, method := range cls.Methods {
				b.WriteString(itemStyle.Render("  "+functionLine(method)) + "\n")
			}
		}
	}

	if len(result.Constants) > 0 {
		b.WriteString(headingStyle.Render("Constants") + "\n")
		for _, c := range result.Constants {
			b.WriteString(itemStyle.Render(fmt.Sprintf("%s: %s = %s", c.Name, c.ValueType, c.ValuePreview)) + "\n")
		}
	}
	return b.String()
}

func functionLine(fn analyzer.FunctionRecord) string {
	prefix := "def"
	if fn.IsAsync {
		prefix = "async def"
	}
	line := fmt.Sprintf("%s %s (line %d, complexity %d)", prefix, fn.Name, fn.Line, fn.Complexity.Cyclomatic)
	if fn.Docstring == nil {
		line += " " + mutedStyle.Render("[no docstring]")
	}
	return line
}

// ProjectText renders a summary of every file of a directory scan.
func ProjectText(results []crawler.FileResult) string {
	var b strings.Builder
	failed := 0
	for _, fr := range results {
		if fr.Result == nil {
			failed++
			b.WriteString(titleStyle.Render(fr.Path) + "\n")
			b.WriteString(itemStyle.Render(errorStyle.Render(fr.Error)) + "\n\n")
			continue
		}
		b.WriteString(Text(fr.Path, fr.Result) + "\n")
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d files analyzed, %d failed", len(results)-failed, failed)) + "\n")
	return b.String()
}

// ImpactText renders the entities affected by a change set.
func ImpactText(r *analysis.ImpactReport) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Directly affected") + "\n")
	writeEntities(&b, r.DirectlyAffected)
	b.WriteString(headingStyle.Render("Indirectly affected") + "\n")
	writeEntities(&b, r.IndirectlyAffected)
	return b.String()
}

func writeEntities(b *strings.Builder, entities []analysis.Entity) {
	if len(entities) == 0 {
		b.WriteString(itemStyle.Render(mutedStyle.Render("none")) + "\n")
		return
	}
	for _, e := range entities {
		b.WriteString(itemStyle.Render(fmt.Sprintf("%s:%d %s %s", e.File, e.Line, e.Kind, e.Name)) + "\n")
	}
}

// DocstringsText lists extracted docstrings in name order.
func DocstringsText(docs map[string]string) string {
	if len(docs) == 0 {
		return mutedStyle.Render("no docstrings found") + "\n"
	}
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(headingStyle.Render(name) + "\n")
		for _, line := range strings.Split(docs[name], "\n") {
			b.WriteString(itemStyle.Render(line) + "\n")
		}
	}
	return b.String()
}
