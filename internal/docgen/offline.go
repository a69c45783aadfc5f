package docgen

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"documind/internal/analyzer"
)

var (
	raiseRe  = regexp.MustCompile(`(?m)^\s*raise\s+([A-Za-z_][\w.]*)`)
	returnRe = regexp.MustCompile(`(?m)^\s*return\s+\S`)
	yieldRe  = regexp.MustCompile(`(?m)^\s*(?:\w+\s*=\s*)?yield\b`)
)

// OfflineBackend writes docstrings from the structure of the snippet alone.
// Its output is deterministic and mentions only parameters, return
// annotations, returned values and raised exceptions that appear in the code.
type OfflineBackend struct{}

func (o *OfflineBackend) Name() string { return "offline" }

func (o *OfflineBackend) Generate(_ context.Context, p *Prompt) (string, error) {
	result, err := analyzer.Analyze(analyzer.Dedent(p.Snippet))
	if err != nil {
		return "", &GenerationError{Provider: o.Name(), Reason: "snippet does not parse", Err: err}
	}

	switch p.Kind {
	case KindClass:
		cls, ok := result.Class(p.Name)
		if !ok {
			if len(result.Classes) == 0 {
				return "", &GenerationError{Provider: o.Name(), Reason: "no class in snippet"}
			}
			cls = &result.Classes[0]
		}
		return renderClass(cls, p.Style), nil
	default:
		fn := findFunction(result, p.Name)
		if fn == nil {
			return "", &GenerationError{Provider: o.Name(), Reason: "no function in snippet"}
		}
		return renderFunction(fn, p.Snippet, p.Style), nil
	}
}

func findFunction(result *analyzer.AnalysisResult, name string) *analyzer.FunctionRecord {
	if fn, ok := result.Function(name); ok {
		return fn
	}
	for i := range result.Classes {
		for j := range result.Classes[i].Methods {
			if m := &result.Classes[i].Methods[j]; m.Name == name {
				return m
			}
		}
	}
	if len(result.Functions) > 0 {
		return &result.Functions[0]
	}
	return nil
}

type docEntry struct {
	name string
	typ  string
	desc string
}

func renderFunction(fn *analyzer.FunctionRecord, snippet string, style Style) string {
	var args []docEntry
	for i, p := range fn.Parameters {
		if i == 0 && (p.Name == "self" || p.Name == "cls") {
			continue
		}
		name := p.Name
		switch p.Kind {
		case analyzer.ParamVarPositional:
			name = "*" + name
		case analyzer.ParamVarKeyword:
			name = "**" + name
		}
		desc := fmt.Sprintf("The %s argument.", p.Name)
		if p.Default != "" {
			desc += fmt.Sprintf(" Defaults to %s.", p.Default)
		}
		args = append(args, docEntry{name: name, typ: p.Annotation, desc: desc})
	}

	var returns *docEntry
	ret := fn.ReturnAnnotation
	switch {
	case ret == "None":
	case yieldRe.MatchString(snippet):
		returns = &docEntry{typ: ret, desc: "The values yielded by the generator."}
	case ret != "" || returnRe.MatchString(snippet):
		returns = &docEntry{typ: ret, desc: "The returned value."}
	}

	var raises []docEntry
	seen := make(map[string]bool)
	for _, m := range raiseRe.FindAllStringSubmatch(snippet, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			raises = append(raises, docEntry{name: m[1], desc: "Raised by " + fn.Name + "."})
		}
	}

	summary := humanize(fn.Name) + "."
	if fn.IsAsync {
		summary = "Asynchronously " + lowerFirst(humanize(fn.Name)) + "."
	}

	var sections []string
	switch style {
	case StyleNumPy:
		if len(args) > 0 {
			sections = append(sections, numpySection("Parameters", args))
		}
		if returns != nil {
			typ := withDefault(returns.typ, "object")
			sections = append(sections, numpySection("Returns", []docEntry{{name: typ, desc: returns.desc}}))
		}
		if len(raises) > 0 {
			sections = append(sections, numpySection("Raises", raises))
		}
	case StyleSphinx:
		var lines []string
		for _, a := range args {
			lines = append(lines, fmt.Sprintf(":param %s: %s", a.name, a.desc))
			if a.typ != "" {
				lines = append(lines, fmt.Sprintf(":type %s: %s", a.name, a.typ))
			}
		}
		if returns != nil {
			lines = append(lines, ":returns: "+returns.desc)
			if returns.typ != "" {
				lines = append(lines, ":rtype: "+returns.typ)
			}
		}
		for _, r := range raises {
			lines = append(lines, fmt.Sprintf(":raises %s: %s", r.name, r.desc))
		}
		if len(lines) > 0 {
			sections = append(sections, strings.Join(lines, "\n"))
		}
	default:
		if len(args) > 0 {
			sections = append(sections, googleSection("Args", args))
		}
		if returns != nil {
			desc := returns.desc
			if returns.typ != "" {
				desc = returns.typ + ": " + desc
			}
			sections = append(sections, "Returns:\n    "+desc)
		}
		if len(raises) > 0 {
			sections = append(sections, googleSection("Raises", raises))
		}
	}
	return strings.Join(append([]string{summary}, sections...), "\n\n")
}

func renderClass(cls *analyzer.ClassRecord, style Style) string {
	summary := humanize(cls.Name) + "."
	if len(cls.BaseClasses) > 0 {
		summary += "\n\nExtends " + strings.Join(cls.BaseClasses, ", ") + "."
	}

	var attrs []docEntry
	for _, a := range cls.Attributes {
		desc := "Class attribute."
		if a.ValuePreview != "" {
			desc = fmt.Sprintf("Class attribute, initially %s.", a.ValuePreview)
		}
		attrs = append(attrs, docEntry{name: a.Name, typ: a.Annotation, desc: desc})
	}
	if len(attrs) == 0 {
		return summary
	}

	var section string
	switch style {
	case StyleNumPy:
		section = numpySection("Attributes", attrs)
	case StyleSphinx:
		var lines []string
		for _, a := range attrs {
			lines = append(lines, fmt.Sprintf(":ivar %s: %s", a.name, a.desc))
			if a.typ != "" {
				lines = append(lines, fmt.Sprintf(":vartype %s: %s", a.name, a.typ))
			}
		}
		section = strings.Join(lines, "\n")
	default:
		section = googleSection("Attributes", attrs)
	}
	return summary + "\n\n" + section
}

func googleSection(title string, entries []docEntry) string {
	var sb strings.Builder
	sb.WriteString(title + ":")
	for _, e := range entries {
		sb.WriteString("\n    " + e.name)
		if e.typ != "" {
			sb.WriteString(" (" + e.typ + ")")
		}
		sb.WriteString(": " + e.desc)
	}
	return sb.String()
}

func numpySection(title string, entries []docEntry) string {
	var sb strings.Builder
	sb.WriteString(title + "\n" + strings.Repeat("-", len(title)))
	for _, e := range entries {
		sb.WriteString("\n" + e.name)
		if e.typ != "" {
			sb.WriteString(" : " + e.typ)
		}
		sb.WriteString("\n    " + e.desc)
	}
	return sb.String()
}

// humanize turns an identifier into a capitalized phrase:
// "calculate_fibonacci" becomes "Calculate fibonacci", "HTTPServer" stays as is.
func humanize(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' })
	if len(words) == 0 {
		return name
	}
	phrase := strings.Join(words, " ")
	return strings.ToUpper(phrase[:1]) + phrase[1:]
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
