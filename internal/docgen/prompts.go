package docgen

import (
	"fmt"
	"strings"
)

// Kind is the kind of definition a docstring is written for.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
)

// Prompt is one generation request as a backend sees it. Text and System are
// the rendered instructions; the remaining fields describe the request for
// backends that work on the code directly.
type Prompt struct {
	RequestID string
	Kind      Kind
	Name      string
	Snippet   string
	Context   string
	Style     Style
	System    string
	Text      string
}

const systemInstruction = "You are an expert Python developer who writes clear, accurate docstrings. " +
	"You only describe behavior that is literally present in the code you are given."

const groundingRules = `Rules:
- Describe only what the code literally does.
- Do not invent parameters, return values, exceptions or side effects that are not in the code.
- Leave out sections that do not apply (for example, no Raises section when nothing is raised).
- Return only the docstring content, without triple quotes and without code fences.`

// PromptBuilder renders the instructions for function and class docstrings.
type PromptBuilder struct{}

func (pb *PromptBuilder) Build(kind Kind, name, snippet, context string, style Style) *Prompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a Python docstring for the following %s.\n\n", kind)
	fmt.Fprintf(&sb, "%s name: %s\n", titleWord(string(kind)), name)
	if c := strings.TrimSpace(context); c != "" {
		fmt.Fprintf(&sb, "Additional context: %s\n", c)
	}
	sb.WriteString("\nCode:\n```python\n")
	sb.WriteString(snippet)
	sb.WriteString("\n```\n\n")
	sb.WriteString(style.guide())
	sb.WriteString("\n\n")
	if kind == KindClass {
		sb.WriteString("Document the class itself: its purpose and its class attributes. Do not document individual methods.\n\n")
	}
	sb.WriteString(groundingRules)
	sb.WriteString("\n")

	return &Prompt{
		Kind:    kind,
		Name:    name,
		Snippet: snippet,
		Context: context,
		Style:   style,
		System:  systemInstruction,
		Text:    sb.String(),
	}
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
