package docgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"documind/internal/analyzer"
)

const defaultTimeout = 90 * time.Second

// FunctionRequest asks for the docstring of one function. Name selects a
// function or method in Snippet; when empty the first function is used.
type FunctionRequest struct {
	Snippet string
	Name    string
	Context string
	Style   Style
}

// ClassRequest asks for the docstring of one class and, when IncludeMethods
// is set, of each method defined directly in it.
type ClassRequest struct {
	Snippet        string
	Name           string
	Context        string
	Style          Style
	IncludeMethods bool
}

// Docstring is a generated docstring together with the definition source it
// describes.
type Docstring struct {
	Kind   Kind   `json:"kind"`
	Name   string `json:"name"`
	Text   string `json:"docstring"`
	Source string `json:"-"`
}

// Formatted returns the definition source with the docstring inserted.
func (d *Docstring) Formatted() (string, error) {
	return InsertDocstring(d.Source, d.Text)
}

type ClassDocstrings struct {
	Class   Docstring   `json:"class"`
	Methods []Docstring `json:"methods,omitempty"`
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithTimeout bounds every backend call. Non-positive values are ignored.
func WithTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// Generator turns code snippets into docstrings through a Backend.
type Generator struct {
	backend Backend
	timeout time.Duration
	logger  *slog.Logger
	prompts *PromptBuilder
}

func NewGenerator(backend Backend, opts ...GeneratorOption) *Generator {
	g := &Generator{
		backend: backend,
		timeout: defaultTimeout,
		logger:  slog.Default(),
		prompts: &PromptBuilder{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FunctionDocstring generates the docstring of a function or method.
func (g *Generator) FunctionDocstring(ctx context.Context, req FunctionRequest) (*Docstring, error) {
	src, defs, err := outline(req.Snippet)
	if err != nil {
		return nil, err
	}
	def, ok := findDefinition(defs, analyzer.FunctionDefinition, req.Name)
	if !ok {
		return nil, fmt.Errorf("function %q: %w", req.Name, ErrNoDefinition)
	}
	return g.generate(ctx, KindFunction, def, def.Source(src), req.Context, req.Style)
}

// ClassDocstring generates the docstring of a class, then of its methods
// when requested. Methods are generated one after another.
func (g *Generator) ClassDocstring(ctx context.Context, req ClassRequest) (*ClassDocstrings, error) {
	src, defs, err := outline(req.Snippet)
	if err != nil {
		return nil, err
	}
	def, ok := findDefinition(defs, analyzer.ClassDefinition, req.Name)
	if !ok {
		return nil, fmt.Errorf("class %q: %w", req.Name, ErrNoDefinition)
	}

	classDoc, err := g.generate(ctx, KindClass, def, def.Source(src), req.Context, req.Style)
	if err != nil {
		return nil, err
	}
	out := &ClassDocstrings{Class: *classDoc}
	if !req.IncludeMethods {
		return out, nil
	}

	methodContext := fmt.Sprintf("Method of class %s.", def.Name)
	if c := strings.TrimSpace(req.Context); c != "" {
		methodContext += " " + c
	}
	for _, m := range def.Methods {
		method := analyzer.Dedent(m.Source(src))
		// Re-locate the method in its dedented source so columns line up.
		_, mdefs, err := outline(method)
		if err != nil || len(mdefs) == 0 {
			return nil, fmt.Errorf("method %s: %w", m.Name, ErrNoDefinition)
		}
		doc, err := g.generate(ctx, KindFunction, mdefs[0], method, methodContext, req.Style)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m.Name, err)
		}
		out.Methods = append(out.Methods, *doc)
	}
	return out, nil
}

func (g *Generator) generate(ctx context.Context, kind Kind, def analyzer.Definition, source, extra string, style Style) (*Docstring, error) {
	prompt := g.prompts.Build(kind, def.Name, stripDocstrings(source, def), extra, ParseStyle(string(style)))
	prompt.RequestID = uuid.NewString()

	logger := g.logger.With(
		"request_id", prompt.RequestID,
		"provider", g.backend.Name(),
		"kind", string(kind),
		"name", def.Name,
	)
	logger.Debug("generating docstring", "style", string(prompt.Style))

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.backend.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("docstring generation failed", "error", err, "duration", time.Since(start))
		var setupErr *SetupError
		var genErr *GenerationError
		if errors.As(err, &setupErr) || errors.As(err, &genErr) {
			return nil, err
		}
		return nil, &GenerationError{Provider: g.backend.Name(), Reason: "backend error", Err: err}
	}

	text := cleanOutput(raw)
	if text == "" {
		logger.Warn("backend returned empty docstring", "duration", time.Since(start))
		return nil, &GenerationError{Provider: g.backend.Name(), Reason: "empty response"}
	}
	logger.Info("docstring generated", "duration", time.Since(start), "chars", len(text))

	return &Docstring{Kind: kind, Name: def.Name, Text: text, Source: source}, nil
}

// outline dedents snippet and lists its definitions.
func outline(snippet string) (string, []analyzer.Definition, error) {
	if strings.TrimSpace(snippet) == "" {
		return "", nil, ErrEmptySnippet
	}
	src := analyzer.Dedent(snippet)
	defs, err := analyzer.Outline(src)
	if err != nil {
		return "", nil, err
	}
	return src, defs, nil
}

// findDefinition picks the named definition of the wanted kind, looking into
// class bodies for methods. An empty name selects the first one.
func findDefinition(defs []analyzer.Definition, kind analyzer.DefinitionKind, name string) (analyzer.Definition, bool) {
	for _, d := range defs {
		if d.Kind == kind && (name == "" || d.Name == name) {
			return d, true
		}
	}
	if kind == analyzer.FunctionDefinition && name != "" {
		for _, d := range defs {
			for _, m := range d.Methods {
				if m.Name == name {
					return m, true
				}
			}
		}
	}
	return analyzer.Definition{}, false
}
