package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

const defaultPreviewLimit = 50

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithPreviewLimit caps the length (in runes) of attribute and variable value
// previews. Non-positive values are ignored.
func WithPreviewLimit(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.previewLimit = n
		}
	}
}

// Analyzer builds structural models of Python source files. It holds no
// mutable state, so one value may serve any number of goroutines.
type Analyzer struct {
	previewLimit int
}

// New creates an Analyzer with the given options applied over the defaults.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{previewLimit: defaultPreviewLimit}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultAnalyzer = New()

// Analyze parses source with the default Analyzer.
func Analyze(source string) (*AnalysisResult, error) {
	return defaultAnalyzer.Analyze(source)
}

// AnalyzeFile reads path as UTF-8 text and analyzes it with the default Analyzer.
func AnalyzeFile(path string) (*AnalysisResult, error) {
	return defaultAnalyzer.AnalyzeFile(path)
}

// Analyze parses source and derives its full structural model. The only
// error it returns is a *ParseError.
func (a *Analyzer) Analyze(source string) (*AnalysisResult, error) {
	src := []byte(source)
	tree, err := parse(src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	w := &walker{src: src, previewLimit: a.previewLimit}
	result := w.module(tree.RootNode())
	result.File = ScanSource(source)
	return result, nil
}

// AnalyzeFile reads path and delegates to Analyze.
func (a *Analyzer) AnalyzeFile(path string) (*AnalysisResult, error) {
	src, err := readSource(path)
	if err != nil {
		return nil, err
	}
	return a.Analyze(src)
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &NotFoundError{Path: path, Err: err}
		}
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return string(data), nil
}

func parse(src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, &ParseError{Line: 1, Column: 1, Message: err.Error()}
	}
	if perr := firstSyntaxError(tree.RootNode()); perr != nil {
		tree.Close()
		return nil, perr
	}
	return tree, nil
}

// legacyStatements are Python 2 forms the grammar still accepts.
var legacyStatements = map[string]string{
	"print_statement": "Missing parentheses in call to 'print'",
	"exec_statement":  "Missing parentheses in call to 'exec'",
}

// firstSyntaxError returns the first ERROR, MISSING or Python 2 statement
// node in document order.
func firstSyntaxError(root *sitter.Node) *ParseError {
	if root == nil {
		return nil
	}
	var found *ParseError
	walk(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		switch {
		case n.IsMissing():
			found = errorAt(n, fmt.Sprintf("expected %q", n.Type()))
			return false
		case n.Type() == "ERROR":
			found = errorAt(offendingToken(n), "invalid syntax")
			return false
		}
		if msg, ok := legacyStatements[n.Type()]; ok {
			found = errorAt(n, msg)
			return false
		}
		return true
	})
	if found == nil && root.HasError() {
		found = errorAt(root, "invalid syntax")
	}
	return found
}

// offendingToken returns the last leaf of an ERROR node that still sits on
// the node's first line; that is where the parser gave up.
func offendingToken(errNode *sitter.Node) *sitter.Node {
	row := errNode.StartPoint().Row
	token := errNode
	walk(errNode, func(n *sitter.Node) bool {
		if n.StartPoint().Row != row {
			return false
		}
		if n.ChildCount() == 0 {
			token = n
		}
		return true
	})
	return token
}

// walk visits root and its descendants depth-first, in document order. Children
// of a node are visited only when visit returns true for it.
func walk(root *sitter.Node, visit func(*sitter.Node) bool) {
	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()

	var step func()
	step = func() {
		if visit(cursor.CurrentNode()) && cursor.GoToFirstChild() {
			step()
			for cursor.GoToNextSibling() {
				step()
			}
			cursor.GoToParent()
		}
	}
	step()
}
