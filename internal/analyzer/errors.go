package analyzer

import "fmt"

// ParseError reports source text that is not valid Python. Line and Column
// are 1-based.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// NotFoundError is returned by the file-based entry points when the path does
// not resolve to a readable file.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file %s not found", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }
