package docgen

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySnippet is returned when a request carries no code.
	ErrEmptySnippet = errors.New("snippet is empty")
	// ErrNoDefinition is returned when the snippet holds no matching def or class.
	ErrNoDefinition = errors.New("no matching definition found")
)

// SetupError reports a backend that cannot be used at all: it is not
// installed, not running, lacks credentials or lacks the requested model.
// Hint carries remediation text for the user.
type SetupError struct {
	Provider string
	Reason   string
	Hint     string
	Err      error
}

func (e *SetupError) Error() string {
	msg := fmt.Sprintf("%s setup error: %s", e.Provider, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SetupError) Unwrap() error { return e.Err }

// GenerationError reports a reachable backend that produced no usable text.
type GenerationError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("%s generation failed: %s", e.Provider, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.Err }
