package docgen

import "strings"

// Style is a docstring layout convention.
type Style string

const (
	StyleGoogle Style = "google"
	StyleNumPy  Style = "numpy"
	StyleSphinx Style = "sphinx"
)

// ParseStyle maps an identifier to a Style. Unknown identifiers yield google.
func ParseStyle(s string) Style {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleNumPy:
		return StyleNumPy
	case StyleSphinx:
		return StyleSphinx
	default:
		return StyleGoogle
	}
}

// guide describes the section layout the model should follow.
func (s Style) guide() string {
	switch s {
	case StyleNumPy:
		return `Use NumPy style: a one-line summary, an optional extended description, then
underlined sections such as "Parameters", "Returns" and "Raises", for example:

Parameters
----------
name : type
    Description.`
	case StyleSphinx:
		return `Use Sphinx (reStructuredText) style: a one-line summary, an optional extended
description, then field lists such as ":param name: Description.", ":type name: type",
":returns: Description.", ":rtype: type" and ":raises Error: Description."`
	default:
		return `Use Google style: a one-line summary, an optional extended description, then
sections such as "Args:", "Returns:" and "Raises:" with indented entries, for example:

Args:
    name (type): Description.`
	}
}
