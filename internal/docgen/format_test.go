package docgen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"documind/internal/analyzer"
)

func TestCleanOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  Add two numbers.  ", "Add two numbers."},
		{"triple quotes", `"""Add two numbers."""`, "Add two numbers."},
		{"single triple quotes", "'''Add.\n\nArgs:\n    a: A.\n'''", "Add.\n\nArgs:\n    a: A."},
		{"fenced", "```python\n\"\"\"Add.\"\"\"\n```", "Add."},
		{"bare fence", "```\nAdd.\n```", "Add."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanOutput(tt.in))
		})
	}
}

func TestInsertDocstring(t *testing.T) {
	tests := []struct {
		name      string
		snippet   string
		docstring string
		want      string
	}{
		{
			name:      "function",
			snippet:   "def add(a, b):\n    return a + b",
			docstring: "Add two numbers.",
			want:      "def add(a, b):\n    \"\"\"Add two numbers.\"\"\"\n    return a + b",
		},
		{
			name:      "replaces existing in indented method",
			snippet:   "    def add(self, x):\n        '''old'''\n        return x",
			docstring: "Add x.\n\nArgs:\n    x: Value.",
			want:      "    def add(self, x):\n        \"\"\"Add x.\n\n        Args:\n            x: Value.\n        \"\"\"\n        return x",
		},
		{
			name:      "inline body",
			snippet:   "def f(): return 1",
			docstring: "One.",
			want:      "def f():\n    \"\"\"One.\"\"\"\n    return 1",
		},
		{
			name:      "decorated class",
			snippet:   "@dataclass\nclass P:\n    x: int",
			docstring: "Point.",
			want:      "@dataclass\nclass P:\n    \"\"\"Point.\"\"\"\n    x: int",
		},
		{
			name:      "escapes quotes",
			snippet:   "def q():\n    pass",
			docstring: `Say """hi""".`,
			want:      "def q():\n    \"\"\"Say \\\"\\\"\\\"hi\\\"\\\"\\\".\"\"\"\n    pass",
		},
		{
			name:      "keeps code after existing docstring",
			snippet:   "def f():\n    \"\"\"x\"\"\"; return 1",
			docstring: "New doc.",
			want:      "def f():\n    \"\"\"New doc.\"\"\"\n    return 1",
		},
		{
			name:      "keeps code after inline docstring",
			snippet:   "def f(): \"\"\"x\"\"\"; return 1",
			docstring: "New doc.",
			want:      "def f():\n    \"\"\"New doc.\"\"\"\n    return 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InsertDocstring(tt.snippet, tt.docstring)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInsertDocstring_Errors(t *testing.T) {
	_, err := InsertDocstring("x = 1", "Doc.")
	assert.True(t, errors.Is(err, ErrNoDefinition))

	_, err = InsertDocstring("def broken(:", "Doc.")
	var perr *analyzer.ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestStripDocstrings(t *testing.T) {
	src := "class Calc:\n    \"\"\"Old doc.\"\"\"\n\n    def add(self, x, y):\n        \"\"\"Old add.\"\"\"\n        return x + y\n\n    def noop(self):\n        '''Only a docstring.'''"
	defs, err := analyzer.Outline(src)
	require.NoError(t, err)
	require.Len(t, defs, 1)

	got := stripDocstrings(src, defs[0])
	assert.Equal(t, "class Calc:\n\n    def add(self, x, y):\n        return x + y\n\n    def noop(self):\n        pass", got)
}

func TestStripDocstrings_KeepsCodeOnDocstringLine(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "statement after semicolon",
			src:  "def f():\n    \"\"\"x\"\"\"; return 1",
			want: "def f():\n    return 1",
		},
		{
			name: "inline docstring and statement",
			src:  "def f(): \"\"\"x\"\"\"; return 1",
			want: "def f(): return 1",
		},
		{
			name: "inline docstring only",
			src:  "def f(): \"\"\"x\"\"\"",
			want: "def f(): pass",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs, err := analyzer.Outline(tt.src)
			require.NoError(t, err)
			require.Len(t, defs, 1)
			assert.Equal(t, tt.want, stripDocstrings(tt.src, defs[0]))
		})
	}
}
