package docgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStyle(t *testing.T) {
	assert.Equal(t, StyleGoogle, ParseStyle("google"))
	assert.Equal(t, StyleNumPy, ParseStyle("numpy"))
	assert.Equal(t, StyleSphinx, ParseStyle(" Sphinx "))
	assert.Equal(t, StyleGoogle, ParseStyle("epytext"))
	assert.Equal(t, StyleGoogle, ParseStyle(""))
}

func TestPromptBuilder_Build(t *testing.T) {
	pb := &PromptBuilder{}
	p := pb.Build(KindFunction, "add", "def add(a, b):\n    return a + b", "math helpers", StyleNumPy)

	assert.Equal(t, KindFunction, p.Kind)
	assert.Equal(t, systemInstruction, p.System)
	assert.Contains(t, p.Text, "Function name: add")
	assert.Contains(t, p.Text, "Additional context: math helpers")
	assert.Contains(t, p.Text, "```python\ndef add(a, b):\n    return a + b\n```")
	assert.Contains(t, p.Text, "Use NumPy style")
	assert.Contains(t, p.Text, "Do not invent parameters")

	p = pb.Build(KindClass, "Calc", "class Calc:\n    pass", "", StyleGoogle)
	assert.NotContains(t, p.Text, "Additional context")
	assert.Contains(t, p.Text, "Do not document individual methods")
}
