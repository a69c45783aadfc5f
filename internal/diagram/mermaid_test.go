package diagram

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSource_Point(t *testing.T) {
	src := `class Point:
    def __init__(self,x,y):
        self.x = x
        self.y = y

    def move(self,dx,dy):
        self.x += dx
        self.y += dy
`
	got, err := FromSource(src)
	require.NoError(t, err)
	assert.Equal(t, "classDiagram\n    class Point {\n        + __init__(x, y)\n        + move(dx, dy)\n    }", got)
}

func TestFromSource_NoClasses(t *testing.T) {
	got, err := FromSource("def f():\n    pass\n")
	require.NoError(t, err)
	assert.Equal(t, "classDiagram\n    class NoClassesFound", got)

	got, err = FromSource("")
	require.NoError(t, err)
	assert.Equal(t, NoClassesFound, got)
}

func TestFromSource_MethodSelection(t *testing.T) {
	src := `
    class Shape:
        """Indented snippet."""

        sides = 0

        class Meta:
            def hidden(self):
                pass

        @staticmethod
        def unit():
            pass

        @classmethod
        def build(cls, size, *parts, scale=1, **opts):
            pass

        async def draw(self, canvas, /, color):
            pass

    class Empty:
        pass
`
	got, err := FromSource(src)
	require.NoError(t, err)
	// Async methods are listed alongside plain ones; nested class bodies are not.
	assert.Equal(t, "classDiagram\n"+
		"    class Shape {\n"+
		"        + unit()\n"+
		"        + build(cls, size)\n"+
		"        + draw(color)\n"+
		"    }\n"+
		"    class Empty {\n"+
		"    }", got)
	assert.Contains(t, got, "+ draw(color)")
}

func TestFromSource_SyntaxError(t *testing.T) {
	_, err := FromSource("class Broken(\n")
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	got, err := FromFile(filepath.Join("..", "analyzer", "testdata", "sample.py"))
	require.NoError(t, err)
	assert.Contains(t, got, "    class Base {\n    }")
	assert.Contains(t, got, "        + __init__(name, quantity)\n")
	assert.Contains(t, got, "        + refresh()\n")
	assert.NotContains(t, got, "Meta")
}

func TestFenced(t *testing.T) {
	assert.Equal(t, "```mermaid\n"+NoClassesFound+"\n```\n", Fenced(NoClassesFound))
}
