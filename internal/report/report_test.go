package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"documind/internal/analysis"
	"documind/internal/analyzer"
	"documind/internal/crawler"
)

func sampleResult(t *testing.T) *analyzer.AnalysisResult {
	t.Helper()
	result, err := analyzer.AnalyzeFile("../analyzer/testdata/sample.py")
	require.NoError(t, err)
	return result
}

func TestValidateAnalysis(t *testing.T) {
	t.Run("analyzer output is valid", func(t *testing.T) {
		require.NoError(t, ValidateAnalysis(sampleResult(t)))
	})

	t.Run("empty module is valid", func(t *testing.T) {
		result, err := analyzer.Analyze("")
		require.NoError(t, err)
		require.NoError(t, ValidateAnalysis(result))
	})

	t.Run("nil lists are rejected", func(t *testing.T) {
		result := sampleResult(t)
		result.Functions[0].Parameters = nil
		err := ValidateAnalysis(result)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema validation")
	})

	t.Run("unknown parameter kind is rejected", func(t *testing.T) {
		result := sampleResult(t)
		result.Functions[0].Parameters = []analyzer.Parameter{{Name: "x", Kind: "positional_only"}}
		require.Error(t, ValidateAnalysis(result))
	})

	t.Run("nil result", func(t *testing.T) {
		require.Error(t, ValidateAnalysis(nil))
	})
}

func TestJSON(t *testing.T) {
	result := sampleResult(t)

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, result))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "file_info")
	assert.Contains(t, decoded, "structure")

	var roundTrip analyzer.AnalysisResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &roundTrip))
	assert.Equal(t, result.Structure, roundTrip.Structure)
}

func TestJSONRejectsInvalidResultBeforeWriting(t *testing.T) {
	result := sampleResult(t)
	item, ok := result.Class("Item")
	require.True(t, ok)
	require.NotEmpty(t, item.Methods)
	item.Methods[0].Decorators = nil

	var buf bytes.Buffer
	err := JSON(&buf, []crawler.FileResult{
		{Path: "pkg/broken.py", Err: errors.New("boom"), Error: "boom"},
		{Path: "sample.py", Result: result},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample.py")
	assert.Zero(t, buf.Len())
}

func TestJSONPassesThroughOtherValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, map[string]string{"greet": "Say hello."}))
	assert.JSONEq(t, `{"greet": "Say hello."}`, buf.String())
}

func TestYAML(t *testing.T) {
	doc := "Line one.\nLine two."
	result := &analyzer.AnalysisResult{
		ModuleDocstring: &doc,
		Imports:         []analyzer.ImportRecord{},
		NestedImports:   []analyzer.ImportRecord{},
		Functions:       []analyzer.FunctionRecord{},
		Classes:         []analyzer.ClassRecord{},
		Variables:       []analyzer.Assignment{{Name: "version", Line: 3, ValueType: "str", ValuePreview: "'1.0'"}},
		Constants:       []analyzer.Assignment{},
		Structure:       analyzer.Structure{Dependencies: []string{"os"}},
	}

	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, result))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "file_info:\n"), out)
	assert.Less(t, strings.Index(out, "module_docstring:"), strings.Index(out, "imports:"))
	assert.Contains(t, out, "imports: []\n")
	assert.NotContains(t, out, "{")

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, doc, decoded["module_docstring"])
	vars := decoded["variables"].([]any)
	assert.Equal(t, "'1.0'", vars[0].(map[string]any)["value_preview"])
	assert.Equal(t, []any{"os"}, decoded["structure"].(map[string]any)["dependencies"])
}

func TestText(t *testing.T) {
	out := Text("sample.py", sampleResult(t))

	assert.Contains(t, out, "sample.py")
	assert.Contains(t, out, "82 lines")
	assert.Contains(t, out, "Functions")
	assert.Contains(t, out, "Classes")
	assert.Contains(t, out, "def restock (line 23")
	assert.Contains(t, out, "Item(Base) (lines 45-81)")
}

func TestProjectText(t *testing.T) {
	out := ProjectText([]crawler.FileResult{
		{Path: "app.py", Result: sampleResult(t)},
		{Path: "pkg/broken.py", Error: "syntax error at line 2, column 5: invalid syntax"},
	})
	assert.Contains(t, out, "app.py")
	assert.Contains(t, out, "pkg/broken.py")
	assert.Contains(t, out, "invalid syntax")
	assert.Contains(t, out, "1 files analyzed, 1 failed")
}

func TestImpactText(t *testing.T) {
	out := ImpactText(&analysis.ImpactReport{
		DirectlyAffected: []analysis.Entity{
			{File: "shapes.py", Kind: analysis.KindMethod, Name: "Shape.area", Line: 9, EndLine: 10},
		},
		IndirectlyAffected: []analysis.Entity{},
	})
	assert.Contains(t, out, "Directly affected")
	assert.Contains(t, out, "shapes.py:9 method Shape.area")
	assert.Contains(t, out, "none")
}

func TestDocstringsText(t *testing.T) {
	out := DocstringsText(map[string]string{"zeta": "Last.", "alpha": "First.\nSecond line."})
	assert.Less(t, strings.Index(out, "alpha"), strings.Index(out, "zeta"))
	assert.Contains(t, out, "Second line.")

	assert.Contains(t, DocstringsText(nil), "no docstrings found")
}
