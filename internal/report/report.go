package report

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"documind/internal/analyzer"
	"documind/internal/crawler"
)

const analysisSchemaURL = "https://documind.local/schema/analysis.schema.json"

//go:embed analysis.schema.json
var analysisSchemaJSON string

var (
	schemaOnce     sync.Once
	analysisSchema *jsonschema.Schema
	schemaErr      error
)

func loadAnalysisSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(analysisSchemaURL, strings.NewReader(analysisSchemaJSON)); err != nil {
			schemaErr = err
			return
		}
		analysisSchema, schemaErr = compiler.Compile(analysisSchemaURL)
	})
	return analysisSchema, schemaErr
}

// ValidateAnalysis checks the JSON form of result against the analysis schema.
func ValidateAnalysis(result *analyzer.AnalysisResult) error {
	if result == nil {
		return fmt.Errorf("analysis result is nil")
	}
	schema, err := loadAnalysisSchema()
	if err != nil {
		return fmt.Errorf("failed to compile analysis schema: %w", err)
	}

	var v any
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis for schema validation: %w", err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("failed to normalize analysis for schema validation: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("analysis schema validation failed: %w", err)
	}
	return nil
}

// JSON writes v as indented JSON. Analysis results, alone or inside crawler
// results, are validated before anything is written.
func JSON(w io.Writer, v any) error {
	if err := validate(v); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}

func validate(v any) error {
	switch doc := v.(type) {
	case *analyzer.AnalysisResult:
		return ValidateAnalysis(doc)
	case []crawler.FileResult:
		for _, fr := range doc {
			if fr.Result == nil {
				continue
			}
			if err := ValidateAnalysis(fr.Result); err != nil {
				return fmt.Errorf("%s: %w", fr.Path, err)
			}
		}
	}
	return nil
}

// YAML writes v as YAML using its JSON field names and field order.
func YAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML report: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to convert report to YAML: %w", err)
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode YAML report: %w", err)
	}
	return enc.Close()
}

// blockStyle drops the flow and quoting styles a JSON document decodes with.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
