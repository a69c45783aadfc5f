package analysis

import (
	"sort"

	"documind/internal/analyzer"
	"documind/internal/git"
)

// EntityKind names the kind of a code entity in an impact report.
type EntityKind string

const (
	KindFunction EntityKind = "function"
	KindClass    EntityKind = "class"
	KindMethod   EntityKind = "method"
)

// Entity is a function, class or method located in a file. Methods are named
// `Class.method`.
type Entity struct {
	File    string     `json:"file"`
	Kind    EntityKind `json:"kind"`
	Name    string     `json:"name"`
	Line    int        `json:"line"`
	EndLine int        `json:"end_line"`
}

// ImpactReport summarizes the code entities affected by changes.
type ImpactReport struct {
	DirectlyAffected   []Entity `json:"directly_affected"`
	IndirectlyAffected []Entity `json:"indirectly_affected"`
}

// Analyzer performs impact analysis over analyzed files, keyed by the same
// paths git reports.
type Analyzer struct {
	files map[string]*analyzer.AnalysisResult
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(files map[string]*analyzer.AnalysisResult) *Analyzer {
	return &Analyzer{files: files}
}

// AnalyzeImpact finds the top-level functions, classes and methods whose line
// span contains a changed line. Classes in the same file that inherit from an
// affected class, directly or through other subclasses, are reported as
// indirectly affected.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile) (*ImpactReport, error) {
	report := &ImpactReport{
		DirectlyAffected:   []Entity{},
		IndirectlyAffected: []Entity{},
	}

	sorted := append([]git.ChangedFile(nil), changes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for _, change := range sorted {
		result, ok := a.files[change.Path]
		if !ok || result == nil {
			continue
		}

		// 1. Find Direct Impacts
		touched := make(map[string]bool)
		for _, fn := range result.Functions {
			if isAffected(fn.Line, fn.EndLine, change.ChangedLines) {
				report.DirectlyAffected = append(report.DirectlyAffected, Entity{
					File: change.Path, Kind: KindFunction, Name: fn.Name, Line: fn.Line, EndLine: fn.EndLine,
				})
			}
		}
		for _, cls := range result.Classes {
			if !isAffected(cls.Line, cls.EndLine, change.ChangedLines) {
				continue
			}
			touched[cls.Name] = true
			report.DirectlyAffected = append(report.DirectlyAffected, Entity{
				File: change.Path, Kind: KindClass, Name: cls.Name, Line: cls.Line, EndLine: cls.EndLine,
			})
			for _, m := range cls.Methods {
				if isAffected(m.Line, m.EndLine, change.ChangedLines) {
					report.DirectlyAffected = append(report.DirectlyAffected, Entity{
						File: change.Path, Kind: KindMethod, Name: cls.Name + "." + m.Name, Line: m.Line, EndLine: m.EndLine,
					})
				}
			}
		}

		// 2. Find Indirect Impacts (Subclasses)
		for changed := true; changed; {
			changed = false
			for _, cls := range result.Classes {
				if touched[cls.Name] || !inheritsFrom(cls, touched) {
					continue
				}
				touched[cls.Name] = true
				changed = true
				report.IndirectlyAffected = append(report.IndirectlyAffected, Entity{
					File: change.Path, Kind: KindClass, Name: cls.Name, Line: cls.Line, EndLine: cls.EndLine,
				})
			}
		}
	}

	return report, nil
}

func inheritsFrom(cls analyzer.ClassRecord, names map[string]bool) bool {
	for _, base := range cls.BaseClasses {
		if names[base] {
			return true
		}
	}
	return false
}

func isAffected(start, end int, lines []int) bool {
	// Simple overlap check
	for _, line := range lines {
		if line >= start && line <= end {
			return true
		}
	}
	return false
}
