package analyzer

import (
	"strings"
	"unicode/utf8"
)

// ScanSource counts lines by category. It works on any text, valid Python or
// not. A trailing newline produces a final empty (blank) line.
func ScanSource(source string) SourceFile {
	lines := strings.Split(source, "\n")
	stats := SourceFile{
		TotalLines:      len(lines),
		TotalCharacters: utf8.RuneCountInString(source),
	}
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		switch {
		case trimmed == "":
			stats.BlankLines++
		case strings.HasPrefix(trimmed, "#"):
			stats.CommentLines++
		default:
			stats.CodeLines++
		}
	}
	return stats
}
