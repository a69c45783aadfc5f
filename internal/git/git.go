package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

type ChangedFile struct {
	Path         string `json:"path"`
	ChangedLines []int  `json:"changed_lines"`
}

// chunkHeader matches `@@ -oldStart,oldLen +newStart,newLen @@`; only the
// new-file side is captured.
var chunkHeader = regexp.MustCompile(`^@@ \-\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// ChangedFiles runs `git diff -U0 --relative baseRef` in dir and returns the changed
// files with the line numbers touched in their current version.
func ChangedFiles(ctx context.Context, dir, baseRef string) ([]ChangedFile, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "-U0", "--no-color", "--relative", baseRef, "--")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("git diff failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("git diff failed: %w", err)
	}

	return parseDiff(output)
}

// parseDiff reads unified diff output. Deleted files are dropped. A hunk that
// only removes lines marks the line it was removed after, so the entity
// around the removal still counts as changed.
func parseDiff(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var changes []ChangedFile
	var currentFile *ChangedFile
	flush := func() {
		if currentFile != nil && currentFile.Path != "" {
			changes = append(changes, *currentFile)
		}
		currentFile = nil
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "diff --git"):
			flush()
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				// a/path/to/file b/path/to/file; keep the new path.
				currentFile = &ChangedFile{Path: strings.TrimPrefix(parts[3], "b/"), ChangedLines: []int{}}
			}
			continue
		case currentFile == nil:
			continue
		case strings.HasPrefix(line, "+++ "):
			target := strings.TrimPrefix(line, "+++ ")
			if target == "/dev/null" {
				currentFile.Path = ""
			} else {
				currentFile.Path = strings.TrimPrefix(target, "b/")
			}
			continue
		}

		if !strings.HasPrefix(line, "@@") {
			continue
		}
		matches := chunkHeader.FindStringSubmatch(line)
		if len(matches) < 2 {
			continue
		}
		startLine, _ := strconv.Atoi(matches[1])
		count := 1 // Default length is 1 if omitted
		if matches[2] != "" {
			count, _ = strconv.Atoi(matches[2])
		}
		if count == 0 {
			if startLine > 0 {
				currentFile.ChangedLines = append(currentFile.ChangedLines, startLine)
			}
			continue
		}
		for i := 0; i < count; i++ {
			currentFile.ChangedLines = append(currentFile.ChangedLines, startLine+i)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}
