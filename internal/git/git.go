package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ChangedFile is a file that differs from the base revision. ChangedLines are
// 1-based line numbers in the working copy. Untracked files have no line
// information and count as changed throughout.
type ChangedFile struct {
	Path         string
	ChangedLines []int
	Untracked    bool
}

// Touches reports whether line is among the changed lines.
func (c ChangedFile) Touches(line int) bool {
	if c.Untracked {
		return true
	}
	for _, l := range c.ChangedLines {
		if l == line {
			return true
		}
	}
	return false
}

// TopLevel returns the root of the work tree containing dir.
func TopLevel(ctx context.Context, dir string) (string, error) {
	out, err := run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetChangedFiles lists the files under dir's work tree that differ from
// baseRef, plus untracked files. Paths are absolute.
func GetChangedFiles(ctx context.Context, dir, baseRef string) ([]ChangedFile, error) {
	top, err := TopLevel(ctx, dir)
	if err != nil {
		return nil, err
	}

	output, err := run(ctx, top, "diff", "-U0", "--no-color", "--no-ext-diff", baseRef)
	if err != nil {
		return nil, err
	}
	changes, err := parseDiff(output)
	if err != nil {
		return nil, err
	}

	untracked, err := run(ctx, top, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(string(untracked), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			changes = append(changes, ChangedFile{Path: line, Untracked: true})
		}
	}

	for i := range changes {
		changes[i].Path = filepath.Join(top, filepath.FromSlash(changes[i].Path))
	}
	return changes, nil
}

func run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s failed: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// Chunk header: @@ -oldStart,oldLen +newStart,newLen @@
var chunkHeader = regexp.MustCompile(`^@@ \-\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

func parseDiff(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var changes []ChangedFile
	var currentFile *ChangedFile

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "diff --git") {
			if currentFile != nil {
				changes = append(changes, *currentFile)
				currentFile = nil
			}
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				// Keep the b/ path, which names the working-copy file.
				path := strings.TrimPrefix(parts[3], "b/")
				currentFile = &ChangedFile{Path: path, ChangedLines: []int{}}
			}
			continue
		}

		if currentFile == nil {
			continue
		}

		if strings.HasPrefix(line, "+++ ") {
			// Deleted files have no working-copy lines left to touch.
			if strings.TrimSpace(strings.TrimPrefix(line, "+++ ")) == "/dev/null" {
				currentFile = nil
			}
			continue
		}

		if strings.HasPrefix(line, "@@") {
			matches := chunkHeader.FindStringSubmatch(line)
			if len(matches) > 1 {
				startLine, _ := strconv.Atoi(matches[1])
				count := 1
				if len(matches) > 2 && matches[2] != "" {
					count, _ = strconv.Atoi(matches[2])
				}

				// A pure deletion leaves no lines; mark the line after the cut.
				if count == 0 {
					currentFile.ChangedLines = append(currentFile.ChangedLines, startLine+1)
					continue
				}
				for i := 0; i < count; i++ {
					currentFile.ChangedLines = append(currentFile.ChangedLines, startLine+i)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read diff: %w", err)
	}

	if currentFile != nil {
		changes = append(changes, *currentFile)
	}

	return changes, nil
}
