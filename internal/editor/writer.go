package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"sbtup/internal/span"
	"sbtup/internal/version"
)

// Update asks for every location to be rewritten to Version.
type Update struct {
	Version   version.Version
	Locations []span.Location
}

// Replacement returns the literal written over each location.
func Replacement(v version.Version) string {
	return `"` + v.Raw() + `"`
}

// FileError reports a failure to update one file.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Result summarizes a WriteUpdates run.
type Result struct {
	Written   []string
	Applied   int
	Discarded []Discarded
	Failed    []string
}

// Discarded is an edit dropped because it overlapped an earlier one.
type Discarded struct {
	Path string
	Edit Edit
}

// Writer applies updates to files on disk.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a Writer. A nil logger discards output.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Writer{logger: logger}
}

// WriteUpdates applies every update with a default Writer.
func WriteUpdates(ctx context.Context, updates []Update) (Result, error) {
	return NewWriter(nil).WriteUpdates(ctx, updates)
}

// GroupByFile turns updates into per-file edit lists. Paths are sorted and edits
// keep the order in which their updates were given.
func GroupByFile(updates []Update) ([]string, map[string][]Edit) {
	byFile := make(map[string][]Edit)
	for _, u := range updates {
		text := Replacement(u.Version)
		for _, loc := range u.Locations {
			byFile[loc.File] = append(byFile[loc.File], Edit{Span: loc.Span, Text: text})
		}
	}
	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, byFile
}

// WriteUpdates rewrites each affected file once. A file is either fully
// rewritten or left untouched; a failure on one file does not stop or undo the
// others. The returned error joins every FileError.
func (w *Writer) WriteUpdates(ctx context.Context, updates []Update) (Result, error) {
	paths, byFile := GroupByFile(updates)

	var res Result
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		applied, discarded, err := w.writeFile(path, byFile[path])
		for _, d := range discarded {
			w.logger.Warn("discarding overlapping edit",
				"file", path, "span", d.Span.String(), "text", d.Text)
			res.Discarded = append(res.Discarded, Discarded{Path: path, Edit: d})
		}
		if err != nil {
			w.logger.Error("failed to update file", "file", path, "error", err)
			res.Failed = append(res.Failed, path)
			errs = append(errs, err)
			continue
		}
		res.Written = append(res.Written, path)
		res.Applied += applied
	}
	return res, errors.Join(errs...)
}

func (w *Writer) writeFile(path string, edits []Edit) (int, []Edit, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, nil, &FileError{Path: path, Op: "stat", Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, &FileError{Path: path, Op: "read", Err: err}
	}
	for _, e := range edits {
		if e.Span.Start < 0 || e.Span.End > len(data) || e.Span.Start > e.Span.End {
			return 0, nil, &FileError{Path: path, Op: "apply", Err: fmt.Errorf("span %s outside file of %d bytes", e.Span, len(data))}
		}
	}

	updated, discarded := Apply(string(data), edits)
	if err := writeAtomic(path, []byte(updated), info.Mode().Perm()); err != nil {
		return 0, discarded, err
	}
	w.logger.Debug("updated file", "file", path, "edits", len(edits)-len(discarded))
	return len(edits) - len(discarded), discarded, nil
}

// writeAtomic replaces path through a temporary file in the same directory.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &FileError{Path: path, Op: "create temp", Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &FileError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return &FileError{Path: path, Op: "chmod", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &FileError{Path: path, Op: "close", Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &FileError{Path: path, Op: "rename", Err: err}
	}
	return nil
}
