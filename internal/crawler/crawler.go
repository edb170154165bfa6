package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"sbtup/internal/extractor"
	"sbtup/internal/resolver"
	"sbtup/internal/symbols"
)

const (
	RootBuildFile  = "build.sbt"
	PluginsFile    = "plugins.sbt"
	ProjectDir     = "project"
	buildSourceExt = ".scala"
)

// Crawler finds the build files of an sbt project and extracts their
// dependency records.
type Crawler struct {
	extractor   *extractor.Extractor
	ignored     []string
	concurrency int
	logger      *slog.Logger
}

// Options configures a Crawler.
type Options struct {
	// Concurrency bounds the number of files processed at once. Zero means
	// GOMAXPROCS.
	Concurrency int
	Logger      *slog.Logger
}

// NewCrawler creates a new crawler instance.
func NewCrawler(ext *extractor.Extractor, opts Options) *Crawler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Crawler{
		extractor:   ext,
		ignored:     []string{"target"},
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
	}
}

// ProjectFiles lists the build files under root in scan order: the root build
// file, the plugins file, then every build source under project/ in lexical
// path order. Files that do not exist are left out.
func (c *Crawler) ProjectFiles(root string) ([]string, error) {
	var files []string
	for _, p := range []string{
		filepath.Join(root, RootBuildFile),
		filepath.Join(root, ProjectDir, PluginsFile),
	} {
		ok, err := isFile(p)
		if err != nil {
			return nil, err
		}
		if ok {
			files = append(files, p)
		}
	}

	projectDir := filepath.Join(root, ProjectDir)
	err := filepath.WalkDir(projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == projectDir && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}

		if d.IsDir() {
			if path != projectDir && c.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasSuffix(d.Name(), buildSourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", projectDir, err)
	}
	return files, nil
}

func (c *Crawler) skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, ign := range c.ignored {
		if name == ign {
			return true
		}
	}
	return false
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

// ScanProject parses every project file and calls onFile with the extracted
// records of each, in ProjectFiles order. Constants defined in any file are
// visible to every other file; a file's own definitions take precedence.
func (c *Crawler) ScanProject(ctx context.Context, root string, onFile func(extractor.FileDependencies)) error {
	paths, err := c.ProjectFiles(root)
	if err != nil {
		return err
	}
	c.logger.Debug("project files", "root", root, "count", len(paths))

	parsed := make([]*extractor.ParsedFile, len(paths))
	defer func() {
		for _, pf := range parsed {
			if pf != nil {
				pf.Close()
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pf, err := c.extractor.ParseFile(gctx, path)
			if err != nil {
				return err
			}
			parsed[i] = pf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	tables := make([]symbols.Table, len(parsed))
	for i, pf := range parsed {
		tables[i] = pf.Symbols
	}
	project := resolver.ProjectScope(tables...)

	rootBuild := filepath.Join(root, RootBuildFile)
	results := make([]extractor.FileDependencies, len(parsed))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, pf := range parsed {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.extractor.Extract(pf, extractor.ExtractOptions{
				Project:         project,
				LanguageVersion: pf.Path == rootBuild,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, fd := range results {
		if fd.Unresolved > 0 {
			c.logger.Debug("dropped declarations with unresolved versions", "file", fd.Path, "count", fd.Unresolved)
		}
		onFile(fd)
	}
	return nil
}
