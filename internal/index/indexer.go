package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"sbtup/internal/crawler"
	"sbtup/internal/depmap"
	"sbtup/internal/extractor"
)

// Indexer builds the dependency map of a project.
type Indexer struct {
	crawler *crawler.Crawler
}

// NewIndexer creates a new indexer.
func NewIndexer(c *crawler.Crawler) *Indexer {
	return &Indexer{
		crawler: c,
	}
}

// Snapshot is the result of indexing one project.
type Snapshot struct {
	Root       string                       `json:"root"`
	Files      []extractor.FileDependencies `json:"files"`
	Map        *depmap.Map                  `json:"dependencies"`
	Unresolved int                          `json:"unresolved"`
}

// BuildMap scans the project root and merges every record into one map.
// Merging starts after all files have been extracted.
func (i *Indexer) BuildMap(ctx context.Context, root string) (*Snapshot, error) {
	snap := &Snapshot{Root: root}
	err := i.crawler.ScanProject(ctx, root, func(fd extractor.FileDependencies) {
		snap.Files = append(snap.Files, fd)
		snap.Unresolved += fd.Unresolved
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	snap.Map = depmap.FromFiles(snap.Files)
	return snap, nil
}

// SaveSnapshot writes the snapshot as indented JSON.
func (i *Indexer) SaveSnapshot(snap *Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}
