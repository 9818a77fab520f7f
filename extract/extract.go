// Package extract materializes a repository's fs-tree onto disk (spec.md
// §4.5), optionally restricted to one path prefix, reporting progress the
// way the teacher's fetch command does.
package extract

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jforberg/seafuse"
)

// Progress receives a callback after every object copied. Both numbers are
// cumulative totals, not deltas, mirroring stemma.ProgressMeter's counters.
type Progress struct {
	Objects int
	Bytes   int64
}

// Extractor drives an FsWalker over a Library, writing each visited Dir as a
// directory and each visited File as a regular file beneath a destination
// root.
type Extractor struct {
	lib    *seafuse.Library
	dest   string
	prefix string // "" means no filter

	onProgress func(Progress)
	progress   Progress
}

// New builds an Extractor writing into dest. If prefix is non-empty, only
// the subtree rooted at that path (and its ancestor directories) is
// materialized; everything else is pruned from the walk rather than merely
// skipped, matching spec.md §4.2's semantics for FsWalker.Prune.
func New(lib *seafuse.Library, dest, prefix string) *Extractor {
	return &Extractor{
		lib:    lib,
		dest:   dest,
		prefix: strings.Trim(prefix, "/"),
	}
}

// OnProgress registers a callback invoked after each object is written.
func (e *Extractor) OnProgress(fn func(Progress)) {
	e.onProgress = fn
}

// pathRelation classifies how an entry's path relates to the extraction
// prefix filter.
type pathRelation int

const (
	relationYes      pathRelation = iota // fully within the prefix: extract and recurse freely
	relationContinue                     // an ancestor of the prefix: extract the directory shell, keep walking
	relationNo                           // disjoint from the prefix: prune
)

func (e *Extractor) relation(entryPath string) pathRelation {
	if e.prefix == "" {
		return relationYes
	}
	if entryPath == e.prefix || strings.HasPrefix(entryPath, e.prefix+"/") {
		return relationYes
	}
	if e.prefix == entryPath || strings.HasPrefix(e.prefix, entryPath+"/") {
		return relationContinue
	}
	return relationNo
}

// Run walks the whole tree and writes every reachable entry under dest,
// returning the final progress totals. A per-entry load failure aborts the
// extraction: a partially written tree is reported via the returned error
// rather than silently skipped.
func (e *Extractor) Run() (Progress, error) {
	if err := os.MkdirAll(e.dest, 0755); err != nil {
		return e.progress, fmt.Errorf("create destination %s: %w", e.dest, err)
	}

	walker := e.lib.FsIterator()

	for {
		parentPath, de, node, err, ok := walker.Next()
		if !ok {
			break
		}
		if err != nil {
			return e.progress, fmt.Errorf("walk: %w", err)
		}

		entryPath := path.Join(parentPath, de.Name)

		switch e.relation(entryPath) {
		case relationNo:
			if node.IsDir() {
				walker.Prune()
			}
			continue
		case relationContinue:
			if node.IsDir() {
				if err := e.mkdir(entryPath); err != nil {
					return e.progress, err
				}
			}
			continue
		}

		if node.IsDir() {
			if err := e.mkdir(entryPath); err != nil {
				return e.progress, err
			}
			continue
		}

		file, err := node.AsFile()
		if err != nil {
			return e.progress, fmt.Errorf("extract %s: %w", entryPath, err)
		}
		if err := e.writeFile(entryPath, file); err != nil {
			return e.progress, err
		}
	}

	return e.progress, nil
}

func (e *Extractor) mkdir(relPath string) error {
	target := filepath.Join(e.dest, filepath.FromSlash(relPath))
	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", target, err)
	}
	e.bump(1, 0)
	return nil
}

func (e *Extractor) writeFile(relPath string, file seafuse.File) error {
	target := filepath.Join(e.dest, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(target), err)
	}

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	defer out.Close()

	fr, err := e.lib.FileReader(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", relPath, err)
	}

	n, err := io.Copy(out, fr)
	if err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}

	e.bump(1, n)
	return nil
}

func (e *Extractor) bump(objects int, bytes int64) {
	e.progress.Objects += objects
	e.progress.Bytes += bytes
	if e.onProgress != nil {
		e.onProgress(e.progress)
	}
}
