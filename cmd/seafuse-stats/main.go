// Command seafuse-stats prints summary statistics about a repository.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/jforberg/seafuse"
)

func main() {
	repoPath := flag.String("repo", "", "path to the repository root (required)")
	uuid := flag.String("uuid", "", "repository uuid (required)")
	commit := flag.String("commit", "", "report on a specific commit id instead of the head commit")
	flag.Parse()

	if *repoPath == "" || *uuid == "" {
		log.Fatalf("usage: seafuse-stats -repo PATH -uuid UUID [-commit ID]")
	}

	var lib *seafuse.Library
	var err error
	if *commit == "" {
		lib, err = seafuse.Open(*repoPath, *uuid)
	} else {
		var id seafuse.Hash
		id, err = seafuse.ParseHash(*commit)
		if err == nil {
			lib, err = seafuse.OpenForCommit(*repoPath, *uuid, id)
		}
	}
	if err != nil {
		log.Fatalf("open repository: %v", err)
	}
	defer lib.Close()

	s, err := computeStats(lib)
	if err != nil {
		log.Fatalf("compute stats: %v", err)
	}

	fmt.Printf("head commit:       %s\n", lib.HeadCommit.CommitID)
	fmt.Printf("repo name:         %s\n", lib.HeadCommit.RepoName)
	fmt.Printf("commit count:      %d\n", s.commitCount)
	fmt.Printf("oldest ctime:      %d\n", s.oldestCtime)
	fmt.Printf("newest ctime:      %d\n", s.newestCtime)
	fmt.Printf("files:             %d\n", s.fileCount)
	fmt.Printf("dirs:              %d\n", s.dirCount)
	fmt.Printf("max blocks/file:   %d\n", s.maxBlocksPerFile)
	fmt.Printf("max dirents/dir:   %d\n", s.maxDirentsPerDir)
	fmt.Printf("ancestry acyclic:  %t\n", !s.cycleDetected)
}

type stats struct {
	commitCount      int
	oldestCtime      uint64
	newestCtime      uint64
	fileCount        int
	dirCount         int
	maxBlocksPerFile int
	maxDirentsPerDir int
	cycleDetected    bool
}

func computeStats(lib *seafuse.Library) (stats, error) {
	var s stats

	if err := scanCommits(lib, &s); err != nil {
		return s, err
	}

	if err := walkTree(lib, &s); err != nil {
		return s, err
	}

	s.cycleDetected = detectCycle(lib)

	return s, nil
}

func scanCommits(lib *seafuse.Library, s *stats) error {
	scanner, err := lib.CommitIterator()
	if err != nil {
		return err
	}

	for {
		c, err, ok := scanner.Next()
		if !ok {
			break
		}
		if err != nil {
			// A single unreadable commit object does not invalidate the
			// rest of the count (spec.md §7); it is simply excluded.
			continue
		}

		s.commitCount++
		if s.commitCount == 1 || c.Ctime < s.oldestCtime {
			s.oldestCtime = c.Ctime
		}
		if c.Ctime > s.newestCtime {
			s.newestCtime = c.Ctime
		}
	}

	return nil
}

func walkTree(lib *seafuse.Library, s *stats) error {
	// The walker never yields the root itself, so its dirents are counted
	// here.
	root, err := lib.LoadFS(lib.HeadCommit.RootID)
	if err != nil {
		return err
	}
	if rootDir, err := root.AsDir(); err == nil {
		s.maxDirentsPerDir = len(rootDir.Dirents)
	}

	walker := lib.FsIterator()

	for {
		_, _, node, err, ok := walker.Next()
		if !ok {
			break
		}
		if err != nil {
			return err
		}

		if node.IsDir() {
			dir, _ := node.AsDir()
			s.dirCount++
			if n := len(dir.Dirents); n > s.maxDirentsPerDir {
				s.maxDirentsPerDir = n
			}
			continue
		}

		file, _ := node.AsFile()
		s.fileCount++
		if n := len(file.BlockIDs); n > s.maxBlocksPerFile {
			s.maxBlocksPerFile = n
		}
	}

	return nil
}

// maxAncestryDepth bounds the walk back through parent_id links (the
// second_parent_id of a merge commit is not followed):
// full history reconstruction remains a Non-goal, but a bounded walk is
// enough to catch the kind of accidental self-reference invariant 4 rules
// out.
const maxAncestryDepth = 10000

func detectCycle(lib *seafuse.Library) bool {
	seen := make(map[seafuse.Hash]bool)

	current := lib.HeadCommit
	for i := 0; i < maxAncestryDepth; i++ {
		if seen[current.CommitID] {
			return true
		}
		seen[current.CommitID] = true

		if current.ParentID == nil {
			return false
		}

		parent, err := lib.LoadCommit(*current.ParentID)
		if err != nil {
			return false
		}
		current = parent
	}

	return false
}
