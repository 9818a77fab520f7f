package seafuse

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
)

// CommitScanner enumerates every commit object under a repository's commits
// directory. Each call to Next decodes one more commit file; a parse or I/O
// failure on one object is reported as that item's own error without
// stopping the scan of the remaining objects (spec.md §4.1, §7).
type CommitScanner struct {
	paths []string
	pos   int
}

// newCommitScanner walks repo_path/commits/uuid and collects every regular
// file found, in the order filepath.WalkDir visits them.
func newCommitScanner(ll *LibraryLocation) (*CommitScanner, error) {
	root := ll.objTypePath(objectKindCommit)

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, &WalkDirError{Cause: err}
	}

	return &CommitScanner{paths: paths}, nil
}

// Next decodes the next commit object and reports whether there was one to
// decode. A decode failure is returned via the error result, but does not
// end the scan: the following call to Next still advances to the next
// object.
func (s *CommitScanner) Next() (CommitNode, error, bool) {
	if s.pos >= len(s.paths) {
		return CommitNode{}, nil, false
	}

	path := s.paths[s.pos]
	s.pos++

	commit, err := decodeCommitFile(path)
	return commit, err, true
}

func decodeCommitFile(path string) (CommitNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CommitNode{}, &IOError{Path: path, Cause: err}
	}

	var c CommitNode
	if err := json.Unmarshal(data, &c); err != nil {
		return CommitNode{}, &ParseJSONError{Path: path, Cause: err}
	}

	return c, nil
}
