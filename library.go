package seafuse

import (
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/zlib"

	"github.com/jforberg/seafuse/sysutil"
)

// LibraryLocation identifies a repository: the on-disk root directory that
// holds the commits/fs/blocks stores, and the uuid selecting which
// sub-library within that root to read. It is immutable and shared
// read-only by every Library, FsWalker, and BlockReader built from it.
type LibraryLocation struct {
	RepoPath string
	UUID     string
}

// Library opens a repository rooted at a LibraryLocation and pins a single
// head commit as its read root. All higher-level reads (fs-node decoding,
// tree walking, file streaming) compose on Library.LoadFS.
type Library struct {
	Location   *LibraryLocation
	HeadCommit CommitNode

	lockFile *os.File
	lock     *sysutil.RepoLock
}

// Open scans every commit object under (repoPath, uuid) and selects the head
// commit: the one with the numerically largest ctime, ties broken by
// first-seen order (spec.md §4.1). It fails with ErrNoHeadCommit if the
// commits directory holds no commit objects; the first commit object that
// cannot be read or decoded aborts the scan with that object's error.
func Open(repoPath, uuid string) (*Library, error) {
	ll := &LibraryLocation{RepoPath: repoPath, UUID: uuid}

	lib := &Library{Location: ll}
	if err := lib.acquireLock(); err != nil {
		return nil, err
	}

	head, err := findHeadCommit(ll)
	if err != nil {
		lib.release()
		return nil, err
	}

	lib.HeadCommit = head
	return lib, nil
}

// OpenForCommit resolves a specific commit by hash, without scanning the
// rest of the commits directory.
func OpenForCommit(repoPath, uuid string, commitID Hash) (*Library, error) {
	ll := &LibraryLocation{RepoPath: repoPath, UUID: uuid}

	lib := &Library{Location: ll}
	if err := lib.acquireLock(); err != nil {
		return nil, err
	}

	path := ll.objPath(objectKindCommit, commitID)
	commit, err := decodeCommitFile(path)
	if err != nil {
		lib.release()
		return nil, err
	}

	lib.HeadCommit = commit
	return lib, nil
}

// Close releases the advisory lock taken on the repository root, if any.
func (lib *Library) Close() error {
	return lib.release()
}

func (lib *Library) acquireLock() error {
	root := lib.Location.RepoPath

	f, err := os.Open(root)
	if err != nil {
		// A missing or unreadable repository root surfaces clearly from
		// the very next operation (commit scan); locking is best-effort
		// and must not itself be the reported cause.
		return nil
	}

	rl := sysutil.NewRepoLock(f)
	if err := rl.Lock(); err != nil {
		f.Close()
		return nil
	}

	lib.lockFile = f
	lib.lock = rl
	return nil
}

func (lib *Library) release() error {
	if lib.lock == nil {
		return nil
	}

	err := lib.lock.Unlock()
	lib.lockFile.Close()
	lib.lock = nil
	lib.lockFile = nil
	return err
}

func findHeadCommit(ll *LibraryLocation) (CommitNode, error) {
	scanner, err := newCommitScanner(ll)
	if err != nil {
		return CommitNode{}, err
	}

	var head CommitNode
	var found bool

	for {
		commit, err, ok := scanner.Next()
		if !ok {
			break
		}
		if err != nil {
			return CommitNode{}, err
		}

		if !found || commit.Ctime > head.Ctime {
			head = commit
			found = true
		}
	}

	if !found {
		return CommitNode{}, ErrNoHeadCommit
	}

	return head, nil
}

// LoadFS decodes the fs-node identified by id. The sentinel EmptyHash
// resolves to an empty Dir without touching disk (spec.md §3, invariant 5).
func (lib *Library) LoadFS(id Hash) (FsNode, error) {
	return lib.Location.loadFS(id)
}

func (ll *LibraryLocation) loadFS(id Hash) (FsNode, error) {
	if id.IsEmpty() {
		return FsNode{Dir: &emptyDir}, nil
	}

	path := ll.objPath(objectKindFS, id)

	f, err := os.Open(path)
	if err != nil {
		return FsNode{}, &IOError{Path: path, Cause: err}
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return FsNode{}, &ParseJSONError{Path: path, Cause: err}
	}
	defer zr.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return FsNode{}, &ParseJSONError{Path: path, Cause: err}
	}

	node, err := decodeFsNode(buf.Bytes())
	if err != nil {
		return FsNode{}, &ParseJSONError{Path: path, Cause: err}
	}

	return node, nil
}

// LoadCommit decodes the commit object identified by id, without touching
// HeadCommit.
func (lib *Library) LoadCommit(id Hash) (CommitNode, error) {
	return decodeCommitFile(lib.Location.objPath(objectKindCommit, id))
}

// FileByID loads the fs-node at id and asserts it is a File.
func (lib *Library) FileByID(id Hash) (File, error) {
	node, err := lib.LoadFS(id)
	if err != nil {
		return File{}, err
	}

	return node.AsFile()
}

// FileReader builds a seekable, randomly-addressable reader over a File's
// block sequence.
func (lib *Library) FileReader(file File) (*FileReader, error) {
	br, err := newBlockReader(file, lib.Location)
	if err != nil {
		return nil, err
	}

	return newFileReader(br), nil
}

// OpenBlock opens the raw (uncompressed) bytes of a single block object for
// reading. The caller must Close the returned reader.
func (lib *Library) OpenBlock(id Hash) (io.ReadCloser, error) {
	path := lib.Location.objPath(objectKindBlock, id)

	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Cause: err}
	}
	return f, nil
}

// FsIterator returns a lazy depth-first cursor over the head commit's fs
// tree.
func (lib *Library) FsIterator() *FsWalker {
	return newFsWalker(lib)
}

// CommitIterator returns a fresh scan over every commit object in this
// repository.
func (lib *Library) CommitIterator() (*CommitScanner, error) {
	return newCommitScanner(lib.Location)
}
