package seafuse

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
)

// fixtureRepo builds a small on-disk repository under a fresh temp directory,
// mirroring the shape of the upstream test fixtures (a basic repo with a
// single commit, a root dir holding a file and a subdirectory).
type fixtureRepo struct {
	t        *testing.T
	repoPath string
	uuid     string
}

func newFixtureRepo(t *testing.T, uuid string) *fixtureRepo {
	return &fixtureRepo{t: t, repoPath: t.TempDir(), uuid: uuid}
}

func (fr *fixtureRepo) objDir(kind objectKind, id Hash) string {
	hexID := id.String()
	dir := filepath.Join(fr.repoPath, kind.String(), fr.uuid, hexID[:2])
	require.NoError(fr.t, os.MkdirAll(dir, 0755))
	return filepath.Join(dir, hexID[2:])
}

func (fr *fixtureRepo) putBlock(id Hash, data []byte) {
	require.NoError(fr.t, os.WriteFile(fr.objDir(objectKindBlock, id), data, 0644))
}

func (fr *fixtureRepo) putFS(id Hash, v interface{}) {
	raw, err := json.Marshal(v)
	require.NoError(fr.t, err)

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err = zw.Write(raw)
	require.NoError(fr.t, err)
	require.NoError(fr.t, zw.Close())

	require.NoError(fr.t, os.WriteFile(fr.objDir(objectKindFS, id), buf.Bytes(), 0644))
}

func (fr *fixtureRepo) putCommit(c CommitNode) {
	raw, err := json.Marshal(c)
	require.NoError(fr.t, err)
	require.NoError(fr.t, os.WriteFile(fr.objDir(objectKindCommit, c.CommitID), raw, 0644))
}

// hashOf derives a deterministic, distinct fixture hash from a small integer
// tag so tests don't need to hand-compute real content hashes.
func hashOf(tag byte) Hash {
	var h Hash
	for i := range h {
		h[i] = tag
	}
	return h
}

// basicFixture builds: root dir -> {test.md (file), somedir -> {test2.md (file)}}.
// One commit, one block per file.
func basicFixture(t *testing.T) (*fixtureRepo, CommitNode) {
	fr := newFixtureRepo(t, "868be3a7-b357-4189-af52-304b402d9904")

	blockID := hashOf(0x01)
	fr.putBlock(blockID, []byte("# test\n\ntest\n"))

	fileID := hashOf(0x02)
	fr.putFS(fileID, File{BlockIDs: []Hash{blockID}, Size: 13, Ty: 1, Version: 1})

	block2ID := hashOf(0x03)
	fr.putBlock(block2ID, []byte("# test2\n"))

	file2ID := hashOf(0x04)
	fr.putFS(file2ID, File{BlockIDs: []Hash{block2ID}, Size: 8, Ty: 1, Version: 1})

	subdirID := hashOf(0x05)
	fr.putFS(subdirID, Dir{
		Dirents: []Dirent{{ID: file2ID, Mode: 0100644, Mtime: 1000, Name: "test2.md"}},
		Ty:      0, Version: 1,
	})

	rootID := hashOf(0x06)
	fr.putFS(rootID, Dir{
		Dirents: []Dirent{
			{ID: fileID, Mode: 0100644, Mtime: 1000, Name: "test.md"},
			{ID: subdirID, Mode: 040000, Mtime: 1000, Name: "somedir"},
		},
		Ty: 0, Version: 1,
	})

	commit := CommitNode{
		CommitID: hashOf(0x10),
		RootID:   rootID,
		RepoID:   fr.uuid,
		RepoName: "basic",
		Ctime:    100,
		Version:  1,
	}
	fr.putCommit(commit)

	return fr, commit
}

// multiblockFixture builds a single file "test.md" made of three blocks
// whose concatenation is "gronkadonkachonka" (17 bytes).
func multiblockFixture(t *testing.T) (*fixtureRepo, CommitNode, Hash) {
	fr := newFixtureRepo(t, "868be3a7-b357-4189-af52-304b402d9904")

	b1, b2, b3 := hashOf(0x21), hashOf(0x22), hashOf(0x23)
	fr.putBlock(b1, []byte("gronka"))
	fr.putBlock(b2, []byte("donka"))
	fr.putBlock(b3, []byte("chonka"))

	fileID := hashOf(0x24)
	fr.putFS(fileID, File{BlockIDs: []Hash{b1, b2, b3}, Size: 17, Ty: 1, Version: 1})

	rootID := hashOf(0x25)
	fr.putFS(rootID, Dir{
		Dirents: []Dirent{{ID: fileID, Mode: 0100644, Mtime: 1000, Name: "test.md"}},
		Ty:      0, Version: 1,
	})

	commit := CommitNode{
		CommitID: hashOf(0x30),
		RootID:   rootID,
		RepoID:   fr.uuid,
		RepoName: "multiblock",
		Ctime:    200,
	}
	fr.putCommit(commit)

	return fr, commit, fileID
}

// nestedFixture builds root -> {a -> {a.md}, b -> {b.md}}, used to exercise
// Prune part-way through a walk.
func nestedFixture(t *testing.T) (*fixtureRepo, CommitNode) {
	fr := newFixtureRepo(t, "66ece1b2-55ed-414a-b0ee-2550273b0d29")

	aFileBlock := hashOf(0x41)
	fr.putBlock(aFileBlock, []byte("a"))
	aFile := hashOf(0x42)
	fr.putFS(aFile, File{BlockIDs: []Hash{aFileBlock}, Size: 1})

	bFileBlock := hashOf(0x43)
	fr.putBlock(bFileBlock, []byte("b"))
	bFile := hashOf(0x44)
	fr.putFS(bFile, File{BlockIDs: []Hash{bFileBlock}, Size: 1})

	aDir := hashOf(0x45)
	fr.putFS(aDir, Dir{Dirents: []Dirent{{ID: aFile, Mode: 0100644, Name: "a.md"}}})

	bDir := hashOf(0x46)
	fr.putFS(bDir, Dir{Dirents: []Dirent{{ID: bFile, Mode: 0100644, Name: "b.md"}}})

	rootID := hashOf(0x47)
	fr.putFS(rootID, Dir{
		Dirents: []Dirent{
			{ID: aDir, Mode: 040000, Name: "a"},
			{ID: bDir, Mode: 040000, Name: "b"},
		},
	})

	commit := CommitNode{CommitID: hashOf(0x50), RootID: rootID, RepoID: fr.uuid, Ctime: 300}
	fr.putCommit(commit)

	return fr, commit
}

// emptyDirFixture builds a repository whose root resolves via EmptyHash.
func emptyDirFixture(t *testing.T) (*fixtureRepo, CommitNode) {
	fr := newFixtureRepo(t, "868be3a7-b357-4189-af52-304b402d9904")

	commit := CommitNode{CommitID: hashOf(0x60), RootID: EmptyHash, RepoID: fr.uuid, Ctime: 400}
	fr.putCommit(commit)

	return fr, commit
}
