package extract_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"

	"github.com/jforberg/seafuse"
	"github.com/jforberg/seafuse/extract"
)

const testUUID = "868be3a7-b357-4189-af52-304b402d9904"

func hashOf(tag byte) seafuse.Hash {
	var h seafuse.Hash
	for i := range h {
		h[i] = tag
	}
	return h
}

func objPath(repoPath, kind, uuid string, id seafuse.Hash) string {
	hex := id.String()
	return filepath.Join(repoPath, kind, uuid, hex[:2], hex[2:])
}

func putBlock(t *testing.T, repoPath string, id seafuse.Hash, data []byte) {
	p := objPath(repoPath, "blocks", testUUID, id)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, data, 0644))
}

func putFS(t *testing.T, repoPath string, id seafuse.Hash, v interface{}) {
	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	p := objPath(repoPath, "fs", testUUID, id)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0644))
}

func putCommit(t *testing.T, repoPath string, c seafuse.CommitNode) {
	raw, err := json.Marshal(c)
	require.NoError(t, err)

	p := objPath(repoPath, "commits", testUUID, c.CommitID)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, raw, 0644))
}

// buildRepo lays out root -> {top.md, sub -> {nested.md}}.
func buildRepo(t *testing.T) (repoPath string, commitID seafuse.Hash) {
	repoPath = t.TempDir()

	topBlock := hashOf(0x01)
	putBlock(t, repoPath, topBlock, []byte("top level"))
	topFile := hashOf(0x02)
	putFS(t, repoPath, topFile, seafuse.File{BlockIDs: []seafuse.Hash{topBlock}, Size: 9})

	nestedBlock := hashOf(0x03)
	putBlock(t, repoPath, nestedBlock, []byte("nested contents"))
	nestedFile := hashOf(0x04)
	putFS(t, repoPath, nestedFile, seafuse.File{BlockIDs: []seafuse.Hash{nestedBlock}, Size: 15})

	subDir := hashOf(0x05)
	putFS(t, repoPath, subDir, seafuse.Dir{
		Dirents: []seafuse.Dirent{{ID: nestedFile, Mode: 0100644, Name: "nested.md"}},
	})

	rootID := hashOf(0x06)
	putFS(t, repoPath, rootID, seafuse.Dir{
		Dirents: []seafuse.Dirent{
			{ID: topFile, Mode: 0100644, Name: "top.md"},
			{ID: subDir, Mode: 040000, Name: "sub"},
		},
	})

	commitID = hashOf(0x10)
	putCommit(t, repoPath, seafuse.CommitNode{CommitID: commitID, RootID: rootID, Ctime: 1})

	return repoPath, commitID
}

func TestExtractWritesWholeTree(t *testing.T) {
	repoPath, commitID := buildRepo(t)
	lib, err := seafuse.OpenForCommit(repoPath, testUUID, commitID)
	require.NoError(t, err)
	defer lib.Close()

	dest := t.TempDir()
	ex := extract.New(lib, dest, "")

	progress, err := ex.Run()
	require.NoError(t, err)
	require.Greater(t, progress.Objects, 0)

	topData, err := os.ReadFile(filepath.Join(dest, "top.md"))
	require.NoError(t, err)
	require.Equal(t, "top level", string(topData))

	nestedData, err := os.ReadFile(filepath.Join(dest, "sub", "nested.md"))
	require.NoError(t, err)
	require.Equal(t, "nested contents", string(nestedData))
}

func TestExtractWithPrefixOnlyWritesSubtree(t *testing.T) {
	repoPath, commitID := buildRepo(t)
	lib, err := seafuse.OpenForCommit(repoPath, testUUID, commitID)
	require.NoError(t, err)
	defer lib.Close()

	dest := t.TempDir()
	ex := extract.New(lib, dest, "sub")

	_, err = ex.Run()
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dest, "top.md"))
	require.True(t, os.IsNotExist(err))

	nestedData, err := os.ReadFile(filepath.Join(dest, "sub", "nested.md"))
	require.NoError(t, err)
	require.Equal(t, "nested contents", string(nestedData))
}
