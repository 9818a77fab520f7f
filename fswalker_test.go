package seafuse

import (
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFsWalkerVisitsEveryEntry(t *testing.T) {
	fr, commit := basicFixture(t)
	lib, err := OpenForCommit(fr.repoPath, fr.uuid, commit.CommitID)
	require.NoError(t, err)
	defer lib.Close()

	seen := map[string]bool{}
	w := lib.FsIterator()
	for {
		parent, de, _, err, ok := w.Next()
		if !ok {
			break
		}
		require.NoError(t, err)
		seen[path.Join(parent, de.Name)] = true
	}

	assert.Equal(t, map[string]bool{
		"test.md":          true,
		"somedir":          true,
		"somedir/test2.md": true,
	}, seen)
}

func TestFsWalkerPruneMidWalk(t *testing.T) {
	fr, commit := basicFixture(t)
	lib, err := OpenForCommit(fr.repoPath, fr.uuid, commit.CommitID)
	require.NoError(t, err)
	defer lib.Close()

	w := lib.FsIterator()

	_, de, _, err, ok := w.Next()
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, "somedir", de.Name)

	w.Prune()

	_, de, _, err, ok = w.Next()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "test.md", de.Name)

	_, _, _, _, ok = w.Next()
	assert.False(t, ok)
}

func TestFsWalkerPruneAtRoot(t *testing.T) {
	fr, commit := basicFixture(t)
	lib, err := OpenForCommit(fr.repoPath, fr.uuid, commit.CommitID)
	require.NoError(t, err)
	defer lib.Close()

	w := lib.FsIterator()
	w.Prune()

	_, _, _, _, ok := w.Next()
	assert.False(t, ok)
}

func TestFsWalkerPruneNested(t *testing.T) {
	fr, commit := nestedFixture(t)
	lib, err := OpenForCommit(fr.repoPath, fr.uuid, commit.CommitID)
	require.NoError(t, err)
	defer lib.Close()

	w := lib.FsIterator()
	selected := map[string]bool{}
	sawA := false

	for {
		parent, de, _, err, ok := w.Next()
		if !ok {
			break
		}
		require.NoError(t, err)

		if de.Name == "a" {
			require.False(t, sawA, "should only visit a/ once before pruning it")
			sawA = true
			w.Prune()
			continue
		}

		selected[path.Join(parent, de.Name)] = true
	}

	assert.Equal(t, map[string]bool{"b": true, "b/b.md": true}, selected)
}

func TestFsWalkerEmptyRootDir(t *testing.T) {
	fr, commit := emptyDirFixture(t)
	lib, err := OpenForCommit(fr.repoPath, fr.uuid, commit.CommitID)
	require.NoError(t, err)
	defer lib.Close()

	dir, err := lib.LoadFS(lib.HeadCommit.RootID)
	require.NoError(t, err)

	d, err := dir.AsDir()
	require.NoError(t, err)
	assert.Empty(t, d.Dirents)

	_, _, _, _, ok := lib.FsIterator().Next()
	assert.False(t, ok)
}
