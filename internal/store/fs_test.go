package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFS(t *testing.T) (*FSStore, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "article")
	s, err := OpenFS(root)
	require.NoError(t, err)
	return s, root
}

func TestFSLayoutUsesDecimalNames(t *testing.T) {
	s, root := openFS(t)

	for _, p := range []string{"zero", "one"} {
		_, err := s.Append(5, []byte(p))
		require.NoError(t, err)
	}

	data, err := os.ReadFile(filepath.Join(root, "5", "comment", "1"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	entries, err := os.ReadDir(filepath.Join(root, "5", "comment"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"0", "1"}, names)
}

func TestFSCountDoesNotCreateContainer(t *testing.T) {
	s, root := openFS(t)

	n, err := s.Count(42)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = os.Stat(filepath.Join(root, "42"))
	assert.True(t, os.IsNotExist(err), "Count must not create the container")
}

func TestFSEnsureContainerCreatesDirectory(t *testing.T) {
	s, root := openFS(t)

	c, err := s.EnsureContainer(3)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "3", "comment"), c.Location)

	info, err := os.Stat(c.Location)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFSReopenContinuesSequence(t *testing.T) {
	s, root := openFS(t)
	for i := 0; i < 3; i++ {
		_, err := s.Append(1, []byte("before restart"))
		require.NoError(t, err)
	}

	reopened, err := OpenFS(root)
	require.NoError(t, err)

	res, err := reopened.Append(1, []byte("after restart"))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Seq)

	got, err := reopened.Read(1, 0)
	require.NoError(t, err)
	assert.Equal(t, "before restart", string(got))
}

func TestFSSeedSkipsPastGap(t *testing.T) {
	s, root := openFS(t)
	dir := filepath.Join(root, "4", "comment")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, name := range []string{"0", "1", "3"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}

	res, err := s.AllocateNext(4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Seq, "allocation must not refill a gap")

	n, err := s.Count(4)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestFSTempFilesAreIgnoredAndCleaned(t *testing.T) {
	s, root := openFS(t)
	_, err := s.Append(2, []byte("real"))
	require.NoError(t, err)

	dir := filepath.Join(root, "2", "comment")
	stale := filepath.Join(dir, tempPrefix+"leftover")
	require.NoError(t, os.WriteFile(stale, []byte("partial"), 0644))

	n, err := s.Count(2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	removed, err := s.CleanAll()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale temp file should be removed")
}

func TestFSWriteFailureLeavesVisibleGap(t *testing.T) {
	s, root := openFS(t)
	_, err := s.Append(6, []byte("ok"))
	require.NoError(t, err)

	res, err := s.AllocateNext(6)
	require.NoError(t, err)
	require.Equal(t, 1, res.Seq)

	// Replace the container with a plain file so the write cannot land.
	dir := filepath.Join(root, "6", "comment")
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("not a dir"), 0644))

	err = s.Write(res, []byte("lost"))
	var wf *WriteFailedError
	require.ErrorAs(t, err, &wf)

	// Restore the container; the failed sequence stays consumed.
	require.NoError(t, os.Remove(dir))
	res, err = s.Append(6, []byte("after failure"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Seq)
}

func TestFSCleanAllSkipsNonArticleEntries(t *testing.T) {
	s, root := openFS(t)
	_, err := s.Append(1, []byte("x"))
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "0"), []byte("keep"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "1", "width"), []byte("80"), 0644))

	removed, err := s.CleanAll()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(filepath.Join(root, "assets", "0"))
	assert.NoError(t, err, "non-article directories are left alone")
	_, err = os.Stat(filepath.Join(root, "1", "width"))
	assert.NoError(t, err, "article metadata is left alone")
}

func TestFSCleanAllPicksUpArticlesFromDisk(t *testing.T) {
	_, root := openFS(t)
	for _, id := range []string{"1", "2"} {
		dir := filepath.Join(root, id, "comment")
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "0"), []byte("x"), 0644))
	}

	// A fresh store has no in-memory state for either article.
	s, err := OpenFS(root)
	require.NoError(t, err)

	removed, err := s.CleanAll()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
}

func TestIsBlobName(t *testing.T) {
	for name, want := range map[string]bool{
		"0":          true,
		"15":         true,
		"":           false,
		"1.txt":      false,
		".tmp-abc":   false,
		"-1":         false,
		"comment":    false,
		"9999999999": true,
		"00":         false,
		"007":        false,
	} {
		assert.Equal(t, want, isBlobName(name), "isBlobName(%q)", name)
	}
}

func TestFSIgnoresZeroPaddedNames(t *testing.T) {
	s, root := openFS(t)
	_, err := s.Append(7, []byte("real"))
	require.NoError(t, err)

	dir := filepath.Join(root, "7", "comment")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00"), []byte("padded"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "007", "comment"), 0755))

	n, err := s.Count(7)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "00 must not count as a second comment 0")

	ids, err := s.articleIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{7}, ids)

	removed, err := s.CleanAll()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = os.Stat(filepath.Join(dir, "00"))
	assert.NoError(t, err, "non-comment entries are left alone")
}

func TestMergeIDs(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 5}, mergeIDs([]int{3, 1}, []int{5, 1, 2}))
	assert.Empty(t, mergeIDs(nil, nil))
}
