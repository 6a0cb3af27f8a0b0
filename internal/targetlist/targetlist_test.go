package targetlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromFilelistSkipsCommentsAndResolvesRelative(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(listPath, []byte("# a comment\nrel/a.bin\n\n/abs/b.bin\n"), 0o644))

	entries, err := FromFilelist(listPath)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "rel/a.bin"), "/abs/b.bin"}, entries)
}

func TestDirectoryTargetsSyntheticNames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	targets, err := DirectoryTargets(dir, "", 3)
	require.NoError(t, err)
	require.Len(t, targets, 3)
	require.Equal(t, filepath.Join(dir, "pump-0.bin"), targets[0])
	require.Equal(t, filepath.Join(dir, "pump-2.bin"), targets[2])

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestDirectoryTargetsFromFilelist(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(listPath, []byte("a.bin\nb.bin\n"), 0o644))

	outDir := filepath.Join(dir, "out")
	targets, err := DirectoryTargets(outDir, listPath, 0)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(outDir, "a.bin"), filepath.Join(outDir, "b.bin")}, targets)
}

func TestIsStdout(t *testing.T) {
	require.True(t, IsStdout("-"))
	require.False(t, IsStdout("file.txt"))
}

func TestIsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.True(t, IsDirectory(dir))
	require.False(t, IsDirectory(filepath.Join(dir, "nonexistent")))
}
