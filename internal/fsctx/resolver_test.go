package fsctx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveTextFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))

	r := New(dir, 1024)
	out := r.Resolve([]string{"a.txt"})
	require.Len(t, out, 1)
	require.NoError(t, out[0].Err)
	require.Equal(t, "hello", out[0].Content)
}

func TestResolveMissingFile(t *testing.T) {
	r := New(t.TempDir(), 1024)
	out := r.Resolve([]string{"missing.txt"})
	require.Len(t, out, 1)
	require.Error(t, out[0].Err)
}

func TestResolveOversizeFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.txt"), []byte("0123456789"), 0o644))
	r := New(dir, 4)
	out := r.Resolve([]string{"big.txt"})
	require.Len(t, out, 1)
	require.Error(t, out[0].Err)
}

func TestResolveBinaryFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin.dat"), []byte{0xff, 0xfe, 0x00, 0xd8}, 0o644))
	r := New(dir, 1024)
	out := r.Resolve([]string{"bin.dat"})
	require.Len(t, out, 1)
	require.Error(t, out[0].Err)
}

func TestResolveDirectoryListsLexicographically(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "a.txt"), []byte("a"), 0o644))

	r := New(dir, 1024)
	out := r.Resolve([]string{"sub"})
	require.Len(t, out, 2)
	require.Equal(t, filepath.Join("sub", "a.txt"), out[0].Path)
	require.Equal(t, filepath.Join("sub", "b.txt"), out[1].Path)
}

func TestResolveEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(sub, 0o755))
	r := New(dir, 1024)
	out := r.Resolve([]string{"empty"})
	require.Len(t, out, 1)
	require.Error(t, out[0].Err)
}

func TestResolveDirectoryAppliesGitignore(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "keep.txt"), []byte("k"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "skip.log"), []byte("s"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, ".gitignore"), []byte("*.log\n"), 0o644))

	r := New(dir, 1024)
	out := r.Resolve([]string{"sub"})
	require.Len(t, out, 1)
	require.Equal(t, filepath.Join("sub", "keep.txt"), out[0].Path)
}

func TestResolveDeterminismAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	r := New(dir, 1024)
	first := r.Resolve([]string{"a.txt"})
	second := r.Resolve([]string{"a.txt"})
	require.Equal(t, first, second)
}
