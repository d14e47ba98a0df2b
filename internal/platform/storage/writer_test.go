package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformtesting "imaged/internal/platform/testing"
)

func newTestWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	dir := t.TempDir()
	return NewWriter(dir, platformtesting.SetupTestLogger(t)), dir
}

func TestWriter_Save(t *testing.T) {
	w, dir := newTestWriter(t)
	require.NoError(t, w.Ensure())

	name, err := w.Save([]byte("JPEGDATA"), "image/jpeg", "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", name)

	got, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "JPEGDATA", string(got))
}

func TestWriter_SaveCollision(t *testing.T) {
	w, dir := newTestWriter(t)
	require.NoError(t, w.Ensure())

	first, err := w.Save([]byte("ONE"), "image/png", "dup.png")
	require.NoError(t, err)
	second, err := w.Save([]byte("TWO"), "image/png", "dup.png")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	got, err := os.ReadFile(filepath.Join(dir, first))
	require.NoError(t, err)
	assert.Equal(t, "ONE", string(got))
	got, err = os.ReadFile(filepath.Join(dir, second))
	require.NoError(t, err)
	assert.Equal(t, "TWO", string(got))
}

func TestWriter_SaveConcurrentSameName(t *testing.T) {
	w, dir := newTestWriter(t)
	require.NoError(t, w.Ensure())

	const workers = 8
	paths := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			paths[i], errs[i] = w.Save([]byte{byte(i)}, "image/png", "race.png")
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i], "worker %d", i)
		assert.False(t, seen[paths[i]], "duplicate path %s", paths[i])
		seen[paths[i]] = true
	}

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, workers)
}

func TestWriter_SaveEscapingNameStaysInside(t *testing.T) {
	w, dir := newTestWriter(t)
	require.NoError(t, w.Ensure())

	name, err := w.Save([]byte("X"), "image/png", "../../escape.png")
	require.NoError(t, err)
	assert.Equal(t, "escape.png", name)

	_, err = os.Stat(filepath.Join(dir, "escape.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "..", "..", "escape.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriter_SaveMissingDirectory(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)
	w := NewWriter(filepath.Join(t.TempDir(), "never", "created"), logger)

	_, err := w.Save([]byte("X"), "image/png", "a.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestWriter_List(t *testing.T) {
	w, dir := newTestWriter(t)
	require.NoError(t, w.Ensure())

	names, err := w.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, n := range []string{"charlie.png", "alpha.jpg", "bravo.gif"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	names, err = w.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.jpg", "bravo.gif", "charlie.png"}, names)
}

func TestWriter_ListSkipsNonUTF8Names(t *testing.T) {
	w, dir := newTestWriter(t)
	require.NoError(t, w.Ensure())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad\xff\xfe.png"), []byte("x"), 0o644))

	names, err := w.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.png"}, names)
}

func TestWriter_ListMissingDirectory(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)
	w := NewWriter(filepath.Join(t.TempDir(), "missing"), logger)

	names, err := w.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}
