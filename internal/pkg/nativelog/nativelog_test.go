package nativelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterAppendsToDailyFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)
	day := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return day }

	_, err = w.Write([]byte("one\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("two\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "folio_2024-03-09.log"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestPruneKeepsRecentFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	for _, name := range []string{
		DailyFilename(now),
		DailyFilename(now.AddDate(0, 0, -3)),
		DailyFilename(now.AddDate(0, 0, -30)),
		"unrelated.log",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	removed, err := Prune(dir, 7, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
