package rotatelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T, maxSize int64, backups int) (*Writer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "status.log")
	w, err := New(path, maxSize, backups, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w, path
}

// record returns one n-byte newline-terminated record tagged with id.
func record(id byte, n int) []byte {
	b := []byte(strings.Repeat(string(id), n-1) + "\n")
	return b
}

func TestWriter_AppendsWithoutRotationUnderLimit(t *testing.T) {
	w, path := newTestWriter(t, 1024, 2)

	n, err := w.Write(record('a', 100))
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, int64(100), w.Size())

	_, err = os.Stat(path + ".1")
	assert.True(t, os.IsNotExist(err), "no backup expected before the limit is hit")
}

func TestWriter_RotatesBeforeTriggeringWrite(t *testing.T) {
	w, path := newTestWriter(t, 1024, 2)

	require.NoError(t, writeAll(w, record('a', 600)))
	require.NoError(t, writeAll(w, record('b', 600))) // 1200 > 1024 -> rotate first

	active, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, record('b', 600), active, "triggering record must open the fresh file")

	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, record('a', 600), backup)
}

func TestWriter_EvictsOldestBackup(t *testing.T) {
	w, path := newTestWriter(t, 1024, 2)

	// each record alone fits; each subsequent one forces rotation
	for _, id := range []byte{'a', 'b', 'c', 'd'} {
		require.NoError(t, writeAll(w, record(id, 600)))
	}

	active, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, record('d', 600), active)

	b1, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, record('c', 600), b1)

	b2, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	assert.Equal(t, record('b', 600), b2)

	// 'a' fell off the end of the backup chain
	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err))
}

func TestWriter_ZeroBackupsTruncates(t *testing.T) {
	w, path := newTestWriter(t, 512, 0)

	require.NoError(t, writeAll(w, record('a', 400)))
	require.NoError(t, writeAll(w, record('b', 400)))

	active, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, record('b', 400), active)

	_, err = os.Stat(path + ".1")
	assert.True(t, os.IsNotExist(err))
}

func TestWriter_ResumesSizeFromExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.log")
	require.NoError(t, os.WriteFile(path, record('a', 700), 0644))

	w, err := New(path, 1024, 1, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, int64(700), w.Size())

	// 700 + 600 > 1024, so the pre-existing content rotates out
	require.NoError(t, writeAll(w, record('b', 600)))
	active, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, record('b', 600), active)
}

func TestWriter_FailedRotationStillWrites(t *testing.T) {
	w, path := newTestWriter(t, 512, 1)

	// occupy the backup slot with a non-empty directory so the rename
	// step of rotation fails regardless of who runs the test
	require.NoError(t, os.Mkdir(path+".1", 0755))
	require.NoError(t, os.WriteFile(filepath.Join(path+".1", "blocker"), []byte("x"), 0644))

	require.NoError(t, writeAll(w, record('a', 400)))

	// 400 + 400 > 512 triggers rotation, which cannot complete; the
	// record must still land on the existing file without an error
	n, err := w.Write(record('b', 400))
	require.NoError(t, err)
	assert.Equal(t, 400, n)

	active, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, append(record('a', 400), record('b', 400)...), active)
	assert.Equal(t, int64(800), w.Size())
}

func writeAll(w *Writer, p []byte) error {
	_, err := w.Write(p)
	return err
}
