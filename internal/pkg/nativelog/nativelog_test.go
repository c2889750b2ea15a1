package nativelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDir(t *testing.T) {
	t.Setenv(EnvLogDir, "")
	assert.Equal(t, filepath.Join(".", "logs"), ResolveDir(""))
	assert.Equal(t, "/var/log/oc", ResolveDir(" /var/log/oc "))

	t.Setenv(EnvLogDir, "/tmp/override")
	assert.Equal(t, "/tmp/override", ResolveDir("/var/log/oc"))
}

func TestWriterAppendsToDailyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	w, err := NewWriter(dir)
	require.NoError(t, err)
	day := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return day }

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "origincheck_2024-03-09.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))

	n, err := w.Write(nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}
