package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalPut(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewLocal(dir)
	require.NoError(t, err)

	uri, err := s.Put(context.Background(), "reports/news_brief.md", "text/markdown", strings.NewReader("# brief"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "file://"))

	data, err := os.ReadFile(filepath.Join(dir, "reports", "news_brief.md"))
	require.NoError(t, err)
	require.Equal(t, "# brief", string(data))
}

func TestLocalPutRejectsTraversal(t *testing.T) {
	t.Parallel()

	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "../escape.txt", "", strings.NewReader("x"))
	require.Error(t, err)
}

func TestNewLocalCreatesMissingDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "out")
	_, err := NewLocal(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestUploadFile(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0o600))

	dir := t.TempDir()
	s, err := NewLocal(dir)
	require.NoError(t, err)

	uri, err := UploadFile(context.Background(), s, src)
	require.NoError(t, err)
	require.Contains(t, uri, "report.md")

	data, err := os.ReadFile(filepath.Join(dir, "report.md"))
	require.NoError(t, err)
	require.Equal(t, "content", string(data))
}
