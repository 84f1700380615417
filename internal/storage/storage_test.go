package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root, "/media/", 1)
	require.NoError(t, err)

	obj, err := s.Save(context.Background(), "conv-1", "../../screenshot.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, int64(len("png-bytes")), obj.Size)
	assert.True(t, strings.HasPrefix(obj.URL, "/media/conv-1/"))
	assert.True(t, strings.HasSuffix(obj.Path, ".png"))

	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(obj.Path)))
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), obj.Path))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(obj.Path)))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorage_RejectsOversizedFile(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root, "/media", 1)
	require.NoError(t, err)

	big := bytes.Repeat([]byte("a"), 1024*1024+1)
	_, err = s.Save(context.Background(), "conv", "big.bin", "application/octet-stream", bytes.NewReader(big))

	assert.ErrorIs(t, err, ErrTooLarge)
	entries, _ := os.ReadDir(filepath.Join(root, "conv"))
	assert.Empty(t, entries)
}

func TestDownloadURL_EscapesPath(t *testing.T) {
	u := downloadURL("pokemarket.appspot.com", "chat/abc/1.png", "tok")
	assert.Equal(t, "https://firebasestorage.googleapis.com/v0/b/pokemarket.appspot.com/o/chat%2Fabc%2F1.png?alt=media&token=tok", u)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "passwd", sanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "file", sanitizeFilename(""))
}
