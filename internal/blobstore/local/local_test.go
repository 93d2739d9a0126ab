package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPutWritesFileAndReturnsPublicURL(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, "http://localhost:8080/blobs", zaptest.NewLogger(t))
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "checks/42/CHK-9.jpg", []byte{0xff, 0xd8}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/blobs/checks/42/CHK-9.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "checks", "42", "CHK-9.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data)

	_, err = store.Put(context.Background(), "checks/42/CHK-9.jpg", []byte{0x01}, "image/jpeg")
	require.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(dir, "checks", "42", "CHK-9.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, data)
}

func TestPutRejectsTraversal(t *testing.T) {
	store, err := New(t.TempDir(), "http://localhost/blobs", nil)
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../outside.jpg", []byte("x"), "image/jpeg")
	assert.Error(t, err)
}
