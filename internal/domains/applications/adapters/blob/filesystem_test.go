package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
)

func TestFileSystemStore_StoreAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileSystemStore(dir, "http://localhost:8080/files/")
	require.NoError(t, err)

	ctx := context.Background()
	url, err := store.Store(ctx, []byte("pay stub"), ports.BlobMetadata{ApplicationID: 4, Name: "Stub.PDF", ContentType: "application/pdf"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://localhost:8080/files/applications/4/"))
	require.True(t, strings.HasSuffix(url, ".pdf"))

	key := strings.TrimPrefix(url, "http://localhost:8080/files/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	require.Equal(t, "pay stub", string(data))

	require.NoError(t, store.Delete(ctx, url))
	require.ErrorIs(t, store.Delete(ctx, url), ports.ErrBlobNotFound)
}

func TestFileSystemStore_DeleteRejectsForeignURL(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir(), "http://files.local")
	require.NoError(t, err)

	err = store.Delete(context.Background(), "http://files.local/../etc/passwd")
	require.ErrorIs(t, err, ports.ErrBlobNotFound)
	err = store.Delete(context.Background(), "http://elsewhere/applications/1/x.pdf")
	require.ErrorIs(t, err, ports.ErrBlobNotFound)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore("")
	url, err := store.Store(context.Background(), []byte("id card"), ports.BlobMetadata{ApplicationID: 1, Name: "id.png"})
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	data, ok := store.Get(url)
	require.True(t, ok)
	require.Equal(t, "id card", string(data))

	require.NoError(t, store.Delete(context.Background(), url))
	require.ErrorIs(t, store.Delete(context.Background(), url), ports.ErrBlobNotFound)
}
