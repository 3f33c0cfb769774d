package storage

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_SelectsBackend(t *testing.T) {
	store, err := New(Config{Backend: BackendMemory})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)

	// empty backend falls back to memory
	store, err = New(Config{})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)

	_, err = New(Config{Backend: "ftp"})
	require.Error(t, err)

	_, err = New(Config{Backend: BackendMinio})
	require.Error(t, err) // bucket required

	_, err = New(Config{Backend: BackendS3})
	require.Error(t, err) // bucket required
}

func TestMemoryStore_UploadDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("https://cdn.example.com")

	url, err := store.Upload(ctx, "avatars/u/original.jpg", bytes.NewReader([]byte("payload")), 7, "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/avatars/u/original.jpg", url)

	data, ok := store.Get("avatars/u/original.jpg")
	require.True(t, ok)
	require.Equal(t, []byte("payload"), data)
	require.Equal(t, "image/jpeg", store.ContentType("avatars/u/original.jpg"))

	require.NoError(t, store.Delete(ctx, "avatars/u/original.jpg"))
	_, ok = store.Get("avatars/u/original.jpg")
	require.False(t, ok)

	// deleting a missing object is a no-op
	require.NoError(t, store.Delete(ctx, "avatars/u/original.jpg"))
}

func TestJoinURL(t *testing.T) {
	require.Equal(t, "https://cdn.example.com/a/b.jpg", joinURL("https://cdn.example.com/", "/a/b.jpg"))
	require.Equal(t, "memory://avatars/a.jpg", joinURL("memory://avatars", "a.jpg"))
}
