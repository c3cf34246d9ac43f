package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/realtimehub/internal/domain"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(afero.NewMemMapFs(), "/home/user/.config/realtimehub/session.json"),
		"sqlite": sqlite,
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()

	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get(ctx, "authToken")
			require.NoError(t, err)
			assert.False(t, ok, "missing key should not be found")

			require.NoError(t, store.Set(ctx, "authToken", "tok-1"))
			require.NoError(t, store.Set(ctx, "authToken", "tok-2"))

			v, ok, err := store.Get(ctx, "authToken")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "tok-2", v)

			require.NoError(t, store.Delete(ctx, "authToken"))
			require.NoError(t, store.Delete(ctx, "authToken"), "deleting twice is a no-op")

			_, ok, err = store.Get(ctx, "authToken")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestFileStore_SharedAcrossInstances(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	path := "/state/session.json"

	writer := NewFileStore(fs, path)
	reader := NewFileStore(fs, path)

	require.NoError(t, writer.Set(ctx, "username", "ada@example.com"))

	v, ok, err := reader.Get(ctx, "username")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ada@example.com", v)
}

func TestFileStore_CorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/session.json", []byte("{not json"), 0o600))

	_, _, err := NewFileStore(fs, "/session.json").Get(context.Background(), "authToken")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, "file", filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, "redis", "")
	assert.Error(t, err)
}

func TestFileStore_ReadersNeverSeePartialWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	writer := NewManager(NewFileStore(afero.NewOsFs(), path))
	reader := NewManager(NewFileStore(afero.NewOsFs(), path))
	require.NoError(t, writer.Save(ctx, domain.Session{Username: "ada@example.com", Token: "tok"}))

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			_ = writer.SetUsername(ctx, fmt.Sprintf("user%d@example.com", i))
		}
	}()

	missing := 0
	for i := 0; i < 2000; i++ {
		if !reader.HasToken(ctx) {
			missing++
		}
	}
	close(done)
	<-stopped

	assert.Zero(t, missing, "token was stored the whole time")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are renamed into place")
}
