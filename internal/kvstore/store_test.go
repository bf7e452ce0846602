package kvstore

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "OVERVIEW_TCS", []byte(`{"t":1,"v":{}}`)))
	got, err := s.Get(ctx, "OVERVIEW_TCS")
	require.NoError(t, err)
	assert.Equal(t, `{"t":1,"v":{}}`, string(got))

	require.NoError(t, s.Set(ctx, "OVERVIEW_TCS", []byte(`{"t":2,"v":{}}`)))
	got, err = s.Get(ctx, "OVERVIEW_TCS")
	require.NoError(t, err)
	assert.Equal(t, `{"t":2,"v":{}}`, string(got), "set must overwrite")

	require.NoError(t, s.Remove(ctx, "OVERVIEW_TCS"))
	_, err = s.Get(ctx, "OVERVIEW_TCS")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Remove(ctx, "never-set"), "removing a missing key is not an error")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	value := []byte("abc")
	require.NoError(t, s.Set(context.Background(), "k", value))
	value[0] = 'x'

	got, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStore_KeysStayInsideDir(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s, err := NewFileStore(fsys, "/data")
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "../escape/key", []byte("v")))

	exists, err := afero.DirExists(fsys, "/escape")
	require.NoError(t, err)
	assert.False(t, exists)

	got, err := s.Get(context.Background(), "../escape/key")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s, err := NewFileStore(fsys, "/data")
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "WATCHLISTS_V1", []byte(`{}`)))

	entries, err := afero.ReadDir(fsys, "/data")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "WATCHLISTS_V1.json", entries[0].Name())
}

func TestFileStore_ReadOnlyFsFailsWrite(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/data", 0o755))

	s := &FileStore{fs: afero.NewReadOnlyFs(base), dir: "/data"}

	assert.Error(t, s.Set(context.Background(), "k", []byte("v")))
}

func TestRedisStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, "mb:")
	ctx := context.Background()

	mock.ExpectGet("mb:missing").RedisNil()
	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectSet("mb:TOP_GL_CACHE", []byte(`{"t":1}`), 0).SetVal("OK")
	require.NoError(t, s.Set(ctx, "TOP_GL_CACHE", []byte(`{"t":1}`)))

	mock.ExpectGet("mb:TOP_GL_CACHE").SetVal(`{"t":1}`)
	got, err := s.Get(ctx, "TOP_GL_CACHE")
	require.NoError(t, err)
	assert.Equal(t, `{"t":1}`, string(got))

	mock.ExpectDel("mb:TOP_GL_CACHE").SetVal(1)
	require.NoError(t, s.Remove(ctx, "TOP_GL_CACHE"))

	mock.ExpectGet("mb:broken").SetErr(errors.New("connection reset"))
	_, err = s.Get(ctx, "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen(t *testing.T) {
	store, closeFn, err := Open(context.Background(), Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.NoError(t, closeFn())

	dir := t.TempDir()
	store, closeFn, err = Open(context.Background(), Options{Backend: BackendFile, DataDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
	assert.NoError(t, closeFn())

	_, _, err = Open(context.Background(), Options{Backend: "etcd"})
	assert.Error(t, err)
}
