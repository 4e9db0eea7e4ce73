package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

func TestKeyValueStore_MissingFileIsEmpty(t *testing.T) {
	store, err := NewKeyValueStore(filepath.Join(t.TempDir(), "nested", "storage.json"), nil)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "@RocketShoes:cart")
	require.True(t, errors.Is(err, domain.ErrKeyNotFound), "got %v", err)
	require.NoError(t, store.Ping(context.Background()))
}

func TestKeyValueStore_SetGetSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "storage.json")

	store, err := NewKeyValueStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "cart", []byte(`[{"id":1,"amount":2}]`)))
	require.NoError(t, store.Set(ctx, "other", []byte("x")))

	reopened, err := NewKeyValueStore(path, nil)
	require.NoError(t, err)

	value, err := reopened.Get(ctx, "cart")
	require.NoError(t, err)
	require.Equal(t, `[{"id":1,"amount":2}]`, string(value))

	other, err := reopened.Get(ctx, "other")
	require.NoError(t, err)
	require.Equal(t, "x", string(other))

	// временные файлы не должны оставаться рядом с хранилищем
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestKeyValueStore_CorruptedFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := NewKeyValueStore(path, nil)
	require.NoError(t, err)

	_, err = store.Get(ctx, "cart")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	// повреждённое содержимое сохраняется рядом для разбора
	moved, err := os.ReadFile(store.CorruptPath())
	require.NoError(t, err)
	require.Equal(t, "{not json", string(moved))
	require.NoError(t, store.Ping(ctx))
}

func TestKeyValueStore_TruncatedFileRecoversOnWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"@RocketShoes:cart": "[{\"id\":1`), 0o600))

	store, err := NewKeyValueStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "@RocketShoes:cart", []byte(`[{"id":2,"amount":1}]`)))

	reopened, err := NewKeyValueStore(path, nil)
	require.NoError(t, err)
	value, err := reopened.Get(ctx, "@RocketShoes:cart")
	require.NoError(t, err)
	require.Equal(t, `[{"id":2,"amount":1}]`, string(value))

	_, err = os.Stat(store.CorruptPath())
	require.NoError(t, err)
}

func TestNewKeyValueStore_EmptyPath(t *testing.T) {
	_, err := NewKeyValueStore("", nil)
	require.Error(t, err)
}
