package kvstore

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	dbPath := "./test_kvstore_" + t.Name() + ".db"

	store, err := Open(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		store.Close()
		os.Remove(dbPath)
	}

	return store, cleanup
}

func TestStore_SetAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.Set("books", `[{"id":"b1"}]`)
	require.NoError(t, err)

	value, ok, err := store.Get("books")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"b1"}]`, value)
}

func TestStore_Get_Missing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	value, ok, err := store.Get("nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestStore_Set_Overwrite(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, store.Set("theme", "light"))
	require.NoError(t, store.Set("theme", "dark"))

	value, ok, err := store.Get("theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", value)
}

func TestStore_Remove(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, store.Set("to-delete", "value"))
	require.NoError(t, store.Remove("to-delete"))

	_, ok, err := store.Get("to-delete")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Remove_NonExistent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	// Should not error even if key doesn't exist
	assert.NoError(t, store.Remove("nonexistent"))
}

func TestStore_RemoveMany(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, store.Set("books", "[]"))
	require.NoError(t, store.Set("clips", "[]"))
	require.NoError(t, store.Set("keep", "me"))

	require.NoError(t, store.RemoveMany([]string{"books", "clips", "absent"}))

	_, ok, err := store.Get("books")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Get("clips")
	require.NoError(t, err)
	assert.False(t, ok)

	value, ok, err := store.Get("keep")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "me", value)
}

func TestStore_RemoveMany_Empty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NoError(t, store.RemoveMany(nil))
}
