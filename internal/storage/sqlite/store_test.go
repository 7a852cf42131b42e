package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/pomotodo/internal/storage"
	"github.com/rezkam/pomotodo/internal/storage/compliance"
)

func TestSQLiteStore_Compliance(t *testing.T) {
	compliance.RunStoreComplianceTest(t, func() (storage.Store, func()) {
		store, err := NewStore(context.Background(), DBConfig{
			Path: filepath.Join(t.TempDir(), "pomotodo.db"),
		})
		require.NoError(t, err)
		return store, func() { store.Close() }
	})
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "pomotodo.db")

	store, err := NewStore(ctx, DBConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "settings", []byte(`{"v":1}`)))
	require.NoError(t, store.Close())

	// Migrations must be idempotent on an existing file.
	reopened, err := NewStore(ctx, DBConfig{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "settings")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":1}`), got)
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewStore(context.Background(), DBConfig{})
	require.Error(t, err)
}
