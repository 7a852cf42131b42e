package compliance

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/pomotodo/internal/storage"
)

// RunStoreComplianceTest runs a standard set of tests against a storage.Store implementation.
// setup is a function that returns a fresh (clean) Store instance for the test
// and a cleanup function that is called after the test to release resources.
func RunStoreComplianceTest(t *testing.T, setup func() (storage.Store, func())) {
	t.Run("SetAndGet", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		key := "key-" + uuid.New().String()
		value := []byte(`{"v":1,"data":{"title":"Test"}}`)

		require.NoError(t, store.Set(ctx, key, value))

		fetched, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, value, fetched)
	})

	t.Run("Overwrite", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		key := "key-" + uuid.New().String()
		require.NoError(t, store.Set(ctx, key, []byte("first")))
		require.NoError(t, store.Set(ctx, key, []byte("second")))

		fetched, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), fetched)
	})

	t.Run("GetMissingKey", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		_, err := store.Get(ctx, "missing-"+uuid.New().String())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("EmptyValue", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		key := "key-" + uuid.New().String()
		require.NoError(t, store.Set(ctx, key, []byte{}))

		fetched, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, fetched)
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		prefix := uuid.New().String()
		require.NoError(t, store.Set(ctx, prefix+"-tasks", []byte("tasks")))
		require.NoError(t, store.Set(ctx, prefix+"-settings", []byte("settings")))

		tasks, err := store.Get(ctx, prefix+"-tasks")
		require.NoError(t, err)
		settings, err := store.Get(ctx, prefix+"-settings")
		require.NoError(t, err)

		assert.Equal(t, []byte("tasks"), tasks)
		assert.Equal(t, []byte("settings"), settings)
	})

	t.Run("InvalidKeyRejected", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		err := store.Set(ctx, "../escape", []byte("x"))
		assert.ErrorIs(t, err, storage.ErrInvalidKey)
	})

	t.Run("ConcurrentWrites", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		prefix := uuid.New().String()
		const writers = 8

		var wg sync.WaitGroup
		for i := range writers {
			wg.Go(func() {
				key := fmt.Sprintf("%s-%d", prefix, i)
				assert.NoError(t, store.Set(ctx, key, []byte(key)))
			})
		}
		wg.Wait()

		for i := range writers {
			key := fmt.Sprintf("%s-%d", prefix, i)
			got, err := store.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, []byte(key), got)
		}
	})
}
