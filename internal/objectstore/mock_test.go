package objectstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStoreUpload(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	result, err := store.Upload(context.Background(), "diagram.PNG", strings.NewReader("data"), 4, "image/png")
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.True(t, strings.HasPrefix(result.LocationRef, "media/"))
	assert.True(t, strings.HasSuffix(result.LocationRef, ".png"), "extension should be lowercased")
	assert.Equal(t, int64(4), result.SizeBytes)
	assert.True(t, store.Exists(result.LocationRef))
}

func TestMockStoreDeleteIdempotent(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	result, err := store.Upload(context.Background(), "img.png", strings.NewReader("data"), 4, "image/png")
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), result.LocationRef))
	assert.False(t, store.Exists(result.LocationRef))

	// Second delete of the same key still succeeds.
	require.NoError(t, store.Delete(context.Background(), result.LocationRef))
	require.NoError(t, store.Delete(context.Background(), "media/never-existed.png"))
}

func TestMockStoreDeleteInjectedFailure(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	result, err := store.Upload(context.Background(), "img.png", strings.NewReader("data"), 4, "image/png")
	require.NoError(t, err)

	boom := errors.New("transient backend failure")
	store.DeleteErr = map[string]error{result.LocationRef: boom}

	err = store.Delete(context.Background(), result.LocationRef)
	assert.ErrorIs(t, err, boom)
	assert.True(t, store.Exists(result.LocationRef), "failed delete must not remove the object")
}
