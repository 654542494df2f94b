package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braydenidzenga/ZettaNote-sub001/internal/domain"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/objectstore"
)

const testGracePeriod = 24 * time.Hour

// embed renders a markdown image embed for the given media ID.
func embed(id uuid.UUID) string {
	return fmt.Sprintf("![diagram](/media/%s.png)", id)
}

// seedActive inserts an active item referenced by the given documents.
func seedActive(t *testing.T, fake *fakeMediaStore, docs ...uuid.UUID) *domain.MediaItem {
	t.Helper()

	item, err := domain.NewMediaItem(uuid.New(), uuid.New(), "media/"+uuid.NewString()+".png")
	require.NoError(t, err)
	for _, doc := range docs {
		require.NoError(t, item.AddUsage(doc))
	}
	fake.seed(item)
	return item
}

func newTestMediaService(fake *fakeMediaStore, objects objectstore.Store) *MediaService {
	if objects == nil {
		objects = objectstore.NewMockStore()
	}
	return NewMediaService(nil, fake, objects, testGracePeriod, nil)
}

func TestHandleDocumentSave(t *testing.T) {
	t.Parallel()

	t.Run("adds references for new embeds", func(t *testing.T) {
		t.Parallel()

		fake := newFakeMediaStore()
		svc := newTestMediaService(fake, nil)

		item := seedActive(t, fake)
		docID := uuid.New()

		change, err := svc.HandleDocumentSave(context.Background(), docID, "", embed(item.ID))
		require.NoError(t, err)

		assert.Equal(t, []uuid.UUID{item.ID}, change.Added)
		assert.Empty(t, change.Removed)
		assert.True(t, fake.get(item.ID).HasUsage(docID))
	})

	t.Run("repeated save is idempotent", func(t *testing.T) {
		t.Parallel()

		fake := newFakeMediaStore()
		svc := newTestMediaService(fake, nil)

		item := seedActive(t, fake)
		docID := uuid.New()
		content := embed(item.ID)

		_, err := svc.HandleDocumentSave(context.Background(), docID, "", content)
		require.NoError(t, err)

		// Saving unchanged content produces no reference churn.
		change, err := svc.HandleDocumentSave(context.Background(), docID, content, content)
		require.NoError(t, err)
		assert.Empty(t, change.Added)
		assert.Empty(t, change.Removed)
		assert.Len(t, fake.get(item.ID).Usage, 1)
	})

	t.Run("removing last reference marks item pending deletion", func(t *testing.T) {
		t.Parallel()

		fake := newFakeMediaStore()
		svc := newTestMediaService(fake, nil)

		docID := uuid.New()
		item := seedActive(t, fake, docID)

		change, err := svc.HandleDocumentSave(context.Background(), docID, embed(item.ID), "plain text now")
		require.NoError(t, err)

		assert.Equal(t, []uuid.UUID{item.ID}, change.Removed)
		got := fake.get(item.ID)
		assert.Equal(t, domain.MediaStatusPendingDeletion, got.Status)
		require.NotNil(t, got.DeleteAfter)
		assert.WithinDuration(t, time.Now().UTC().Add(testGracePeriod), *got.DeleteAfter, time.Minute)
	})

	t.Run("item shared by two documents stays active", func(t *testing.T) {
		t.Parallel()

		fake := newFakeMediaStore()
		svc := newTestMediaService(fake, nil)

		docA := uuid.New()
		docB := uuid.New()
		item := seedActive(t, fake, docA, docB)

		// Document A drops the embed; document B still holds it.
		_, err := svc.HandleDocumentSave(context.Background(), docA, embed(item.ID), "")
		require.NoError(t, err)

		got := fake.get(item.ID)
		assert.Equal(t, domain.MediaStatusActive, got.Status)
		assert.True(t, got.HasUsage(docB))
		assert.False(t, got.HasUsage(docA))

		// Document B drops it too; now it goes pending.
		_, err = svc.HandleDocumentSave(context.Background(), docB, embed(item.ID), "")
		require.NoError(t, err)
		assert.Equal(t, domain.MediaStatusPendingDeletion, fake.get(item.ID).Status)
	})

	t.Run("re-reference during grace period revives item", func(t *testing.T) {
		t.Parallel()

		fake := newFakeMediaStore()
		svc := newTestMediaService(fake, nil)

		docID := uuid.New()
		item := seedActive(t, fake, docID)

		_, err := svc.HandleDocumentSave(context.Background(), docID, embed(item.ID), "")
		require.NoError(t, err)
		require.Equal(t, domain.MediaStatusPendingDeletion, fake.get(item.ID).Status)

		// Undo inside the grace window re-embeds the image.
		_, err = svc.HandleDocumentSave(context.Background(), docID, "", embed(item.ID))
		require.NoError(t, err)

		got := fake.get(item.ID)
		assert.Equal(t, domain.MediaStatusActive, got.Status)
		assert.Nil(t, got.DeleteAfter)
		assert.True(t, got.HasUsage(docID))
	})

	t.Run("unknown media ID is ignored", func(t *testing.T) {
		t.Parallel()

		fake := newFakeMediaStore()
		svc := newTestMediaService(fake, nil)

		change, err := svc.HandleDocumentSave(context.Background(), uuid.New(), "", embed(uuid.New()))
		require.NoError(t, err)
		assert.Len(t, change.Added, 1)
	})

	t.Run("rejects nil document ID", func(t *testing.T) {
		t.Parallel()

		fake := newFakeMediaStore()
		svc := newTestMediaService(fake, nil)

		_, err := svc.HandleDocumentSave(context.Background(), uuid.Nil, "", "content")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestHandleDocumentDelete(t *testing.T) {
	t.Parallel()

	fake := newFakeMediaStore()
	svc := newTestMediaService(fake, nil)

	docID := uuid.New()
	item := seedActive(t, fake, docID)

	change, err := svc.HandleDocumentDelete(context.Background(), docID, embed(item.ID))
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{item.ID}, change.Removed)
	assert.Equal(t, domain.MediaStatusPendingDeletion, fake.get(item.ID).Status)
}

func TestRecordUpload(t *testing.T) {
	t.Parallel()

	t.Run("stores blob and registers item", func(t *testing.T) {
		t.Parallel()

		fake := newFakeMediaStore()
		objects := objectstore.NewMockStore()
		svc := newTestMediaService(fake, objects)

		ownerID := uuid.New()
		item, err := svc.RecordUpload(
			context.Background(), ownerID, "sketch.png",
			strings.NewReader("pngdata"), 7, "image/png")
		require.NoError(t, err)

		assert.Equal(t, ownerID, item.OwnerID)
		assert.Equal(t, domain.MediaStatusActive, item.Status)
		assert.Empty(t, item.Usage)
		assert.True(t, objects.Exists(item.LocationRef))

		got := fake.get(item.ID)
		require.NotNil(t, got)
		assert.Equal(t, item.LocationRef, got.LocationRef)
	})

	t.Run("rejects nil owner", func(t *testing.T) {
		t.Parallel()

		svc := newTestMediaService(newFakeMediaStore(), nil)

		_, err := svc.RecordUpload(
			context.Background(), uuid.Nil, "sketch.png",
			strings.NewReader("pngdata"), 7, "image/png")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestGetMediaItem(t *testing.T) {
	t.Parallel()

	fake := newFakeMediaStore()
	svc := newTestMediaService(fake, nil)

	item := seedActive(t, fake, uuid.New())

	got, err := svc.GetMediaItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	_, err = svc.GetMediaItem(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrMediaNotFound)
}
