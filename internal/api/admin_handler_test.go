package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braydenidzenga/ZettaNote-sub001/internal/domain"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/service"
)

// stubCleanupTrigger records the batch sizes it was invoked with.
type stubCleanupTrigger struct {
	batchSizes []int
	result     service.CleanupResult
	runErr     error

	scanMarked int
	scanErr    error
}

func (s *stubCleanupTrigger) RunCleanup(ctx context.Context, batchSize int) (service.CleanupResult, error) {
	s.batchSizes = append(s.batchSizes, batchSize)
	return s.result, s.runErr
}

func (s *stubCleanupTrigger) RunOrphanScan(ctx context.Context) (int, error) {
	return s.scanMarked, s.scanErr
}

// stubMediaReader serves a fixed set of media items.
type stubMediaReader struct {
	items map[uuid.UUID]*domain.MediaItem
}

func (s *stubMediaReader) GetMediaItem(ctx context.Context, id uuid.UUID) (*domain.MediaItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, service.ErrMediaNotFound
	}
	return item, nil
}

func newTestRouter(h *AdminHandler) chi.Router {
	r := chi.NewRouter()
	r.Post("/admin/cleanup", h.TriggerCleanup)
	r.Post("/admin/orphan-scan", h.TriggerOrphanScan)
	r.Get("/admin/media/{id}", h.GetMediaItem)
	return r
}

func TestTriggerCleanup(t *testing.T) {
	t.Parallel()

	t.Run("runs cleanup with requested batch size", func(t *testing.T) {
		t.Parallel()

		trigger := &stubCleanupTrigger{
			result: service.CleanupResult{MarkedPending: 2, Deleted: 5, Failed: 1, Processed: 6},
		}
		handler := NewAdminHandler(trigger, &stubMediaReader{}, 100, nil)
		router := newTestRouter(handler)

		body := bytes.NewBufferString(`{"batch_size": 25}`)
		req := httptest.NewRequest(http.MethodPost, "/admin/cleanup", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []int{25}, trigger.batchSizes)

		var resp CleanupResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 2, resp.MarkedPending)
		assert.Equal(t, 5, resp.Deleted)
		assert.Equal(t, 1, resp.Failed)
		assert.Equal(t, 6, resp.Processed)
	})

	t.Run("empty body uses default batch size", func(t *testing.T) {
		t.Parallel()

		trigger := &stubCleanupTrigger{}
		handler := NewAdminHandler(trigger, &stubMediaReader{}, 100, nil)
		router := newTestRouter(handler)

		req := httptest.NewRequest(http.MethodPost, "/admin/cleanup", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []int{100}, trigger.batchSizes)
	})

	t.Run("rejects invalid batch size", func(t *testing.T) {
		t.Parallel()

		trigger := &stubCleanupTrigger{}
		handler := NewAdminHandler(trigger, &stubMediaReader{}, 100, nil)
		router := newTestRouter(handler)

		body := bytes.NewBufferString(`{"batch_size": -5}`)
		req := httptest.NewRequest(http.MethodPost, "/admin/cleanup", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, trigger.batchSizes)
	})

	t.Run("maps service failure to 500", func(t *testing.T) {
		t.Parallel()

		trigger := &stubCleanupTrigger{runErr: errors.New("registry unavailable")}
		handler := NewAdminHandler(trigger, &stubMediaReader{}, 100, nil)
		router := newTestRouter(handler)

		req := httptest.NewRequest(http.MethodPost, "/admin/cleanup", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		// The raw error must not leak to the client.
		assert.NotContains(t, rec.Body.String(), "registry unavailable")
	})
}

func TestTriggerOrphanScan(t *testing.T) {
	t.Parallel()

	trigger := &stubCleanupTrigger{scanMarked: 4}
	handler := NewAdminHandler(trigger, &stubMediaReader{}, 100, nil)
	router := newTestRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/admin/orphan-scan", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp OrphanScanResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 4, resp.Marked)
}

func TestGetMediaItem(t *testing.T) {
	t.Parallel()

	item, err := domain.NewMediaItem(uuid.New(), uuid.New(), "media/"+uuid.NewString()+".png")
	require.NoError(t, err)
	docID := uuid.New()
	require.NoError(t, item.AddUsage(docID))

	reader := &stubMediaReader{items: map[uuid.UUID]*domain.MediaItem{item.ID: item}}
	handler := NewAdminHandler(&stubCleanupTrigger{}, reader, 100, nil)
	router := newTestRouter(handler)

	t.Run("returns registry entry", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/admin/media/"+item.ID.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp MediaItemResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, item.ID.String(), resp.ID)
		assert.Equal(t, string(domain.MediaStatusActive), resp.Status)
		assert.Equal(t, []string{docID.String()}, resp.Usage)
	})

	t.Run("unknown ID returns 404", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/admin/media/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed ID returns 400", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/admin/media/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
