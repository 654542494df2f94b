package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/braydenidzenga/ZettaNote-sub001/internal/api/shared"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/domain"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/service"
)

// CleanupRequest represents the request body for triggering a cleanup pass.
// The body is optional; a missing or empty body uses the default batch size.
type CleanupRequest struct {
	BatchSize int `json:"batch_size" validate:"omitempty,min=1,max=10000"`
}

// CleanupResponse mirrors the result counts of a cleanup pass.
type CleanupResponse struct {
	MarkedPending int `json:"marked_pending"`
	Deleted       int `json:"deleted"`
	Failed        int `json:"failed"`
	Processed     int `json:"processed"`
}

// OrphanScanResponse reports how many items an orphan scan marked.
type OrphanScanResponse struct {
	Marked int `json:"marked"`
}

// MediaItemResponse represents a media registry entry.
type MediaItemResponse struct {
	ID               string     `json:"id"`
	LocationRef      string     `json:"location_ref"`
	OwnerID          string     `json:"owner_id"`
	Usage            []string   `json:"usage"`
	Status           string     `json:"status"`
	DeleteAfter      *time.Time `json:"delete_after,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	LastReferencedAt time.Time  `json:"last_referenced_at"`
}

// CleanupTrigger is the slice of the cleanup service the handler needs.
type CleanupTrigger interface {
	RunCleanup(ctx context.Context, batchSize int) (service.CleanupResult, error)
	RunOrphanScan(ctx context.Context) (int, error)
}

// MediaReader is the slice of the media service the handler needs.
type MediaReader interface {
	GetMediaItem(ctx context.Context, id uuid.UUID) (*domain.MediaItem, error)
}

// AdminHandler handles the admin/ops trigger surface.
type AdminHandler struct {
	cleanupService   CleanupTrigger
	mediaService     MediaReader
	defaultBatchSize int
	validator        *validator.Validate
	logger           *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	cleanupService CleanupTrigger,
	mediaService MediaReader,
	defaultBatchSize int,
	logger *slog.Logger,
) *AdminHandler {
	if defaultBatchSize <= 0 {
		defaultBatchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AdminHandler{
		cleanupService:   cleanupService,
		mediaService:     mediaService,
		defaultBatchSize: defaultBatchSize,
		validator:        validator.New(),
		logger:           logger,
	}
}

// TriggerCleanup handles POST /admin/cleanup requests. It runs a full
// cleanup pass synchronously and returns the same result shape as the
// scheduled job.
func (h *AdminHandler) TriggerCleanup(w http.ResponseWriter, r *http.Request) {
	var req CleanupRequest
	if err := shared.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	batchSize := req.BatchSize
	if batchSize == 0 {
		batchSize = h.defaultBatchSize
	}

	result, err := h.cleanupService.RunCleanup(r.Context(), batchSize)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusInternalServerError, "Cleanup run failed", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CleanupResponse{
		MarkedPending: result.MarkedPending,
		Deleted:       result.Deleted,
		Failed:        result.Failed,
		Processed:     result.Processed,
	})
}

// TriggerOrphanScan handles POST /admin/orphan-scan requests.
func (h *AdminHandler) TriggerOrphanScan(w http.ResponseWriter, r *http.Request) {
	marked, err := h.cleanupService.RunOrphanScan(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusInternalServerError, "Orphan scan failed", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, OrphanScanResponse{Marked: marked})
}

// GetMediaItem handles GET /admin/media/{id} requests.
func (h *AdminHandler) GetMediaItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid media ID")
		return
	}

	item, err := h.mediaService.GetMediaItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrMediaNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Media item not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r,
			http.StatusInternalServerError, "Failed to load media item", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, mediaItemToResponse(item))
}

// mediaItemToResponse converts a domain.MediaItem to a MediaItemResponse.
func mediaItemToResponse(item *domain.MediaItem) MediaItemResponse {
	usage := make([]string, len(item.Usage))
	for i, id := range item.Usage {
		usage[i] = id.String()
	}

	return MediaItemResponse{
		ID:               item.ID.String(),
		LocationRef:      item.LocationRef,
		OwnerID:          item.OwnerID.String(),
		Usage:            usage,
		Status:           string(item.Status),
		DeleteAfter:      item.DeleteAfter,
		CreatedAt:        item.CreatedAt,
		LastReferencedAt: item.LastReferencedAt,
	}
}
