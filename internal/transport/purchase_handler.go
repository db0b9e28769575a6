package transport

import (
	"errors"
	"mime"
	"net/http"
	"path"

	"preset-shop/internal/domain"
	"preset-shop/internal/metrics"
	"preset-shop/internal/middleware"
	"preset-shop/internal/service"
	"preset-shop/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// CreatePurchaseRequest is the body of a purchase
type CreatePurchaseRequest struct {
	PresetID string `json:"presetId" validate:"required,uuid"`
}

// FileOpener opens stored preset files for download
type FileOpener interface {
	Open(ref string) (afero.File, error)
}

// PurchaseHandler serves the customer purchase and download routes
type PurchaseHandler struct {
	purchases service.PurchaseService
	files     FileOpener
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewPurchaseHandler(purchases service.PurchaseService, files FileOpener, m *metrics.Metrics, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		purchases: purchases,
		files:     files,
		metrics:   m,
		logger:    logger,
	}
}

// RegisterRoutes mounts the purchase routes behind authentication and the User role
func (h *PurchaseHandler) RegisterRoutes(r chi.Router, authenticate func(http.Handler) http.Handler) {
	r.Route("/api/purchases", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireRole(h.logger, domain.RoleUser))

		r.Post("/", h.CreatePurchase)
		r.Get("/my-purchases", h.GetMyPurchases)
		r.Get("/download/{presetId}", h.Download)
	})
}

// purchaseStatus reports every business rejection of a purchase as a 400
func purchaseStatus(kind service.Kind) int {
	if kind == service.KindInternal {
		return http.StatusInternalServerError
	}
	if kind == service.KindUnauthenticated {
		return http.StatusUnauthorized
	}
	return http.StatusBadRequest
}

func (h *PurchaseHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.GetIdentityID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req CreatePurchaseRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	presetID, err := uuid.Parse(req.PresetID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid preset id")
		return
	}

	record, err := h.purchases.CreatePurchase(r.Context(), customerID, presetID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, purchaseStatus)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, record)
}

func (h *PurchaseHandler) GetMyPurchases(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.GetIdentityID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	records, err := h.purchases.GetUserPurchases(r.Context(), customerID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, records)
}

// Download streams a purchased preset file. Entitlement survives deactivation of the preset.
func (h *PurchaseHandler) Download(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.GetIdentityID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "user not authenticated")
		return
	}
	presetID, ok := pathID(r, "presetId")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid preset id")
		return
	}

	entitled, err := h.purchases.HasPurchased(r.Context(), customerID, presetID)
	if err != nil {
		h.metrics.ObserveDownload(metrics.ResultError)
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	if !entitled {
		h.metrics.ObserveDownload(metrics.ResultRejected)
		middleware.RespondWithError(w, http.StatusForbidden, "you have not purchased this preset")
		return
	}

	ref, err := h.purchases.GetDownloadTarget(r.Context(), customerID, presetID)
	if err != nil {
		h.metrics.ObserveDownload(metrics.ResultError)
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	if ref == "" {
		h.metrics.ObserveDownload(metrics.ResultRejected)
		middleware.RespondWithError(w, http.StatusNotFound, "preset file not found")
		return
	}

	file, err := h.files.Open(ref)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			h.logger.Warn("Purchased preset file missing from storage",
				zap.String("preset_id", presetID.String()),
				zap.String("ref", ref),
			)
			h.metrics.ObserveDownload(metrics.ResultRejected)
			middleware.RespondWithError(w, http.StatusNotFound, "preset file not found")
			return
		}
		h.metrics.ObserveDownload(metrics.ResultError)
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		h.metrics.ObserveDownload(metrics.ResultError)
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}

	name := path.Base(ref)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	h.metrics.ObserveDownload(metrics.ResultSuccess)
	http.ServeContent(w, r, name, info.ModTime(), file)
}
