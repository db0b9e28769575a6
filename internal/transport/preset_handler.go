package transport

import (
	"net/http"

	"preset-shop/internal/domain"
	"preset-shop/internal/middleware"
	"preset-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PresetHandler serves the preset catalog. Public responses never carry the preset file reference.
type PresetHandler struct {
	presets service.PresetService
	logger  *zap.Logger
}

func NewPresetHandler(presets service.PresetService, logger *zap.Logger) *PresetHandler {
	return &PresetHandler{presets: presets, logger: logger}
}

func (h *PresetHandler) RegisterRoutes(r chi.Router, authenticate func(http.Handler) http.Handler) {
	r.Route("/api/presets", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireAdmin(h.logger))
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func publicPreset(p *domain.Preset) *domain.Preset {
	out := *p
	out.PresetFileURL = ""
	return &out
}

func (h *PresetHandler) List(w http.ResponseWriter, r *http.Request) {
	var categoryID *uuid.UUID
	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
			return
		}
		categoryID = &id
	}

	presets, err := h.presets.ListPresets(r.Context(), categoryID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}

	out := make([]*domain.Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, publicPreset(p))
	}
	middleware.RespondWithJSON(w, http.StatusOK, out)
}

func (h *PresetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid preset id")
		return
	}

	preset, err := h.presets.GetPreset(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, publicPreset(preset))
}

func (h *PresetHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := parseCatalogForm(w, r)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	defer form.Close()

	input, err := readPresetInput(form)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}

	preset, err := h.presets.CreatePreset(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, preset)
}

func (h *PresetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid preset id")
		return
	}

	form, err := parseCatalogForm(w, r)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	defer form.Close()

	patch, err := readPresetPatch(form)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}

	preset, err := h.presets.UpdatePreset(r.Context(), id, patch)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, preset)
}

func (h *PresetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid preset id")
		return
	}

	if err := h.presets.DeletePreset(r.Context(), id); err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func readPresetInput(form *catalogForm) (service.PresetInput, error) {
	input := service.PresetInput{
		Name:        form.text("name"),
		Description: form.text("description"),
	}

	price, err := form.price("price")
	if err != nil {
		return input, err
	}
	if price == nil {
		return input, &service.Error{Kind: service.KindInvalid, Message: "price is required"}
	}
	input.Price = *price

	if input.CategoryID, err = form.uuid("categoryId"); err != nil {
		return input, err
	}

	files, err := form.uploads("beforeImage", "afterImage", "presetFile")
	if err != nil {
		return input, err
	}
	input.BeforeImage, input.AfterImage, input.PresetFile = files[0], files[1], files[2]
	return input, nil
}

func readPresetPatch(form *catalogForm) (service.PresetPatch, error) {
	patch := service.PresetPatch{
		Name:        form.optionalText("name"),
		Description: form.optionalText("description"),
	}

	var err error
	if patch.Price, err = form.price("price"); err != nil {
		return patch, err
	}
	if patch.CategoryID, err = form.uuid("categoryId"); err != nil {
		return patch, err
	}
	if patch.IsActive, err = form.boolean("isActive"); err != nil {
		return patch, err
	}

	files, err := form.uploads("beforeImage", "afterImage", "presetFile")
	if err != nil {
		return patch, err
	}
	patch.BeforeImage, patch.AfterImage, patch.PresetFile = files[0], files[1], files[2]
	return patch, nil
}
