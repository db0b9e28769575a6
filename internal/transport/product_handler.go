package transport

import (
	"net/http"
	"strconv"

	"preset-shop/internal/middleware"
	"preset-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductHandler serves the legacy product bundles
type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
}

func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

func (h *ProductHandler) RegisterRoutes(r chi.Router, authenticate func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
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

// List pages through active products; malformed paging values fall back to defaults
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	result, err := h.products.ListProducts(r.Context(), page, pageSize)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := parseCatalogForm(w, r)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	defer form.Close()

	input, err := readProductInput(form)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}

	product, err := h.products.CreateProduct(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	form, err := parseCatalogForm(w, r)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	defer form.Close()

	patch, err := readProductPatch(form)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), id, patch)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func readProductInput(form *catalogForm) (service.ProductInput, error) {
	input := service.ProductInput{
		Name:        form.text("name"),
		Description: form.text("description"),
		Category:    form.text("category"),
	}

	price, err := form.price("price")
	if err != nil {
		return input, err
	}
	if price == nil {
		return input, &service.Error{Kind: service.KindInvalid, Message: "price is required"}
	}
	input.Price = *price

	count, err := form.integer("presetCount")
	if err != nil {
		return input, err
	}
	if count != nil {
		input.PresetCount = *count
	}

	files, err := form.uploads("mainImage", "beforeImage", "afterImage")
	if err != nil {
		return input, err
	}
	input.MainImage, input.BeforeImage, input.AfterImage = files[0], files[1], files[2]
	return input, nil
}

func readProductPatch(form *catalogForm) (service.ProductPatch, error) {
	patch := service.ProductPatch{
		Name:        form.optionalText("name"),
		Description: form.optionalText("description"),
		Category:    form.optionalText("category"),
	}

	var err error
	if patch.Price, err = form.price("price"); err != nil {
		return patch, err
	}
	if patch.PresetCount, err = form.integer("presetCount"); err != nil {
		return patch, err
	}
	if patch.IsActive, err = form.boolean("isActive"); err != nil {
		return patch, err
	}

	files, err := form.uploads("mainImage", "beforeImage", "afterImage")
	if err != nil {
		return patch, err
	}
	patch.MainImage, patch.BeforeImage, patch.AfterImage = files[0], files[1], files[2]
	return patch, nil
}
