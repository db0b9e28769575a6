package transport

import (
	"net/http"

	"preset-shop/internal/middleware"
	"preset-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginRequest is the body of both login endpoints
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// RegisterRequest is the body of customer registration
type RegisterRequest struct {
	FullName    string `json:"fullName" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6,max=100"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=20"`
	Address     string `json:"address" validate:"required,max=200"`
	City        string `json:"city" validate:"required,max=100"`
	Country     string `json:"country" validate:"required,max=100"`
	PostalCode  string `json:"postalCode" validate:"required,max=20"`
}

// AuthHandler handles administrator and customer authentication
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes mounts the auth routes; limit throttles every one of them
func (h *AuthHandler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/admin/login", h.AdminLogin)
		r.Post("/user/login", h.UserLogin)
		r.Post("/user/register", h.UserRegister)
	})
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Admin login validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	result, err := h.authService.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) UserLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("User login validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	result, err := h.authService.UserLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// UserRegister creates a customer and logs them in; a taken email is a 400
func (h *AuthHandler) UserRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	result, err := h.authService.UserRegister(r.Context(), service.RegisterInput{
		FullName:    req.FullName,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		City:        req.City,
		Country:     req.Country,
		PostalCode:  req.PostalCode,
	})
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, statusForKind)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}
