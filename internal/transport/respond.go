package transport

import (
	"net/http"

	"preset-shop/internal/middleware"
	"preset-shop/internal/service"

	"go.uber.org/zap"
)

// statusForKind maps service failure kinds to HTTP statuses
func statusForKind(kind service.Kind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUnavailable, service.KindConflict, service.KindInvalid:
		return http.StatusBadRequest
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError replies with the service error's message, or with an
// opaque 500 after logging when the failure is internal
func respondWithServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, status func(service.Kind) int) {
	kind := service.KindOf(err)
	code := status(kind)
	if code >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	middleware.RespondWithError(w, code, err.Error())
}
