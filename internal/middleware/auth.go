package middleware

import (
	"context"
	"net/http"
	"strings"

	"preset-shop/internal/auth"
	"preset-shop/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	IdentityIDKey contextKey = "identity_id"
	UserRoleKey   contextKey = "user_role"
	EmailKey      contextKey = "email"

	identityRecorderKey contextKey = "identity_recorder"
)

// identityRecorder lets outer middleware see who authenticated further down the chain
type identityRecorder struct {
	id  uuid.UUID
	set bool
}

func withIdentityRecorder(ctx context.Context) (context.Context, *identityRecorder) {
	rec := &identityRecorder{}
	return context.WithValue(ctx, identityRecorderKey, rec), rec
}

// TokenVerifier checks a bearer token and returns its claims
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthMiddleware validates bearer tokens and stores the caller identity in the request context
func AuthMiddleware(tokens TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := WithIdentity(r.Context(), claims.IdentityID(), claims.Role, claims.Email)
			if rec, ok := ctx.Value(identityRecorderKey).(*identityRecorder); ok {
				rec.id, rec.set = claims.IdentityID(), true
			}

			logger.Debug("Identity authenticated",
				zap.String("identity_id", claims.Subject),
				zap.String("role", claims.Role.String()),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity returns a context carrying an authenticated identity
func WithIdentity(ctx context.Context, id uuid.UUID, role domain.Role, email string) context.Context {
	ctx = context.WithValue(ctx, IdentityIDKey, id)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	return context.WithValue(ctx, EmailKey, email)
}

// GetIdentityID extracts the authenticated identity id from request context
func GetIdentityID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(IdentityIDKey).(uuid.UUID)
	return id, ok
}

// GetUserRole extracts the token role from request context
func GetUserRole(ctx context.Context) (domain.Role, bool) {
	role, ok := ctx.Value(UserRoleKey).(domain.Role)
	return role, ok
}

func GetEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}
