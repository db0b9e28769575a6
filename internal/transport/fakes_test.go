package transport

import (
	"context"
	"net/http"

	"preset-shop/internal/auth"
	"preset-shop/internal/config"
	"preset-shop/internal/domain"
	"preset-shop/internal/middleware"
	"preset-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func testIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer(config.JWTConfig{
		Secret:      "test-secret",
		Issuer:      "PresetShopAPI",
		Audience:    "PresetShopClient",
		ExpiryHours: 24,
	})
}

func bearer(id uuid.UUID, role domain.Role) string {
	token, err := testIssuer().Issue(id, "someone@example.com", role)
	if err != nil {
		panic(err)
	}
	return "Bearer " + token
}

// protectedRoutes is implemented by handlers that take an authenticator
type protectedRoutes interface {
	RegisterRoutes(r chi.Router, authenticate func(http.Handler) http.Handler)
}

func newTestRouter(h protectedRoutes) http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r, middleware.AuthMiddleware(testIssuer(), zap.NewNop()))
	return r
}

// newAuthTestRouter mounts the auth routes with an optional limiter
func newAuthTestRouter(h *AuthHandler, limit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r, limit)
	return r
}

type fakeAuthService struct {
	adminLogin func(email, password string) (*service.AuthResult, error)
	userLogin  func(email, password string) (*service.AuthResult, error)
	register   func(input service.RegisterInput) (*service.AuthResult, error)
}

func (f *fakeAuthService) AdminLogin(ctx context.Context, email, password string) (*service.AuthResult, error) {
	return f.adminLogin(email, password)
}

func (f *fakeAuthService) UserLogin(ctx context.Context, email, password string) (*service.AuthResult, error) {
	return f.userLogin(email, password)
}

func (f *fakeAuthService) UserRegister(ctx context.Context, input service.RegisterInput) (*service.AuthResult, error) {
	return f.register(input)
}

type fakePurchaseService struct {
	create func(customerID, presetID uuid.UUID) (*domain.PurchaseRecord, error)
	list   func(customerID uuid.UUID) ([]*domain.PurchaseRecord, error)
	has    func(customerID, presetID uuid.UUID) (bool, error)
	target func(customerID, presetID uuid.UUID) (string, error)
}

func (f *fakePurchaseService) CreatePurchase(ctx context.Context, customerID, presetID uuid.UUID) (*domain.PurchaseRecord, error) {
	return f.create(customerID, presetID)
}

func (f *fakePurchaseService) GetUserPurchases(ctx context.Context, customerID uuid.UUID) ([]*domain.PurchaseRecord, error) {
	return f.list(customerID)
}

func (f *fakePurchaseService) HasPurchased(ctx context.Context, customerID, presetID uuid.UUID) (bool, error) {
	return f.has(customerID, presetID)
}

func (f *fakePurchaseService) GetDownloadTarget(ctx context.Context, customerID, presetID uuid.UUID) (string, error) {
	return f.target(customerID, presetID)
}

type fakePresetService struct {
	presets map[uuid.UUID]*domain.Preset
	created *service.PresetInput
	patched *service.PresetPatch
	err     error
}

func newFakePresetService(presets ...*domain.Preset) *fakePresetService {
	f := &fakePresetService{presets: make(map[uuid.UUID]*domain.Preset)}
	for _, p := range presets {
		f.presets[p.ID] = p
	}
	return f
}

func (f *fakePresetService) ListPresets(ctx context.Context, categoryID *uuid.UUID) ([]*domain.Preset, error) {
	out := []*domain.Preset{}
	for _, p := range f.presets {
		if categoryID == nil || (p.CategoryID != nil && *p.CategoryID == *categoryID) {
			out = append(out, p)
		}
	}
	return out, f.err
}

func (f *fakePresetService) GetPreset(ctx context.Context, id uuid.UUID) (*domain.Preset, error) {
	p, ok := f.presets[id]
	if !ok {
		return nil, service.ErrPresetNotFound
	}
	return p, nil
}

func (f *fakePresetService) CreatePreset(ctx context.Context, input service.PresetInput) (*domain.Preset, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &input
	p := &domain.Preset{ID: uuid.New(), Name: input.Name, Price: input.Price, PresetFileURL: "/uploads/presets/files/new.zip", IsActive: true}
	f.presets[p.ID] = p
	return p, nil
}

func (f *fakePresetService) UpdatePreset(ctx context.Context, id uuid.UUID, patch service.PresetPatch) (*domain.Preset, error) {
	p, ok := f.presets[id]
	if !ok {
		return nil, service.ErrPresetNotFound
	}
	f.patched = &patch
	return p, nil
}

func (f *fakePresetService) DeletePreset(ctx context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.presets[id]; !ok {
		return service.ErrPresetNotFound
	}
	delete(f.presets, id)
	return nil
}
