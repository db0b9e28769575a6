package service

import (
	"errors"
	"fmt"
	"testing"

	"preset-shop/internal/config"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err      error
		kind     Kind
		sentinel error
	}{
		{ErrPresetNotFound, KindNotFound, ErrNotFound},
		{ErrPresetUnavailable, KindUnavailable, ErrUnavailable},
		{ErrAlreadyPurchased, KindConflict, ErrConflict},
		{ErrEmailTaken, KindConflict, ErrConflict},
		{ErrInvalidCredentials, KindUnauthenticated, ErrUnauthenticated},
		{invalidf("bad"), KindInvalid, ErrInvalid},
	}

	for _, tt := range tests {
		if KindOf(tt.err) != tt.kind {
			t.Errorf("%v: expected kind %v, got %v", tt.err, tt.kind, KindOf(tt.err))
		}
		if !errors.Is(tt.err, tt.sentinel) {
			t.Errorf("%v should match kind sentinel %v", tt.err, tt.sentinel)
		}
		wrapped := fmt.Errorf("context: %w", tt.err)
		if KindOf(wrapped) != tt.kind || !errors.Is(wrapped, tt.err) {
			t.Errorf("%v: kind must survive wrapping", tt.err)
		}
	}

	if errors.Is(ErrPresetNotFound, ErrConflict) {
		t.Error("kinds must not cross-match")
	}
	if errors.Is(ErrAlreadyPurchased, ErrEmailTaken) {
		t.Error("distinct conflicts must not match each other")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Error("plain errors are internal")
	}
}

func seedConfigForTest(password string) config.SeedConfig {
	return config.SeedConfig{
		AdminUsername: "admin",
		AdminEmail:    "admin@presetshop.com",
		AdminPassword: password,
	}
}
