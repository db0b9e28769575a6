package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"preset-shop/internal/domain"
	"preset-shop/internal/metrics"
	"preset-shop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseService owns the entitlement workflow. A (customer, preset) pair
// moves from not purchased to purchased once and never back.
type PurchaseService interface {
	CreatePurchase(ctx context.Context, customerID, presetID uuid.UUID) (*domain.PurchaseRecord, error)
	GetUserPurchases(ctx context.Context, customerID uuid.UUID) ([]*domain.PurchaseRecord, error)
	HasPurchased(ctx context.Context, customerID, presetID uuid.UUID) (bool, error)
	GetDownloadTarget(ctx context.Context, customerID, presetID uuid.UUID) (string, error)
}

type purchaseService struct {
	presets   repository.PresetRepository
	purchases repository.PurchaseRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewPurchaseService(
	presets repository.PresetRepository,
	purchases repository.PurchaseRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) PurchaseService {
	return &purchaseService{
		presets:   presets,
		purchases: purchases,
		metrics:   m,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreatePurchase records a simulated purchase at the preset's current price
func (s *purchaseService) CreatePurchase(ctx context.Context, customerID, presetID uuid.UUID) (*domain.PurchaseRecord, error) {
	preset, err := s.presets.FindByID(ctx, presetID)
	if err != nil {
		if errors.Is(err, repository.ErrPresetNotFound) {
			s.metrics.ObservePurchase(metrics.ResultRejected)
			return nil, ErrPresetNotFound
		}
		s.metrics.ObservePurchase(metrics.ResultError)
		return nil, s.internal("purchase preset lookup", err, customerID, presetID)
	}

	if !preset.IsActive {
		s.metrics.ObservePurchase(metrics.ResultRejected)
		return nil, ErrPresetUnavailable
	}

	owned, err := s.purchases.ExistsCompleted(ctx, customerID, presetID)
	if err != nil {
		s.metrics.ObservePurchase(metrics.ResultError)
		return nil, s.internal("purchase existence check", err, customerID, presetID)
	}
	if owned {
		s.metrics.ObservePurchase(metrics.ResultConflict)
		return nil, ErrAlreadyPurchased
	}

	purchase := domain.Purchase{
		ID:            uuid.New(),
		CustomerID:    customerID,
		PresetID:      presetID,
		PurchasePrice: preset.Price,
		TransactionID: domain.NewDemoTransactionID(),
		PurchasedAt:   s.now(),
		IsCompleted:   true,
	}

	if err := s.purchases.Create(ctx, &purchase); err != nil {
		switch {
		case errors.Is(err, repository.ErrPurchaseAlreadyExists):
			s.metrics.ObservePurchase(metrics.ResultConflict)
			return nil, ErrAlreadyPurchased
		case errors.Is(err, repository.ErrPresetNotFound):
			s.metrics.ObservePurchase(metrics.ResultRejected)
			return nil, ErrPresetNotFound
		}
		s.metrics.ObservePurchase(metrics.ResultError)
		return nil, s.internal("purchase insert", err, customerID, presetID)
	}

	s.metrics.ObservePurchase(metrics.ResultSuccess)
	s.logger.Info("Purchase completed",
		zap.String("customer_id", customerID.String()),
		zap.String("preset_id", presetID.String()),
		zap.String("transaction_id", purchase.TransactionID),
		zap.String("price", purchase.PurchasePrice.StringFixed(2)),
	)

	return &domain.PurchaseRecord{Purchase: purchase, PresetName: preset.Name}, nil
}

// GetUserPurchases lists the customer's purchases newest first
func (s *purchaseService) GetUserPurchases(ctx context.Context, customerID uuid.UUID) ([]*domain.PurchaseRecord, error) {
	records, err := s.purchases.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, s.internal("purchase listing", err, customerID, uuid.Nil)
	}
	return records, nil
}

func (s *purchaseService) HasPurchased(ctx context.Context, customerID, presetID uuid.UUID) (bool, error) {
	owned, err := s.purchases.ExistsCompleted(ctx, customerID, presetID)
	if err != nil {
		return false, s.internal("purchase existence check", err, customerID, presetID)
	}
	return owned, nil
}

// GetDownloadTarget returns the purchased preset's file reference, or "" when
// the customer has no completed purchase or the preset has no file.
// Deactivating a preset does not revoke access for existing purchases.
func (s *purchaseService) GetDownloadTarget(ctx context.Context, customerID, presetID uuid.UUID) (string, error) {
	ref, err := s.purchases.FindPurchasedFile(ctx, customerID, presetID)
	if err != nil {
		if errors.Is(err, repository.ErrPurchaseNotFound) {
			return "", nil
		}
		return "", s.internal("download target lookup", err, customerID, presetID)
	}
	return ref, nil
}

func (s *purchaseService) internal(op string, err error, customerID, presetID uuid.UUID) error {
	s.logger.Error("Purchase workflow failure",
		zap.String("operation", op),
		zap.String("customer_id", customerID.String()),
		zap.String("preset_id", presetID.String()),
		zap.Error(err),
	)
	return fmt.Errorf("%s: %w", op, err)
}
