package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperrors"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/settings"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
)

type settingsUseCase struct {
	repo   settings.Repository
	ledger ledger.UseCase
	logger logger.ZapLogger
}

func NewSettingsUseCase(repo settings.Repository, ledgerUC ledger.UseCase, log logger.ZapLogger) settings.UseCase {
	return &settingsUseCase{
		repo:   repo,
		ledger: ledgerUC,
		logger: log,
	}
}

func (uc *settingsUseCase) UpdateThreshold(ctx context.Context, profileID string, threshold int, actorID *string) (*model.StockSettingsEvent, error) {
	if profileID == "" {
		return nil, &apperrors.ValidationError{Reason: "profile id is required"}
	}
	if threshold < 0 {
		return nil, &apperrors.ValidationError{Reason: "threshold must not be negative"}
	}

	event := &model.StockSettingsEvent{
		ID:        uuid.New().String(),
		Threshold: threshold,
		CreatedBy: actorID,
		CreatedAt: time.Now(),
	}
	if err := uc.repo.AppendEvent(ctx, profileID, event); err != nil {
		return nil, err
	}
	return event, nil
}

// ThresholdFor falls back to the default when the profile never configured a
// threshold: flag only when completely out of stock.
func (uc *settingsUseCase) ThresholdFor(ctx context.Context, profileID string) (int, error) {
	s, err := uc.repo.GetByProfile(ctx, profileID)
	if err != nil {
		return 0, err
	}
	if s == nil || s.CurrentEventID == nil {
		return model.DefaultThreshold, nil
	}
	event, err := uc.repo.CurrentEvent(ctx, s.ID)
	if err != nil {
		return 0, err
	}
	if event == nil {
		return model.DefaultThreshold, nil
	}
	return event.Threshold, nil
}

func (uc *settingsUseCase) IsLowStock(ctx context.Context, profileID string, coord model.Coordinate) (bool, error) {
	threshold, err := uc.ThresholdFor(ctx, profileID)
	if err != nil {
		return false, err
	}
	available, err := uc.ledger.Available(ctx, coord.WithProfile(profileID))
	if err != nil {
		return false, err
	}
	return model.IsLowStock(available, threshold), nil
}
