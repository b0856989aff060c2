package usecase

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/report"
	"github.com/fekuna/omnipos-stock-service/internal/report/dto"
	"github.com/fekuna/omnipos-stock-service/internal/settings"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
)

type reportUseCase struct {
	repo     report.Repository
	settings settings.UseCase
	logger   logger.ZapLogger
}

func NewReportUseCase(repo report.Repository, settingsUC settings.UseCase, log logger.ZapLogger) report.UseCase {
	return &reportUseCase{
		repo:     repo,
		settings: settingsUC,
		logger:   log,
	}
}

func (uc *reportUseCase) RequestsForProfile(ctx context.Context, filters *dto.RequestFilters) ([]dto.RequestView, int, error) {
	return uc.repo.RequestsForProfile(ctx, filters)
}

func (uc *reportUseCase) RequestsByOrder(ctx context.Context, orderID string, status *model.Status) ([]dto.RequestView, error) {
	return uc.repo.RequestsByOrder(ctx, orderID, status)
}

func (uc *reportUseCase) ProductTotals(ctx context.Context, productID string) (*dto.ProductTotals, error) {
	return uc.repo.ProductTotals(ctx, productID)
}

func (uc *reportUseCase) LowStock(ctx context.Context, profileID string) ([]dto.LowStockEntry, error) {
	threshold, err := uc.settings.ThresholdFor(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return uc.repo.LowStock(ctx, profileID, threshold)
}
