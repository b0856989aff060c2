package report

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/report/dto"
)

type UseCase interface {
	RequestsForProfile(ctx context.Context, filters *dto.RequestFilters) ([]dto.RequestView, int, error)
	RequestsByOrder(ctx context.Context, orderID string, status *model.Status) ([]dto.RequestView, error)
	ProductTotals(ctx context.Context, productID string) (*dto.ProductTotals, error)
	LowStock(ctx context.Context, profileID string) ([]dto.LowStockEntry, error)
}
