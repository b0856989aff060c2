package report

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/report/dto"
)

// Repository is strictly read-only: projections over the request log and the
// stock-total ledger.
type Repository interface {
	RequestsForProfile(ctx context.Context, filters *dto.RequestFilters) ([]dto.RequestView, int, error)
	RequestsByOrder(ctx context.Context, orderID string, status *model.Status) ([]dto.RequestView, error)
	ProductTotals(ctx context.Context, productID string) (*dto.ProductTotals, error)
	LowStock(ctx context.Context, profileID string, threshold int) ([]dto.LowStockEntry, error)
}
