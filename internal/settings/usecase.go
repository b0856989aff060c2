package settings

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	UpdateThreshold(ctx context.Context, profileID string, threshold int, actorID *string) (*model.StockSettingsEvent, error)
	ThresholdFor(ctx context.Context, profileID string) (int, error)
	IsLowStock(ctx context.Context, profileID string, coord model.Coordinate) (bool, error)
}
