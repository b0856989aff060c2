package ledger

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	AddQuantity(ctx context.Context, input *dto.AddQuantityInput) error
	Reserve(ctx context.Context, coord model.Coordinate, qty int) error
	Release(ctx context.Context, coord model.Coordinate, qty int) error
	Decommission(ctx context.Context, coord model.Coordinate, qty int) error
	Move(ctx context.Context, input *dto.MoveInput) error
	Available(ctx context.Context, coord model.Coordinate) (int, error)
	MaxAvailable(ctx context.Context, coord model.Coordinate) (*model.StockTotal, error)
	Approve(ctx context.Context, rowID string, approved bool, comment *string) error
}

// LockKey names the redis lock serializing mutations of one coordinate.
func LockKey(coord model.Coordinate) string {
	key := fmt.Sprintf("lock:stock:%s:%s", coord.ProfileID, coord.ProductID)
	for _, dim := range []*string{coord.OfferID, coord.VariationID, coord.ModificationID} {
		if dim != nil {
			key += ":" + *dim
		} else {
			key += ":-"
		}
	}
	return key
}
