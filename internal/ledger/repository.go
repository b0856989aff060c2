package ledger

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	// Reads
	RowsForCoordinate(ctx context.Context, coord model.Coordinate) ([]*model.StockTotal, error)
	Available(ctx context.Context, coord model.Coordinate) (int, error)
	MaxAvailable(ctx context.Context, coord model.Coordinate) (*model.StockTotal, error)

	// Mutations. Apply runs in its own transaction; ApplyTx joins the caller's
	// transaction so event appends and ledger effects commit atomically.
	Apply(ctx context.Context, effects []model.LedgerEffect) error
	ApplyTx(ctx context.Context, tx *sqlx.Tx, effects []model.LedgerEffect) error

	// Operator confirmation of a physical count.
	Approve(ctx context.Context, rowID string, approved bool, comment *string) error
}
