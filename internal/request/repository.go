package request

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	GetRequest(ctx context.Context, id string) (*model.StockRequest, error)
	CurrentEvent(ctx context.Context, requestID string) (*model.StockRequestEvent, error)
	EventHistory(ctx context.Context, requestID string) ([]*model.StockRequestEvent, error)

	// Guards
	StatusSeen(ctx context.Context, requestID string, status model.Status) (bool, error)
	HasPart(ctx context.Context, requestID string) (bool, error)

	// CreateRequest and AppendEvent persist the event (filling a synthesized
	// lot number from the monotonic sequence when a part carries none), apply
	// the ledger effects and advance the current pointer in one transaction.
	CreateRequest(ctx context.Context, req *model.StockRequest, event *model.StockRequestEvent, effects []model.LedgerEffect) error
	AppendEvent(ctx context.Context, req *model.StockRequest, event *model.StockRequestEvent, effects []model.LedgerEffect) error

	// Operational flags
	MarkPrinted(ctx context.Context, eventID string) error
	SetArchived(ctx context.Context, requestID string, archived bool) error
}
