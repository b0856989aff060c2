package request

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/request/dto"
)

type UseCase interface {
	OpenRequest(ctx context.Context, input *dto.OpenRequestInput) (*model.StockRequest, *model.StockRequestEvent, error)
	Transition(ctx context.Context, input *dto.TransitionInput) (*model.StockRequestEvent, error)
	CurrentEvent(ctx context.Context, requestID string) (*model.StockRequestEvent, error)
	EventHistory(ctx context.Context, requestID string) ([]*model.StockRequestEvent, error)
	MarkPrinted(ctx context.Context, requestID string) error
	Archive(ctx context.Context, requestID string, archived bool) error
}

// Notifier broadcasts committed transitions to external collaborators.
// Delivery is best-effort; failures never roll back the transition.
type Notifier interface {
	NotifyStatus(ctx context.Context, requestID string, status model.Status) error
}
