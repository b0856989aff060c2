package settings

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	// GetByProfile returns nil when the profile never configured settings.
	GetByProfile(ctx context.Context, profileID string) (*model.StockSettings, error)
	CurrentEvent(ctx context.Context, settingsID string) (*model.StockSettingsEvent, error)

	// AppendEvent creates the settings aggregate on first use and advances the
	// current pointer together with the event insert.
	AppendEvent(ctx context.Context, profileID string, event *model.StockSettingsEvent) error
}
