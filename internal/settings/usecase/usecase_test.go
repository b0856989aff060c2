package usecase

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperrors"
	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettingsRepo struct {
	byProfile map[string]*model.StockSettings
	events    map[string][]*model.StockSettingsEvent
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{
		byProfile: map[string]*model.StockSettings{},
		events:    map[string][]*model.StockSettingsEvent{},
	}
}

func (f *fakeSettingsRepo) GetByProfile(_ context.Context, profileID string) (*model.StockSettings, error) {
	return f.byProfile[profileID], nil
}

func (f *fakeSettingsRepo) CurrentEvent(_ context.Context, settingsID string) (*model.StockSettingsEvent, error) {
	for _, s := range f.byProfile {
		if s.ID != settingsID || s.CurrentEventID == nil {
			continue
		}
		for _, e := range f.events[settingsID] {
			if e.ID == *s.CurrentEventID {
				return e, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeSettingsRepo) AppendEvent(_ context.Context, profileID string, event *model.StockSettingsEvent) error {
	s := f.byProfile[profileID]
	if s == nil {
		s = &model.StockSettings{ID: uuid.New().String(), ProfileID: profileID}
		f.byProfile[profileID] = s
	}
	event.SettingsID = s.ID
	f.events[s.ID] = append(f.events[s.ID], event)
	s.CurrentEventID = &event.ID
	return nil
}

// fakeLedger serves Available from a fixed map keyed by coordinate string.
type fakeLedger struct {
	available map[string]int
}

func (f *fakeLedger) AddQuantity(context.Context, *dto.AddQuantityInput) error    { return nil }
func (f *fakeLedger) Reserve(context.Context, model.Coordinate, int) error       { return nil }
func (f *fakeLedger) Release(context.Context, model.Coordinate, int) error       { return nil }
func (f *fakeLedger) Decommission(context.Context, model.Coordinate, int) error  { return nil }
func (f *fakeLedger) Move(context.Context, *dto.MoveInput) error                 { return nil }
func (f *fakeLedger) Approve(context.Context, string, bool, *string) error       { return nil }
func (f *fakeLedger) MaxAvailable(context.Context, model.Coordinate) (*model.StockTotal, error) {
	return nil, nil
}

func (f *fakeLedger) Available(_ context.Context, coord model.Coordinate) (int, error) {
	return f.available[coord.String()], nil
}

func newSettingsUC(repo *fakeSettingsRepo, ledgerUC *fakeLedger) *settingsUseCase {
	return NewSettingsUseCase(repo, ledgerUC, logger.NewNop()).(*settingsUseCase)
}

func TestThresholdDefaultsToZero(t *testing.T) {
	uc := newSettingsUC(newFakeSettingsRepo(), &fakeLedger{})

	threshold, err := uc.ThresholdFor(context.Background(), "warehouse-1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultThreshold, threshold)
}

func TestUpdateThreshold(t *testing.T) {
	repo := newFakeSettingsRepo()
	uc := newSettingsUC(repo, &fakeLedger{})
	ctx := context.Background()

	event, err := uc.UpdateThreshold(ctx, "warehouse-1", 5, nil)
	require.NoError(t, err)
	require.NotNil(t, event)

	threshold, err := uc.ThresholdFor(ctx, "warehouse-1")
	require.NoError(t, err)
	assert.Equal(t, 5, threshold)

	// A later event supersedes, history stays intact.
	_, err = uc.UpdateThreshold(ctx, "warehouse-1", 2, nil)
	require.NoError(t, err)
	threshold, err = uc.ThresholdFor(ctx, "warehouse-1")
	require.NoError(t, err)
	assert.Equal(t, 2, threshold)
	assert.Len(t, repo.events[repo.byProfile["warehouse-1"].ID], 2)
}

func TestUpdateThresholdValidation(t *testing.T) {
	uc := newSettingsUC(newFakeSettingsRepo(), &fakeLedger{})
	ctx := context.Background()

	_, err := uc.UpdateThreshold(ctx, "", 5, nil)
	assert.True(t, apperrors.IsValidation(err))

	_, err = uc.UpdateThreshold(ctx, "warehouse-1", -1, nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestIsLowStock(t *testing.T) {
	repo := newFakeSettingsRepo()
	coord := model.Coordinate{ProfileID: "warehouse-1", ProductID: "product-1"}
	ledgerUC := &fakeLedger{available: map[string]int{coord.String(): 4}}
	uc := newSettingsUC(repo, ledgerUC)
	ctx := context.Background()

	// Default threshold: 4 on hand is not low.
	low, err := uc.IsLowStock(ctx, "warehouse-1", coord)
	require.NoError(t, err)
	assert.False(t, low)

	_, err = uc.UpdateThreshold(ctx, "warehouse-1", 5, nil)
	require.NoError(t, err)

	low, err = uc.IsLowStock(ctx, "warehouse-1", coord)
	require.NoError(t, err)
	assert.True(t, low, "availability at or below the threshold is low")

	_, err = uc.UpdateThreshold(ctx, "warehouse-1", 3, nil)
	require.NoError(t, err)

	low, err = uc.IsLowStock(ctx, "warehouse-1", coord)
	require.NoError(t, err)
	assert.False(t, low)

	// Other profiles keep their own (default) threshold.
	ledgerUC.available[coord.WithProfile("warehouse-2").String()] = 0
	low, err = uc.IsLowStock(ctx, "warehouse-2", coord)
	require.NoError(t, err)
	assert.True(t, low, "stock-out is low even at the default threshold")
}
