package model

import (
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testCoord() Coordinate {
	return Coordinate{ProfileID: "warehouse-1", ProductID: "product-1"}
}

func row(id string, total, reserve int, cell *string) *StockTotal {
	return &StockTotal{
		ID:        id,
		ProfileID: "warehouse-1",
		ProductID: "product-1",
		Total:     total,
		Reserve:   reserve,
		Cell:      cell,
	}
}

func TestPlanAddExistingCell(t *testing.T) {
	rows := []*StockTotal{row("a", 5, 2, strPtr("A-1"))}

	changed, err := PlanAdd(testCoord(), rows, 3, strPtr("A-1"))
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "a", changed[0].ID)
	assert.Equal(t, 8, changed[0].Total)
	assert.Equal(t, 2, changed[0].Reserve)
}

func TestPlanAddNewCell(t *testing.T) {
	rows := []*StockTotal{row("a", 5, 0, strPtr("A-1"))}

	changed, err := PlanAdd(testCoord(), rows, 4, strPtr("B-2"))
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Empty(t, changed[0].ID, "new row should be created without id")
	assert.Equal(t, 4, changed[0].Total)
	assert.Equal(t, 0, changed[0].Reserve)
	assert.Equal(t, "B-2", *changed[0].Cell)
}

func TestPlanAddRejectsNonPositive(t *testing.T) {
	_, err := PlanAdd(testCoord(), nil, 0, nil)
	assert.True(t, apperrors.IsLedgerInvariant(err))
}

// Scenario: one row total=10 reserve=0; reserve 4 succeeds, then reserve 7
// fails and leaves the ledger unchanged.
func TestPlanReserveInsufficient(t *testing.T) {
	r := row("a", 10, 0, nil)
	rows := []*StockTotal{r}

	changed, err := PlanReserve(testCoord(), rows, 4)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, 4, r.Reserve)
	assert.Equal(t, 6, r.Available())

	_, err = PlanReserve(testCoord(), rows, 7)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientStock(err))
	assert.Equal(t, 4, r.Reserve, "failed reserve must not mutate")
	assert.Equal(t, 10, r.Total)
}

func TestPlanReserveFillsMaxReserveCellFirst(t *testing.T) {
	cell1 := row("a", 5, 3, strPtr("A-1"))
	cell2 := row("b", 5, 1, strPtr("B-2"))
	rows := []*StockTotal{cell2, cell1}

	changed, err := PlanReserve(testCoord(), rows, 2)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "a", changed[0].ID, "cell with largest reserve should fill first")
	assert.Equal(t, 5, cell1.Reserve)
	assert.Equal(t, 1, cell2.Reserve)
}

func TestPlanReserveSpillsOver(t *testing.T) {
	cell1 := row("a", 5, 3, strPtr("A-1"))
	cell2 := row("b", 5, 1, strPtr("B-2"))
	rows := []*StockTotal{cell1, cell2}

	// 2 free at cell1, rest spills to cell2.
	changed, err := PlanReserve(testCoord(), rows, 5)
	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Equal(t, 5, cell1.Reserve)
	assert.Equal(t, 4, cell2.Reserve)
}

func TestPlanReserveDeterministicTieBreak(t *testing.T) {
	cell1 := row("b", 5, 2, strPtr("B"))
	cell2 := row("a", 5, 2, strPtr("A"))
	rows := []*StockTotal{cell1, cell2}

	changed, err := PlanReserve(testCoord(), rows, 1)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "a", changed[0].ID, "equal reserves break ties by row id")
}

// Scenario: cell1 {total:5,reserve:3}, cell2 {total:5,reserve:1}; release 2
// decrements cell1 only.
func TestPlanReleaseTargetsMaxReserve(t *testing.T) {
	cell1 := row("a", 5, 3, strPtr("A-1"))
	cell2 := row("b", 5, 1, strPtr("B-2"))
	rows := []*StockTotal{cell2, cell1}

	changed, err := PlanRelease(testCoord(), rows, 2)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "a", changed[0].ID)
	assert.Equal(t, 1, cell1.Reserve)
	assert.Equal(t, 1, cell2.Reserve, "other cell untouched")
}

func TestPlanReleaseNothingReserved(t *testing.T) {
	rows := []*StockTotal{row("a", 5, 0, nil)}
	_, err := PlanRelease(testCoord(), rows, 1)
	assert.True(t, apperrors.IsLedgerInvariant(err))
}

func TestPlanReleaseOverdraw(t *testing.T) {
	r := row("a", 5, 2, nil)
	_, err := PlanRelease(testCoord(), []*StockTotal{r}, 3)
	require.Error(t, err)
	assert.True(t, apperrors.IsLedgerInvariant(err))
	assert.Equal(t, 2, r.Reserve, "failed release must not mutate")
}

// Scenario: decommission more than total fails and mutates nothing.
func TestPlanDecommissionOverdraw(t *testing.T) {
	r := row("a", 5, 2, nil)
	_, err := PlanDecommission(testCoord(), []*StockTotal{r}, 6)
	require.Error(t, err)
	assert.True(t, apperrors.IsLedgerInvariant(err))
	assert.Equal(t, 5, r.Total)
	assert.Equal(t, 2, r.Reserve)
}

func TestPlanDecommissionVoidsReserve(t *testing.T) {
	r := row("a", 10, 4, nil)
	changed, err := PlanDecommission(testCoord(), []*StockTotal{r}, 4)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, 6, r.Total)
	assert.Equal(t, 0, r.Reserve)
}

func TestPlanDecommissionKeepsExcessReserve(t *testing.T) {
	r := row("a", 10, 7, nil)
	_, err := PlanDecommission(testCoord(), []*StockTotal{r}, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, r.Total)
	assert.Equal(t, 4, r.Reserve)
}

func TestPlanMoveOut(t *testing.T) {
	small := row("a", 3, 1, strPtr("A"))
	big := row("b", 10, 2, strPtr("B"))
	rows := []*StockTotal{small, big}

	changed, err := PlanMoveOut(testCoord(), rows, 5)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "b", changed[0].ID, "row with largest availability ships out")
	assert.Equal(t, 5, big.Total)

	_, err = PlanMoveOut(testCoord(), rows, 100)
	assert.True(t, apperrors.IsInsufficientStock(err))
}

func TestAvailableSum(t *testing.T) {
	rows := []*StockTotal{
		row("a", 5, 3, nil),
		row("b", 5, 1, nil),
	}
	assert.Equal(t, 6, AvailableSum(rows))

	max := MaxAvailableRow(rows)
	require.NotNil(t, max)
	assert.Equal(t, "b", max.ID)
}

func TestMaxAvailableRowNilWhenExhausted(t *testing.T) {
	rows := []*StockTotal{row("a", 5, 5, nil)}
	assert.Nil(t, MaxAvailableRow(rows))
	assert.Nil(t, MaxAvailableRow(nil))
}
