package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperrors"
)

// Coordinate identifies one stocked variant: profile/warehouse plus the
// trade-offer dimensions. Rows at different storage cells share a coordinate
// and form a single availability pool.
type Coordinate struct {
	ProfileID      string
	ProductID      string
	OfferID        *string
	VariationID    *string
	ModificationID *string
}

func (c Coordinate) String() string {
	return fmt.Sprintf("profile=%s product=%s offer=%s variation=%s modification=%s",
		c.ProfileID, c.ProductID, deref(c.OfferID), deref(c.VariationID), deref(c.ModificationID))
}

// WithProfile returns the same variant coordinate under another profile.
func (c Coordinate) WithProfile(profileID string) Coordinate {
	c.ProfileID = profileID
	return c
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// StockTotal is one ledger row: the on-hand and reserved quantity of a
// coordinate at a single storage cell.
type StockTotal struct {
	ID             string    `db:"id"`
	ProfileID      string    `db:"profile_id"`
	ProductID      string    `db:"product_id"`
	OfferID        *string   `db:"offer_id"`
	VariationID    *string   `db:"variation_id"`
	ModificationID *string   `db:"modification_id"`
	Total          int       `db:"total"`
	Reserve        int       `db:"reserve"`
	Cell           *string   `db:"cell"`
	Comment        *string   `db:"comment"`
	Approved       bool      `db:"approved"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (t *StockTotal) Available() int {
	return t.Total - t.Reserve
}

func (t *StockTotal) Coordinate() Coordinate {
	return Coordinate{
		ProfileID:      t.ProfileID,
		ProductID:      t.ProductID,
		OfferID:        t.OfferID,
		VariationID:    t.VariationID,
		ModificationID: t.ModificationID,
	}
}

// check enforces the per-row invariant after a mutation.
func (t *StockTotal) check(op string, qty int) error {
	if t.Total < 0 || t.Reserve < 0 || t.Reserve > t.Total {
		return &apperrors.LedgerInvariantError{
			Coordinate: t.Coordinate().String(),
			Op:         op,
			Requested:  qty,
			Reason:     fmt.Sprintf("total %d, reserve %d after mutation", t.Total, t.Reserve),
		}
	}
	return nil
}

// sortByReserve orders rows by reserve descending with row id as the stable
// secondary key, so cell selection is deterministic for a given snapshot.
func sortByReserve(rows []*StockTotal) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Reserve != rows[j].Reserve {
			return rows[i].Reserve > rows[j].Reserve
		}
		return rows[i].ID < rows[j].ID
	})
}

func sortByAvailable(rows []*StockTotal) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Available() != rows[j].Available() {
			return rows[i].Available() > rows[j].Available()
		}
		return rows[i].ID < rows[j].ID
	})
}

// AvailableSum is the aggregate availability of a coordinate across its cells.
func AvailableSum(rows []*StockTotal) int {
	sum := 0
	for _, r := range rows {
		sum += r.Available()
	}
	return sum
}

// MaxAvailableRow returns the row with the largest availability, or nil.
func MaxAvailableRow(rows []*StockTotal) *StockTotal {
	if len(rows) == 0 {
		return nil
	}
	sorted := append([]*StockTotal(nil), rows...)
	sortByAvailable(sorted)
	if sorted[0].Available() <= 0 {
		return nil
	}
	return sorted[0]
}

// PlanAdd increases total at the named cell, creating the row when the variant
// has never been stocked there. Returns the mutated rows; a freshly created
// row has an empty ID for the repository to fill.
func PlanAdd(coord Coordinate, rows []*StockTotal, qty int, cell *string) ([]*StockTotal, error) {
	if qty <= 0 {
		return nil, &apperrors.LedgerInvariantError{
			Coordinate: coord.String(), Op: "add", Requested: qty,
			Reason: "quantity must be positive",
		}
	}
	for _, r := range rows {
		if ptrEqual(r.Cell, cell) {
			r.Total += qty
			if err := r.check("add", qty); err != nil {
				return nil, err
			}
			return []*StockTotal{r}, nil
		}
	}
	row := &StockTotal{
		ProfileID:      coord.ProfileID,
		ProductID:      coord.ProductID,
		OfferID:        coord.OfferID,
		VariationID:    coord.VariationID,
		ModificationID: coord.ModificationID,
		Total:          qty,
		Reserve:        0,
		Cell:           cell,
	}
	return []*StockTotal{row}, nil
}

// PlanReserve fills the reservation from the cells holding the largest
// absolute reserve first, consolidating instead of fragmenting. Fails with
// InsufficientStock when the pool cannot cover qty; nothing is mutated then.
func PlanReserve(coord Coordinate, rows []*StockTotal, qty int) ([]*StockTotal, error) {
	if qty <= 0 {
		return nil, &apperrors.LedgerInvariantError{
			Coordinate: coord.String(), Op: "reserve", Requested: qty,
			Reason: "quantity must be positive",
		}
	}
	if avail := AvailableSum(rows); avail < qty {
		return nil, &apperrors.InsufficientStockError{
			Coordinate: coord.String(), Requested: qty, Available: avail,
		}
	}

	sorted := append([]*StockTotal(nil), rows...)
	sortByReserve(sorted)

	var changed []*StockTotal
	left := qty
	for _, r := range sorted {
		if left == 0 {
			break
		}
		free := r.Available()
		if free <= 0 {
			continue
		}
		take := free
		if take > left {
			take = left
		}
		r.Reserve += take
		if err := r.check("reserve", qty); err != nil {
			return nil, err
		}
		changed = append(changed, r)
		left -= take
	}
	return changed, nil
}

// PlanRelease decrements reserve on the row holding the maximum current
// reserve. Fails when nothing is reserved or the row cannot cover qty.
func PlanRelease(coord Coordinate, rows []*StockTotal, qty int) ([]*StockTotal, error) {
	if qty <= 0 {
		return nil, &apperrors.LedgerInvariantError{
			Coordinate: coord.String(), Op: "release", Requested: qty,
			Reason: "quantity must be positive",
		}
	}
	sorted := append([]*StockTotal(nil), rows...)
	sortByReserve(sorted)
	if len(sorted) == 0 || sorted[0].Reserve <= 0 {
		return nil, &apperrors.LedgerInvariantError{
			Coordinate: coord.String(), Op: "release", Requested: qty,
			Reason: "nothing reserved",
		}
	}
	target := sorted[0]
	if target.Reserve < qty {
		return nil, &apperrors.LedgerInvariantError{
			Coordinate: coord.String(), Op: "release", Requested: qty,
			Reason: fmt.Sprintf("max reserve is %d", target.Reserve),
		}
	}
	target.Reserve -= qty
	if err := target.check("release", qty); err != nil {
		return nil, err
	}
	return []*StockTotal{target}, nil
}

// PlanDecommission removes goods from inventory at the max-reserve row,
// voiding any reservation against them: total drops by qty, reserve by at
// most qty and never below zero.
func PlanDecommission(coord Coordinate, rows []*StockTotal, qty int) ([]*StockTotal, error) {
	if qty <= 0 {
		return nil, &apperrors.LedgerInvariantError{
			Coordinate: coord.String(), Op: "decommission", Requested: qty,
			Reason: "quantity must be positive",
		}
	}
	sorted := append([]*StockTotal(nil), rows...)
	sortByReserve(sorted)
	if len(sorted) == 0 {
		return nil, &apperrors.LedgerInvariantError{
			Coordinate: coord.String(), Op: "decommission", Requested: qty,
			Reason: "no stock",
		}
	}
	target := sorted[0]
	if target.Total < qty {
		return nil, &apperrors.LedgerInvariantError{
			Coordinate: coord.String(), Op: "decommission", Requested: qty,
			Reason: fmt.Sprintf("total is %d", target.Total),
		}
	}
	target.Total -= qty
	if target.Reserve > qty {
		target.Reserve -= qty
	} else {
		target.Reserve = 0
	}
	if err := target.check("decommission", qty); err != nil {
		return nil, err
	}
	return []*StockTotal{target}, nil
}

// PlanMoveOut takes qty from the source row with the largest availability.
func PlanMoveOut(coord Coordinate, rows []*StockTotal, qty int) ([]*StockTotal, error) {
	if qty <= 0 {
		return nil, &apperrors.LedgerInvariantError{
			Coordinate: coord.String(), Op: "move", Requested: qty,
			Reason: "quantity must be positive",
		}
	}
	source := MaxAvailableRow(rows)
	if source == nil || source.Available() < qty {
		avail := 0
		if source != nil {
			avail = source.Available()
		}
		return nil, &apperrors.InsufficientStockError{
			Coordinate: coord.String(), Requested: qty, Available: avail,
		}
	}
	source.Total -= qty
	if err := source.check("move", qty); err != nil {
		return nil, err
	}
	return []*StockTotal{source}, nil
}

// LedgerOp enumerates the mutations a state transition may demand.
type LedgerOp string

const (
	LedgerAdd          LedgerOp = "add"
	LedgerReserve      LedgerOp = "reserve"
	LedgerRelease      LedgerOp = "release"
	LedgerDecommission LedgerOp = "decommission"
	LedgerMove         LedgerOp = "move"
)

// LedgerEffect is one declarative ledger mutation, applied by the repository
// inside the same transaction that appends the triggering event.
type LedgerEffect struct {
	Op          LedgerOp
	Coordinate  Coordinate
	Qty         int
	Cell        *string // add: target cell
	ToProfileID string  // move: destination profile
}
