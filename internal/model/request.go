package model

import "time"

// StockRequest is the aggregate identity. Its mutable part is the pointer to
// the latest event; everything else lives in the append-only event log.
type StockRequest struct {
	ID             string    `db:"id"`
	ProfileID      string    `db:"profile_id"`
	CurrentEventID *string   `db:"current_event_id"`
	Archived       bool      `db:"archived"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// StockRequestEvent is one immutable version of a request. Only the printed
// and archived operational flags may change after creation.
type StockRequestEvent struct {
	ID        string    `db:"id"`
	RequestID string    `db:"request_id"`
	Status    Status    `db:"status"`
	Comment   *string   `db:"comment"`
	Printed   bool      `db:"printed"`
	Archived  bool      `db:"archived"`
	CreatedBy *string   `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`

	Items []LineItem `db:"-"`

	// Status-specific sub-records. At most the one matching the status is set.
	Move   *MoveDetails   `db:"-"`
	Order  *OrderDetails  `db:"-"`
	Supply *SupplyDetails `db:"-"`
	Part   *PartDetails   `db:"-"`
}

// MoveDetails accompanies the moving status.
type MoveDetails struct {
	ToProfileID string  `db:"move_to_profile_id"`
	OrderID     *string `db:"move_order_id"`
}

// OrderDetails accompanies the package status.
type OrderDetails struct {
	OrderID string `db:"order_id"`
}

// SupplyDetails links the event to a supply batch.
type SupplyDetails struct {
	SupplyID string `db:"supply_id"`
}

// PartDetails is a lot assignment. At most one per request; the lot number is
// caller-supplied or drawn from a monotonic sequence.
type PartDetails struct {
	PartID    string `db:"part_id"`
	LotNumber int64  `db:"part_lot_number"`
}

// LineItem is one product position of an event. Quantity is always >= 1.
type LineItem struct {
	ID             string  `db:"id"`
	EventID        string  `db:"event_id"`
	ProductID      string  `db:"product_id"`
	OfferID        *string `db:"offer_id"`
	VariationID    *string `db:"variation_id"`
	ModificationID *string `db:"modification_id"`
	Total          int     `db:"total"`
	Cell           *string `db:"cell"`
}

// Coordinate returns the ledger coordinate of the item within the given profile.
func (li *LineItem) Coordinate(profileID string) Coordinate {
	return Coordinate{
		ProfileID:      profileID,
		ProductID:      li.ProductID,
		OfferID:        li.OfferID,
		VariationID:    li.VariationID,
		ModificationID: li.ModificationID,
	}
}
