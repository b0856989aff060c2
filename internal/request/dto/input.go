package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

type LineItemInput struct {
	ProductID      string
	OfferID        *string
	VariationID    *string
	ModificationID *string
	Total          int
	Cell           *string
}

// MovePayload is required when transitioning to the moving status.
type MovePayload struct {
	ToProfileID string
	OrderID     *string
}

// OrderPayload is required when transitioning to the package status.
type OrderPayload struct {
	OrderID string
}

type SupplyPayload struct {
	SupplyID string
}

// PartPayload assigns a lot. LotNumber 0 means "synthesize one".
type PartPayload struct {
	PartID    string
	LotNumber int64
}

type OpenRequestInput struct {
	ProfileID string
	Status    model.Status
	Items     []LineItemInput
	Comment   *string
	ActorID   *string

	Move   *MovePayload
	Order  *OrderPayload
	Supply *SupplyPayload
	Part   *PartPayload
}

// TransitionInput is the typed command for one status change. Items may be
// omitted to carry the current event's items forward.
type TransitionInput struct {
	RequestID string
	Status    model.Status
	Items     []LineItemInput
	Comment   *string
	ActorID   *string

	Move   *MovePayload
	Order  *OrderPayload
	Supply *SupplyPayload
	Part   *PartPayload
}
