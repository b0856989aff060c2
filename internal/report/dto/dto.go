package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

// RequestView pairs a request with its current event for listings.
type RequestView struct {
	Request model.StockRequest
	Event   *model.StockRequestEvent
}

type RequestFilters struct {
	ProfileID       string
	IncludeArchived bool
	Page            int
	PageSize        int
}

// ProfileTotal is one profile's slice of a product's stock.
type ProfileTotal struct {
	ProfileID string `json:"profile_id"`
	Total     int    `json:"total"`
	Reserve   int    `json:"reserve"`
}

// ProductTotals is the cross-profile breakdown for one product.
type ProductTotals struct {
	ProductID string
	Profiles  []ProfileTotal
	Total     int
	Reserve   int
}

func (t *ProductTotals) Available() int {
	return t.Total - t.Reserve
}

// LowStockEntry is one coordinate at or below the profile threshold.
type LowStockEntry struct {
	ProductID      string  `db:"product_id"`
	OfferID        *string `db:"offer_id"`
	VariationID    *string `db:"variation_id"`
	ModificationID *string `db:"modification_id"`
	Total          int     `db:"total"`
	Reserve        int     `db:"reserve"`
	Available      int     `db:"available"`
}
