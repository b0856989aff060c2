package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

type AddQuantityInput struct {
	Coordinate model.Coordinate
	Qty        int
	Cell       *string
	Comment    *string
}

type MoveInput struct {
	Coordinate  model.Coordinate
	Qty         int
	ToProfileID string
	ToCell      *string
}
