package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const coordinateWhere = `
	profile_id = $1
	AND product_id = $2
	AND offer_id IS NOT DISTINCT FROM $3
	AND variation_id IS NOT DISTINCT FROM $4
	AND modification_id IS NOT DISTINCT FROM $5`

func coordinateArgs(coord model.Coordinate) []interface{} {
	return []interface{}{
		coord.ProfileID, coord.ProductID,
		coord.OfferID, coord.VariationID, coord.ModificationID,
	}
}

func (r *PGRepository) RowsForCoordinate(ctx context.Context, coord model.Coordinate) ([]*model.StockTotal, error) {
	var rows []*model.StockTotal
	query := `SELECT * FROM stock_totals WHERE` + coordinateWhere + ` ORDER BY id`
	err := r.DB.SelectContext(ctx, &rows, query, coordinateArgs(coord)...)
	return rows, err
}

func (r *PGRepository) Available(ctx context.Context, coord model.Coordinate) (int, error) {
	var available int
	query := `SELECT COALESCE(SUM(total - reserve), 0) FROM stock_totals WHERE` + coordinateWhere
	err := r.DB.GetContext(ctx, &available, query, coordinateArgs(coord)...)
	return available, err
}

func (r *PGRepository) MaxAvailable(ctx context.Context, coord model.Coordinate) (*model.StockTotal, error) {
	var row model.StockTotal
	query := `SELECT * FROM stock_totals WHERE` + coordinateWhere + `
		AND total - reserve > 0
		ORDER BY total - reserve DESC, id
		LIMIT 1`
	err := r.DB.GetContext(ctx, &row, query, coordinateArgs(coord)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *PGRepository) Apply(ctx context.Context, effects []model.LedgerEffect) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.ApplyTx(ctx, tx, effects); err != nil {
		return err
	}
	return tx.Commit()
}

// ApplyTx locks the touched coordinates row-by-row, runs the pure planners and
// persists the changed rows, all inside the caller's transaction.
func (r *PGRepository) ApplyTx(ctx context.Context, tx *sqlx.Tx, effects []model.LedgerEffect) error {
	for _, e := range effects {
		rows, err := r.rowsForUpdate(ctx, tx, e.Coordinate)
		if err != nil {
			return err
		}

		var changed []*model.StockTotal
		switch e.Op {
		case model.LedgerAdd:
			changed, err = model.PlanAdd(e.Coordinate, rows, e.Qty, e.Cell)
		case model.LedgerReserve:
			changed, err = model.PlanReserve(e.Coordinate, rows, e.Qty)
		case model.LedgerRelease:
			changed, err = model.PlanRelease(e.Coordinate, rows, e.Qty)
		case model.LedgerDecommission:
			changed, err = model.PlanDecommission(e.Coordinate, rows, e.Qty)
		case model.LedgerMove:
			changed, err = r.planMove(ctx, tx, e, rows)
		default:
			err = fmt.Errorf("unknown ledger op %q", e.Op)
		}
		if err != nil {
			return err
		}

		for _, row := range changed {
			if err := r.saveRow(ctx, tx, row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *PGRepository) planMove(ctx context.Context, tx *sqlx.Tx, e model.LedgerEffect, sourceRows []*model.StockTotal) ([]*model.StockTotal, error) {
	changed, err := model.PlanMoveOut(e.Coordinate, sourceRows, e.Qty)
	if err != nil {
		return nil, err
	}

	destCell := e.Cell
	if destCell == nil && len(changed) > 0 {
		destCell = changed[0].Cell
	}

	destCoord := e.Coordinate.WithProfile(e.ToProfileID)
	destRows, err := r.rowsForUpdate(ctx, tx, destCoord)
	if err != nil {
		return nil, err
	}
	added, err := model.PlanAdd(destCoord, destRows, e.Qty, destCell)
	if err != nil {
		return nil, err
	}
	return append(changed, added...), nil
}

func (r *PGRepository) rowsForUpdate(ctx context.Context, tx *sqlx.Tx, coord model.Coordinate) ([]*model.StockTotal, error) {
	var rows []*model.StockTotal
	query := `SELECT * FROM stock_totals WHERE` + coordinateWhere + ` ORDER BY id FOR UPDATE`
	err := tx.SelectContext(ctx, &rows, query, coordinateArgs(coord)...)
	return rows, err
}

func (r *PGRepository) saveRow(ctx context.Context, tx *sqlx.Tx, row *model.StockTotal) error {
	row.UpdatedAt = time.Now()
	if row.ID == "" {
		row.ID = uuid.New().String()
		query := `
			INSERT INTO stock_totals (
				id, profile_id, product_id, offer_id, variation_id, modification_id,
				total, reserve, cell, comment, approved, updated_at
			)
			VALUES (
				:id, :profile_id, :product_id, :offer_id, :variation_id, :modification_id,
				:total, :reserve, :cell, :comment, :approved, :updated_at
			)`
		_, err := tx.NamedExecContext(ctx, query, row)
		return err
	}

	query := `
		UPDATE stock_totals
		SET total = :total, reserve = :reserve, updated_at = :updated_at
		WHERE id = :id`
	_, err := tx.NamedExecContext(ctx, query, row)
	return err
}

func (r *PGRepository) Approve(ctx context.Context, rowID string, approved bool, comment *string) error {
	query := `UPDATE stock_totals SET approved = $1, comment = $2, updated_at = $3 WHERE id = $4`
	res, err := r.DB.ExecContext(ctx, query, approved, comment, time.Now(), rowID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("stock total %s not found", rowID)
	}
	return nil
}
