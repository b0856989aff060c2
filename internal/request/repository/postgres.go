package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperrors"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/jmoiron/sqlx"
)

// LedgerApplier applies ledger effects inside the transaction that appends
// the event, so neither side can commit without the other.
type LedgerApplier interface {
	ApplyTx(ctx context.Context, tx *sqlx.Tx, effects []model.LedgerEffect) error
}

type PGRepository struct {
	DB     *sqlx.DB
	Ledger LedgerApplier
}

func NewPGRepository(db *sqlx.DB, ledger LedgerApplier) *PGRepository {
	return &PGRepository{DB: db, Ledger: ledger}
}

// eventRow flattens the status sub-records into nullable columns.
type eventRow struct {
	ID        string       `db:"id"`
	RequestID string       `db:"request_id"`
	Status    model.Status `db:"status"`
	Comment   *string      `db:"comment"`
	Printed   bool         `db:"printed"`
	Archived  bool         `db:"archived"`
	CreatedBy *string      `db:"created_by"`
	CreatedAt time.Time    `db:"created_at"`

	MoveToProfileID *string `db:"move_to_profile_id"`
	MoveOrderID     *string `db:"move_order_id"`
	OrderID         *string `db:"order_id"`
	SupplyID        *string `db:"supply_id"`
	PartID          *string `db:"part_id"`
	PartLotNumber   *int64  `db:"part_lot_number"`
}

func toRow(e *model.StockRequestEvent) *eventRow {
	row := &eventRow{
		ID:        e.ID,
		RequestID: e.RequestID,
		Status:    e.Status,
		Comment:   e.Comment,
		Printed:   e.Printed,
		Archived:  e.Archived,
		CreatedBy: e.CreatedBy,
		CreatedAt: e.CreatedAt,
	}
	if e.Move != nil {
		row.MoveToProfileID = &e.Move.ToProfileID
		row.MoveOrderID = e.Move.OrderID
	}
	if e.Order != nil {
		row.OrderID = &e.Order.OrderID
	}
	if e.Supply != nil {
		row.SupplyID = &e.Supply.SupplyID
	}
	if e.Part != nil {
		row.PartID = &e.Part.PartID
		lot := e.Part.LotNumber
		row.PartLotNumber = &lot
	}
	return row
}

func (r *eventRow) toModel() *model.StockRequestEvent {
	e := &model.StockRequestEvent{
		ID:        r.ID,
		RequestID: r.RequestID,
		Status:    r.Status,
		Comment:   r.Comment,
		Printed:   r.Printed,
		Archived:  r.Archived,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
	if r.MoveToProfileID != nil {
		e.Move = &model.MoveDetails{ToProfileID: *r.MoveToProfileID, OrderID: r.MoveOrderID}
	}
	if r.OrderID != nil {
		e.Order = &model.OrderDetails{OrderID: *r.OrderID}
	}
	if r.SupplyID != nil {
		e.Supply = &model.SupplyDetails{SupplyID: *r.SupplyID}
	}
	if r.PartID != nil {
		part := &model.PartDetails{PartID: *r.PartID}
		if r.PartLotNumber != nil {
			part.LotNumber = *r.PartLotNumber
		}
		e.Part = part
	}
	return e
}

func (r *PGRepository) GetRequest(ctx context.Context, id string) (*model.StockRequest, error) {
	var req model.StockRequest
	err := r.DB.GetContext(ctx, &req, `SELECT * FROM stock_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *PGRepository) CurrentEvent(ctx context.Context, requestID string) (*model.StockRequestEvent, error) {
	var row eventRow
	query := `
		SELECT e.* FROM stock_request_events e
		JOIN stock_requests r ON r.current_event_id = e.id
		WHERE r.id = $1`
	err := r.DB.GetContext(ctx, &row, query, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	event := row.toModel()
	if err := r.loadItems(ctx, []*model.StockRequestEvent{event}); err != nil {
		return nil, err
	}
	return event, nil
}

func (r *PGRepository) EventHistory(ctx context.Context, requestID string) ([]*model.StockRequestEvent, error) {
	var rows []eventRow
	query := `
		SELECT * FROM stock_request_events
		WHERE request_id = $1
		ORDER BY created_at, id`
	if err := r.DB.SelectContext(ctx, &rows, query, requestID); err != nil {
		return nil, err
	}

	events := make([]*model.StockRequestEvent, len(rows))
	for i := range rows {
		events[i] = rows[i].toModel()
	}
	if err := r.loadItems(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *PGRepository) loadItems(ctx context.Context, events []*model.StockRequestEvent) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	byID := make(map[string]*model.StockRequestEvent, len(events))
	for i, e := range events {
		ids[i] = e.ID
		byID[e.ID] = e
	}

	query, args, err := sqlx.In(`SELECT * FROM stock_request_items WHERE event_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	query = r.DB.Rebind(query)

	var items []model.LineItem
	if err := r.DB.SelectContext(ctx, &items, query, args...); err != nil {
		return err
	}
	for _, item := range items {
		if e, ok := byID[item.EventID]; ok {
			e.Items = append(e.Items, item)
		}
	}
	return nil
}

func (r *PGRepository) StatusSeen(ctx context.Context, requestID string, status model.Status) (bool, error) {
	var seen bool
	query := `SELECT EXISTS (SELECT 1 FROM stock_request_events WHERE request_id = $1 AND status = $2)`
	err := r.DB.GetContext(ctx, &seen, query, requestID, status)
	return seen, err
}

func (r *PGRepository) HasPart(ctx context.Context, requestID string) (bool, error) {
	var has bool
	query := `SELECT EXISTS (SELECT 1 FROM stock_request_events WHERE request_id = $1 AND part_id IS NOT NULL)`
	err := r.DB.GetContext(ctx, &has, query, requestID)
	return has, err
}

func (r *PGRepository) CreateRequest(ctx context.Context, req *model.StockRequest, event *model.StockRequestEvent, effects []model.LedgerEffect) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO stock_requests (id, profile_id, current_event_id, archived, created_at, updated_at)
		VALUES (:id, :profile_id, NULL, :archived, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}

	if err := r.insertEventTx(ctx, tx, req, event, effects, nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	req.CurrentEventID = &event.ID
	return nil
}

func (r *PGRepository) AppendEvent(ctx context.Context, req *model.StockRequest, event *model.StockRequestEvent, effects []model.LedgerEffect) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.insertEventTx(ctx, tx, req, event, effects, req.CurrentEventID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	req.CurrentEventID = &event.ID
	return nil
}

// insertEventTx appends the event with its items, applies ledger effects and
// advances the current pointer, guarded against a concurrent advance.
func (r *PGRepository) insertEventTx(ctx context.Context, tx *sqlx.Tx, req *model.StockRequest, event *model.StockRequestEvent, effects []model.LedgerEffect, prevEventID *string) error {
	if event.Part != nil && event.Part.LotNumber == 0 {
		// Lot numbers come from a dedicated sequence, so synthesized numbers
		// are strictly increasing even under concurrent transitions.
		if err := tx.GetContext(ctx, &event.Part.LotNumber, `SELECT nextval('stock_request_lot_seq')`); err != nil {
			return fmt.Errorf("failed to draw lot number: %w", err)
		}
	}

	query := `
		INSERT INTO stock_request_events (
			id, request_id, status, comment, printed, archived, created_by, created_at,
			move_to_profile_id, move_order_id, order_id, supply_id, part_id, part_lot_number
		)
		VALUES (
			:id, :request_id, :status, :comment, :printed, :archived, :created_by, :created_at,
			:move_to_profile_id, :move_order_id, :order_id, :supply_id, :part_id, :part_lot_number
		)`
	if _, err := tx.NamedExecContext(ctx, query, toRow(event)); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	itemQuery := `
		INSERT INTO stock_request_items (
			id, event_id, product_id, offer_id, variation_id, modification_id, total, cell
		)
		VALUES (
			:id, :event_id, :product_id, :offer_id, :variation_id, :modification_id, :total, :cell
		)`
	for i := range event.Items {
		if _, err := tx.NamedExecContext(ctx, itemQuery, &event.Items[i]); err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
	}

	if len(effects) > 0 {
		if err := r.Ledger.ApplyTx(ctx, tx, effects); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE stock_requests
		SET current_event_id = $1, profile_id = $2, updated_at = $3
		WHERE id = $4 AND current_event_id IS NOT DISTINCT FROM $5`,
		event.ID, req.ProfileID, time.Now(), req.ID, prevEventID,
	)
	if err != nil {
		return fmt.Errorf("failed to advance current event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &apperrors.ConcurrentConflictError{RequestID: req.ID, Status: string(event.Status)}
	}
	return nil
}

func (r *PGRepository) MarkPrinted(ctx context.Context, eventID string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE stock_request_events SET printed = TRUE WHERE id = $1`, eventID)
	return err
}

func (r *PGRepository) SetArchived(ctx context.Context, requestID string, archived bool) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE stock_requests SET archived = $1, updated_at = $2 WHERE id = $3`,
		archived, time.Now(), requestID)
	return err
}
