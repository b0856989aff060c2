package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/report/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// viewRow carries one request joined with its current event.
type viewRow struct {
	ReqID            string       `db:"req_id"`
	ProfileID        string       `db:"profile_id"`
	CurrentEventID   *string      `db:"current_event_id"`
	RequestArchived  bool         `db:"request_archived"`
	RequestCreatedAt time.Time    `db:"request_created_at"`
	RequestUpdatedAt time.Time    `db:"request_updated_at"`
	EventID          string       `db:"event_id"`
	Status           model.Status `db:"status"`
	Comment          *string      `db:"comment"`
	Printed          bool         `db:"printed"`
	EventArchived    bool         `db:"event_archived"`
	CreatedBy        *string      `db:"created_by"`
	EventCreatedAt   time.Time    `db:"event_created_at"`
	MoveToProfileID  *string      `db:"move_to_profile_id"`
	MoveOrderID      *string      `db:"move_order_id"`
	OrderID          *string      `db:"order_id"`
	SupplyID         *string      `db:"supply_id"`
	PartID           *string      `db:"part_id"`
	PartLotNumber    *int64       `db:"part_lot_number"`
}

const viewColumns = `
	r.id AS req_id, r.profile_id, r.current_event_id,
	r.archived AS request_archived, r.created_at AS request_created_at, r.updated_at AS request_updated_at,
	e.id AS event_id, e.status, e.comment, e.printed,
	e.archived AS event_archived, e.created_by, e.created_at AS event_created_at,
	e.move_to_profile_id, e.move_order_id, e.order_id, e.supply_id, e.part_id, e.part_lot_number`

func (r *viewRow) toView() dto.RequestView {
	event := &model.StockRequestEvent{
		ID:        r.EventID,
		RequestID: r.ReqID,
		Status:    r.Status,
		Comment:   r.Comment,
		Printed:   r.Printed,
		Archived:  r.EventArchived,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.EventCreatedAt,
	}
	if r.MoveToProfileID != nil {
		event.Move = &model.MoveDetails{ToProfileID: *r.MoveToProfileID, OrderID: r.MoveOrderID}
	}
	if r.OrderID != nil {
		event.Order = &model.OrderDetails{OrderID: *r.OrderID}
	}
	if r.SupplyID != nil {
		event.Supply = &model.SupplyDetails{SupplyID: *r.SupplyID}
	}
	if r.PartID != nil {
		part := &model.PartDetails{PartID: *r.PartID}
		if r.PartLotNumber != nil {
			part.LotNumber = *r.PartLotNumber
		}
		event.Part = part
	}
	return dto.RequestView{
		Request: model.StockRequest{
			ID:             r.ReqID,
			ProfileID:      r.ProfileID,
			CurrentEventID: r.CurrentEventID,
			Archived:       r.RequestArchived,
			CreatedAt:      r.RequestCreatedAt,
			UpdatedAt:      r.RequestUpdatedAt,
		},
		Event: event,
	}
}

func (r *PGRepository) RequestsForProfile(ctx context.Context, f *dto.RequestFilters) ([]dto.RequestView, int, error) {
	where := ` WHERE r.profile_id = $1`
	if !f.IncludeArchived {
		where += ` AND r.archived = FALSE`
	}

	var count int
	countQuery := `
		SELECT count(*) FROM stock_requests r
		JOIN stock_request_events e ON e.id = r.current_event_id` + where
	if err := r.DB.GetContext(ctx, &count, countQuery, f.ProfileID); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT` + viewColumns + `
		FROM stock_requests r
		JOIN stock_request_events e ON e.id = r.current_event_id` + where + `
		ORDER BY r.updated_at DESC`
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	var rows []viewRow
	if err := r.DB.SelectContext(ctx, &rows, query, f.ProfileID); err != nil {
		return nil, 0, err
	}

	views := make([]dto.RequestView, len(rows))
	for i := range rows {
		views[i] = rows[i].toView()
	}
	if err := r.loadItems(ctx, views); err != nil {
		return nil, 0, err
	}
	return views, count, nil
}

func (r *PGRepository) RequestsByOrder(ctx context.Context, orderID string, status *model.Status) ([]dto.RequestView, error) {
	query := `
		SELECT` + viewColumns + `
		FROM stock_requests r
		JOIN stock_request_events e ON e.id = r.current_event_id
		WHERE (e.order_id = $1 OR e.move_order_id = $1)`
	args := []interface{}{orderID}
	if status != nil {
		query += ` AND e.status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY r.created_at, r.id`

	var rows []viewRow
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	views := make([]dto.RequestView, len(rows))
	for i := range rows {
		views[i] = rows[i].toView()
	}
	if err := r.loadItems(ctx, views); err != nil {
		return nil, err
	}
	return views, nil
}

func (r *PGRepository) loadItems(ctx context.Context, views []dto.RequestView) error {
	if len(views) == 0 {
		return nil
	}
	ids := make([]string, len(views))
	byID := make(map[string]*model.StockRequestEvent, len(views))
	for i := range views {
		ids[i] = views[i].Event.ID
		byID[views[i].Event.ID] = views[i].Event
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

// ProductTotals aggregates one product across all profiles; the per-profile
// breakdown is JSON-aggregated in the database.
func (r *PGRepository) ProductTotals(ctx context.Context, productID string) (*dto.ProductTotals, error) {
	query := `
		SELECT COALESCE(json_agg(json_build_object(
			'profile_id', profile_id,
			'total', total,
			'reserve', reserve
		) ORDER BY profile_id), '[]')
		FROM (
			SELECT profile_id, SUM(total)::int AS total, SUM(reserve)::int AS reserve
			FROM stock_totals
			WHERE product_id = $1
			GROUP BY profile_id
		) t`

	var raw []byte
	if err := r.DB.GetContext(ctx, &raw, query, productID); err != nil {
		return nil, err
	}

	totals := &dto.ProductTotals{ProductID: productID}
	if err := json.Unmarshal(raw, &totals.Profiles); err != nil {
		return nil, err
	}
	for _, p := range totals.Profiles {
		totals.Total += p.Total
		totals.Reserve += p.Reserve
	}
	return totals, nil
}

func (r *PGRepository) LowStock(ctx context.Context, profileID string, threshold int) ([]dto.LowStockEntry, error) {
	query := `
		SELECT
			product_id, offer_id, variation_id, modification_id,
			SUM(total)::int AS total,
			SUM(reserve)::int AS reserve,
			SUM(total - reserve)::int AS available
		FROM stock_totals
		WHERE profile_id = $1
		GROUP BY product_id, offer_id, variation_id, modification_id
		HAVING SUM(total - reserve) <= $2
		ORDER BY product_id`

	var entries []dto.LowStockEntry
	err := r.DB.SelectContext(ctx, &entries, query, profileID, threshold)
	return entries, err
}
