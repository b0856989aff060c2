package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperrors"
	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/request"
	"github.com/fekuna/omnipos-stock-service/internal/request/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	lockTTL        = 5 * time.Second
	lockRetries    = 3
	lockRetryDelay = 100 * time.Millisecond
)

var errLockBusy = errors.New("system busy, please try again later (lock)")

// openableStatuses are the states a request may be created in: purchasing
// workflows open at purchase/incoming, direct stocking at warehouse, order
// fulfillment at package.
var openableStatuses = map[model.Status]bool{
	model.StatusPurchase:  true,
	model.StatusIncoming:  true,
	model.StatusWarehouse: true,
	model.StatusPackage:   true,
}

type requestUseCase struct {
	repo     request.Repository
	cache    *cache.RedisClient
	notifier request.Notifier
	logger   logger.ZapLogger
}

func NewRequestUseCase(repo request.Repository, cache *cache.RedisClient, notifier request.Notifier, log logger.ZapLogger) request.UseCase {
	return &requestUseCase{
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		logger:   log,
	}
}

func (uc *requestUseCase) OpenRequest(ctx context.Context, input *dto.OpenRequestInput) (*model.StockRequest, *model.StockRequestEvent, error) {
	if input.ProfileID == "" {
		return nil, nil, &apperrors.ValidationError{Reason: "profile id is required"}
	}
	if !input.Status.Valid() {
		return nil, nil, &apperrors.ValidationError{Reason: "unknown status " + string(input.Status)}
	}
	if !openableStatuses[input.Status] {
		return nil, nil, &apperrors.ValidationError{Reason: "cannot open request in status " + string(input.Status)}
	}

	items, err := buildItems("", input.Items)
	if err != nil {
		return nil, nil, err
	}
	if err := validateSubRecords("", input.Status, input.ProfileID, input.Move, input.Order); err != nil {
		return nil, nil, err
	}

	now := time.Now()
	req := &model.StockRequest{
		ID:        uuid.New().String(),
		ProfileID: input.ProfileID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	event := buildEvent(req.ID, input.Status, items, input.Comment, actorID(ctx, input.ActorID),
		input.Move, input.Order, input.Supply, input.Part, now)

	effects := uc.ledgerEffects(req, nil, event, false)

	err = uc.withCoordinateLocks(ctx, effects, func() error {
		return uc.repo.CreateRequest(ctx, req, event, effects)
	})
	if err != nil {
		return nil, nil, err
	}

	uc.notify(req.ID, event.Status)
	return req, event, nil
}

func (uc *requestUseCase) Transition(ctx context.Context, input *dto.TransitionInput) (*model.StockRequestEvent, error) {
	req, err := uc.repo.GetRequest(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &apperrors.ValidationError{RequestID: input.RequestID, Reason: "request not found"}
	}
	cur, err := uc.repo.CurrentEvent(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, &apperrors.ValidationError{RequestID: req.ID, Reason: "request has no current event"}
	}

	target := input.Status
	if !target.Valid() {
		return nil, &apperrors.ValidationError{RequestID: req.ID, Reason: "unknown status " + string(target)}
	}

	// Duplicate-status guard: the same target twice is double-processing, not
	// a new state. Re-enterable statuses (warehouse/moving) only conflict when
	// they are already current.
	if cur.Status == target {
		return nil, &apperrors.ConcurrentConflictError{RequestID: req.ID, Status: string(target)}
	}
	if !target.Reenterable() {
		seen, err := uc.repo.StatusSeen(ctx, req.ID, target)
		if err != nil {
			return nil, err
		}
		if seen {
			return nil, &apperrors.ConcurrentConflictError{RequestID: req.ID, Status: string(target)}
		}
	}

	if !cur.Status.CanReach(target) {
		return nil, &apperrors.InvalidTransitionError{
			RequestID: req.ID, From: string(cur.Status), To: string(target),
		}
	}

	// Completing a move re-homes the request: the goods now sit at the
	// destination, so later reservations must target that profile.
	if target == model.StatusWarehouse && cur.Status == model.StatusMoving && cur.Move != nil {
		req.ProfileID = cur.Move.ToProfileID
	}

	items := cur.Items
	if len(input.Items) > 0 {
		items, err = buildItems(req.ID, input.Items)
		if err != nil {
			return nil, err
		}
	} else {
		items = copyItems(items)
	}
	if len(items) == 0 {
		return nil, &apperrors.ValidationError{RequestID: req.ID, Reason: "at least one line item is required"}
	}

	if err := validateSubRecords(req.ID, target, req.ProfileID, input.Move, input.Order); err != nil {
		return nil, err
	}
	if input.Part != nil {
		hasPart, err := uc.repo.HasPart(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		if hasPart {
			return nil, &apperrors.ValidationError{RequestID: req.ID, Reason: "lot already assigned"}
		}
	}

	now := time.Now()
	event := buildEvent(req.ID, target, items, input.Comment, actorID(ctx, input.ActorID),
		input.Move, input.Order, input.Supply, input.Part, now)

	received, err := uc.goodsReceived(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	effects := uc.ledgerEffects(req, cur, event, received)

	err = uc.withCoordinateLocks(ctx, effects, func() error {
		return uc.repo.AppendEvent(ctx, req, event, effects)
	})
	if err != nil {
		return nil, err
	}

	uc.notify(req.ID, event.Status)
	return event, nil
}

// goodsReceived reports whether the request already added its quantities to
// the ledger (it passed through incoming or warehouse).
func (uc *requestUseCase) goodsReceived(ctx context.Context, requestID string) (bool, error) {
	for _, s := range []model.Status{model.StatusIncoming, model.StatusWarehouse} {
		seen, err := uc.repo.StatusSeen(ctx, requestID, s)
		if err != nil {
			return false, err
		}
		if seen {
			return true, nil
		}
	}
	return false, nil
}

// ledgerEffects derives the ledger mutations entering the event's status
// demands. cur is nil for a freshly opened request.
func (uc *requestUseCase) ledgerEffects(req *model.StockRequest, cur *model.StockRequestEvent, event *model.StockRequestEvent, received bool) []model.LedgerEffect {
	var effects []model.LedgerEffect

	switch {
	case event.Status.Received() && !received:
		// Goods arrive exactly once per request.
		for _, item := range event.Items {
			effects = append(effects, model.LedgerEffect{
				Op:         model.LedgerAdd,
				Coordinate: item.Coordinate(req.ProfileID),
				Qty:        item.Total,
				Cell:       item.Cell,
			})
		}

	case event.Status == model.StatusPackage:
		for _, item := range event.Items {
			effects = append(effects, model.LedgerEffect{
				Op:         model.LedgerReserve,
				Coordinate: item.Coordinate(req.ProfileID),
				Qty:        item.Total,
			})
		}

	case event.Status == model.StatusCancel && cur != nil && cur.Status.HoldsReserve():
		// Cancellation must give the promised quantities back before commit.
		for _, item := range cur.Items {
			effects = append(effects, model.LedgerEffect{
				Op:         model.LedgerRelease,
				Coordinate: item.Coordinate(req.ProfileID),
				Qty:        item.Total,
			})
		}

	case event.Status == model.StatusShipment || event.Status == model.StatusDecommission:
		for _, item := range event.Items {
			effects = append(effects, model.LedgerEffect{
				Op:         model.LedgerDecommission,
				Coordinate: item.Coordinate(req.ProfileID),
				Qty:        item.Total,
			})
		}

	case event.Status == model.StatusMoving && event.Move != nil:
		for _, item := range event.Items {
			effects = append(effects, model.LedgerEffect{
				Op:          model.LedgerMove,
				Coordinate:  item.Coordinate(req.ProfileID),
				Qty:         item.Total,
				Cell:        item.Cell,
				ToProfileID: event.Move.ToProfileID,
			})
		}
	}

	return effects
}

// withCoordinateLocks serializes the transition against every coordinate it
// touches. Keys are sorted so two transitions over the same set cannot
// deadlock each other.
func (uc *requestUseCase) withCoordinateLocks(ctx context.Context, effects []model.LedgerEffect, fn func() error) error {
	if uc.cache == nil || len(effects) == 0 {
		return fn()
	}

	keys := make([]string, 0, len(effects))
	seen := map[string]bool{}
	for _, e := range effects {
		key := ledger.LockKey(e.Coordinate)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	lockValue := uuid.New().String()
	var held []string
	release := func() {
		for _, key := range held {
			uc.cache.ReleaseLock(ctx, key, lockValue)
		}
	}

	for _, key := range keys {
		acquired := false
		for i := 0; i < lockRetries; i++ {
			ok, err := uc.cache.AcquireLock(ctx, key, lockValue, lockTTL)
			if err != nil {
				uc.logger.Error("failed to acquire lock redis error", zap.Error(err))
			}
			if ok {
				acquired = true
				break
			}
			time.Sleep(lockRetryDelay)
		}
		if !acquired {
			release()
			return errLockBusy
		}
		held = append(held, key)
	}
	defer release()

	return fn()
}

func (uc *requestUseCase) notify(requestID string, status model.Status) {
	if uc.notifier == nil {
		return
	}
	go func() {
		if err := uc.notifier.NotifyStatus(context.Background(), requestID, status); err != nil {
			uc.logger.Error("failed to notify status change",
				zap.String("request_id", requestID),
				zap.String("status", string(status)),
				zap.Error(err),
			)
		}
	}()
}

func (uc *requestUseCase) CurrentEvent(ctx context.Context, requestID string) (*model.StockRequestEvent, error) {
	return uc.repo.CurrentEvent(ctx, requestID)
}

func (uc *requestUseCase) EventHistory(ctx context.Context, requestID string) ([]*model.StockRequestEvent, error) {
	return uc.repo.EventHistory(ctx, requestID)
}

// MarkPrinted flags the current event. A second call conflicts so callers do
// not re-trigger print/broadcast side effects.
func (uc *requestUseCase) MarkPrinted(ctx context.Context, requestID string) error {
	cur, err := uc.repo.CurrentEvent(ctx, requestID)
	if err != nil {
		return err
	}
	if cur == nil {
		return &apperrors.ValidationError{RequestID: requestID, Reason: "request has no current event"}
	}
	if cur.Printed {
		return &apperrors.ConcurrentConflictError{RequestID: requestID, Status: string(cur.Status)}
	}
	return uc.repo.MarkPrinted(ctx, cur.ID)
}

func (uc *requestUseCase) Archive(ctx context.Context, requestID string, archived bool) error {
	req, err := uc.repo.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return &apperrors.ValidationError{RequestID: requestID, Reason: "request not found"}
	}
	return uc.repo.SetArchived(ctx, requestID, archived)
}

// actorID prefers the explicit input over the authenticated operator.
func actorID(ctx context.Context, explicit *string) *string {
	if explicit != nil {
		return explicit
	}
	if id := auth.GetActorID(ctx); id != "" {
		return &id
	}
	return nil
}

func buildItems(requestID string, inputs []dto.LineItemInput) ([]model.LineItem, error) {
	if len(inputs) == 0 {
		return nil, &apperrors.ValidationError{RequestID: requestID, Reason: "at least one line item is required"}
	}
	items := make([]model.LineItem, 0, len(inputs))
	for _, in := range inputs {
		if in.ProductID == "" {
			return nil, &apperrors.ValidationError{RequestID: requestID, Reason: "line item product id is required"}
		}
		if in.Total < 1 {
			return nil, &apperrors.ValidationError{RequestID: requestID, Reason: "line item quantity must be a positive integer"}
		}
		items = append(items, model.LineItem{
			ID:             uuid.New().String(),
			ProductID:      in.ProductID,
			OfferID:        in.OfferID,
			VariationID:    in.VariationID,
			ModificationID: in.ModificationID,
			Total:          in.Total,
			Cell:           in.Cell,
		})
	}
	return items, nil
}

// copyItems clones items for the new event; each event owns its line items.
func copyItems(items []model.LineItem) []model.LineItem {
	out := make([]model.LineItem, len(items))
	for i, item := range items {
		out[i] = item
		out[i].ID = uuid.New().String()
		out[i].EventID = ""
	}
	return out
}

func validateSubRecords(requestID string, status model.Status, profileID string, move *dto.MovePayload, order *dto.OrderPayload) error {
	switch status {
	case model.StatusMoving:
		if move == nil || move.ToProfileID == "" {
			return &apperrors.ValidationError{RequestID: requestID, Reason: "moving requires a destination warehouse"}
		}
		if move.ToProfileID == profileID {
			return &apperrors.ValidationError{RequestID: requestID, Reason: "moving destination must differ from the current warehouse"}
		}
	case model.StatusPackage:
		if order == nil || order.OrderID == "" {
			return &apperrors.ValidationError{RequestID: requestID, Reason: "package requires a linked order"}
		}
	}
	return nil
}

func buildEvent(requestID string, status model.Status, items []model.LineItem, comment, actorID *string,
	move *dto.MovePayload, order *dto.OrderPayload, supply *dto.SupplyPayload, part *dto.PartPayload, now time.Time) *model.StockRequestEvent {

	event := &model.StockRequestEvent{
		ID:        uuid.New().String(),
		RequestID: requestID,
		Status:    status,
		Comment:   comment,
		CreatedBy: actorID,
		CreatedAt: now,
		Items:     items,
	}
	for i := range event.Items {
		event.Items[i].EventID = event.ID
		if event.Items[i].ID == "" {
			event.Items[i].ID = uuid.New().String()
		}
	}

	if move != nil {
		event.Move = &model.MoveDetails{ToProfileID: move.ToProfileID, OrderID: move.OrderID}
	}
	if order != nil {
		event.Order = &model.OrderDetails{OrderID: order.OrderID}
	}
	if supply != nil {
		event.Supply = &model.SupplyDetails{SupplyID: supply.SupplyID}
	}
	if part != nil {
		event.Part = &model.PartDetails{PartID: part.PartID, LotNumber: part.LotNumber}
	}
	return event
}
