package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
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

type ledgerUseCase struct {
	repo   ledger.Repository
	cache  *cache.RedisClient
	logger logger.ZapLogger
}

func NewLedgerUseCase(repo ledger.Repository, cache *cache.RedisClient, log logger.ZapLogger) ledger.UseCase {
	return &ledgerUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

// withLock serializes coordinate mutations across instances. The repository
// additionally locks rows inside its transaction, so a lost redis lock cannot
// corrupt the ledger, only increase contention.
func (uc *ledgerUseCase) withLock(ctx context.Context, coord model.Coordinate, fn func() error) error {
	if uc.cache == nil {
		return fn()
	}

	lockKey := ledger.LockKey(coord)
	lockValue := uuid.New().String()

	acquired := false
	for i := 0; i < lockRetries; i++ {
		ok, err := uc.cache.AcquireLock(ctx, lockKey, lockValue, lockTTL)
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
		return errLockBusy
	}
	defer uc.cache.ReleaseLock(ctx, lockKey, lockValue)

	return fn()
}

func (uc *ledgerUseCase) AddQuantity(ctx context.Context, input *dto.AddQuantityInput) error {
	return uc.withLock(ctx, input.Coordinate, func() error {
		return uc.repo.Apply(ctx, []model.LedgerEffect{{
			Op:         model.LedgerAdd,
			Coordinate: input.Coordinate,
			Qty:        input.Qty,
			Cell:       input.Cell,
		}})
	})
}

func (uc *ledgerUseCase) Reserve(ctx context.Context, coord model.Coordinate, qty int) error {
	return uc.withLock(ctx, coord, func() error {
		return uc.repo.Apply(ctx, []model.LedgerEffect{{
			Op:         model.LedgerReserve,
			Coordinate: coord,
			Qty:        qty,
		}})
	})
}

func (uc *ledgerUseCase) Release(ctx context.Context, coord model.Coordinate, qty int) error {
	return uc.withLock(ctx, coord, func() error {
		return uc.repo.Apply(ctx, []model.LedgerEffect{{
			Op:         model.LedgerRelease,
			Coordinate: coord,
			Qty:        qty,
		}})
	})
}

func (uc *ledgerUseCase) Decommission(ctx context.Context, coord model.Coordinate, qty int) error {
	return uc.withLock(ctx, coord, func() error {
		return uc.repo.Apply(ctx, []model.LedgerEffect{{
			Op:         model.LedgerDecommission,
			Coordinate: coord,
			Qty:        qty,
		}})
	})
}

func (uc *ledgerUseCase) Move(ctx context.Context, input *dto.MoveInput) error {
	return uc.withLock(ctx, input.Coordinate, func() error {
		return uc.repo.Apply(ctx, []model.LedgerEffect{{
			Op:          model.LedgerMove,
			Coordinate:  input.Coordinate,
			Qty:         input.Qty,
			Cell:        input.ToCell,
			ToProfileID: input.ToProfileID,
		}})
	})
}

func (uc *ledgerUseCase) Available(ctx context.Context, coord model.Coordinate) (int, error) {
	return uc.repo.Available(ctx, coord)
}

func (uc *ledgerUseCase) MaxAvailable(ctx context.Context, coord model.Coordinate) (*model.StockTotal, error) {
	return uc.repo.MaxAvailable(ctx, coord)
}

func (uc *ledgerUseCase) Approve(ctx context.Context, rowID string, approved bool, comment *string) error {
	return uc.repo.Approve(ctx, rowID, approved, comment)
}
