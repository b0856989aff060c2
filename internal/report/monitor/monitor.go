package monitor

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/report"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

// LowStockMonitor periodically checks the watched profiles and logs every
// coordinate at or below its threshold, so operators see shortages without
// opening the reports.
type LowStockMonitor struct {
	uc       report.UseCase
	profiles []string
	interval time.Duration
	logger   logger.ZapLogger
}

func NewLowStockMonitor(uc report.UseCase, profiles []string, interval time.Duration, log logger.ZapLogger) *LowStockMonitor {
	return &LowStockMonitor{
		uc:       uc,
		profiles: profiles,
		interval: interval,
		logger:   log,
	}
}

func (m *LowStockMonitor) Start(ctx context.Context) {
	if len(m.profiles) == 0 {
		return
	}
	m.logger.Info("Starting Low Stock Monitor", zap.Strings("profiles", m.profiles))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Stopping Low Stock Monitor")
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *LowStockMonitor) check(ctx context.Context) {
	for _, profileID := range m.profiles {
		entries, err := m.uc.LowStock(ctx, profileID)
		if err != nil {
			m.logger.Error("Low stock check failed", zap.String("profile_id", profileID), zap.Error(err))
			continue
		}
		for _, e := range entries {
			m.logger.Warn("Low stock",
				zap.String("profile_id", profileID),
				zap.String("product_id", e.ProductID),
				zap.Int("total", e.Total),
				zap.Int("reserve", e.Reserve),
				zap.Int("available", e.Available),
			)
		}
	}
}
