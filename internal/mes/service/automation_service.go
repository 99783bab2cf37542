package service

import (
	"context"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/gateway"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/cache"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/entity"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/notify"
)

// AutomationService reads and writes the tenant automation thresholds. Reads
// go through the time-boxed cache; a successful write invalidates it
// immediately, locally and on peer instances.
type AutomationService struct {
	gw       *gateway.Client
	cache    *cache.AutomationCache
	notifier *notify.Notifier
}

func NewAutomationService(gw *gateway.Client, cfgCache *cache.AutomationCache, notifier *notify.Notifier) *AutomationService {
	return &AutomationService{gw: gw, cache: cfgCache, notifier: notifier}
}

// Get returns the current thresholds, cached for the configured window.
func (s *AutomationService) Get(ctx context.Context) (entity.AutomationConfig, error) {
	return s.cache.Get(ctx)
}

// Save persists new thresholds and drops the cache so the next read
// re-fetches.
func (s *AutomationService) Save(ctx context.Context, cfg entity.AutomationConfig) error {
	if cfg.StallAlertMinutes <= 0 {
		return validationf("stall alert minutes must be greater than zero")
	}
	if cfg.ScrapAlertPercent < 0 || cfg.ScrapAlertPercent > 100 {
		return validationf("scrap alert percent must be between 0 and 100")
	}

	if err := s.gw.SaveAutomationConfig(ctx, cfg); err != nil {
		return err
	}

	s.cache.Invalidate()
	s.notifier.ConfigChanged(ctx)
	return nil
}
