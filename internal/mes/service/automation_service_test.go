package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/gateway"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/entity"
)

func TestSaveAutomationValidation(t *testing.T) {
	env := newTestEnv(t)

	bad := []entity.AutomationConfig{
		{StallAlertMinutes: 0, ScrapAlertPercent: 5},
		{StallAlertMinutes: 20, ScrapAlertPercent: -1},
		{StallAlertMinutes: 20, ScrapAlertPercent: 101},
	}
	for _, cfg := range bad {
		if err := env.auto.Save(context.Background(), cfg); !IsValidation(err) {
			t.Fatalf("expected validation error for %+v, got %v", cfg, err)
		}
	}
	if n := env.fake.CallCount(gateway.ProcSaveAutomationConfig); n != 0 {
		t.Fatalf("save procedure reached %d times, want 0", n)
	}
}

// A save drops the cached thresholds so the next read re-fetches the new
// values.
func TestSaveInvalidatesCache(t *testing.T) {
	env := newTestEnv(t)
	fetches := 0
	stored := entity.DefaultAutomationConfig()
	env.fake.Handle(gateway.ProcGetAutomationConfig, func(map[string]any) (json.RawMessage, error) {
		fetches++
		return json.Marshal(stored)
	})
	env.fake.HandleValue(gateway.ProcSaveAutomationConfig, nil)

	if _, err := env.auto.Get(context.Background()); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if _, err := env.auto.Get(context.Background()); err != nil {
		t.Fatalf("cached get failed: %v", err)
	}
	if fetches != 1 {
		t.Fatalf("fetches before save = %d, want 1", fetches)
	}

	stored.StallAlertMinutes = 45
	if err := env.auto.Save(context.Background(), stored); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	cfg, err := env.auto.Get(context.Background())
	if err != nil {
		t.Fatalf("get after save failed: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("fetches after save = %d, want 2", fetches)
	}
	if cfg.StallAlertMinutes != 45 {
		t.Fatalf("stale thresholds after save: %+v", cfg)
	}
}
