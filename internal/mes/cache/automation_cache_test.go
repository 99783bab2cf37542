package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/entity"
)

func TestGetServesCachedValueWithinTTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }

	fetches := 0
	fetch := func(ctx context.Context) (entity.AutomationConfig, error) {
		fetches++
		return entity.AutomationConfig{StallAlertMinutes: 20, ScrapAlertPercent: 5, AutoAdvance: true}, nil
	}

	c := NewAutomationCache(fetch, 60*time.Second, clock)

	first, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("first Get failed: %v", err)
	}

	now = now.Add(59 * time.Second)
	second, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if fetches != 1 {
		t.Fatalf("expected 1 fetch within the TTL, got %d", fetches)
	}
	if first != second {
		t.Fatalf("cached value changed: %+v vs %+v", first, second)
	}

	// Past the window: exactly one re-fetch.
	now = now.Add(2 * time.Second)
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("third Get failed: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("expected exactly 2 fetches after TTL expiry, got %d", fetches)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	fetches := 0
	c := NewAutomationCache(func(ctx context.Context) (entity.AutomationConfig, error) {
		fetches++
		return entity.DefaultAutomationConfig(), nil
	}, 60*time.Second, func() time.Time { return now })

	c.Get(context.Background())
	c.Invalidate()
	c.Get(context.Background())

	if fetches != 2 {
		t.Fatalf("expected invalidate to force a re-fetch, got %d fetches", fetches)
	}
}

func TestGetPropagatesFetchError(t *testing.T) {
	boom := errors.New("host down")
	c := NewAutomationCache(func(ctx context.Context) (entity.AutomationConfig, error) {
		return entity.AutomationConfig{}, boom
	}, 60*time.Second, nil)

	if _, err := c.Get(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}
