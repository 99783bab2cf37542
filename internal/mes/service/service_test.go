package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/gateway"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/cache"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/entity"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/notify"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/testutil"
	"go.uber.org/zap"
)

const testOrderID = "order-001"

// testEnv wires the service layer over a scripted invoker. No Postgres, no
// redis: the notifier delivers straight to the local hub.
type testEnv struct {
	fake     *testutil.FakeInvoker
	gw       *gateway.Client
	ops      *OperationService
	insp     *InspectionService
	transfer *TransferService
	overview *OverviewService
	auto     *AutomationService
	cache    *cache.AutomationCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()
	fake := testutil.NewFakeInvoker()
	gw := gateway.NewClient(fake)

	hub := notify.NewHub(log)
	notifier := notify.NewNotifier(hub, nil, log)

	cfgCache := cache.NewAutomationCache(gw.GetAutomationConfig, cache.DefaultTTL, nil)
	notifier.SetConfigRefreshHook(cfgCache.Invalidate)

	opSvc := NewOperationService(gw, notifier, log)
	return &testEnv{
		fake:     fake,
		gw:       gw,
		ops:      opSvc,
		insp:     NewInspectionService(gw, opSvc, notifier, log),
		transfer: NewTransferService(gw, opSvc, notifier, log),
		overview: NewOverviewService(gw, cfgCache, log),
		auto:     NewAutomationService(gw, cfgCache, notifier),
		cache:    cfgCache,
	}
}

// scriptOperations serves mes_list_operations from a live slice so mutations
// scripted on other procedures show up on the next refresh, like the store
// would behave.
func (e *testEnv) scriptOperations(ops *[]entity.Operation) {
	e.fake.Handle(gateway.ProcListOperations, func(map[string]any) (json.RawMessage, error) {
		return json.Marshal(*ops)
	})
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
