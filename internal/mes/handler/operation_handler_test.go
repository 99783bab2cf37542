package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/gateway"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/cache"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/entity"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/notify"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/service"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// setupAPI wires the full handler stack over a scripted invoker, guarded by
// the real JWT middleware, the way cmd/mes does it.
func setupAPI(t *testing.T) (*gin.Engine, *testutil.FakeInvoker) {
	t.Helper()
	log := zap.NewNop()
	fake := testutil.NewFakeInvoker()
	gw := gateway.NewClient(fake)

	hub := notify.NewHub(log)
	notifier := notify.NewNotifier(hub, nil, log)
	cfgCache := cache.NewAutomationCache(gw.GetAutomationConfig, cache.DefaultTTL, nil)

	opSvc := service.NewOperationService(gw, notifier, log)
	inspSvc := service.NewInspectionService(gw, opSvc, notifier, log)
	transferSvc := service.NewTransferService(gw, opSvc, notifier, log)
	overviewSvc := service.NewOverviewService(gw, cfgCache, log)
	automationSvc := service.NewAutomationService(gw, cfgCache, notifier)

	h := NewHandlers(opSvc, inspSvc, transferSvc, overviewSvc, automationSvc, hub)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")
	orders := api.Group("/orders/:orderId")
	orders.GET("/operations", h.Operation.List)
	orders.POST("/operations/:id/transition", h.Operation.Transition)
	orders.POST("/operations/:id/transfer", h.Operation.Transfer)
	orders.GET("/operations/:id/transfer-proposal", h.Operation.TransferProposal)
	orders.PUT("/operations/:id/qa-requirements", h.Inspection.ToggleRequirement)
	api.POST("/operations/:id/inspections", h.Inspection.Submit)
	api.GET("/automation-config", h.Automation.Get)
	return r, fake
}

func scriptList(fake *testutil.FakeInvoker, ops []entity.Operation) {
	fake.HandleValue(gateway.ProcListOperations, ops)
}

func TestListRequiresToken(t *testing.T) {
	r, fake := setupAPI(t)
	scriptList(fake, nil)

	w := testutil.DoRequest(r, "GET", "/api/v1/orders/order-001/operations", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if n := fake.CallCount(gateway.ProcListOperations); n != 0 {
		t.Fatalf("procedure reached %d times without a token", n)
	}
}

func TestListSuccessEnvelope(t *testing.T) {
	r, fake := setupAPI(t)
	scriptList(fake, []entity.Operation{{ID: "op-1", OrderID: "order-001", Status: entity.StatusQueued}})

	w := testutil.DoRequest(r, "GET", "/api/v1/orders/order-001/operations", nil, testutil.DefaultTestToken())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 0 || resp["message"] != "success" {
		t.Fatalf("envelope = %v", resp)
	}
	data := resp["data"].([]interface{})
	if len(data) != 1 {
		t.Fatalf("data = %v", data)
	}
}

// The locally refused complete comes back as 400 with code 40000; the host is
// never called.
func TestTransitionIFGateRefusalEnvelope(t *testing.T) {
	r, fake := setupAPI(t)
	scriptList(fake, []entity.Operation{{
		ID:             "op-1",
		OrderID:        "order-001",
		SequenceNumber: 10,
		Status:         entity.StatusRunning,
		RequireIF:      true,
	}})

	w := testutil.DoRequest(r, "POST", "/api/v1/orders/order-001/operations/op-1/transition",
		gin.H{"action": "complete"}, testutil.DefaultTestToken())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40000 {
		t.Fatalf("code = %v, want 40000", resp["code"])
	}
	if resp["message"] != "final inspection approval required before completing operation 10" {
		t.Fatalf("message = %v", resp["message"])
	}
	if n := fake.CallCount(gateway.ProcChangeStatus); n != 0 {
		t.Fatalf("change-status reached %d times, want 0", n)
	}
}

// A remote rejection maps to 422 with the server message verbatim, carrying
// the refreshed list in data.
func TestTransferRemoteRejectionEnvelope(t *testing.T) {
	r, fake := setupAPI(t)
	scriptList(fake, []entity.Operation{{
		ID:             "op-1",
		OrderID:        "order-001",
		Status:         entity.StatusRunning,
		AllowsOverlap:  true,
		ProducedQty:    10,
		TransferredQty: 0,
	}})
	fake.HandleError(gateway.ProcTransferLot, &gateway.ProcedureError{
		Procedure: gateway.ProcTransferLot,
		Message:   "quantidade excede o saldo da operação",
	})

	w := testutil.DoRequest(r, "POST", "/api/v1/orders/order-001/operations/op-1/transfer",
		gin.H{"qty": 5}, testutil.DefaultTestToken())
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 42200 {
		t.Fatalf("code = %v, want 42200", resp["code"])
	}
	if resp["message"] != "quantidade excede o saldo da operação" {
		t.Fatalf("message not verbatim: %v", resp["message"])
	}
	if resp["data"] == nil {
		t.Fatal("refreshed list missing from error envelope")
	}
}

// A transport failure maps to 502 with the generic message, never the raw
// driver error.
func TestTransferUnavailableEnvelope(t *testing.T) {
	r, fake := setupAPI(t)
	scriptList(fake, []entity.Operation{{
		ID:            "op-1",
		OrderID:       "order-001",
		Status:        entity.StatusRunning,
		AllowsOverlap: true,
		ProducedQty:   10,
	}})
	fake.HandleError(gateway.ProcTransferLot, gateway.ErrUnavailable)

	w := testutil.DoRequest(r, "POST", "/api/v1/orders/order-001/operations/op-1/transfer",
		gin.H{"qty": 5}, testutil.DefaultTestToken())
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 50200 {
		t.Fatalf("code = %v, want 50200", resp["code"])
	}
	if resp["message"] != "operation failed, please try again" {
		t.Fatalf("message = %v", resp["message"])
	}
}

func TestTransitionUnknownOperationIs404(t *testing.T) {
	r, fake := setupAPI(t)
	scriptList(fake, []entity.Operation{})

	w := testutil.DoRequest(r, "POST", "/api/v1/orders/order-001/operations/op-missing/transition",
		gin.H{"action": "start"}, testutil.DefaultTestToken())
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40400 {
		t.Fatalf("code = %v, want 40400", resp["code"])
	}
}

func TestSubmitInspectionCreated(t *testing.T) {
	r, fake := setupAPI(t)
	fake.HandleValue(gateway.ProcSubmitInspection, entity.InspectionRecord{
		ID: "insp-1", OperationID: "op-1", Type: entity.InspectionTypeIF, Result: entity.InspectionApproved,
	})

	w := testutil.DoRequest(r, "POST", "/api/v1/operations/op-1/inspections", gin.H{
		"order_id":      "order-001",
		"operation_id":  "op-1",
		"type":          "IF",
		"result":        "approved",
		"inspected_qty": 10,
		"approved_qty":  10,
	}, testutil.DefaultTestToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	calls := fake.Calls(gateway.ProcSubmitInspection)
	if len(calls) != 1 {
		t.Fatalf("submit called %d times", len(calls))
	}
	// Path parameter wins over whatever the body claims.
	if calls[0].Args["operation_id"] != "op-1" {
		t.Fatalf("operation id = %v", calls[0].Args["operation_id"])
	}
}

func TestToggleRequirementEndpoint(t *testing.T) {
	r, fake := setupAPI(t)
	scriptList(fake, []entity.Operation{{
		ID: "op-1", OrderID: "order-001", Status: entity.StatusQueued, RequireIP: true,
	}})
	fake.HandleValue(gateway.ProcSetQaRequirements, nil)

	w := testutil.DoRequest(r, "PUT", "/api/v1/orders/order-001/operations/op-1/qa-requirements",
		gin.H{"flag": "if", "value": true}, testutil.DefaultTestToken())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	calls := fake.Calls(gateway.ProcSetQaRequirements)
	if len(calls) != 1 {
		t.Fatalf("pair written %d times", len(calls))
	}
	if calls[0].Args["require_ip"] != true || calls[0].Args["require_if"] != true {
		t.Fatalf("pair args = %v", calls[0].Args)
	}
}

func TestAutomationConfigEndpoint(t *testing.T) {
	r, fake := setupAPI(t)
	fake.HandleValue(gateway.ProcGetAutomationConfig, entity.AutomationConfig{
		AutoAdvance: true, StallAlertMinutes: 30, ScrapAlertPercent: 8,
	})

	w := testutil.DoRequest(r, "GET", "/api/v1/automation-config", nil, testutil.DefaultTestToken())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data entity.AutomationConfig `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp.Data.StallAlertMinutes != 30 || resp.Data.ScrapAlertPercent != 8 {
		t.Fatalf("config = %+v", resp.Data)
	}
}
