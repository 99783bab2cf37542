package gateway

import (
	"context"
	"encoding/json"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/entity"
)

// Client wraps the invoker with one typed method per consumed procedure.
// Payloads are decoded here, at the edge; nothing untyped crosses into the
// core.
type Client struct {
	inv Invoker
}

func NewClient(inv Invoker) *Client {
	return &Client{inv: inv}
}

// decode unmarshals a procedure result. A malformed shape is reported as a
// remote rejection, not a crash.
func decode(procedure string, raw json.RawMessage, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ProcedureError{Procedure: procedure, Message: "malformed response from procedure host"}
	}
	return nil
}

// normalizeStatus folds the legacy queued synonyms still present in stored
// rows into the canonical value.
func normalizeStatus(status string) string {
	switch status {
	case "na_fila", "pendente":
		return entity.StatusQueued
	}
	return status
}

func normalizeOperations(ops []entity.Operation) []entity.Operation {
	for i := range ops {
		ops[i].Status = normalizeStatus(ops[i].Status)
	}
	return ops
}

// ListOperations returns the full operation list of an order.
func (c *Client) ListOperations(ctx context.Context, orderID string) ([]entity.Operation, error) {
	raw, err := c.inv.Invoke(ctx, ProcListOperations, map[string]any{"order_id": orderID})
	if err != nil {
		return nil, err
	}
	var ops []entity.Operation
	if err := decode(ProcListOperations, raw, &ops); err != nil {
		return nil, err
	}
	return normalizeOperations(ops), nil
}

// ChangeOperationStatus applies a lifecycle action server-side.
func (c *Client) ChangeOperationStatus(ctx context.Context, operationID, action string, centerIDOverride string) error {
	args := map[string]any{
		"operation_id": operationID,
		"action":       action,
	}
	if centerIDOverride != "" {
		args["center_id_override"] = centerIDOverride
	}
	_, err := c.inv.Invoke(ctx, ProcChangeStatus, args)
	return err
}

// SetQaRequirements writes the require_ip/require_if pair. The procedure
// takes both flags atomically.
func (c *Client) SetQaRequirements(ctx context.Context, operationID string, req entity.QaRequirements) error {
	_, err := c.inv.Invoke(ctx, ProcSetQaRequirements, map[string]any{
		"operation_id": operationID,
		"require_ip":   req.IP,
		"require_if":   req.IF,
	})
	return err
}

// ListInspections returns the inspection history of an operation, newest
// first.
func (c *Client) ListInspections(ctx context.Context, operationID string) ([]entity.InspectionRecord, error) {
	raw, err := c.inv.Invoke(ctx, ProcListInspections, map[string]any{"operation_id": operationID})
	if err != nil {
		return nil, err
	}
	var records []entity.InspectionRecord
	if err := decode(ProcListInspections, raw, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SubmitInspection creates one immutable inspection record.
func (c *Client) SubmitInspection(ctx context.Context, rec entity.InspectionRecord) (*entity.InspectionRecord, error) {
	args := map[string]any{
		"order_id":      rec.OrderID,
		"operation_id":  rec.OperationID,
		"type":          rec.Type,
		"result":        rec.Result,
		"inspected_qty": rec.InspectedQty,
		"approved_qty":  rec.ApprovedQty,
		"rejected_qty":  rec.RejectedQty,
		"notes":         rec.Notes,
	}
	if rec.ScrapReasonID != nil {
		args["scrap_reason_id"] = *rec.ScrapReasonID
	}
	raw, err := c.inv.Invoke(ctx, ProcSubmitInspection, args)
	if err != nil {
		return nil, err
	}
	var created entity.InspectionRecord
	if err := decode(ProcSubmitInspection, raw, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// TransferLot hands a partial quantity to the downstream operation. The
// transferred counter is incremented server-side only.
func (c *Client) TransferLot(ctx context.Context, operationID string, qty float64) error {
	_, err := c.inv.Invoke(ctx, ProcTransferLot, map[string]any{
		"operation_id": operationID,
		"qty":          qty,
	})
	return err
}

// ReportProduction records a production appointment (good + scrap) against a
// running operation without changing its status.
func (c *Client) ReportProduction(ctx context.Context, operationID string, goodQty, scrapQty float64, scrapReasonID, notes string) error {
	args := map[string]any{
		"operation_id": operationID,
		"good_qty":     goodQty,
		"scrap_qty":    scrapQty,
		"notes":        notes,
	}
	if scrapReasonID != "" {
		args["scrap_reason_id"] = scrapReasonID
	}
	_, err := c.inv.Invoke(ctx, ProcReportProduction, args)
	return err
}

// ListWorkCenters returns work-center definitions.
func (c *Client) ListWorkCenters(ctx context.Context, activeOnly bool) ([]entity.WorkCenter, error) {
	raw, err := c.inv.Invoke(ctx, ProcListWorkCenters, map[string]any{"active_only": activeOnly})
	if err != nil {
		return nil, err
	}
	var centers []entity.WorkCenter
	if err := decode(ProcListWorkCenters, raw, &centers); err != nil {
		return nil, err
	}
	return centers, nil
}

// ListKanbanOperations returns all operations in the kanban projection, with
// the lateness flag precomputed upstream.
func (c *Client) ListKanbanOperations(ctx context.Context) ([]entity.Operation, error) {
	raw, err := c.inv.Invoke(ctx, ProcListKanbanOperations, nil)
	if err != nil {
		return nil, err
	}
	var ops []entity.Operation
	if err := decode(ProcListKanbanOperations, raw, &ops); err != nil {
		return nil, err
	}
	return normalizeOperations(ops), nil
}

// GetAutomationConfig fetches the tenant-wide automation thresholds.
func (c *Client) GetAutomationConfig(ctx context.Context) (entity.AutomationConfig, error) {
	raw, err := c.inv.Invoke(ctx, ProcGetAutomationConfig, nil)
	if err != nil {
		return entity.AutomationConfig{}, err
	}
	cfg := entity.DefaultAutomationConfig()
	if err := decode(ProcGetAutomationConfig, raw, &cfg); err != nil {
		return entity.AutomationConfig{}, err
	}
	return cfg, nil
}

// SaveAutomationConfig persists the automation thresholds.
func (c *Client) SaveAutomationConfig(ctx context.Context, cfg entity.AutomationConfig) error {
	_, err := c.inv.Invoke(ctx, ProcSaveAutomationConfig, map[string]any{
		"auto_advance":        cfg.AutoAdvance,
		"stall_alert_minutes": cfg.StallAlertMinutes,
		"scrap_alert_percent": cfg.ScrapAlertPercent,
	})
	return err
}
