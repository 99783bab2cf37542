package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"gorm.io/gorm"
)

// Invoker is the single call boundary to the procedure host. Everything the
// core knows about storage goes through it.
type Invoker interface {
	Invoke(ctx context.Context, procedure string, args map[string]any) (json.RawMessage, error)
}

// ProcedureError is a business-rule rejection raised by the procedure host.
// Message is surfaced to the user verbatim.
type ProcedureError struct {
	Procedure string
	Message   string
}

func (e *ProcedureError) Error() string {
	return e.Message
}

// ErrUnavailable marks transport-level failures (host unreachable, timeout).
// Callers surface a generic message and never retry automatically.
var ErrUnavailable = errors.New("procedure host unavailable")

// Procedures consumed by this service. Invoke refuses anything else, so the
// procedure name can be interpolated into SQL safely.
const (
	ProcListOperations       = "mes_list_operations"
	ProcChangeStatus         = "mes_change_operation_status"
	ProcSetQaRequirements    = "mes_set_qa_requirements"
	ProcListInspections      = "mes_list_inspections"
	ProcSubmitInspection     = "mes_submit_inspection"
	ProcTransferLot          = "mes_transfer_lot"
	ProcReportProduction     = "mes_report_production"
	ProcListWorkCenters      = "mes_list_work_centers"
	ProcListKanbanOperations = "mes_list_operations_kanban"
	ProcGetAutomationConfig  = "mes_get_automation_config"
	ProcSaveAutomationConfig = "mes_save_automation_config"
)

var knownProcedures = map[string]bool{
	ProcListOperations:       true,
	ProcChangeStatus:         true,
	ProcSetQaRequirements:    true,
	ProcListInspections:      true,
	ProcSubmitInspection:     true,
	ProcTransferLot:          true,
	ProcReportProduction:     true,
	ProcListWorkCenters:      true,
	ProcListKanbanOperations: true,
	ProcGetAutomationConfig:  true,
	ProcSaveAutomationConfig: true,
}

// PostgresInvoker executes stored procedures as `SELECT fn(args::jsonb)`.
// This is the only component that touches the database.
type PostgresInvoker struct {
	db *gorm.DB
}

func NewPostgresInvoker(db *gorm.DB) *PostgresInvoker {
	return &PostgresInvoker{db: db}
}

// Invoke calls one whitelisted procedure with a jsonb argument object and
// returns the raw jsonb result.
func (p *PostgresInvoker) Invoke(ctx context.Context, procedure string, args map[string]any) (json.RawMessage, error) {
	if !knownProcedures[procedure] {
		return nil, fmt.Errorf("unknown procedure %q", procedure)
	}

	if args == nil {
		args = map[string]any{}
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode args for %s: %w", procedure, err)
	}

	var result []byte
	row := p.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT %s(?::jsonb)", procedure), string(argsJSON)).
		Row()
	if err := row.Scan(&result); err != nil {
		return nil, classify(procedure, err)
	}
	return json.RawMessage(result), nil
}

// classify separates transport failures from business-rule rejections. A
// rejection keeps the server's message verbatim.
func classify(procedure string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, procedure, err)
	}
	return &ProcedureError{Procedure: procedure, Message: err.Error()}
}
