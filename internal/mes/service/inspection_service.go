package service

import (
	"context"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/gateway"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/entity"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/notify"
	"go.uber.org/zap"
)

// InspectionService validates and submits inspection events (IP/IF) and
// manages the per-operation quality requirement flags.
type InspectionService struct {
	gw       *gateway.Client
	ops      *OperationService
	notifier *notify.Notifier
	log      *zap.Logger
}

func NewInspectionService(gw *gateway.Client, ops *OperationService, notifier *notify.Notifier, log *zap.Logger) *InspectionService {
	return &InspectionService{gw: gw, ops: ops, notifier: notifier, log: log}
}

// History returns the immutable inspection audit trail of an operation.
func (s *InspectionService) History(ctx context.Context, operationID string) ([]entity.InspectionRecord, error) {
	return s.gw.ListInspections(ctx, operationID)
}

// InspectionDefaults is the pre-filled quantity proposal for the inspection
// dialog.
type InspectionDefaults struct {
	InspectedQty float64 `json:"inspected_qty"`
	ApprovedQty  float64 `json:"approved_qty"`
}

// Defaults proposes inspecting what has moved so far: the larger of the
// transferred and produced counters, floored at zero.
func (s *InspectionService) Defaults(op *entity.Operation) InspectionDefaults {
	qty := op.TransferredQty
	if op.ProducedQty > qty {
		qty = op.ProducedQty
	}
	if qty < 0 {
		qty = 0
	}
	return InspectionDefaults{InspectedQty: qty, ApprovedQty: qty}
}

// SubmitInspectionRequest is one inspection submission.
type SubmitInspectionRequest struct {
	OrderID     string `json:"order_id" binding:"required"`
	OperationID string `json:"operation_id" binding:"required"`
	Type        string `json:"type" binding:"required"`   // IP/IF
	Result      string `json:"result" binding:"required"` // approved/under_review/rejected

	InspectedQty float64 `json:"inspected_qty"`
	ApprovedQty  float64 `json:"approved_qty"`
	RejectedQty  float64 `json:"rejected_qty"`

	ScrapReasonID *string `json:"scrap_reason_id"`
	Notes         string  `json:"notes"`
}

// Submit validates an inspection locally and, only if every rule passes,
// hands it to the procedure host. Remote rejections (e.g. quantity exceeds
// what is eligible) surface as-is; no retry is attempted.
func (s *InspectionService) Submit(ctx context.Context, req SubmitInspectionRequest) (*entity.InspectionRecord, error) {
	if req.Type != entity.InspectionTypeIP && req.Type != entity.InspectionTypeIF {
		return nil, validationf("unknown inspection type %q", req.Type)
	}
	switch req.Result {
	case entity.InspectionApproved, entity.InspectionUnderReview, entity.InspectionRejected:
	default:
		return nil, validationf("unknown inspection result %q", req.Result)
	}
	if req.InspectedQty <= 0 {
		return nil, validationf("inspected quantity must be greater than zero")
	}
	if req.Result == entity.InspectionRejected {
		if req.RejectedQty <= 0 {
			return nil, validationf("rejected quantity is required for a rejected result")
		}
		if req.ScrapReasonID == nil || *req.ScrapReasonID == "" {
			return nil, validationf("scrap reason is required for a rejected result")
		}
	} else if req.RejectedQty > 0 {
		return nil, validationf("rejected quantity requires a rejected result")
	}

	created, err := s.gw.SubmitInspection(ctx, entity.InspectionRecord{
		OrderID:       req.OrderID,
		OperationID:   req.OperationID,
		Type:          req.Type,
		Result:        req.Result,
		InspectedQty:  req.InspectedQty,
		ApprovedQty:   req.ApprovedQty,
		RejectedQty:   req.RejectedQty,
		ScrapReasonID: req.ScrapReasonID,
		Notes:         req.Notes,
	})
	if err != nil {
		return nil, err
	}

	// The refresh event makes open views re-pull the inspection history and
	// the owning operation's row, where the new ip/if status is mirrored.
	s.notifier.OperationsChanged(ctx, req.OrderID)
	s.log.Info("inspection recorded",
		zap.String("operation_id", req.OperationID),
		zap.String("type", req.Type),
		zap.String("result", req.Result))
	return created, nil
}

// Requirement flags addressable by ToggleRequirement.
const (
	RequirementIP = "ip"
	RequirementIF = "if"
)

// ToggleRequirement flips one of require_ip/require_if. The store procedure
// takes both flags atomically, so the sibling's current value is read fresh
// and re-submitted to avoid clobbering it.
func (s *InspectionService) ToggleRequirement(ctx context.Context, orderID, operationID, flag string, value bool) ([]entity.Operation, error) {
	op, err := s.ops.Find(ctx, orderID, operationID)
	if err != nil {
		return nil, err
	}

	pair := op.Requirements()
	switch flag {
	case RequirementIP:
		pair = pair.WithIP(value)
	case RequirementIF:
		pair = pair.WithIF(value)
	default:
		return nil, validationf("unknown requirement flag %q", flag)
	}

	if err := s.gw.SetQaRequirements(ctx, operationID, pair); err != nil {
		return nil, err
	}

	refreshed, err := s.gw.ListOperations(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.notifier.OperationsChanged(ctx, orderID)
	return refreshed, nil
}
