package service

import (
	"context"
	"fmt"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/gateway"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/entity"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/notify"
	"go.uber.org/zap"
)

// OperationService drives an operation through its lifecycle. Every
// status-changing user action funnels through Transition; after each
// mutation the full operation list is re-fetched — no optimistic client
// state is trusted as final.
type OperationService struct {
	gw       *gateway.Client
	notifier *notify.Notifier
	log      *zap.Logger
}

func NewOperationService(gw *gateway.Client, notifier *notify.Notifier, log *zap.Logger) *OperationService {
	return &OperationService{gw: gw, notifier: notifier, log: log}
}

// List returns the full, fresh operation list of an order.
func (s *OperationService) List(ctx context.Context, orderID string) ([]entity.Operation, error) {
	return s.gw.ListOperations(ctx, orderID)
}

// Find fetches the order's list and locates one operation in it.
func (s *OperationService) Find(ctx context.Context, orderID, operationID string) (*entity.Operation, error) {
	ops, err := s.gw.ListOperations(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for i := range ops {
		if ops[i].ID == operationID {
			return &ops[i], nil
		}
	}
	return nil, fmt.Errorf("operation %s: %w", operationID, ErrNotFound)
}

// Transition applies start/pause/resume/complete to an operation. The state
// machine is enforced against a fresh row, and a complete with a closed
// final-inspection gate is refused before any call reaches the host. The
// returned list is re-fetched after the mutation; on remote failure the
// refresh is still attempted so stale assumptions are discarded.
func (s *OperationService) Transition(ctx context.Context, orderID, operationID, action string) ([]entity.Operation, error) {
	switch action {
	case entity.ActionStart, entity.ActionPause, entity.ActionResume, entity.ActionComplete:
	default:
		return nil, validationf("unknown action %q", action)
	}

	op, err := s.Find(ctx, orderID, operationID)
	if err != nil {
		return nil, err
	}
	if !op.CanApply(action) {
		return nil, validationf("action %q not allowed while operation is %q", action, op.Status)
	}
	if action == entity.ActionComplete && !op.CanComplete() {
		return nil, validationf("final inspection approval required before completing operation %d", op.SequenceNumber)
	}

	callErr := s.gw.ChangeOperationStatus(ctx, operationID, action, "")

	refreshed, listErr := s.gw.ListOperations(ctx, orderID)
	if callErr != nil {
		s.log.Warn("transition rejected by procedure host",
			zap.String("operation_id", operationID),
			zap.String("action", action),
			zap.Error(callErr))
		return refreshed, callErr
	}
	if listErr != nil {
		return nil, listErr
	}

	s.notifier.OperationsChanged(ctx, orderID)
	s.log.Info("operation transition applied",
		zap.String("order_id", orderID),
		zap.String("operation_id", operationID),
		zap.String("action", action))
	return refreshed, nil
}

// ReportAppointment records produced and scrapped quantities against a
// running operation. It never changes the operation's status.
func (s *OperationService) ReportAppointment(ctx context.Context, orderID, operationID string, goodQty, scrapQty float64, scrapReasonID, notes string) ([]entity.Operation, error) {
	if goodQty < 0 || scrapQty < 0 {
		return nil, validationf("invalid quantity")
	}
	if goodQty == 0 && scrapQty == 0 {
		return nil, validationf("nothing to report")
	}
	if scrapQty > 0 && scrapReasonID == "" {
		return nil, validationf("scrap reason is required when reporting scrap")
	}

	op, err := s.Find(ctx, orderID, operationID)
	if err != nil {
		return nil, err
	}
	if op.Status != entity.StatusRunning {
		return nil, validationf("appointments can only be reported while the operation is running")
	}

	callErr := s.gw.ReportProduction(ctx, operationID, goodQty, scrapQty, scrapReasonID, notes)

	refreshed, listErr := s.gw.ListOperations(ctx, orderID)
	if callErr != nil {
		return refreshed, callErr
	}
	if listErr != nil {
		return nil, listErr
	}

	s.notifier.OperationsChanged(ctx, orderID)
	return refreshed, nil
}
