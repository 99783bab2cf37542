package service

import (
	"context"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/gateway"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/entity"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/notify"
	"go.uber.org/zap"
)

// TransferService moves a partial lot from an overlapping operation to the
// next work step. It holds no counters of its own: transferred_qty is
// incremented server-side and observed only through the post-mutation
// refresh.
type TransferService struct {
	gw       *gateway.Client
	ops      *OperationService
	notifier *notify.Notifier
	log      *zap.Logger
}

func NewTransferService(gw *gateway.Client, ops *OperationService, notifier *notify.Notifier, log *zap.Logger) *TransferService {
	return &TransferService{gw: gw, ops: ops, notifier: notifier, log: log}
}

// Proposal is the default quantity offered when the transfer dialog opens:
// everything currently available.
func (s *TransferService) Proposal(op *entity.Operation) float64 {
	return op.AvailableToTransfer()
}

// Transfer validates and submits a partial-lot movement. The available bound
// is recomputed from a freshly fetched row, never from the snapshot the
// caller captured when its dialog opened — a repeat of an already applied
// transfer fails here because the bound has dropped.
func (s *TransferService) Transfer(ctx context.Context, orderID, operationID string, qty float64) ([]entity.Operation, error) {
	if qty <= 0 {
		return nil, validationf("invalid quantity")
	}

	op, err := s.ops.Find(ctx, orderID, operationID)
	if err != nil {
		return nil, err
	}
	if !op.AllowsOverlap {
		return nil, validationf("operation does not allow overlap transfer")
	}
	if op.Status == entity.StatusDone {
		return nil, validationf("operation is already done")
	}
	if !op.IPGateOpen() {
		return nil, validationf("in-process inspection approval required before transfer")
	}
	if avail := op.AvailableToTransfer(); qty > avail {
		return nil, validationf("quantity exceeds available (%g)", avail)
	}

	callErr := s.gw.TransferLot(ctx, operationID, qty)

	refreshed, listErr := s.gw.ListOperations(ctx, orderID)
	if callErr != nil {
		s.log.Warn("transfer rejected by procedure host",
			zap.String("operation_id", operationID),
			zap.Float64("qty", qty),
			zap.Error(callErr))
		return refreshed, callErr
	}
	if listErr != nil {
		return nil, listErr
	}

	s.notifier.OperationsChanged(ctx, orderID)
	s.log.Info("lot transferred",
		zap.String("order_id", orderID),
		zap.String("operation_id", operationID),
		zap.Float64("qty", qty))
	return refreshed, nil
}
