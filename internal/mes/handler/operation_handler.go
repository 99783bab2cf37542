package handler

import (
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// OperationHandler exposes the operation lifecycle and lot transfer.
type OperationHandler struct {
	svc      *service.OperationService
	transfer *service.TransferService
}

func NewOperationHandler(svc *service.OperationService, transfer *service.TransferService) *OperationHandler {
	return &OperationHandler{svc: svc, transfer: transfer}
}

// List GET /orders/:orderId/operations
func (h *OperationHandler) List(c *gin.Context) {
	ops, err := h.svc.List(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		Fail(c, err, nil)
		return
	}
	Success(c, ops)
}

// TransitionRequest is the lifecycle action body.
type TransitionRequest struct {
	Action string `json:"action" binding:"required"`
}

// Transition POST /orders/:orderId/operations/:id/transition
func (h *OperationHandler) Transition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "action is required")
		return
	}

	ops, err := h.svc.Transition(c.Request.Context(), c.Param("orderId"), c.Param("id"), req.Action)
	if err != nil {
		Fail(c, err, ops)
		return
	}
	Success(c, ops)
}

// AppointmentRequest is a production report body.
type AppointmentRequest struct {
	GoodQty       float64 `json:"good_qty"`
	ScrapQty      float64 `json:"scrap_qty"`
	ScrapReasonID string  `json:"scrap_reason_id"`
	Notes         string  `json:"notes"`
}

// ReportAppointment POST /orders/:orderId/operations/:id/appointments
func (h *OperationHandler) ReportAppointment(c *gin.Context) {
	var req AppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid appointment payload")
		return
	}

	ops, err := h.svc.ReportAppointment(c.Request.Context(),
		c.Param("orderId"), c.Param("id"),
		req.GoodQty, req.ScrapQty, req.ScrapReasonID, req.Notes)
	if err != nil {
		Fail(c, err, ops)
		return
	}
	Success(c, ops)
}

// TransferRequest is a partial-lot movement body.
type TransferRequest struct {
	Qty float64 `json:"qty"`
}

// Transfer POST /orders/:orderId/operations/:id/transfer
func (h *OperationHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid transfer payload")
		return
	}

	ops, err := h.transfer.Transfer(c.Request.Context(), c.Param("orderId"), c.Param("id"), req.Qty)
	if err != nil {
		Fail(c, err, ops)
		return
	}
	Success(c, ops)
}

// TransferProposal GET /orders/:orderId/operations/:id/transfer-proposal
func (h *OperationHandler) TransferProposal(c *gin.Context) {
	op, err := h.svc.Find(c.Request.Context(), c.Param("orderId"), c.Param("id"))
	if err != nil {
		Fail(c, err, nil)
		return
	}
	Success(c, gin.H{"qty": h.transfer.Proposal(op)})
}
