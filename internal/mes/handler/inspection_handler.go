package handler

import (
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// InspectionHandler exposes inspection history, submission, defaults and the
// QA requirement flags.
type InspectionHandler struct {
	ops *service.OperationService
	svc *service.InspectionService
}

func NewInspectionHandler(ops *service.OperationService, svc *service.InspectionService) *InspectionHandler {
	return &InspectionHandler{ops: ops, svc: svc}
}

// History GET /operations/:id/inspections
func (h *InspectionHandler) History(c *gin.Context) {
	records, err := h.svc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err, nil)
		return
	}
	Success(c, records)
}

// Defaults GET /orders/:orderId/operations/:id/inspection-defaults
func (h *InspectionHandler) Defaults(c *gin.Context) {
	op, err := h.ops.Find(c.Request.Context(), c.Param("orderId"), c.Param("id"))
	if err != nil {
		Fail(c, err, nil)
		return
	}
	Success(c, h.svc.Defaults(op))
}

// Submit POST /operations/:id/inspections
func (h *InspectionHandler) Submit(c *gin.Context) {
	var req service.SubmitInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid inspection payload")
		return
	}
	req.OperationID = c.Param("id")

	created, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		Fail(c, err, nil)
		return
	}
	Created(c, created)
}

// RequirementRequest toggles one QA flag.
type RequirementRequest struct {
	Flag  string `json:"flag" binding:"required"` // ip/if
	Value bool   `json:"value"`
}

// ToggleRequirement PUT /orders/:orderId/operations/:id/qa-requirements
func (h *InspectionHandler) ToggleRequirement(c *gin.Context) {
	var req RequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "flag is required")
		return
	}

	ops, err := h.svc.ToggleRequirement(c.Request.Context(),
		c.Param("orderId"), c.Param("id"), req.Flag, req.Value)
	if err != nil {
		Fail(c, err, ops)
		return
	}
	Success(c, ops)
}
