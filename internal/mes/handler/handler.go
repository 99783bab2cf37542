package handler

import (
	"errors"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/gateway"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/notify"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// Handlers is the MES handler set.
type Handlers struct {
	Operation  *OperationHandler
	Inspection *InspectionHandler
	Overview   *OverviewHandler
	Automation *AutomationHandler
	Events     *EventsHandler
}

func NewHandlers(
	opSvc *service.OperationService,
	inspSvc *service.InspectionService,
	transferSvc *service.TransferService,
	overviewSvc *service.OverviewService,
	automationSvc *service.AutomationService,
	hub *notify.Hub,
) *Handlers {
	return &Handlers{
		Operation:  NewOperationHandler(opSvc, transferSvc),
		Inspection: NewInspectionHandler(opSvc, inspSvc),
		Overview:   NewOverviewHandler(overviewSvc),
		Automation: NewAutomationHandler(automationSvc),
		Events:     NewEventsHandler(hub),
	}
}

// === response helpers ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	ErrorWithData(c, code, message, nil)
}

// ErrorWithData reports a failure while still shipping fresh state (the
// post-failure refresh) so callers discard stale optimistic assumptions.
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Fail maps the error taxonomy to the response envelope: precondition
// violations → 400, remote rejections → 422 with the server message
// verbatim, transport failures → 502 with a generic message. data, when
// non-nil, carries refreshed state.
func Fail(c *gin.Context, err error, data interface{}) {
	var pe *gateway.ProcedureError
	switch {
	case errors.Is(err, service.ErrNotFound):
		ErrorWithData(c, 40400, err.Error(), data)
	case service.IsValidation(err):
		ErrorWithData(c, 40000, err.Error(), data)
	case errors.Is(err, gateway.ErrUnavailable):
		ErrorWithData(c, 50200, "operation failed, please try again", data)
	case errors.As(err, &pe):
		ErrorWithData(c, 42200, pe.Message, data)
	default:
		ErrorWithData(c, 50000, err.Error(), data)
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}
