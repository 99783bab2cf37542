package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/entity"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/service"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// OverviewHandler serves the shop-floor overview and its spreadsheet export.
type OverviewHandler struct {
	svc *service.OverviewService
}

func NewOverviewHandler(svc *service.OverviewService) *OverviewHandler {
	return &OverviewHandler{svc: svc}
}

// Overview GET /shop-floor/overview
func (h *OverviewHandler) Overview(c *gin.Context) {
	snapshots, err := h.svc.BuildOverview(c.Request.Context())
	if err != nil {
		Fail(c, err, nil)
		return
	}
	Success(c, snapshots)
}

var overviewExportHeaders = []string{
	"Work Center", "Code", "Alert", "Running", "Queued", "Blocked",
	"Late", "Stalled", "Done Today", "Utilization %", "Next Due",
}

// Export GET /shop-floor/overview/export
func (h *OverviewHandler) Export(c *gin.Context) {
	snapshots, err := h.svc.BuildOverview(c.Request.Context())
	if err != nil {
		Fail(c, err, nil)
		return
	}

	f := excelize.NewFile()
	sheet := "ShopFloor"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, hd := range overviewExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, hd)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for row, snap := range snapshots {
		nextDue := ""
		if snap.NextDueAt != nil {
			nextDue = snap.NextDueAt.Format("2006-01-02 15:04")
		}
		values := []interface{}{
			snap.Center.Name,
			snap.Center.Code,
			snap.AlertLevel,
			len(snap.Running),
			len(snap.Queued),
			len(snap.Blocked),
			snap.LateCount,
			snap.StalledCount,
			snap.DoneToday,
			snap.UtilizationPercent,
			nextDue,
		}
		for col, v := range values {
			name, _ := excelize.ColumnNumberToName(col + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", name, row+2), v)
		}
	}

	filename := fmt.Sprintf("shop-floor-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// AutomationHandler reads and writes the automation thresholds.
type AutomationHandler struct {
	svc *service.AutomationService
}

func NewAutomationHandler(svc *service.AutomationService) *AutomationHandler {
	return &AutomationHandler{svc: svc}
}

// Get GET /automation-config
func (h *AutomationHandler) Get(c *gin.Context) {
	cfg, err := h.svc.Get(c.Request.Context())
	if err != nil {
		Fail(c, err, nil)
		return
	}
	Success(c, cfg)
}

// Save PUT /automation-config
func (h *AutomationHandler) Save(c *gin.Context) {
	var cfg entity.AutomationConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		BadRequest(c, "invalid automation config payload")
		return
	}
	if err := h.svc.Save(c.Request.Context(), cfg); err != nil {
		Fail(c, err, nil)
		return
	}
	Success(c, cfg)
}
