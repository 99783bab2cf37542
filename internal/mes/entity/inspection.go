package entity

import (
	"time"
)

// Inspection types. IP gates partial-lot transfer, IF gates completion.
const (
	InspectionTypeIP = "IP"
	InspectionTypeIF = "IF"
)

// InspectionRecord is an immutable audit row. The latest record per
// (operation, type) determines the operation's ip_status/if_status on the
// server; it is mirrored into Operation after refresh.
type InspectionRecord struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	OperationID string `json:"operation_id"`
	Type        string `json:"type"`
	Result      string `json:"result"`

	InspectedQty float64 `json:"inspected_qty"`
	ApprovedQty  float64 `json:"approved_qty"`
	RejectedQty  float64 `json:"rejected_qty"`

	ScrapReasonID *string `json:"scrap_reason_id"`
	Notes         string  `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
}
