package entity

import (
	"encoding/json"
	"time"
)

// Operation status — stored states only. waiting_inspection is a presentation
// overlay computed by DisplayStatus, never written back to the store.
const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusPaused  = "paused"
	StatusDone    = "done"

	// DisplayStatusWaitingInspection overlays queued/running/paused rows whose
	// in-process gate is still closed.
	DisplayStatusWaitingInspection = "waiting_inspection"
)

// Inspection status values mirrored from the latest inspection record per type.
const (
	InspectionApproved    = "approved"
	InspectionUnderReview = "under_review"
	InspectionRejected    = "rejected"
)

// Lifecycle actions accepted by the controller.
const (
	ActionStart    = "start"
	ActionPause    = "pause"
	ActionResume   = "resume"
	ActionComplete = "complete"
)

// Operation is one sequenced work step of a production or beneficiamento
// order, bound to a work center.
type Operation struct {
	ID             string `json:"id"`
	OrderID        string `json:"order_id"`
	SequenceNumber int    `json:"sequence_number"`

	WorkCenterID   string `json:"work_center_id"`
	WorkCenterName string `json:"work_center_name"`

	PlannedQty     float64 `json:"planned_qty"`
	ProducedQty    float64 `json:"produced_qty"`
	ScrapQty       float64 `json:"scrap_qty"`
	TransferredQty float64 `json:"transferred_qty"`

	Status        string `json:"status"`
	AllowsOverlap bool   `json:"allows_overlap"`

	RequireIP bool    `json:"require_ip"`
	RequireIF bool    `json:"require_if"`
	IPStatus  *string `json:"ip_status"`
	IFStatus  *string `json:"if_status"`

	IPLastInspectionAt *time.Time `json:"ip_last_inspection_at"`
	IFLastInspectionAt *time.Time `json:"if_last_inspection_at"`

	// Kanban projection extras. Late is computed upstream and trusted as given.
	DueAt *time.Time `json:"due_at"`
	Late  bool       `json:"late"`

	UpdatedAt *time.Time `json:"updated_at"`
}

// AvailableToTransfer is the completed-but-not-yet-handed-off quantity. Never
// negative, even if the store reports transferred > produced.
func (o *Operation) AvailableToTransfer() float64 {
	avail := o.ProducedQty - o.TransferredQty
	if avail < 0 {
		return 0
	}
	return avail
}

// IPGateOpen reports whether partial-lot transfer is released by the
// in-process inspection.
func (o *Operation) IPGateOpen() bool {
	return !o.RequireIP || (o.IPStatus != nil && *o.IPStatus == InspectionApproved)
}

// IFGateOpen reports whether completion is released by the final inspection.
func (o *Operation) IFGateOpen() bool {
	return !o.RequireIF || (o.IFStatus != nil && *o.IFStatus == InspectionApproved)
}

// CanTransfer reports whether a partial lot may move to the next operation
// right now.
func (o *Operation) CanTransfer() bool {
	return o.AllowsOverlap &&
		o.AvailableToTransfer() > 0 &&
		o.Status != StatusDone &&
		o.IPGateOpen()
}

// CanComplete reports whether the operation may be marked done.
func (o *Operation) CanComplete() bool {
	return o.IFGateOpen()
}

// DisplayStatus returns the status shown on shop-floor views: an operation
// still gated by a pending in-process inspection reads as waiting_inspection.
func (o *Operation) DisplayStatus() string {
	if o.Status != StatusDone && o.RequireIP && !o.IPGateOpen() {
		return DisplayStatusWaitingInspection
	}
	return o.Status
}

// Blocked reports whether the operation counts against a work center's
// blocked bucket (paused or waiting on inspection).
func (o *Operation) Blocked() bool {
	return o.Status == StatusPaused || o.DisplayStatus() == DisplayStatusWaitingInspection
}

// CanApply reports whether a lifecycle action is valid from the current
// stored status. The IF gate on complete is checked separately.
func (o *Operation) CanApply(action string) bool {
	switch action {
	case ActionStart, ActionResume:
		return o.Status == StatusQueued || o.Status == StatusPaused
	case ActionPause:
		return o.Status == StatusRunning
	case ActionComplete:
		return o.Status == StatusRunning
	}
	return false
}

// MarshalJSON appends the derived presentation fields so API consumers can
// render the waiting_inspection overlay and disable gated actions without
// re-deriving the rules.
func (o Operation) MarshalJSON() ([]byte, error) {
	type operationRow Operation
	return json.Marshal(struct {
		operationRow
		DisplayStatus       string  `json:"display_status"`
		AvailableToTransfer float64 `json:"available_to_transfer"`
		CanTransfer         bool    `json:"can_transfer"`
		CanComplete         bool    `json:"can_complete"`
	}{
		operationRow:        operationRow(o),
		DisplayStatus:       o.DisplayStatus(),
		AvailableToTransfer: o.AvailableToTransfer(),
		CanTransfer:         o.CanTransfer(),
		CanComplete:         o.CanComplete(),
	})
}

// QaRequirements is the require_ip/require_if pair. The store procedure takes
// both flags atomically, so a toggle of one must carry the sibling's current
// value; build writes with WithIP/WithIF over the freshly read pair.
type QaRequirements struct {
	IP bool `json:"require_ip"`
	IF bool `json:"require_if"`
}

// Requirements reads the operation's current pair.
func (o *Operation) Requirements() QaRequirements {
	return QaRequirements{IP: o.RequireIP, IF: o.RequireIF}
}

func (q QaRequirements) WithIP(v bool) QaRequirements {
	q.IP = v
	return q
}

func (q QaRequirements) WithIF(v bool) QaRequirements {
	q.IF = v
	return q
}
