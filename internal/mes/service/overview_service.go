package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/gateway"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/cache"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/entity"
	"go.uber.org/zap"
)

// fallbackCapacity is assumed for centers with no declared capacity.
const fallbackCapacity = 10.0

// OverviewService builds the per-work-center shop-floor snapshot from three
// independently fetched inputs: active centers, the kanban operation list,
// and the automation thresholds.
type OverviewService struct {
	gw    *gateway.Client
	cache *cache.AutomationCache
	log   *zap.Logger
	now   func() time.Time
}

func NewOverviewService(gw *gateway.Client, cfgCache *cache.AutomationCache, log *zap.Logger) *OverviewService {
	return &OverviewService{gw: gw, cache: cfgCache, log: log, now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (s *OverviewService) SetClock(now func() time.Time) {
	s.now = now
}

// BuildOverview recomputes every work-center snapshot. A failed config fetch
// degrades to default thresholds instead of failing the whole overview.
func (s *OverviewService) BuildOverview(ctx context.Context) ([]entity.WorkCenterSnapshot, error) {
	centers, err := s.gw.ListWorkCenters(ctx, true)
	if err != nil {
		return nil, err
	}
	ops, err := s.gw.ListKanbanOperations(ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := s.cache.Get(ctx)
	if err != nil {
		s.log.Warn("automation config unavailable, using defaults", zap.Error(err))
		cfg = entity.DefaultAutomationConfig()
	}

	now := s.now()
	snapshots := make([]entity.WorkCenterSnapshot, 0, len(centers))
	for _, center := range centers {
		snapshots = append(snapshots, s.buildSnapshot(center, ops, cfg, now))
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Center.Name < snapshots[j].Center.Name
	})
	return snapshots, nil
}

func (s *OverviewService) buildSnapshot(center entity.WorkCenter, all []entity.Operation, cfg entity.AutomationConfig, now time.Time) entity.WorkCenterSnapshot {
	snap := entity.WorkCenterSnapshot{
		Center:     center,
		Running:    []entity.Operation{},
		Queued:     []entity.Operation{},
		Blocked:    []entity.Operation{},
		ComputedAt: now,
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	stallWindow := time.Duration(cfg.StallAlertMinutes) * time.Minute

	for _, op := range all {
		if op.WorkCenterID != center.ID {
			continue
		}
		if op.Late {
			snap.LateCount++
		}

		switch op.DisplayStatus() {
		case entity.StatusRunning:
			snap.Running = append(snap.Running, op)
			// An operation with no update timestamp is never stalled.
			if op.UpdatedAt != nil && now.Sub(*op.UpdatedAt) > stallWindow {
				snap.StalledCount++
			}
		case entity.StatusQueued:
			snap.Queued = append(snap.Queued, op)
		case entity.StatusPaused, entity.DisplayStatusWaitingInspection:
			snap.Blocked = append(snap.Blocked, op)
		case entity.StatusDone:
			if op.UpdatedAt != nil && !op.UpdatedAt.Before(midnight) {
				snap.DoneToday++
			}
		}
	}

	// Any blocked operation forces danger, regardless of lateness or stalls.
	switch {
	case len(snap.Blocked) > 0:
		snap.AlertLevel = entity.AlertDanger
	case snap.LateCount > 0 || snap.StalledCount > 0:
		snap.AlertLevel = entity.AlertWarning
	default:
		snap.AlertLevel = entity.AlertOK
	}

	capacityBase := fallbackCapacity
	if center.CapacityPerHour != nil {
		capacityBase = *center.CapacityPerHour
	} else if center.CapacityHoursPerDay != nil {
		capacityBase = *center.CapacityHoursPerDay
	}
	if capacityBase < 1 {
		capacityBase = 1
	}
	load := float64(len(snap.Running)) + 0.5*float64(len(snap.Queued))
	util := math.Round(100 * load / capacityBase)
	if util > 100 {
		util = 100
	}
	snap.UtilizationPercent = int(util)

	snap.NextOperation, snap.NextDueAt = nextDue(snap.Running, snap.Queued)
	return snap
}

// nextDue picks the earliest-due operation among running and queued entries
// with a due timestamp. Equal instants break on the lexical form of the
// timestamp so repeated passes over identical input stay deterministic.
func nextDue(running, queued []entity.Operation) (*entity.Operation, *time.Time) {
	var best *entity.Operation
	var bestKey string

	consider := func(ops []entity.Operation) {
		for i := range ops {
			due := ops[i].DueAt
			if due == nil {
				continue
			}
			key := due.Format(time.RFC3339Nano)
			earlier := best == nil ||
				due.Before(*best.DueAt) ||
				(due.Equal(*best.DueAt) && key < bestKey)
			if earlier {
				op := ops[i]
				best = &op
				bestKey = key
			}
		}
	}
	consider(running)
	consider(queued)

	if best == nil {
		return nil, nil
	}
	return best, best.DueAt
}
