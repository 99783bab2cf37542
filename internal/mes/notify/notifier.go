package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel carrying refresh events between service instances.
const refreshChannel = "mes:refresh"

// Notifier publishes refresh events after successful mutations. With redis
// configured, events travel through pub/sub so a mutation on one instance
// refreshes clients attached to another; without redis they stay local.
type Notifier struct {
	hub *Hub
	rdb *redis.Client
	log *zap.Logger

	// onConfigRefresh lets the automation cache drop its entry when a peer
	// instance saves new thresholds.
	onConfigRefresh func()
}

func NewNotifier(hub *Hub, rdb *redis.Client, log *zap.Logger) *Notifier {
	return &Notifier{hub: hub, rdb: rdb, log: log}
}

// SetConfigRefreshHook registers the cache-invalidation callback.
func (n *Notifier) SetConfigRefreshHook(fn func()) {
	n.onConfigRefresh = fn
}

// OperationsChanged signals that an order's operation list mutated.
func (n *Notifier) OperationsChanged(ctx context.Context, orderID string) {
	n.publish(ctx, Event{Type: EventOperationsRefresh, OrderID: orderID})
}

// ConfigChanged signals that the automation thresholds were rewritten.
func (n *Notifier) ConfigChanged(ctx context.Context) {
	n.publish(ctx, Event{Type: EventConfigRefresh})
}

func (n *Notifier) publish(ctx context.Context, ev Event) {
	if n.rdb == nil {
		n.deliver(ev)
		return
	}
	payload, _ := json.Marshal(ev)
	if err := n.rdb.Publish(ctx, refreshChannel, payload).Err(); err != nil {
		n.log.Warn("refresh publish failed, delivering locally",
			zap.String("event", ev.Type), zap.Error(err))
		n.deliver(ev)
	}
}

// deliver hands an event to the local hub and fires hooks.
func (n *Notifier) deliver(ev Event) {
	if ev.Type == EventConfigRefresh && n.onConfigRefresh != nil {
		n.onConfigRefresh()
	}
	n.hub.Broadcast(ev)
}

// Run subscribes to the refresh channel and feeds the local hub until the
// context is cancelled. Events published by this instance come back through
// the subscription, so they are delivered exactly once.
func (n *Notifier) Run(ctx context.Context) {
	if n.rdb == nil {
		return
	}
	sub := n.rdb.Subscribe(ctx, refreshChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				n.log.Warn("bad refresh payload", zap.Error(err))
				continue
			}
			n.deliver(ev)
		}
	}
}
