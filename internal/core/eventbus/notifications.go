package eventbus

import (
	"errors"
	"fmt"

	"github.com/colonyops/tend/internal/core/notify"
	"github.com/colonyops/tend/internal/core/todo"
)

// NotificationRouter maps command outcomes to user-facing notifications.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter constructs a router for event-to-notification mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeCommandReconciled(func(p CommandReconciledPayload) {
		if p.Err == nil {
			return
		}

		target := p.Op
		if p.ID != 0 {
			target = fmt.Sprintf("%s #%d", p.Op, p.ID)
		}

		if errors.Is(p.Err, todo.ErrRemote) {
			r.notifyf(notify.LevelWarning, "%s %s: %v", target, p.Status, p.Err)
			return
		}
		r.notifyf(notify.LevelInfo, "%s %s: %v", target, p.Status, p.Err)
	})
}

func (r *NotificationRouter) notifyf(level notify.Level, format string, args ...any) {
	r.bus.PublishNotificationPublished(NotificationPublishedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}
