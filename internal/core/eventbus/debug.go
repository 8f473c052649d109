package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger logs bus activity: published events at debug level,
// dropped events as warnings, and subscriber panics as errors.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		e := logger.Debug().Str("event", string(event))
		switch p := payload.(type) {
		case StateChangedPayload:
			e = e.Str("kind", string(p.Kind)).Ints64("ids", p.IDs).Int("count", p.Count)
		case CommandReconciledPayload:
			e = e.Str("op", p.Op).Int64("todo_id", p.ID).Str("status", p.Status).AnErr("cause", p.Err)
		case NotificationPublishedPayload:
			e = e.Str("level", string(p.Level))
		}
		e.Msg("event published")
	})

	bus.OnDrop(func(event Event, _ any) {
		logger.Warn().Str("event", string(event)).Msg("event dropped: buffer full")
	})

	bus.OnPanic(func(event Event, _ any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}
