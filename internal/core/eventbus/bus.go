package eventbus

import (
	"context"
	"sync"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus is an asynchronous, buffered event bus. Publish never blocks:
// when the buffer is full the event is dropped and OnDrop hooks fire.
// Subscribers run sequentially on the goroutine that called Start.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// New creates an event bus with the given buffer size.
func New(size int) *EventBus {
	return &EventBus{
		ch:   make(chan envelope, size),
		subs: make(map[Event][]func(any)),
	}
}

// Start dispatches events until ctx is cancelled. Events still buffered at
// cancellation are delivered before Start returns.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case env := <-bus.ch:
			bus.dispatch(env)
		case <-ctx.Done():
			bus.drain()
			return
		}
	}
}

func (bus *EventBus) drain() {
	for {
		select {
		case env := <-bus.ch:
			bus.dispatch(env)
		default:
			return
		}
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					bus.runOnPanic(env.event, env.payload, r)
				}
			}()
			fn(env.payload)
		}()
	}
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()
}

// PublishStateChanged enqueues a state.changed event.
func (bus *EventBus) PublishStateChanged(p StateChangedPayload) {
	bus.send(EventStateChanged, p)
}

// SubscribeStateChanged registers fn for state.changed events.
func (bus *EventBus) SubscribeStateChanged(fn func(StateChangedPayload)) {
	bus.subscribe(EventStateChanged, func(p any) { fn(p.(StateChangedPayload)) })
}

// PublishCommandReconciled enqueues a command.reconciled event.
func (bus *EventBus) PublishCommandReconciled(p CommandReconciledPayload) {
	bus.send(EventCommandReconciled, p)
}

// SubscribeCommandReconciled registers fn for command.reconciled events.
func (bus *EventBus) SubscribeCommandReconciled(fn func(CommandReconciledPayload)) {
	bus.subscribe(EventCommandReconciled, func(p any) { fn(p.(CommandReconciledPayload)) })
}

// PublishNotificationPublished enqueues a notification.published event.
func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	bus.send(EventNotificationPublished, p)
}

// SubscribeNotificationPublished registers fn for notification.published events.
func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) {
	bus.subscribe(EventNotificationPublished, func(p any) { fn(p.(NotificationPublishedPayload)) })
}
