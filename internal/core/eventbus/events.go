// Package eventbus provides a typed publish/subscribe event bus used to
// notify presentation code about state changes and command outcomes.
package eventbus

import "github.com/colonyops/tend/internal/core/notify"

// Event names a kind of event carried on the bus.
type Event string

// Keep list sorted A-Z
const (
	EventCommandReconciled     Event = "command.reconciled"
	EventNotificationPublished Event = "notification.published"
	EventStateChanged          Event = "state.changed"
)

// ChangeKind describes what happened to the local state.
type ChangeKind string

const (
	ChangeUpserted ChangeKind = "upserted"
	ChangeRemoved  ChangeKind = "removed"
	ChangeReplaced ChangeKind = "replaced"
)

// StateChangedPayload is emitted after every mutation of the local state store.
type StateChangedPayload struct {
	Kind ChangeKind
	IDs  []int64
	// Count is the number of active todos after the change.
	Count int
}

// CommandReconciledPayload is emitted once a command's remote call resolved
// and its outcome was applied locally.
type CommandReconciledPayload struct {
	Op     string
	ID     int64
	Status string
	Err    error
}

// NotificationPublishedPayload is emitted when a user-facing notification is raised.
type NotificationPublishedPayload struct {
	Level   notify.Level
	Message string
}
