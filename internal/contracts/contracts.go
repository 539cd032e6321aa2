package contracts

import "time"

// Entity kinds referenced by change notifications.
const (
	EntityWorkspace = "workspace"
	EntityDocument  = "document"
	EntityEvent     = "event"
)

// Actions carried by change notifications.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeEvent is published by workspace-api after a successful mutation and
// consumed by change-streamer to fan live updates out to subscribed clients.
type ChangeEvent struct {
	EventID     string    `json:"event_id"`
	WorkspaceID string    `json:"workspace_id"`
	Entity      string    `json:"entity"`
	EntityID    string    `json:"entity_id"`
	Action      string    `json:"action"`
	OccurredAt  time.Time `json:"occurred_at"`
	ShardID     int       `json:"shard_id"`
}
