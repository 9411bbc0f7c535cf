package ws

import "encoding/json"

// Event is the envelope of every frame in both directions. Seq is set by
// the hub on outgoing events and increases across all of them.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// inbound is how client frames are decoded; d stays raw until the op is
// known.
type inbound struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
}

// Client → server.
const (
	OpHeartbeat   = "heartbeat"
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
)

// Server → client.
const (
	OpReady        = "ready"
	OpHeartbeatAck = "heartbeat_ack"
	OpSubscribed   = "subscribed"
	OpUnsubscribed = "unsubscribed"
	OpError        = "error"

	OpModuleCreate   = "module_create"
	OpModuleUpdate   = "module_update"
	OpModuleDelete   = "module_delete"
	OpModulesReorder = "modules_reorder"

	OpContentCreate   = "content_create"
	OpContentUpdate   = "content_update"
	OpContentDelete   = "content_delete"
	OpContentsReorder = "contents_reorder"
)

type ReadyData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// SubscribeData is the payload of subscribe, unsubscribe and their acks.
type SubscribeData struct {
	CourseID string `json:"course_id"`
}

type ErrorData struct {
	Op      string `json:"op,omitempty"`
	Message string `json:"message"`
}

type ModuleDeleteData struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
}

type ContentDeleteData struct {
	ID       string `json:"id"`
	ModuleID string `json:"module_id"`
}

// ReorderData carries the positions that were actually applied.
type ReorderData struct {
	CourseID  string         `json:"course_id"`
	Positions map[string]int `json:"positions"`
}
