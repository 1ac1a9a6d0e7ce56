package realtime

import (
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
)

// Frame kinds exchanged with the change feed.
const (
	frameAck    = "ack"
	frameChange = "change"
	frameError  = "error"
)

// subscribeRequest opens or tears down one table subscription.
type subscribeRequest struct {
	Action string `json:"action"`
	Table  string `json:"table"`
}

// feedFrame is one message from the feed. The first frame after a
// subscribe request must be an ack for that table.
type feedFrame struct {
	Kind   string                `json:"kind"`
	Table  string                `json:"table,omitempty"`
	Change *billingdomain.Change `json:"change,omitempty"`
	Error  string                `json:"error,omitempty"`
}
