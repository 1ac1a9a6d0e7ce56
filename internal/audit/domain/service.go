package domain

import "context"

// Entry is one action to be recorded. Actor identity is taken from the
// request context at record time.
type Entry struct {
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

// Service records and lists audit entries. Recording is best-effort:
// a failed write is logged, never surfaced to the calling operation.
type Service interface {
	Record(ctx context.Context, entry Entry)
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}
