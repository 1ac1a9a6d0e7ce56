package domain

import "encoding/json"

// ChangeType is a change-feed event kind.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// IsValid reports whether t is a known change type.
func (t ChangeType) IsValid() bool {
	switch t {
	case ChangeInsert, ChangeUpdate, ChangeDelete:
		return true
	}
	return false
}

// Change is one push event from the change feed. New carries the
// changed row for inserts and updates; Old carries at least the id for
// deletes.
type Change struct {
	Table string          `json:"table"`
	Type  ChangeType      `json:"type"`
	New   json.RawMessage `json:"new,omitempty"`
	Old   json.RawMessage `json:"old,omitempty"`
}
