// Package types provides common types used across Streampay.
package types

import "time"

// Entity is the base type for all Streampay entities with timestamps.
// Embed this in your domain types to get automatic timestamp handling.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates a new Entity with current timestamps.
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EntityAt creates an Entity with both timestamps set to t.
// The engine uses this so that entity timestamps follow its clock.
func EntityAt(t time.Time) Entity {
	return Entity{
		CreatedAt: t,
		UpdatedAt: t,
	}
}

// Touch updates the UpdatedAt timestamp to now.
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// Age returns how long ago the entity was created.
func (e Entity) Age() time.Duration {
	return time.Since(e.CreatedAt)
}

// LastModified returns how long ago the entity was last updated.
func (e Entity) LastModified() time.Duration {
	return time.Since(e.UpdatedAt)
}
