package simmodel

import "github.com/google/uuid"

// AgentID uniquely identifies an Agent within a World.
type AgentID = uuid.UUID

// IdeaID uniquely identifies an Idea within a World.
type IdeaID = uuid.UUID

// WorldID uniquely identifies a World within a Manager.
type WorldID = uuid.UUID

// NewID mints a fresh random identifier. Kept as a single indirection so
// callers never reach for uuid.New() directly — mirrors the teacher's
// single-entry-point AgentID counter in agents.Spawner.
func NewID() uuid.UUID {
	return uuid.New()
}
