// Package control is the thin command layer consumed by any front-end
// (CLI, HTTP, RPC): each command validates its inputs against the
// wire-exact ranges from spec §3/§6, delegates to simmanager, and maps
// results to the response records defined in spec §6 (component C6).
package control

import (
	"fmt"
	"sort"

	"github.com/RonniRodriguez/idea-inc/internal/simmanager"
	"github.com/RonniRodriguez/idea-inc/internal/simmodel"
	"github.com/RonniRodriguez/idea-inc/internal/simworld"
)

// Surface wraps a Manager with input validation and wire-level types.
// This is the boundary future transports (HTTP, gRPC, CLI) should sit
// behind — it never returns a Manager or World pointer to a caller that
// crossed a transport boundary.
type Surface struct {
	manager *simmanager.Manager
}

// New wraps manager in a Surface.
func New(manager *simmanager.Manager) *Surface {
	return &Surface{manager: manager}
}

// CreateWorldRequest is the wire input for CreateWorld (spec §6).
type CreateWorldRequest struct {
	Name        string
	Description string
	CreatorID   string
	IsPublic    bool
	Config      simworld.Config
	Seed        int64
}

// CreateWorld validates config and creates a world. Errors:
// InvalidConfig (wraps simworld.ErrInvalidInput), CapacityExhausted.
func (s *Surface) CreateWorld(req CreateWorldRequest) (*simworld.World, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", simworld.ErrInvalidInput)
	}
	return s.manager.CreateWorld(req.CreatorID, req.Name, req.Description, req.Config, req.IsPublic, req.Seed)
}

// ListWorlds returns WorldSummary records matching filter.
func (s *Surface) ListWorlds(filter simmanager.WorldFilter) []simmanager.WorldSummary {
	return s.manager.ListWorlds(filter)
}

// GetWorld returns a world or NotFound.
func (s *Surface) GetWorld(id simmodel.WorldID) (*simworld.World, error) {
	return s.manager.GetWorld(id)
}

// DeleteWorld stops and removes a world. Idempotent.
func (s *Surface) DeleteWorld(id simmodel.WorldID) error {
	return s.manager.DeleteWorld(id)
}

// StartWorld starts a world's tick loop.
func (s *Surface) StartWorld(id simmodel.WorldID) (*simworld.World, error) {
	if err := s.manager.StartWorld(id); err != nil {
		return nil, err
	}
	return s.manager.GetWorld(id)
}

// StopWorld pauses a world's tick loop and awaits cancellation.
func (s *Surface) StopWorld(id simmodel.WorldID) (*simworld.World, error) {
	if err := s.manager.StopWorld(id); err != nil {
		return nil, err
	}
	return s.manager.GetWorld(id)
}

// StepWorld advances a world by n synchronous steps (n defaults to 1).
func (s *Surface) StepWorld(id simmodel.WorldID, n int) (*simworld.World, error) {
	if n <= 0 {
		n = 1
	}
	if err := s.manager.StepWorld(id, n); err != nil {
		return nil, err
	}
	return s.manager.GetWorld(id)
}

// InjectIdeaRequest is the wire input for InjectIdea (spec §6). AgeGroups,
// Interests, Regions, and TagNames are wire-exact catalog strings; unknown
// strings are silently dropped from their axis (matching the resilience
// the spec grants Config.Regions parsing).
type InjectIdeaRequest struct {
	WorldID          simmodel.WorldID
	CreatorID        string
	Text             string
	TagNames         []string
	TargetAgeGroups  []string
	TargetInterests  []string
	TargetRegions    []string
	ViralityScore    *float64
	EmotionalValence *float64
	InitialAdopters  int
}

// InjectIdea validates and injects an idea into a world. Errors: NotFound,
// InvalidInput.
func (s *Surface) InjectIdea(req InjectIdeaRequest) (*simmodel.Idea, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("%w: text must not be empty", simworld.ErrInvalidInput)
	}

	tags := make(map[simmodel.Interest]struct{}, len(req.TagNames))
	for _, name := range req.TagNames {
		if i, ok := simmodel.ParseInterest(name); ok {
			tags[i] = struct{}{}
		}
	}

	target := simmodel.Target{Interests: make(map[simmodel.Interest]struct{})}
	for _, name := range req.TargetAgeGroups {
		if a, ok := simmodel.ParseAgeGroup(name); ok {
			target.AgeGroups = append(target.AgeGroups, a)
		}
	}
	for _, name := range req.TargetInterests {
		if i, ok := simmodel.ParseInterest(name); ok {
			target.Interests[i] = struct{}{}
		}
	}
	for _, name := range req.TargetRegions {
		if r, ok := simmodel.ParseRegion(name); ok {
			target.Regions = append(target.Regions, r)
		}
	}

	return s.manager.InjectIdea(req.WorldID, simworld.InjectParams{
		CreatorID:        req.CreatorID,
		Text:             req.Text,
		Tags:             tags,
		Target:           target,
		ViralityScore:    req.ViralityScore,
		EmotionalValence: req.EmotionalValence,
		InitialAdopters:  req.InitialAdopters,
	})
}

// GetSnapshot returns a world's current Snapshot. Errors: NotFound.
func (s *Surface) GetSnapshot(id simmodel.WorldID) (simworld.Snapshot, error) {
	return s.manager.GetSnapshot(id)
}

// GetIdea looks up a single idea inside a world. Errors: NotFound.
func (s *Surface) GetIdea(worldID simmodel.WorldID, ideaID simmodel.IdeaID) (*simmodel.Idea, error) {
	return s.manager.GetIdea(worldID, ideaID)
}

// IdeaSortKey selects the ordering for ListIdeas (spec §6).
type IdeaSortKey uint8

const (
	SortByAdopters IdeaSortKey = iota
	SortByReach
	SortByCreatedAt
)

// ListIdeas returns up to limit ideas from a world, ordered by sortBy.
// limit is capped at 100 (spec §6).
func (s *Surface) ListIdeas(worldID simmodel.WorldID, limit int, sortBy IdeaSortKey) ([]*simmodel.Idea, error) {
	w, err := s.manager.GetWorld(worldID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	ideas := w.Ideas()
	var less func(i, j int) bool
	switch sortBy {
	case SortByReach:
		less = func(i, j int) bool { return ideas[i].Reach > ideas[j].Reach }
	case SortByCreatedAt:
		less = func(i, j int) bool { return ideas[i].CreatedAt.After(ideas[j].CreatedAt) }
	default:
		less = func(i, j int) bool { return ideas[i].AdopterCount > ideas[j].AdopterCount }
	}
	sort.Slice(ideas, less)

	if len(ideas) > limit {
		ideas = ideas[:limit]
	}
	return ideas, nil
}

// GetLeaderboard returns the top-adopted ideas in a world. Errors: NotFound.
func (s *Surface) GetLeaderboard(worldID simmodel.WorldID, limit int) ([]simworld.LeaderboardEntry, error) {
	w, err := s.manager.GetWorld(worldID)
	if err != nil {
		return nil, err
	}
	return w.Leaderboard(limit), nil
}

// GetStats returns a world's aggregate Stats. Errors: NotFound.
func (s *Surface) GetStats(worldID simmodel.WorldID) (simworld.Stats, error) {
	w, err := s.manager.GetWorld(worldID)
	if err != nil {
		return simworld.Stats{}, err
	}
	return w.Stats(), nil
}
