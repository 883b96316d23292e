package simworld

import (
	"cmp"
	"slices"
	"sort"
	"time"

	"golang.org/x/exp/maps"

	"github.com/RonniRodriguez/idea-inc/internal/simmodel"
)

// IdeaStat is one idea's entry inside a Snapshot (spec §4.6's Snapshot
// definition).
type IdeaStat struct {
	IdeaID       simmodel.IdeaID
	Text         string
	AdopterCount int
	Reach        int
	AdoptionRate float64
	Generation   int
}

// RegionalStat is one region's aggregate entry inside a Snapshot.
type RegionalStat struct {
	TotalAgents    int
	ActiveAgents   int
	TotalAdoptions int
	Saturation     float64
}

// Snapshot is a point-in-time view of a world (spec §3): `total_agents` is
// the population size, `active_agents` is the count with a nonempty belief
// set, observed at a tick boundary (spec §4.4 ordering guarantee b).
type Snapshot struct {
	WorldID        simmodel.WorldID
	Step           uint64
	Timestamp      time.Time
	TotalAgents    int
	ActiveAgents   int
	TotalIdeas     int
	TotalAdoptions uint64
	IdeaStats      []IdeaStat
	RegionalStats  map[simmodel.Region]RegionalStat
}

// Snapshot builds a Snapshot of the world's current state. Total on any
// well-formed world (spec §7 "Snapshot and stats are total").
func (w *World) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		WorldID:        w.ID,
		Step:           w.currentStep,
		Timestamp:      time.Now(),
		TotalAgents:    len(w.agentIDs),
		TotalIdeas:     len(w.ideas),
		TotalAdoptions: w.totalAdoptions,
		RegionalStats:  make(map[simmodel.Region]RegionalStat),
	}

	regionTotals := make(map[simmodel.Region]int)
	regionActive := make(map[simmodel.Region]int)
	regionAdoptions := make(map[simmodel.Region]int)

	for _, id := range w.agentIDs {
		a := w.agents[id]
		regionTotals[a.Profile.Region]++
		if len(a.Beliefs) > 0 {
			snap.ActiveAgents++
			regionActive[a.Profile.Region]++
		}
		regionAdoptions[a.Profile.Region] += int(a.State.AdoptionCount)
	}

	for region, total := range regionTotals {
		var saturation float64
		if total > 0 {
			saturation = float64(regionActive[region]) / float64(total)
		}
		snap.RegionalStats[region] = RegionalStat{
			TotalAgents:    total,
			ActiveAgents:   regionActive[region],
			TotalAdoptions: regionAdoptions[region],
			Saturation:     saturation,
		}
	}

	snap.IdeaStats = make([]IdeaStat, 0, len(w.ideas))
	for _, idea := range w.ideas {
		snap.IdeaStats = append(snap.IdeaStats, IdeaStat{
			IdeaID:       idea.ID,
			Text:         idea.Text,
			AdopterCount: idea.AdopterCount,
			Reach:        idea.Reach,
			AdoptionRate: idea.AdoptionRate(),
			Generation:   idea.Lineage.Generation,
		})
	}
	sort.Slice(snap.IdeaStats, func(i, j int) bool {
		return snap.IdeaStats[i].AdopterCount > snap.IdeaStats[j].AdopterCount
	})

	return snap
}

// Stats is the aggregate summary returned by the control surface's
// GetStats command (spec §4.6).
type Stats struct {
	Step              uint64
	Status            Status
	TotalAgents       int
	ActiveAgents      int
	Saturation        float64
	TotalIdeas        int
	TotalAdoptions    uint64
	TotalMutations    uint64
	TotalSpreadEvents uint64
	AverageR0         float64
}

// Stats computes the GetStats response (spec §4.6): saturation =
// active_agents/total_agents, average_r0 = total_adoptions/total_ideas (0
// if there are no ideas yet).
func (w *World) Stats() Stats {
	w.mu.Lock()
	status := w.status
	step := w.currentStep
	totalAgents := len(w.agentIDs)
	totalIdeas := len(w.ideas)
	totalAdoptions := w.totalAdoptions
	totalMutations := w.totalMutations
	totalSpreadEvents := w.totalSpreadEvents
	activeAgents := w.activeAgentCount()
	w.mu.Unlock()

	var saturation float64
	if totalAgents > 0 {
		saturation = float64(activeAgents) / float64(totalAgents)
	}

	var averageR0 float64
	if totalIdeas > 0 {
		averageR0 = float64(totalAdoptions) / float64(totalIdeas)
	}

	return Stats{
		Step:              step,
		Status:            status,
		TotalAgents:       totalAgents,
		ActiveAgents:      activeAgents,
		Saturation:        saturation,
		TotalIdeas:        totalIdeas,
		TotalAdoptions:    totalAdoptions,
		TotalMutations:    totalMutations,
		TotalSpreadEvents: totalSpreadEvents,
		AverageR0:         averageR0,
	}
}

// LeaderboardEntry is one ranked row from GetLeaderboard (spec §4.6).
type LeaderboardEntry struct {
	Rank         int
	IdeaID       simmodel.IdeaID
	Text         string
	CreatorID    string
	Adopters     int
	Reach        int
	AdoptionRate float64
	Generation   int
}

const leaderboardTextLimit = 100

// Leaderboard returns the top `limit` ideas by adopter_count descending
// (spec §4.6). limit is capped at 50 per spec §6.
func (w *World) Leaderboard(limit int) []LeaderboardEntry {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	w.mu.Lock()
	ideas := maps.Values(w.ideas)
	w.mu.Unlock()

	slices.SortFunc(ideas, func(a, b *simmodel.Idea) int { return cmp.Compare(b.AdopterCount, a.AdopterCount) })
	if len(ideas) > limit {
		ideas = ideas[:limit]
	}

	out := make([]LeaderboardEntry, len(ideas))
	for i, idea := range ideas {
		text := idea.Text
		if len(text) > leaderboardTextLimit {
			text = text[:leaderboardTextLimit]
		}
		out[i] = LeaderboardEntry{
			Rank:         i + 1,
			IdeaID:       idea.ID,
			Text:         text,
			CreatorID:    idea.CreatorID,
			Adopters:     idea.AdopterCount,
			Reach:        idea.Reach,
			AdoptionRate: idea.AdoptionRate(),
			Generation:   idea.Lineage.Generation,
		}
	}
	return out
}
