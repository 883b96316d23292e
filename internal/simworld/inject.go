package simworld

import (
	"fmt"
	"sort"

	"github.com/RonniRodriguez/idea-inc/internal/simmodel"
)

// InjectParams bundles the InjectIdea control-surface inputs (spec §6).
type InjectParams struct {
	CreatorID        string
	Text             string
	Tags             map[simmodel.Interest]struct{}
	Target           simmodel.Target
	ViralityScore    *float64
	EmotionalValence *float64
	InitialAdopters  int
}

// InjectIdea creates a new idea, scores the population against its
// target, and seeds InitialAdopters agents (spec §4.3 "Idea injection").
// Serialised per world by w.mu, which it holds for the whole operation.
func (w *World) InjectIdea(p InjectParams) (*simmodel.Idea, error) {
	if p.InitialAdopters < 1 || p.InitialAdopters > 100 {
		return nil, fmt.Errorf("%w: initial_adopters must be in [1, 100], got %d", ErrInvalidInput, p.InitialAdopters)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	idea := simmodel.NewIdea(w.ID, p.CreatorID, p.Text, p.Tags, p.Target)
	if p.ViralityScore != nil {
		if *p.ViralityScore < 0 || *p.ViralityScore > 1 {
			return nil, fmt.Errorf("%w: virality_score must be in [0, 1]", ErrInvalidInput)
		}
		idea.ViralityScore = *p.ViralityScore
	}
	if p.EmotionalValence != nil {
		if *p.EmotionalValence < 0 || *p.EmotionalValence > 1 {
			return nil, fmt.Errorf("%w: emotional_valence must be in [0, 1]", ErrInvalidInput)
		}
		idea.EmotionalValence = *p.EmotionalValence
	}

	w.seedAdopters(idea, p.InitialAdopters)
	w.ideas[idea.ID] = idea
	return idea, nil
}

type scoredAgent struct {
	id    simmodel.AgentID
	score float64
}

// seedAdopters implements the scoring/sampling procedure from spec §4.3:
// score every agent, take the top max(10k, 100) as a candidate pool, then
// uniformly sample min(k, |pool|) without replacement.
func (w *World) seedAdopters(idea *simmodel.Idea, k int) {
	scored := make([]scoredAgent, 0, len(w.agentIDs))
	for _, id := range w.agentIDs {
		a := w.agents[id]
		match := idea.Target.MatchesAgent(a.Profile.AgeGroup, a.Profile.Interests, a.Profile.Region)
		scored = append(scored, scoredAgent{id: id, score: match * (0.5 + a.Profile.Influence)})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	poolSize := 10 * k
	if poolSize < 100 {
		poolSize = 100
	}
	if poolSize > len(scored) {
		poolSize = len(scored)
	}
	pool := scored[:poolSize]

	sampleSize := k
	if sampleSize > len(pool) {
		sampleSize = len(pool)
	}

	perm := w.rng.Perm(len(pool))
	for i := 0; i < sampleSize; i++ {
		agent := w.agents[pool[perm[i]].id]
		if agent.Adopt(idea.ID) {
			idea.AdopterCount++
		}
	}
}
