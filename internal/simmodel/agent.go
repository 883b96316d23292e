package simmodel

// exposureBonus is a reserved per-exposure multiplier in the adoption
// formula. It is never varied today — see spec Open Questions — but the
// hook is kept so reinforcement learning on repeat exposures has a home
// without changing the formula's shape.
const exposureBonus = 1.0

// contextModifierDefault is the inert default for world-wide event context.
// See internal/trend for the optional, explicitly-opted-in signal that can
// populate a World's diagnostic trend reading without touching this default.
const contextModifierDefault = 1.0

// Profile holds an agent's demographic and personality attributes. These
// are drawn once at population-seeding time and never change afterward.
type Profile struct {
	AgeGroup       AgeGroup
	Interests      map[Interest]struct{}
	Region         Region
	TrustThreshold float64 // [0,1]
	Openness       float64 // [0,1]
	Influence      float64 // [0,1], right-skewed — influencers are rare
}

// State holds an agent's mutable runtime state.
type State struct {
	Mood            float64 // [-1,1]
	Susceptibility  float64 // [0,1], default 0.5
	LastActiveStep  uint64
	ExposureCount   uint64
	AdoptionCount   uint64
}

// Agent is a single member of a World's population.
type Agent struct {
	ID      AgentID
	WorldID WorldID // informational back-reference only, never ownership

	Profile Profile
	State   State

	// Connections is the symmetric adjacency set built once at topology
	// construction time and immutable for the World's lifetime.
	Connections map[AgentID]struct{}

	// Beliefs is the set of ideas this agent currently holds.
	Beliefs map[IdeaID]struct{}

	// IdeaExposures counts exposures per idea, for reinforcement bookkeeping.
	IdeaExposures map[IdeaID]uint64
}

// NewAgent constructs an agent with empty adjacency/belief sets and the
// default susceptibility from spec §3.
func NewAgent(worldID WorldID, profile Profile) *Agent {
	return &Agent{
		ID:      NewID(),
		WorldID: worldID,
		Profile: profile,
		State: State{
			Susceptibility: 0.5,
		},
		Connections:   make(map[AgentID]struct{}),
		Beliefs:       make(map[IdeaID]struct{}),
		IdeaExposures: make(map[IdeaID]uint64),
	}
}

// AddConnection adds a symmetric-graph edge endpoint. A no-op on self.
func (a *Agent) AddConnection(id AgentID) {
	if id == a.ID {
		return
	}
	a.Connections[id] = struct{}{}
}

// RemoveConnection removes an edge endpoint, if present.
func (a *Agent) RemoveConnection(id AgentID) {
	delete(a.Connections, id)
}

// HasIdea reports whether the agent currently believes idea id.
func (a *Agent) HasIdea(id IdeaID) bool {
	_, ok := a.Beliefs[id]
	return ok
}

// Expose records an exposure to idea id and returns the new per-idea
// exposure count.
func (a *Agent) Expose(id IdeaID) uint64 {
	a.State.ExposureCount++
	a.IdeaExposures[id]++
	return a.IdeaExposures[id]
}

// Adopt adds idea id to the agent's beliefs. Returns true iff this is a
// new adoption (idempotent on repeat calls). Adopting decrements
// susceptibility by factor 0.95, floored at 0.1 (spec §3 invariant c).
func (a *Agent) Adopt(id IdeaID) bool {
	if a.HasIdea(id) {
		return false
	}
	a.Beliefs[id] = struct{}{}
	a.State.AdoptionCount++
	a.State.Susceptibility *= 0.95
	if a.State.Susceptibility < 0.1 {
		a.State.Susceptibility = 0.1
	}
	return true
}

// Reject raises susceptibility by factor 1.02, capped at 0.9 (spec §3
// invariant c). Called when a spread attempt is not accepted.
func (a *Agent) Reject() {
	a.State.Susceptibility *= 1.02
	if a.State.Susceptibility > 0.9 {
		a.State.Susceptibility = 0.9
	}
}

// Forget removes idea id from beliefs. Returns true iff it was present.
func (a *Agent) Forget(id IdeaID) bool {
	if !a.HasIdea(id) {
		return false
	}
	delete(a.Beliefs, id)
	return true
}

// IdeaRelevance scores how relevant a set of idea tags is to this agent's
// interests (spec §4.1). 0.3 when either set is empty, 0.2 on zero
// overlap, otherwise 0.2 + 0.8 * overlap / max(len(tags), len(interests)).
func (a *Agent) IdeaRelevance(tags map[Interest]struct{}) float64 {
	if len(tags) == 0 || len(a.Profile.Interests) == 0 {
		return 0.3
	}

	overlap := 0
	for t := range tags {
		if _, ok := a.Profile.Interests[t]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return 0.2
	}

	denom := len(tags)
	if len(a.Profile.Interests) > denom {
		denom = len(a.Profile.Interests)
	}
	return 0.2 + 0.8*float64(overlap)/float64(denom)
}

// AdoptionProbability implements the Agent-side contract from spec §4.1:
//
//	p = virality · sender.influence · receiver.openness · relevance
//	    · trust_factor · context_modifier · receiver.susceptibility
//
// clamped to [0,1]. trustFactor and contextModifier default to 1.0 when
// callers have nothing more specific; contextModifier should almost
// always be left at its default (see internal/trend).
func (a *Agent) AdoptionProbability(virality, senderInfluence, relevance, trustFactor, contextModifier float64) float64 {
	p := virality * senderInfluence * a.Profile.Openness * relevance *
		trustFactor * contextModifier * a.State.Susceptibility * exposureBonus
	return clamp01(p)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
