// Package simworld owns a single population + social graph + idea
// catalog: topology construction, idea injection, the per-tick
// propagation algorithm, decay, and point-in-time snapshots (spec §4.3,
// component C3). internal/simmanager owns many Worlds concurrently.
package simworld

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/exp/maps"

	"github.com/RonniRodriguez/idea-inc/internal/mutation"
	"github.com/RonniRodriguez/idea-inc/internal/simmodel"
	"github.com/RonniRodriguez/idea-inc/internal/trend"
)

// SpreadEvent records one propagation attempt (spec §3).
type SpreadEvent struct {
	IdeaID      simmodel.IdeaID
	FromAgent   simmodel.AgentID
	ToAgent     simmodel.AgentID
	Probability float64
	Accepted    bool
	Step        uint64
	Timestamp   time.Time
}

// StepResult is the return value of one tick (spec §4.3 step 5).
type StepResult struct {
	Step          uint64
	SpreadAttempts int
	Adoptions     int
	Mutations     int
	Decays        int
	DurationMs    float64
	ActiveAgents  int
}

const eventBufferCap = 1000

// World owns one population, its social graph, and its idea catalog.
type World struct {
	ID          simmodel.WorldID
	CreatorID   string
	Name        string
	Description string
	IsPublic    bool
	Config      Config

	mu          sync.Mutex
	status      Status
	currentStep uint64

	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	agents    map[simmodel.AgentID]*simmodel.Agent
	agentIDs  []simmodel.AgentID // stable population order, for topology construction and shuffles
	ideas     map[simmodel.IdeaID]*simmodel.Idea

	events     []SpreadEvent // ring buffer, capacity eventBufferCap
	eventHead  int
	eventCount int

	totalSpreadEvents uint64
	totalAdoptions    uint64
	totalMutations    uint64

	rng     *rand.Rand
	mutator mutation.Provider

	trendClient *trend.Client

	// LastTrendSignal is the most recent diagnostic trend.Reading fetched
	// at a tick boundary (nil trendClient leaves it at its zero value). It
	// is never read by the propagation algorithm — context_modifier stays
	// inert at 1.0 regardless of this field (spec §4.1, §9).
	LastTrendSignal trend.Reading
}

// New constructs a World and builds its population and topology
// synchronously (spec §4.4: "population and graph are built synchronously
// inside create_world"). seed 0 draws a fresh seed from OS entropy via
// math/rand's default source, matching the teacher's world.Generate
// fallback pattern.
func New(id simmodel.WorldID, creatorID, name, description string, isPublic bool, cfg Config, seed int64, mutator mutation.Provider, trendClient *trend.Client) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = rand.Int63()
	}
	if mutator == nil {
		mutator = mutation.Deterministic{}
	}

	w := &World{
		ID:          id,
		CreatorID:   creatorID,
		Name:        name,
		Description: description,
		IsPublic:    isPublic,
		Config:      cfg,
		status:      StatusCreated,
		CreatedAt:   time.Now(),
		agents:      make(map[simmodel.AgentID]*simmodel.Agent, cfg.PopulationSize),
		ideas:       make(map[simmodel.IdeaID]*simmodel.Idea),
		events:      make([]SpreadEvent, eventBufferCap),
		rng:         rand.New(rand.NewSource(seed)),
		mutator:     mutator,
		trendClient: trendClient,
	}

	w.seedPopulation()
	if err := w.buildTopology(); err != nil {
		return nil, err
	}

	return w, nil
}

// Status returns the world's current lifecycle state.
func (w *World) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// CurrentStep returns the number of ticks executed so far.
func (w *World) CurrentStep() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentStep
}

// PopulationSize returns the agent count.
func (w *World) PopulationSize() int {
	return len(w.agentIDs)
}

// Start transitions CREATED|PAUSED → RUNNING. Re-starting a RUNNING world
// is a no-op success (spec §4.4).
func (w *World) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.status {
	case StatusRunning:
		return nil
	case StatusCreated, StatusPaused:
		if w.status == StatusCreated {
			w.StartedAt = time.Now()
		}
		w.status = StatusRunning
		return nil
	default:
		return fmt.Errorf("%w: cannot start world in status %s", ErrInvalidStateTransition, w.status)
	}
}

// Pause transitions RUNNING → PAUSED. Pausing an already-PAUSED world is
// a no-op success.
func (w *World) Pause() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.status {
	case StatusPaused:
		return nil
	case StatusRunning:
		w.status = StatusPaused
		return nil
	default:
		return fmt.Errorf("%w: cannot stop world in status %s", ErrInvalidStateTransition, w.status)
	}
}

// Archive marks the world ARCHIVED administratively.
func (w *World) Archive() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = StatusArchived
}

// RemixIdea is an explicit, off-tick mutation request: it may call out to
// a pluggable (possibly LLM-backed) mutation.Provider and can therefore
// block on external I/O — unlike the tick's built-in trigger (spec §4.5
// "queue them off-tick and deliver resulting ideas into the world at a
// tick boundary"). Held under w.mu for its entire duration, like every
// other control operation: a slow remix delays the next tick rather than
// racing it, and w.rng is never touched without the lock held. The
// delivered child always lands at a clean tick boundary.
func (w *World) RemixIdea(ideaID simmodel.IdeaID, kind simmodel.MutationType) (*simmodel.Idea, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	idea, ok := w.ideas[ideaID]
	if !ok {
		return nil, fmt.Errorf("%w: idea %s", ErrNotFound, ideaID)
	}

	result := w.mutator.Mutate(idea, kind, w.rng)

	child, err := idea.CreateMutation(result.Kind, result.Text, result.DeltaVirality, result.DeltaEmotional)
	if err != nil {
		return nil, err
	}
	w.ideas[child.ID] = child
	return child, nil
}

// updateTrendSignal fetches a diagnostic trend.Reading for one region per
// tick, rotating through the configured region catalog — same
// fetch-then-log-and-keep-previous shape as the teacher's updateWeather.
// Called with w.mu already held; a fetch failure never fails the tick.
func (w *World) updateTrendSignal() {
	if w.trendClient == nil {
		return
	}
	regions, _ := w.regionCatalog()
	if len(regions) == 0 {
		return
	}
	region := regions[int(w.currentStep)%len(regions)]
	reading, err := w.trendClient.Fetch(region)
	if err != nil {
		slog.Debug("trend fetch failed", "region", region, "error", err)
		return
	}
	w.LastTrendSignal = reading
}

func (w *World) recordEvent(e SpreadEvent) {
	w.events[w.eventHead] = e
	w.eventHead = (w.eventHead + 1) % eventBufferCap
	if w.eventCount < eventBufferCap {
		w.eventCount++
	}
}

// RecentEvents returns up to limit of the most recent spread events, most
// recent last.
func (w *World) RecentEvents(limit int) []SpreadEvent {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.eventCount
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]SpreadEvent, n)
	for i := 0; i < n; i++ {
		idx := (w.eventHead - n + i + eventBufferCap) % eventBufferCap
		out[i] = w.events[idx]
	}
	return out
}

// Agent looks up an agent by id.
func (w *World) Agent(id simmodel.AgentID) (*simmodel.Agent, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.agents[id]
	return a, ok
}

// Idea looks up an idea by id.
func (w *World) Idea(id simmodel.IdeaID) (*simmodel.Idea, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i, ok := w.ideas[id]
	return i, ok
}

// Ideas returns a snapshot slice of every idea currently in the catalog.
func (w *World) Ideas() []*simmodel.Idea {
	w.mu.Lock()
	defer w.mu.Unlock()
	return maps.Values(w.ideas)
}

func (w *World) seedPopulation() {
	regions, weights := w.regionCatalog()

	for i := 0; i < w.Config.PopulationSize; i++ {
		profile := simmodel.Profile{
			AgeGroup:       simmodel.AgeGroups[w.rng.Intn(len(simmodel.AgeGroups))],
			Interests:      w.randomInterests(),
			Region:         regions[weightedIndex(w.rng, weights)],
			TrustThreshold: betaSample(w.rng, 2, 2),
			Openness:       betaSample(w.rng, 2, 2),
			Influence:      betaSample(w.rng, 1, 5),
		}
		agent := simmodel.NewAgent(w.ID, profile)
		w.agents[agent.ID] = agent
		w.agentIDs = append(w.agentIDs, agent.ID)
	}
}

func (w *World) regionCatalog() ([]simmodel.Region, []float64) {
	if len(w.Config.Regions) == 0 {
		regions := make([]simmodel.Region, len(simmodel.Regions))
		copy(regions[:], simmodel.Regions[:])
		weights := make([]float64, len(simmodel.RegionWeights))
		copy(weights, simmodel.RegionWeights[:])
		return regions, weights
	}

	regions := make([]simmodel.Region, 0, len(w.Config.Regions))
	for _, name := range w.Config.Regions {
		r, ok := simmodel.ParseRegion(name)
		if !ok {
			continue
		}
		regions = append(regions, r)
	}
	weights := w.Config.RegionWeights
	if len(weights) != len(regions) {
		weights = make([]float64, len(regions))
		for i := range weights {
			weights[i] = 1
		}
	}
	return regions, weights
}

// randomInterests picks a random subset of size 2-5 from the catalog
// (spec §4.3).
func (w *World) randomInterests() map[simmodel.Interest]struct{} {
	n := 2 + w.rng.Intn(4)
	perm := w.rng.Perm(len(simmodel.Interests))
	out := make(map[simmodel.Interest]struct{}, n)
	for i := 0; i < n; i++ {
		out[simmodel.Interests[perm[i]]] = struct{}{}
	}
	return out
}

// weightedIndex draws a categorical index under weights (need not sum to 1).
func weightedIndex(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return rng.Intn(len(weights))
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return i
		}
	}
	return len(weights) - 1
}
