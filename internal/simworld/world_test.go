package simworld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonniRodriguez/idea-inc/internal/mutation"
	"github.com/RonniRodriguez/idea-inc/internal/simmodel"
)

func newTestWorld(t *testing.T, cfg Config, seed int64) *World {
	t.Helper()
	w, err := New(simmodel.NewID(), "creator", "test world", "", false, cfg, seed, mutation.Deterministic{}, nil)
	require.NoError(t, err)
	return w
}

func baseConfig(population int, networkType NetworkType, density float64) Config {
	return Config{
		PopulationSize: population,
		NetworkType:    networkType,
		NetworkDensity: density,
		MutationRate:   0,
		DecayRate:      0,
		TimeStepMs:     10,
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(simmodel.NewID(), "c", "w", "", false, Config{PopulationSize: 10}, 1, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// Invariant 1: adjacency is symmetric and agents are never self-connected,
// for every supported network type.
func TestBuildTopology_SymmetricAdjacencyAllNetworkTypes(t *testing.T) {
	for _, nt := range []NetworkType{NetworkScaleFree, NetworkSmallWorld, NetworkRandom, NetworkGeoLocal} {
		nt := nt
		t.Run(nt.String(), func(t *testing.T) {
			w := newTestWorld(t, baseConfig(120, nt, 0.1), 42)
			for _, id := range w.agentIDs {
				a := w.agents[id]
				_, selfLoop := a.Connections[id]
				assert.False(t, selfLoop, "agent must not connect to itself")
				for peer := range a.Connections {
					peerAgent := w.agents[peer]
					_, back := peerAgent.Connections[id]
					assert.True(t, back, "adjacency must be symmetric")
				}
			}
		})
	}
}

func TestInjectIdea_SeedsRequestedAdopters(t *testing.T) {
	w := newTestWorld(t, baseConfig(200, NetworkRandom, 0.05), 1)
	idea, err := w.InjectIdea(InjectParams{CreatorID: "c", Text: "idea", InitialAdopters: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, idea.AdopterCount)

	count := 0
	for _, id := range w.agentIDs {
		if w.agents[id].HasIdea(idea.ID) {
			count++
		}
	}
	assert.Equal(t, 5, count)
}

func TestInjectIdea_RejectsOutOfRangeAdopters(t *testing.T) {
	w := newTestWorld(t, baseConfig(150, NetworkRandom, 0.05), 1)
	_, err := w.InjectIdea(InjectParams{CreatorID: "c", Text: "idea", InitialAdopters: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = w.InjectIdea(InjectParams{CreatorID: "c", Text: "idea", InitialAdopters: 101})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTick_ErrorsWhenNotRunning(t *testing.T) {
	w := newTestWorld(t, baseConfig(100, NetworkRandom, 0.05), 1)
	_, err := w.Tick()
	assert.ErrorIs(t, err, ErrNotRunning)
}

// Invariant 5: counters non-negative, spread_attempts >= adoptions, and
// adoptions+rejections == spread_attempts (checked on the world's
// cumulative totals after the last tick).
func TestTick_CounterInvariants(t *testing.T) {
	cfg := baseConfig(300, NetworkSmallWorld, 0.2)
	cfg.MutationRate = 0.2
	w := newTestWorld(t, cfg, 7)
	require.NoError(t, w.Start())

	idea, err := w.InjectIdea(InjectParams{CreatorID: "c", Text: "idea", InitialAdopters: 10, ViralityScore: ptr(1.0)})
	require.NoError(t, err)
	_ = idea

	for i := 0; i < 20; i++ {
		result, err := w.Tick()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.SpreadAttempts, 0)
		assert.GreaterOrEqual(t, result.Adoptions, 0)
		assert.GreaterOrEqual(t, result.Decays, 0)
		assert.GreaterOrEqual(t, result.Mutations, 0)
		assert.GreaterOrEqual(t, result.SpreadAttempts, result.Adoptions)
		assert.Equal(t, uint64(i+1), result.Step)
	}

	rejections := 0
	for _, i := range w.Ideas() {
		rejections += i.RejectionCount
	}
	assert.Equal(t, w.totalSpreadEvents, w.totalAdoptions+uint64(rejections))
}

// Invariant 2/3: mutation budget and generation/parent consistency hold
// across every idea produced by ticking, including mutated children.
func TestTick_MutationLineageInvariants(t *testing.T) {
	cfg := baseConfig(400, NetworkSmallWorld, 0.3)
	cfg.MutationRate = 1.0
	w := newTestWorld(t, cfg, 3)
	require.NoError(t, w.Start())

	_, err := w.InjectIdea(InjectParams{CreatorID: "c", Text: "idea", InitialAdopters: 20, ViralityScore: ptr(1.0), EmotionalValence: ptr(1.0)})
	require.NoError(t, err)

	for i := 0; i < 15; i++ {
		_, err := w.Tick()
		require.NoError(t, err)
	}

	for _, idea := range w.Ideas() {
		assert.LessOrEqual(t, idea.Lineage.MutationCount, idea.Lineage.MutationBudget)
		if idea.Lineage.Generation == 0 {
			assert.Nil(t, idea.Lineage.ParentID)
		} else {
			assert.NotNil(t, idea.Lineage.ParentID)
		}
	}
}

// S3 (budget): force mutations directly until budget exhausted.
func TestScenario_MutationBudgetExhaustion(t *testing.T) {
	idea := simmodel.NewIdea(simmodel.NewID(), "c", "text", nil, simmodel.Target{})
	idea.Lineage.MutationBudget = 2

	_, err := idea.CreateMutation(simmodel.MutationSimplify, "a", 0, 0)
	require.NoError(t, err)
	_, err = idea.CreateMutation(simmodel.MutationSimplify, "b", 0, 0)
	require.NoError(t, err)
	_, err = idea.CreateMutation(simmodel.MutationSimplify, "c", 0, 0)
	assert.ErrorIs(t, err, simmodel.ErrBudgetExhausted)
	assert.Equal(t, 2, idea.Lineage.MutationCount)
}

// S4 (decay): decay_rate=1.0 forgets every belief in a single tick.
func TestScenario_FullDecayClearsBeliefs(t *testing.T) {
	cfg := baseConfig(100, NetworkRandom, 0.05)
	cfg.DecayRate = 1.0
	w := newTestWorld(t, cfg, 11)
	require.NoError(t, w.Start())

	_, err := w.InjectIdea(InjectParams{CreatorID: "c", Text: "idea", InitialAdopters: 1})
	require.NoError(t, err)

	result, err := w.Tick()
	require.NoError(t, err)
	assert.Equal(t, 0, result.ActiveAgents)
	assert.Equal(t, 0, w.activeAgentCount())
}

// S1 (isolation): near-zero density and a single adopter should barely
// spread over many ticks.
func TestScenario_IsolatedLowDensityBarelySpreads(t *testing.T) {
	cfg := baseConfig(100, NetworkRandom, 0.0001)
	w := newTestWorld(t, cfg, 99)
	require.NoError(t, w.Start())

	idea, err := w.InjectIdea(InjectParams{CreatorID: "c", Text: "idea", InitialAdopters: 1, ViralityScore: ptr(1.0)})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		_, err := w.Tick()
		require.NoError(t, err)
	}

	got, _ := w.Idea(idea.ID)
	assert.LessOrEqual(t, got.AdopterCount, 3)
}

// S2 (saturation): high virality, dense small-world topology, zero decay —
// the idea should reach more than half of the population within a bounded
// number of ticks.
func TestScenario_SaturationApproachesFullPopulation(t *testing.T) {
	cfg := baseConfig(300, NetworkSmallWorld, 0.3)
	w := newTestWorld(t, cfg, 21)
	require.NoError(t, w.Start())

	idea, err := w.InjectIdea(InjectParams{
		CreatorID:        "c",
		Text:             "idea",
		InitialAdopters:  10,
		ViralityScore:    ptr(1.0),
		EmotionalValence: ptr(1.0),
	})
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		_, tickErr := w.Tick()
		require.NoError(t, tickErr)
	}

	got, _ := w.Idea(idea.ID)
	assert.Greater(t, got.AdopterCount, 150)
}

func TestSnapshotAndStats_TotalOnWellFormedWorld(t *testing.T) {
	w := newTestWorld(t, baseConfig(150, NetworkRandom, 0.05), 5)
	snap := w.Snapshot()
	assert.Equal(t, 150, snap.TotalAgents)
	assert.Equal(t, 0, snap.TotalIdeas)

	stats := w.Stats()
	assert.Equal(t, 0.0, stats.Saturation)
	assert.Equal(t, 0.0, stats.AverageR0)
}

func TestLeaderboard_SortedByAdopterCountDescending(t *testing.T) {
	w := newTestWorld(t, baseConfig(500, NetworkSmallWorld, 0.1), 2)
	_, err := w.InjectIdea(InjectParams{CreatorID: "c", Text: "big", InitialAdopters: 20})
	require.NoError(t, err)
	_, err = w.InjectIdea(InjectParams{CreatorID: "c", Text: "small", InitialAdopters: 1})
	require.NoError(t, err)

	board := w.Leaderboard(10)
	require.Len(t, board, 2)
	assert.GreaterOrEqual(t, board[0].Adopters, board[1].Adopters)
	assert.Equal(t, 1, board[0].Rank)
}

func ptr(f float64) *float64 { return &f }
