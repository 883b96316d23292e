package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonniRodriguez/idea-inc/internal/mutation"
	"github.com/RonniRodriguez/idea-inc/internal/simmanager"
	"github.com/RonniRodriguez/idea-inc/internal/simmodel"
	"github.com/RonniRodriguez/idea-inc/internal/simworld"
)

func newSurface() *Surface {
	return New(simmanager.New(0, mutation.Deterministic{}, nil, nil))
}

func smallConfig() simworld.Config {
	return simworld.Config{
		PopulationSize: 100,
		NetworkType:    simworld.NetworkRandom,
		NetworkDensity: 0.05,
		TimeStepMs:     10,
	}
}

func TestCreateWorld_RejectsEmptyName(t *testing.T) {
	s := newSurface()
	_, err := s.CreateWorld(CreateWorldRequest{Name: "", Config: smallConfig()})
	assert.ErrorIs(t, err, simworld.ErrInvalidInput)
}

func TestCreateWorld_RejectsInvalidConfig(t *testing.T) {
	s := newSurface()
	_, err := s.CreateWorld(CreateWorldRequest{Name: "w1", Config: simworld.Config{PopulationSize: 1}})
	assert.ErrorIs(t, err, simworld.ErrInvalidInput)
}

func TestCreateWorld_Succeeds(t *testing.T) {
	s := newSurface()
	w, err := s.CreateWorld(CreateWorldRequest{Name: "w1", CreatorID: "c", Config: smallConfig()})
	require.NoError(t, err)
	assert.Equal(t, "w1", w.Name)
}

func TestInjectIdea_RejectsEmptyText(t *testing.T) {
	s := newSurface()
	w, err := s.CreateWorld(CreateWorldRequest{Name: "w1", CreatorID: "c", Config: smallConfig()})
	require.NoError(t, err)

	_, err = s.InjectIdea(InjectIdeaRequest{WorldID: w.ID, CreatorID: "c", Text: "", InitialAdopters: 1})
	assert.ErrorIs(t, err, simworld.ErrInvalidInput)
}

func TestInjectIdea_RejectsOutOfRangeAdopters(t *testing.T) {
	s := newSurface()
	w, err := s.CreateWorld(CreateWorldRequest{Name: "w1", CreatorID: "c", Config: smallConfig()})
	require.NoError(t, err)

	_, err = s.InjectIdea(InjectIdeaRequest{WorldID: w.ID, CreatorID: "c", Text: "idea", InitialAdopters: 0})
	assert.ErrorIs(t, err, simworld.ErrInvalidInput)
}

func TestInjectIdea_DropsUnknownCatalogStrings(t *testing.T) {
	s := newSurface()
	w, err := s.CreateWorld(CreateWorldRequest{Name: "w1", CreatorID: "c", Config: smallConfig()})
	require.NoError(t, err)

	idea, err := s.InjectIdea(InjectIdeaRequest{
		WorldID:         w.ID,
		CreatorID:       "c",
		Text:            "idea",
		InitialAdopters: 1,
		TargetAgeGroups: []string{"not-a-group"},
		TargetRegions:   []string{"MARS"},
		TargetInterests: []string{"nonsense"},
	})
	require.NoError(t, err)
	assert.Empty(t, idea.Target.AgeGroups)
	assert.Empty(t, idea.Target.Regions)
	assert.Empty(t, idea.Target.Interests)
}

func TestInjectIdea_NotFoundForUnknownWorld(t *testing.T) {
	s := newSurface()
	_, err := s.InjectIdea(InjectIdeaRequest{WorldID: simmodel.NewID(), CreatorID: "c", Text: "idea", InitialAdopters: 1})
	assert.ErrorIs(t, err, simworld.ErrNotFound)
}

func TestListIdeas_SortsByRequestedKey(t *testing.T) {
	s := newSurface()
	w, err := s.CreateWorld(CreateWorldRequest{Name: "w1", CreatorID: "c", Config: smallConfig()})
	require.NoError(t, err)

	_, err = s.InjectIdea(InjectIdeaRequest{WorldID: w.ID, CreatorID: "c", Text: "big", InitialAdopters: 10})
	require.NoError(t, err)
	_, err = s.InjectIdea(InjectIdeaRequest{WorldID: w.ID, CreatorID: "c", Text: "small", InitialAdopters: 1})
	require.NoError(t, err)

	byAdopters, err := s.ListIdeas(w.ID, 10, SortByAdopters)
	require.NoError(t, err)
	require.Len(t, byAdopters, 2)
	assert.GreaterOrEqual(t, byAdopters[0].AdopterCount, byAdopters[1].AdopterCount)
}

func TestListIdeas_ClampsLimit(t *testing.T) {
	s := newSurface()
	w, err := s.CreateWorld(CreateWorldRequest{Name: "w1", CreatorID: "c", Config: smallConfig()})
	require.NoError(t, err)
	_, err = s.InjectIdea(InjectIdeaRequest{WorldID: w.ID, CreatorID: "c", Text: "idea", InitialAdopters: 1})
	require.NoError(t, err)

	ideas, err := s.ListIdeas(w.ID, 0, SortByAdopters)
	require.NoError(t, err)
	assert.Len(t, ideas, 1)

	ideas, err = s.ListIdeas(w.ID, 1000, SortByAdopters)
	require.NoError(t, err)
	assert.Len(t, ideas, 1)
}

func TestGetLeaderboardAndStats_NotFound(t *testing.T) {
	s := newSurface()
	_, err := s.GetLeaderboard(simmodel.NewID(), 10)
	assert.ErrorIs(t, err, simworld.ErrNotFound)

	_, err = s.GetStats(simmodel.NewID())
	assert.ErrorIs(t, err, simworld.ErrNotFound)
}

func TestDeleteWorld_Idempotent(t *testing.T) {
	s := newSurface()
	w, err := s.CreateWorld(CreateWorldRequest{Name: "w1", CreatorID: "c", Config: smallConfig()})
	require.NoError(t, err)

	require.NoError(t, s.DeleteWorld(w.ID))
	require.NoError(t, s.DeleteWorld(w.ID))

	_, err = s.GetWorld(w.ID)
	assert.ErrorIs(t, err, simworld.ErrNotFound)
}
