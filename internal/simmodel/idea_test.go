package simmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdea_Defaults(t *testing.T) {
	idea := NewIdea(NewID(), "creator-1", "hello world", nil, Target{})
	assert.Equal(t, 0.2, idea.ViralityScore)
	assert.Equal(t, 0.5, idea.EmotionalValence)
	assert.Equal(t, 0.3, idea.Complexity)
	assert.Equal(t, 0, idea.Lineage.Generation)
	assert.Nil(t, idea.Lineage.ParentID)
	assert.Equal(t, 3, idea.Lineage.MutationBudget)
}

func TestIdea_CanMutateAndBudget(t *testing.T) {
	idea := NewIdea(NewID(), "c", "text", nil, Target{})
	idea.Lineage.MutationBudget = 2

	child1, err := idea.CreateMutation(MutationSimplify, "a", 0.1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, idea.Lineage.MutationCount)
	assert.Equal(t, 1, child1.Lineage.Generation)
	assert.Equal(t, idea.ID, *child1.Lineage.ParentID)

	_, err = idea.CreateMutation(MutationSimplify, "b", 0.1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, idea.Lineage.MutationCount)
	assert.False(t, idea.CanMutate())

	_, err = idea.CreateMutation(MutationSimplify, "c", 0.1, 0)
	assert.ErrorIs(t, err, ErrBudgetExhausted)
	assert.Equal(t, 2, idea.Lineage.MutationCount)
}

func TestIdea_CreateMutation_ClampsAttributes(t *testing.T) {
	idea := NewIdea(NewID(), "c", "text", nil, Target{})
	idea.ViralityScore = 0.95
	idea.EmotionalValence = 0.05

	child, err := idea.CreateMutation(MutationPolarize, "polarized", 0.5, -0.5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, child.ViralityScore)
	assert.Equal(t, 0.0, child.EmotionalValence)
}

func TestIdea_CreateMutation_InheritsSharedFields(t *testing.T) {
	target := Target{Regions: []Region{RegionEU}, Interests: map[Interest]struct{}{InterestTech: {}}}
	idea := NewIdea(NewID(), "c", "text", map[Interest]struct{}{InterestTech: {}}, target)
	idea.MediaRefs = []string{"img.png"}
	idea.Complexity = 0.7
	idea.Lineage.MutationBudget = 5

	child, err := idea.CreateMutation(MutationLocalize, "t", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, idea.Tags, child.Tags)
	assert.Equal(t, idea.MediaRefs, child.MediaRefs)
	assert.Equal(t, idea.Target, child.Target)
	assert.Equal(t, idea.Complexity, child.Complexity)
	assert.Equal(t, idea.Lineage.MutationBudget, child.Lineage.MutationBudget)
}

func TestIdea_AdoptionRate(t *testing.T) {
	idea := NewIdea(NewID(), "c", "text", nil, Target{})
	assert.Equal(t, 0.0, idea.AdoptionRate())

	idea.Reach = 4
	idea.AdopterCount = 2
	assert.Equal(t, 0.5, idea.AdoptionRate())
}

func TestIdea_EffectiveViralityAndSpreadProbability(t *testing.T) {
	idea := NewIdea(NewID(), "c", "text", nil, Target{})
	idea.ViralityScore = 1.0
	idea.Complexity = 0.5
	idea.EmotionalValence = 1.0

	assert.InDelta(t, 0.75, idea.EffectiveVirality(), 1e-9)

	p := idea.SpreadProbability(1, 1, 1, 1)
	assert.InDelta(t, 0.75, p, 1e-9)

	p = idea.SpreadProbability(0, 1, 1, 1)
	assert.Equal(t, 0.0, p)
}

func TestTarget_MatchesAgent(t *testing.T) {
	t.Run("no active axes matches everything", func(t *testing.T) {
		target := Target{}
		assert.Equal(t, 1.0, target.MatchesAgent(Age18to24, nil, RegionNA))
	})

	t.Run("age and region exact match", func(t *testing.T) {
		target := Target{AgeGroups: []AgeGroup{Age18to24}, Regions: []Region{RegionNA}}
		assert.Equal(t, 1.0, target.MatchesAgent(Age18to24, nil, RegionNA))
		assert.Equal(t, 0.0, target.MatchesAgent(Age25to34, nil, RegionEU))
	})

	t.Run("interest overlap averages with other axes", func(t *testing.T) {
		target := Target{
			AgeGroups: []AgeGroup{Age18to24},
			Interests: map[Interest]struct{}{InterestTech: {}, InterestMusic: {}},
		}
		interests := map[Interest]struct{}{InterestTech: {}}
		got := target.MatchesAgent(Age18to24, interests, RegionNA)
		assert.InDelta(t, (1.0+0.5)/2.0, got, 1e-9)
	})
}

func TestMutationType_ParseRoundTrip(t *testing.T) {
	for _, m := range MutationTypes {
		parsed, ok := ParseMutationType(m.String())
		require.True(t, ok)
		assert.Equal(t, m, parsed)
	}
	_, ok := ParseMutationType("not-a-kind")
	assert.False(t, ok)
}
