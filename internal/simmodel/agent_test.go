package simmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgent_AddConnection_NoSelfLoop(t *testing.T) {
	a := NewAgent(NewID(), Profile{})
	a.AddConnection(a.ID)
	assert.Empty(t, a.Connections)
}

func TestAgent_AddConnection(t *testing.T) {
	a := NewAgent(NewID(), Profile{})
	other := NewID()
	a.AddConnection(other)
	assert.Contains(t, a.Connections, other)
	a.RemoveConnection(other)
	assert.NotContains(t, a.Connections, other)
}

func TestAgent_AdoptIsIdempotent(t *testing.T) {
	a := NewAgent(NewID(), Profile{})
	idea := NewID()

	require.True(t, a.Adopt(idea))
	require.False(t, a.Adopt(idea))
	assert.Equal(t, uint64(1), a.State.AdoptionCount)
}

func TestAgent_AdoptDecreasesSusceptibilityWithFloor(t *testing.T) {
	a := NewAgent(NewID(), Profile{})
	a.State.Susceptibility = 0.11
	a.Adopt(NewID())
	assert.InDelta(t, 0.1045, a.State.Susceptibility, 1e-9)

	a.State.Susceptibility = 0.1001
	a.Adopt(NewID())
	assert.Equal(t, 0.1, a.State.Susceptibility)
}

func TestAgent_RejectRaisesSusceptibilityWithCeiling(t *testing.T) {
	a := NewAgent(NewID(), Profile{})
	a.State.Susceptibility = 0.5
	a.Reject()
	assert.InDelta(t, 0.51, a.State.Susceptibility, 1e-9)

	a.State.Susceptibility = 0.89
	a.Reject()
	assert.Equal(t, 0.9, a.State.Susceptibility)
}

func TestAgent_ForgetReturnsWhetherPresent(t *testing.T) {
	a := NewAgent(NewID(), Profile{})
	idea := NewID()
	assert.False(t, a.Forget(idea))
	a.Adopt(idea)
	assert.True(t, a.Forget(idea))
	assert.False(t, a.HasIdea(idea))
}

func TestAgent_Expose(t *testing.T) {
	a := NewAgent(NewID(), Profile{})
	idea := NewID()
	assert.Equal(t, uint64(1), a.Expose(idea))
	assert.Equal(t, uint64(2), a.Expose(idea))
	assert.Equal(t, uint64(2), a.State.ExposureCount)
}

func TestAgent_IdeaRelevance(t *testing.T) {
	interests := map[Interest]struct{}{InterestTech: {}, InterestMusic: {}}
	a := NewAgent(NewID(), Profile{Interests: interests})

	t.Run("empty tags returns 0.3", func(t *testing.T) {
		assert.Equal(t, 0.3, a.IdeaRelevance(map[Interest]struct{}{}))
	})

	t.Run("zero overlap returns 0.2", func(t *testing.T) {
		tags := map[Interest]struct{}{InterestSports: {}}
		assert.Equal(t, 0.2, a.IdeaRelevance(tags))
	})

	t.Run("partial overlap scales with max cardinality", func(t *testing.T) {
		tags := map[Interest]struct{}{InterestTech: {}, InterestSports: {}, InterestFood: {}}
		got := a.IdeaRelevance(tags)
		assert.InDelta(t, 0.2+0.8*1.0/3.0, got, 1e-9)
	})

	t.Run("no interests returns 0.3", func(t *testing.T) {
		bare := NewAgent(NewID(), Profile{})
		assert.Equal(t, 0.3, bare.IdeaRelevance(map[Interest]struct{}{InterestTech: {}}))
	})
}

func TestAgent_AdoptionProbabilityClampedToUnitInterval(t *testing.T) {
	a := NewAgent(NewID(), Profile{Openness: 1})
	a.State.Susceptibility = 1

	p := a.AdoptionProbability(1, 1, 1, 1, 1)
	assert.InDelta(t, 1.0, p, 1e-9)

	p = a.AdoptionProbability(0, 1, 1, 1, 1)
	assert.Equal(t, 0.0, p)

	p = a.AdoptionProbability(2, 2, 2, 2, 2)
	assert.LessOrEqual(t, p, 1.0)
}
