package simmodel

import (
	"errors"
	"time"
)

// ErrBudgetExhausted is returned by Idea.CreateMutation when the idea has
// no remaining mutation budget (spec §7 BudgetExhausted).
var ErrBudgetExhausted = errors.New("idea: mutation budget exhausted")

// MutationType is the closed catalog of deterministic mutation kinds
// (spec §4.3).
type MutationType uint8

const (
	MutationSimplify MutationType = iota
	MutationEmotionalize
	MutationLocalize
	MutationPolarize
	MutationMemeify
	MutationRandom
)

// MutationTypes lists the closed catalog in order, for uniform sampling.
var MutationTypes = [...]MutationType{
	MutationSimplify, MutationEmotionalize, MutationLocalize,
	MutationPolarize, MutationMemeify, MutationRandom,
}

func (m MutationType) String() string {
	switch m {
	case MutationSimplify:
		return "simplify"
	case MutationEmotionalize:
		return "emotionalize"
	case MutationLocalize:
		return "localize"
	case MutationPolarize:
		return "polarize"
	case MutationMemeify:
		return "memeify"
	case MutationRandom:
		return "random"
	default:
		return "unknown"
	}
}

// ParseMutationType matches a wire-exact mutation kind name against the
// closed catalog, mirroring ParseAgeGroup/ParseRegion/ParseInterest.
func ParseMutationType(s string) (MutationType, bool) {
	for _, m := range MutationTypes {
		if m.String() == s {
			return m, true
		}
	}
	return 0, false
}

// Target describes the demographic axes an idea is aimed at. An empty
// list on any axis means "no constraint on this axis" (spec §3).
type Target struct {
	AgeGroups []AgeGroup
	Interests map[Interest]struct{}
	Regions   []Region
}

// MatchesAgent scores how well the target matches an agent's demographics
// (spec §4.2): each non-empty axis scores 1.0 for an exact match (age,
// region) or |T ∩ interests| / |T| for the interest axis; the result is
// the mean across active axes, or 1.0 if no axis is constrained.
func (t Target) MatchesAgent(age AgeGroup, interests map[Interest]struct{}, region Region) float64 {
	var sum float64
	var axes int

	if len(t.AgeGroups) > 0 {
		axes++
		for _, ag := range t.AgeGroups {
			if ag == age {
				sum += 1.0
				break
			}
		}
	}

	if len(t.Interests) > 0 {
		axes++
		overlap := 0
		for i := range t.Interests {
			if _, ok := interests[i]; ok {
				overlap++
			}
		}
		sum += float64(overlap) / float64(len(t.Interests))
	}

	if len(t.Regions) > 0 {
		axes++
		for _, r := range t.Regions {
			if r == region {
				sum += 1.0
				break
			}
		}
	}

	if axes == 0 {
		return 1.0
	}
	return sum / float64(axes)
}

// Lineage tracks an idea's place in its mutation tree.
type Lineage struct {
	ParentID       *IdeaID
	MutationType   *MutationType
	Generation     int
	MutationCount  int
	MutationBudget int
}

// Idea is a single meme propagating through a World's population.
type Idea struct {
	ID        IdeaID
	CreatorID string // opaque external identifier, not an in-world agent
	WorldID   WorldID

	Text      string
	Tags      map[Interest]struct{}
	MediaRefs []string
	Target    Target

	ViralityScore    float64 // [0,1], default 0.2
	EmotionalValence float64 // [0,1], default 0.5
	Complexity       float64 // [0,1], default 0.3

	Lineage Lineage

	AdopterCount    int
	Reach           int // event counter, not unique-exposure count — see spec §9
	RejectionCount  int

	CreatedAt time.Time
}

// NewIdea constructs an idea with spec-default attributes and a fresh
// mutation budget of 3 (generation 0, no parent).
func NewIdea(worldID WorldID, creatorID string, text string, tags map[Interest]struct{}, target Target) *Idea {
	if tags == nil {
		tags = make(map[Interest]struct{})
	}
	return &Idea{
		ID:               NewID(),
		CreatorID:        creatorID,
		WorldID:          worldID,
		Text:             text,
		Tags:             tags,
		Target:           target,
		ViralityScore:    0.2,
		EmotionalValence: 0.5,
		Complexity:       0.3,
		Lineage: Lineage{
			Generation:     0,
			MutationBudget: 3,
		},
		CreatedAt: time.Now(),
	}
}

// AdoptionRate is adopter_count / reach, 0 when reach is zero (spec §4.6,
// §9 — reach is an event counter so this is not strictly bounded to [0,1]
// when an agent is exposed to the same idea more than once).
func (i *Idea) AdoptionRate() float64 {
	if i.Reach == 0 {
		return 0
	}
	return float64(i.AdopterCount) / float64(i.Reach)
}

// EffectiveVirality applies the complexity discount from spec §4.2:
// virality * (1 - 0.5*complexity).
func (i *Idea) EffectiveVirality() float64 {
	return i.ViralityScore * (1 - 0.5*i.Complexity)
}

// SpreadProbability implements the Idea-side contract from spec §4.2:
//
//	p = effective_virality · sender.influence · receiver.openness
//	    · relevance · trust_factor · (0.5 + 0.5*emotional_valence)
//
// clamped to [0,1]. This is the formula the tick loop uses for spread
// decisions (spec §4.3); the Agent formula in simmodel.Agent is available
// to callers that also want to factor in susceptibility.
func (i *Idea) SpreadProbability(senderInfluence, receiverOpenness, relevance, trustFactor float64) float64 {
	p := i.EffectiveVirality() * senderInfluence * receiverOpenness * relevance *
		trustFactor * (0.5 + 0.5*i.EmotionalValence)
	return clamp01(p)
}

// RecordExposure increments reach — called once per spread attempt,
// regardless of outcome.
func (i *Idea) RecordExposure() {
	i.Reach++
}

// RecordAdoption increments adopter_count.
func (i *Idea) RecordAdoption() {
	i.AdopterCount++
}

// RecordRejection increments rejection_count.
func (i *Idea) RecordRejection() {
	i.RejectionCount++
}

// CanMutate reports whether the idea has remaining mutation budget.
func (i *Idea) CanMutate() bool {
	return i.Lineage.MutationCount < i.Lineage.MutationBudget
}

// CreateMutation produces a child Idea inheriting tags, media refs,
// target, complexity, and mutation budget from the parent (spec §3
// invariant c). Fails with ErrBudgetExhausted if the parent has no
// remaining budget; otherwise increments the parent's mutation count and
// returns a fresh Idea at generation+1 with virality/emotional_valence
// clamped after the given deltas are applied.
func (i *Idea) CreateMutation(kind MutationType, newText string, deltaVirality, deltaEmotional float64) (*Idea, error) {
	if !i.CanMutate() {
		return nil, ErrBudgetExhausted
	}
	i.Lineage.MutationCount++

	parentID := i.ID
	mutKind := kind

	tagsCopy := make(map[Interest]struct{}, len(i.Tags))
	for t := range i.Tags {
		tagsCopy[t] = struct{}{}
	}
	mediaCopy := append([]string(nil), i.MediaRefs...)
	target := Target{
		AgeGroups: append([]AgeGroup(nil), i.Target.AgeGroups...),
		Interests: make(map[Interest]struct{}, len(i.Target.Interests)),
		Regions:   append([]Region(nil), i.Target.Regions...),
	}
	for t := range i.Target.Interests {
		target.Interests[t] = struct{}{}
	}

	return &Idea{
		ID:               NewID(),
		CreatorID:        i.CreatorID,
		WorldID:          i.WorldID,
		Text:             newText,
		Tags:             tagsCopy,
		MediaRefs:        mediaCopy,
		Target:           target,
		ViralityScore:    clamp01(i.ViralityScore + deltaVirality),
		EmotionalValence: clamp01(i.EmotionalValence + deltaEmotional),
		Complexity:       i.Complexity,
		Lineage: Lineage{
			ParentID:       &parentID,
			MutationType:   &mutKind,
			Generation:     i.Lineage.Generation + 1,
			MutationBudget: i.Lineage.MutationBudget,
		},
		CreatedAt: time.Now(),
	}, nil
}
