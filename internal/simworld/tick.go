package simworld

import (
	"fmt"
	"time"

	"github.com/RonniRodriguez/idea-inc/internal/mutation"
	"github.com/RonniRodriguez/idea-inc/internal/simmodel"
)

// ErrNotRunning is returned by Tick when the world is not RUNNING (spec
// §4.3 "Failure modes").
var ErrNotRunning = fmt.Errorf("%w: run_step called while world is not running", ErrInvalidStateTransition)

// Tick executes one full application of the propagation + decay algorithm
// (spec §4.3) and returns its StepResult. Holds w.mu for the whole
// operation: this is what makes control operations and ticks mutually
// exclusive on a world (spec §5 ordering guarantee c) and makes a
// snapshot taken between ticks observe a clean tick boundary (guarantee
// b). A tick either fully completes and commits current_step, or it
// returns before touching any shared state — never partially.
func (w *World) Tick() (StepResult, error) {
	start := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.status != StatusRunning {
		return StepResult{}, ErrNotRunning
	}

	spreaders := w.shuffledSpreaders()

	var spreadAttempts, adoptions, mutations int

	for _, s := range spreaders {
		beliefs := make([]simmodel.IdeaID, 0, len(s.Beliefs))
		for id := range s.Beliefs {
			beliefs = append(beliefs, id)
		}

		for _, ideaID := range beliefs {
			idea, ok := w.ideas[ideaID]
			if !ok {
				continue
			}

			for neighborID := range s.Connections {
				r := w.agents[neighborID]
				if r.HasIdea(ideaID) {
					continue
				}

				rel := r.IdeaRelevance(idea.Tags)
				p := idea.SpreadProbability(s.Profile.Influence, r.Profile.Openness, rel, 1.0)

				idea.RecordExposure()
				r.Expose(ideaID)
				spreadAttempts++

				accepted := w.rng.Float64() < p
				w.recordEvent(SpreadEvent{
					IdeaID:      ideaID,
					FromAgent:   s.ID,
					ToAgent:     r.ID,
					Probability: p,
					Accepted:    accepted,
					Step:        w.currentStep,
					Timestamp:   time.Now(),
				})

				if accepted {
					r.Adopt(ideaID)
					idea.RecordAdoption()
					w.totalAdoptions++
					adoptions++

					if idea.CanMutate() && w.rng.Float64() < w.Config.MutationRate {
						if w.triggerMutation(idea) {
							mutations++
							w.totalMutations++
						}
					}
				} else {
					r.Reject()
					idea.RecordRejection()
				}
			}
		}
	}

	w.totalSpreadEvents += uint64(spreadAttempts)

	decays := w.decayPass()
	w.updateTrendSignal()

	w.currentStep++
	step := w.currentStep
	if w.Config.MaxSteps != nil && int(step) >= *w.Config.MaxSteps {
		w.status = StatusCompleted
		w.CompletedAt = time.Now()
	}

	return StepResult{
		Step:           step,
		SpreadAttempts: spreadAttempts,
		Adoptions:      adoptions,
		Mutations:      mutations,
		Decays:         decays,
		DurationMs:     float64(time.Since(start)) / float64(time.Millisecond),
		ActiveAgents:   w.activeAgentCount(),
	}, nil
}

// shuffledSpreaders returns every agent with a nonempty belief set, in a
// uniformly shuffled order (spec §4.3 step 1).
func (w *World) shuffledSpreaders() []*simmodel.Agent {
	var spreaders []*simmodel.Agent
	for _, id := range w.agentIDs {
		a := w.agents[id]
		if len(a.Beliefs) > 0 {
			spreaders = append(spreaders, a)
		}
	}
	perm := w.rng.Perm(len(spreaders))
	shuffled := make([]*simmodel.Agent, len(spreaders))
	for i, p := range perm {
		shuffled[i] = spreaders[p]
	}
	return shuffled
}

// tickMutator is the in-process deterministic transform the propagation
// path always uses — never the world's (possibly LLM-backed) mutator
// field, per spec §4.5: "the engine does not wait on the provider during a
// tick ... mutation in the propagation path uses only the deterministic
// in-process transform ... to keep tick latency bounded." A pluggable,
// possibly out-of-process mutation.Provider is reserved for an explicit,
// off-tick operation — see RemixIdea.
var tickMutator mutation.Deterministic

// triggerMutation implements the deterministic built-in mutation trigger
// (spec §4.3): pick a kind uniformly, produce (text, Δv, Δe), and commit
// via Idea.CreateMutation. Returns false (no-op) if the idea's budget is
// already exhausted.
func (w *World) triggerMutation(idea *simmodel.Idea) bool {
	kind := simmodel.MutationTypes[w.rng.Intn(len(simmodel.MutationTypes))]
	result := tickMutator.Mutate(idea, kind, w.rng)

	child, err := idea.CreateMutation(result.Kind, result.Text, result.DeltaVirality, result.DeltaEmotional)
	if err != nil {
		return false
	}
	w.ideas[child.ID] = child
	return true
}

// decayPass implements spec §4.3 step 3: for every agent, for every
// belief, forget it with probability decay_rate.
func (w *World) decayPass() int {
	decays := 0
	rate := w.Config.DecayRate
	if rate <= 0 {
		return 0
	}
	for _, id := range w.agentIDs {
		a := w.agents[id]
		var toForget []simmodel.IdeaID
		for ideaID := range a.Beliefs {
			if w.rng.Float64() < rate {
				toForget = append(toForget, ideaID)
			}
		}
		for _, ideaID := range toForget {
			a.Forget(ideaID)
			decays++
		}
	}
	return decays
}

func (w *World) activeAgentCount() int {
	n := 0
	for _, id := range w.agentIDs {
		if len(w.agents[id].Beliefs) > 0 {
			n++
		}
	}
	return n
}
