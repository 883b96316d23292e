// Package mutation provides idea mutation: deterministic templated rewrites
// and an optional LLM-backed rewrite that falls back to the deterministic
// path on any error. See internal/simworld for where mutation is triggered
// during a tick.
package mutation

import (
	"math/rand"

	"github.com/RonniRodriguez/idea-inc/internal/simmodel"
)

// Result is what a Provider produces for a single mutation attempt.
type Result struct {
	Kind           simmodel.MutationType
	Text           string
	DeltaVirality  float64
	DeltaEmotional float64
}

// Provider produces a mutated idea from a parent. The tick's propagation
// path never calls a Provider (it uses Deterministic directly); a World's
// Provider is called only by the off-tick RemixIdea, where an
// implementation may block on external I/O — see the LLM wrapper in
// llm.go.
type Provider interface {
	Mutate(parent *simmodel.Idea, kind simmodel.MutationType, rng *rand.Rand) Result
}

// Deterministic is the built-in, always-available Provider. It never
// errors and never calls out over the network — this is the provider the
// tick loop uses directly, and the fallback target for any decorated
// provider (e.g. the LLM-backed one in llm.go).
type Deterministic struct{}

// Mutate applies the fixed per-kind template and attribute deltas from
// the mutation table (spec §4.3): each of the six kinds has a literal
// text transform and fixed deltas, except RANDOM whose deltas are each
// drawn uniformly from [-0.05, 0.10].
func (Deterministic) Mutate(parent *simmodel.Idea, kind simmodel.MutationType, rng *rand.Rand) Result {
	switch kind {
	case simmodel.MutationSimplify:
		return Result{Kind: kind, Text: "[Simplified] " + truncate(parent.Text, 100) + "…", DeltaVirality: 0.05, DeltaEmotional: 0}
	case simmodel.MutationEmotionalize:
		return Result{Kind: kind, Text: "[Emotional] " + parent.Text, DeltaVirality: 0.02, DeltaEmotional: 0.10}
	case simmodel.MutationLocalize:
		return Result{Kind: kind, Text: regionalMarker(parent) + parent.Text, DeltaVirality: 0.02, DeltaEmotional: 0}
	case simmodel.MutationPolarize:
		return Result{Kind: kind, Text: "[Polarized] " + parent.Text, DeltaVirality: 0.08, DeltaEmotional: 0.15}
	case simmodel.MutationMemeify:
		return Result{Kind: kind, Text: "[Meme] " + truncate(parent.Text, 50) + "… 🔥", DeltaVirality: 0.10, DeltaEmotional: 0.05}
	case simmodel.MutationRandom:
		return Result{
			Kind:           kind,
			Text:           "[Variant] " + parent.Text,
			DeltaVirality:  -0.05 + rng.Float64()*0.15,
			DeltaEmotional: -0.05 + rng.Float64()*0.15,
		}
	default:
		return Result{Kind: simmodel.MutationSimplify, Text: "[Simplified] " + truncate(parent.Text, 100) + "…", DeltaVirality: 0.05, DeltaEmotional: 0}
	}
}

func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n]
}

// regionalMarker prefixes the idea's primary target region, falling back
// to a generic marker when the idea has no region constraint.
func regionalMarker(idea *simmodel.Idea) string {
	if len(idea.Target.Regions) == 0 {
		return "[Local] "
	}
	return "[" + idea.Target.Regions[0].String() + "] "
}
