package candidate

import (
	"iter"
	"strings"
)

// SimpleList is the default first-layer list: common words followed by
// base words with short numeric suffixes.
func SimpleList() []string {
	list := []string{"start", "start123", "begin", "begin123", "layer1", "password", "123456", "welcome", "hello", "first"}
	for _, base := range []string{"start", "begin", "first"} {
		for _, suffix := range []string{"1", "12", "123", "2024", "2023"} {
			list = append(list, base+suffix)
		}
	}
	return list
}

// Policy maps a layer index to the strategies tried for it.
type Policy struct {
	// Static is the first-layer list.
	Static []string
	// Overrides replaces the default strategy of specific layers.
	Overrides map[int]Strategy
	// BaseWords adds a mutation strategy per word to every plan.
	BaseWords []string
	// NumericFallback appends a numeric brute force of this length.
	NumericFallback int
	// KnowledgeLimit caps each knowledge-derived strategy.
	KnowledgeLimit int
	// Year pins mutation years.
	Year int
}

func DefaultPolicy() Policy {
	return Policy{Static: SimpleList(), KnowledgeLimit: MaxKnowledgeCandidates}
}

// Default is the strategy used for layer when no hint is available.
func (p Policy) Default(layer int) Strategy {
	if s, ok := p.Overrides[layer]; ok {
		return s
	}
	var s Strategy
	switch {
	case layer <= 1:
		s = Static(p.Static...)
	case layer == 2:
		s = Knowledge("", DomainScientists)
	default:
		s = Knowledge("", DomainLandmarks)
	}
	s.Limit = p.KnowledgeLimit
	return s
}

// PlanFor builds the plan for layer. A non-blank hint puts a
// knowledge-derived strategy ahead of the layer default.
func (p Policy) PlanFor(layer int, hint string) Plan {
	plan := Plan{Layer: layer}
	if strings.TrimSpace(hint) != "" {
		k := Knowledge(hint)
		k.Limit = p.KnowledgeLimit
		plan.Strategies = append(plan.Strategies, k)
	}
	plan.Strategies = append(plan.Strategies, p.Default(layer))
	for _, w := range p.BaseWords {
		m := Mutation(w)
		m.Year = p.Year
		plan.Strategies = append(plan.Strategies, m)
	}
	if p.NumericFallback > 0 {
		plan.Strategies = append(plan.Strategies, Numeric(p.NumericFallback))
	}
	return plan
}

// Plan is the ordered strategy list for one layer.
type Plan struct {
	Layer      int
	Strategies []Strategy
}

func (p Plan) Name() string {
	names := make([]string, 0, len(p.Strategies))
	for _, s := range p.Strategies {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

// Candidates concatenates every strategy's sequence, dropping repeats.
// Numeric output is unique by construction and is only checked against
// earlier strategies, never remembered.
func (p Plan) Candidates() iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]struct{})
		for _, s := range p.Strategies {
			remember := s.Kind != KindNumeric
			for c := range Generate(s) {
				if _, ok := seen[c]; ok {
					continue
				}
				if remember {
					seen[c] = struct{}{}
				}
				if !yield(c) {
					return
				}
			}
		}
	}
}
