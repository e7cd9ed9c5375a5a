// Package candidate produces ordered, finite password candidate sequences.
package candidate

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindStatic    Kind = "static"
	KindMutation  Kind = "mutation"
	KindNumeric   Kind = "numeric"
	KindKnowledge Kind = "knowledge"
)

// MaxKnowledgeCandidates is the hard ceiling on knowledge-derived output.
const MaxKnowledgeCandidates = 10000

// Strategy is a tagged variant; only the fields relevant to Kind are read.
type Strategy struct {
	Kind Kind

	// static
	List []string

	// mutation
	Base string
	Year int // 0 means the current year

	// numeric
	MaxLength int

	// knowledge
	Hint    string
	Domains []string
	Limit   int // 0 or anything above MaxKnowledgeCandidates means the ceiling
}

func Static(list ...string) Strategy {
	return Strategy{Kind: KindStatic, List: append([]string(nil), list...)}
}

func Mutation(base string) Strategy {
	return Strategy{Kind: KindMutation, Base: base}
}

func Numeric(maxLength int) Strategy {
	return Strategy{Kind: KindNumeric, MaxLength: maxLength}
}

// Knowledge mines hint and always activates the named lexicon domains.
func Knowledge(hint string, domains ...string) Strategy {
	return Strategy{Kind: KindKnowledge, Hint: hint, Domains: append([]string(nil), domains...)}
}

func (s Strategy) Name() string {
	switch s.Kind {
	case KindStatic:
		return fmt.Sprintf("static(%d)", len(s.List))
	case KindMutation:
		return fmt.Sprintf("mutation(%s)", s.Base)
	case KindNumeric:
		return fmt.Sprintf("numeric(%d)", s.MaxLength)
	case KindKnowledge:
		var parts []string
		if strings.TrimSpace(s.Hint) != "" {
			parts = append(parts, "hint")
		}
		parts = append(parts, s.Domains...)
		return fmt.Sprintf("knowledge(%s)", strings.Join(parts, ","))
	default:
		return string(s.Kind)
	}
}

func (s Strategy) knowledgeLimit() int {
	if s.Limit <= 0 || s.Limit > MaxKnowledgeCandidates {
		return MaxKnowledgeCandidates
	}
	return s.Limit
}
