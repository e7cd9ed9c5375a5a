package candidate

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"

	"layercrack/hints"
)

var (
	quotedPattern     = regexp.MustCompile(`["“]([A-Za-z0-9_@#!$-]{2,32})["”]|'([A-Za-z0-9_@#!$-]{2,32})'`)
	arithmeticPattern = regexp.MustCompile(`(?i)\b(\d{1,4})\s*(squared|cubed|\^\s*2|\^\s*3)`)
	digitRun          = regexp.MustCompile(`\d+`)
	nonWord           = regexp.MustCompile(`[^a-z0-9]+`)
)

type triggerIndex struct {
	matcher *ahocorasick.Matcher
	facts   []int // trigger position -> fact index
}

var lexiconTriggers = sync.OnceValue(func() triggerIndex {
	var (
		terms []string
		facts []int
	)
	for i, f := range Lexicon {
		for _, t := range f.Triggers {
			terms = append(terms, " "+normalize(t)+" ")
			facts = append(facts, i)
		}
	}
	return triggerIndex{matcher: ahocorasick.NewStringMatcher(terms), facts: facts}
})

// normalize lowercases s and folds every non-alphanumeric run into a single
// space so that padded trigger terms only match whole words.
func normalize(s string) string {
	return strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(s), " "))
}

type knowledge struct {
	quoted    []string
	pairs     [][2]string
	words     []string
	elements  []string
	numbers   []string
	symbols   []string
	lowercase bool
}

func (k *knowledge) addFact(f Fact) {
	k.words = append(k.words, f.Words...)
	k.elements = append(k.elements, f.Elements...)
	k.numbers = append(k.numbers, f.Numbers...)
	k.symbols = append(k.symbols, f.Symbols...)
	for _, w := range f.Words {
		for _, n := range f.Numbers {
			k.pairs = append(k.pairs, [2]string{w, n})
		}
	}
}

func (k *knowledge) empty() bool {
	return len(k.quoted) == 0 && len(k.words) == 0 && len(k.numbers) == 0 && len(k.elements) == 0
}

// mine extracts lexicon facts, arithmetic results, literal numbers, quoted
// words and coordinate matches from hint, then activates whole domains.
func mine(hint string, domains []string) knowledge {
	var k knowledge
	active := make(map[int]bool)

	if strings.TrimSpace(hint) != "" {
		norm := " " + normalize(hint) + " "
		k.lowercase = strings.Contains(norm, " lowercase ") || strings.Contains(norm, " lower case ")

		for _, m := range quotedPattern.FindAllStringSubmatch(hint, -1) {
			q := m[1]
			if q == "" {
				q = m[2]
			}
			k.quoted = append(k.quoted, q)
		}

		idx := lexiconTriggers()
		for _, hit := range idx.matcher.MatchThreadSafe([]byte(norm)) {
			if hit >= 0 && hit < len(idx.facts) {
				active[idx.facts[hit]] = true
			}
		}
		for _, c := range hints.FindCoordinates(hint) {
			for i, f := range Lexicon {
				if f.Area != nil && f.Area.Contains(c.Lat, c.Lon) {
					active[i] = true
				}
			}
		}
		for i, f := range Lexicon {
			if active[i] {
				k.addFact(f)
			}
		}

		for _, m := range arithmeticPattern.FindAllStringSubmatch(hint, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			op := strings.ToLower(strings.ReplaceAll(m[2], " ", ""))
			switch op {
			case "squared", "^2":
				k.numbers = append(k.numbers, strconv.Itoa(n*n))
			case "cubed", "^3":
				k.numbers = append(k.numbers, strconv.Itoa(n*n*n))
			}
		}
		k.numbers = append(k.numbers, literalNumbers(hint)...)
	}

	for i, f := range Lexicon {
		if !active[i] && slices.Contains(domains, f.Domain) && f.Domain != "" {
			k.addFact(f)
		}
	}

	k.quoted = dedup(k.quoted)
	k.words = dedup(k.words)
	k.elements = dedup(k.elements)
	k.numbers = dedup(k.numbers)
	k.symbols = dedup(k.symbols)
	return k
}

// literalNumbers returns the standalone 1-4 digit numbers in text. Runs
// touching a dot (list markers, decimals) are skipped.
func literalNumbers(text string) []string {
	var out []string
	for _, loc := range digitRun.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if end-start > 4 {
			continue
		}
		if start > 0 && text[start-1] == '.' {
			continue
		}
		if end < len(text) && text[end] == '.' {
			continue
		}
		out = append(out, text[start:end])
	}
	return out
}

type collector struct {
	seen  map[string]struct{}
	out   []string
	limit int
}

func (c *collector) add(s string) bool {
	if len(c.out) >= c.limit {
		return false
	}
	if s == "" {
		return true
	}
	if _, ok := c.seen[s]; ok {
		return true
	}
	c.seen[s] = struct{}{}
	c.out = append(c.out, s)
	return len(c.out) < c.limit
}

// Derive assembles knowledge-derived candidates from hint and the named
// lexicon domains, capped at limit (and never above MaxKnowledgeCandidates).
func Derive(hint string, domains []string, limit int) []string {
	if limit <= 0 || limit > MaxKnowledgeCandidates {
		limit = MaxKnowledgeCandidates
	}
	k := mine(hint, domains)
	if k.empty() {
		return nil
	}
	c := &collector{seen: make(map[string]struct{}), limit: limit}
	assemble(k, c)
	return c.out
}

func assemble(k knowledge, c *collector) {
	for _, q := range k.quoted {
		for _, m := range Mutations(q, 0) {
			if !c.add(m) {
				return
			}
		}
	}
	for _, p := range k.pairs {
		w, n := p[0], p[1]
		forms := []string{w + n}
		if !k.lowercase {
			forms = append(forms, capitalize(w)+n)
		}
		if len(n) == 4 {
			forms = append(forms, w+n[2:])
		}
		for _, s := range forms {
			if !c.add(s) {
				return
			}
		}
	}
	if len(k.elements) > 0 && len(k.symbols) > 0 {
		for _, w := range k.words {
			for _, e := range k.elements {
				for _, n := range k.numbers {
					for _, s := range k.symbols {
						if !c.add(w + e + n + s) {
							return
						}
					}
				}
			}
		}
	}
	if len(k.symbols) > 0 {
		for _, w := range k.words {
			for _, n := range k.numbers {
				for _, s := range k.symbols {
					if !c.add(w + n + s) {
						return
					}
				}
			}
		}
	}
	if len(k.elements) > 0 {
		for _, w := range k.words {
			for _, e := range k.elements {
				for _, n := range k.numbers {
					if !c.add(w + e + n) {
						return
					}
				}
			}
		}
	}
	for _, w := range k.words {
		for _, n := range k.numbers {
			if !c.add(w + n) {
				return
			}
		}
	}
	for _, w := range k.words {
		if !c.add(w) {
			return
		}
		if !k.lowercase && !c.add(capitalize(w)) {
			return
		}
	}
	for _, n := range k.numbers {
		if !c.add(n) {
			return
		}
		for _, s := range k.symbols {
			if !c.add(n + s) {
				return
			}
		}
	}
}
