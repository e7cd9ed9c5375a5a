package candidate

import (
	"iter"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Generate returns the lazy candidate sequence for s. Unknown kinds and
// empty parameters yield an empty sequence.
func Generate(s Strategy) iter.Seq[string] {
	switch s.Kind {
	case KindStatic:
		return slices.Values(s.List)
	case KindMutation:
		return slices.Values(Mutations(s.Base, s.Year))
	case KindNumeric:
		return NumericSeq(s.MaxLength)
	case KindKnowledge:
		return slices.Values(Derive(s.Hint, s.Domains, s.knowledgeLimit()))
	default:
		return func(func(string) bool) {}
	}
}

// Collect materializes Generate(s).
func Collect(s Strategy) []string {
	return slices.Collect(Generate(s))
}

// Mutations expands base into its fixed variant set, in order, keeping the
// first occurrence of each string. year 0 uses the current year.
func Mutations(base string, year int) []string {
	if base == "" {
		return nil
	}
	if year == 0 {
		year = time.Now().Year()
	}
	raw := []string{
		base,
		strings.ToUpper(base),
		strings.ToLower(base),
		capitalize(base),
		base + "1",
		base + "123",
		base + strconv.Itoa(year-1),
		base + strconv.Itoa(year),
		base + strconv.Itoa(year+1),
		"1" + base,
		base + "!",
		base + "@",
		strings.ReplaceAll(base, "a", "@"),
		strings.ReplaceAll(base, "o", "0"),
		strings.ReplaceAll(base, "e", "3"),
		strings.ReplaceAll(base, "i", "1"),
		reverse(base),
	}
	return dedup(raw)
}

// NumericSeq yields every digit string of length 1..maxLength, shorter
// lengths first and lexicographic within a length.
func NumericSeq(maxLength int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for length := 1; length <= maxLength; length++ {
			digits := make([]byte, length)
			for i := range digits {
				digits[i] = '0'
			}
			for {
				if !yield(string(digits)) {
					return
				}
				i := length - 1
				for i >= 0 && digits[i] == '9' {
					digits[i] = '0'
					i--
				}
				if i < 0 {
					break
				}
				digits[i]++
			}
		}
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func reverse(s string) string {
	runes := []rune(s)
	slices.Reverse(runes)
	return string(runes)
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
