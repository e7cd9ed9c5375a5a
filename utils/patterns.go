package utils

import (
	"path"
	"path/filepath"
	"regexp"

	"layercrack/logger"
)

// PatternMatcher filters extracted files by their path relative to the
// layer root. Each pattern is tried as a glob against the base name, as a
// glob against the whole relative path, then as a regular expression.
type PatternMatcher struct {
	include []pattern
	exclude []pattern
}

type pattern struct {
	raw string
	re  *regexp.Regexp
}

func NewPatternMatcher(includePatterns, excludePatterns []string) *PatternMatcher {
	return &PatternMatcher{
		include: compilePatterns(includePatterns),
		exclude: compilePatterns(excludePatterns),
	}
}

// ShouldInclude reports whether rel passes the include list (empty means
// everything) and misses the exclude list.
func (m *PatternMatcher) ShouldInclude(rel string) bool {
	if m == nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	if len(m.include) > 0 && !matchAny(m.include, rel) {
		return false
	}
	return !matchAny(m.exclude, rel)
}

func matchAny(patterns []pattern, rel string) bool {
	for _, p := range patterns {
		if p.match(rel) {
			return true
		}
	}
	return false
}

func (p pattern) match(rel string) bool {
	if ok, _ := path.Match(p.raw, path.Base(rel)); ok {
		return true
	}
	if ok, _ := path.Match(p.raw, rel); ok {
		return true
	}
	return p.re != nil && p.re.MatchString(rel)
}

func compilePatterns(raw []string) []pattern {
	out := make([]pattern, 0, len(raw))
	for _, r := range raw {
		if r == "" {
			continue
		}
		p := pattern{raw: r}
		if re, err := regexp.Compile(r); err == nil {
			p.re = re
		} else {
			logger.Debugf("Pattern %q is not a valid regexp; using it as a glob only", r)
		}
		out = append(out, p)
	}
	return out
}
