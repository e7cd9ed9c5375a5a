package utils

import "testing"

func TestShouldIncludeDefaults(t *testing.T) {
	var nilMatcher *PatternMatcher
	if !nilMatcher.ShouldInclude("anything.txt") {
		t.Fatal("nil matcher should include everything")
	}
	if !NewPatternMatcher(nil, nil).ShouldInclude("readme.txt") {
		t.Fatal("expected include by default")
	}
}

func TestShouldIncludeGlobs(t *testing.T) {
	m := NewPatternMatcher([]string{"*.txt"}, nil)
	if !m.ShouldInclude("deeper/clues.txt") {
		t.Fatal("base-name glob should match nested file")
	}
	if m.ShouldInclude("photo.jpg") {
		t.Fatal("unmatched include should be dropped")
	}

	m = NewPatternMatcher(nil, []string{"deeper/*"})
	if m.ShouldInclude("deeper/clues.txt") {
		t.Fatal("relative-path glob should exclude")
	}
	if !m.ShouldInclude("clues.txt") {
		t.Fatal("top-level file should stay included")
	}
}

func TestShouldIncludeRegexAndInvalidPatterns(t *testing.T) {
	m := NewPatternMatcher([]string{`^notes/.*\.md$`}, nil)
	if !m.ShouldInclude("notes/layer2.md") || m.ShouldInclude("layer2.md") {
		t.Fatal("regex include mismatch")
	}

	m = NewPatternMatcher(nil, []string{"[", ""})
	if !m.ShouldInclude("readme.txt") {
		t.Fatal("invalid patterns must not exclude everything")
	}
}
