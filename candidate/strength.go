package candidate

import (
	"strings"
	"unicode"
)

type Rating struct {
	Score    int      `json:"score"`
	Label    string   `json:"label"`
	Feedback []string `json:"feedback,omitempty"`
}

var commonFragments = []string{"123", "abc", "qwe", "password", "admin"}

const specialChars = "!@#$%^&*()_+-=[]{}|;:',.<>?"

// Strength scores a recovered password on length, character classes and
// common fragments.
func Strength(password string) Rating {
	var r Rating
	n := len([]rune(password))
	switch {
	case n >= 8:
		r.Score += 2
	case n >= 6:
		r.Score++
	default:
		r.Feedback = append(r.Feedback, "too short (minimum 6 characters)")
	}

	classes := []struct {
		ok     bool
		points int
		advice string
	}{
		{strings.IndexFunc(password, unicode.IsLower) >= 0, 1, "add lowercase letters"},
		{strings.IndexFunc(password, unicode.IsUpper) >= 0, 1, "add uppercase letters"},
		{strings.IndexFunc(password, unicode.IsDigit) >= 0, 1, "add numbers"},
		{strings.ContainsAny(password, specialChars), 2, "add special characters"},
	}
	for _, c := range classes {
		if c.ok {
			r.Score += c.points
		} else {
			r.Feedback = append(r.Feedback, c.advice)
		}
	}

	lower := strings.ToLower(password)
	for _, frag := range commonFragments {
		if strings.Contains(lower, frag) {
			r.Score--
			r.Feedback = append(r.Feedback, "avoid common pattern "+frag)
		}
	}

	switch {
	case r.Score >= 6:
		r.Label = "strong"
	case r.Score >= 4:
		r.Label = "medium"
	default:
		r.Label = "weak"
	}
	return r
}
