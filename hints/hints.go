// Package hints mines decrypted layer content for signals about the next
// layer's password: base64 payloads, coordinate pairs and HINT sections.
package hints

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxSectionRunes bounds every HINT section.
const MaxSectionRunes = 500

type Kind string

const (
	KindSection     Kind = "section"
	KindEncoded     Kind = "encoded"
	KindCoordinates Kind = "coordinates"
	KindMetadata    Kind = "metadata"
)

// Coordinate is a decimal-degree pair as written in the text.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Raw string  `json:"raw"`
}

// Valid reports whether the pair lies inside geographic bounds. Extraction
// itself never filters on range.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lon)
}

// Hint is immutable once created.
type Hint struct {
	Kind       Kind        `json:"kind"`
	Text       string      `json:"text"`
	Layer      int         `json:"layer"`
	Source     string      `json:"source,omitempty"`
	Decoded    string      `json:"decoded,omitempty"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
}

// Payload is the text a candidate generator should mine: the decoded form
// when there is one, the raw text otherwise.
func (h Hint) Payload() string {
	if h.Decoded != "" {
		return h.Decoded
	}
	return h.Text
}

var (
	encodedPattern    = regexp.MustCompile(`[A-Za-z0-9+/]{20,}={0,2}`)
	coordinatePattern = regexp.MustCompile(`(-?\b\d{1,3}\.\d{4})\b,?\s*(-?\b\d{1,3}\.\d{4})\b`)
	markerPattern     = regexp.MustCompile(`(?i)hint`)
)

// FindEncodedSegments returns the decoded payload of every base64 token of
// at least 20 characters. Tokens with bad length, padding or characters,
// or that decode to something other than text, are dropped. Non-zero
// padding bits are tolerated.
func FindEncodedSegments(text string) []string {
	var out []string
	for _, token := range encodedPattern.FindAllString(text, -1) {
		decoded, err := base64.StdEncoding.DecodeString(token)
		if err != nil || !isText(decoded) {
			continue
		}
		out = append(out, string(decoded))
	}
	return out
}

// FindCoordinates returns every pair of decimal numbers carrying exactly
// four fractional digits, optionally separated by a comma and whitespace.
func FindCoordinates(text string) []Coordinate {
	var out []Coordinate
	for _, m := range coordinatePattern.FindAllStringSubmatch(text, -1) {
		lat, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		out = append(out, Coordinate{Lat: lat, Lon: lon, Raw: m[0]})
	}
	return out
}

// FindHintSections returns, for each case-insensitive occurrence of the
// HINT marker, the text starting at the marker and capped at
// MaxSectionRunes runes.
func FindHintSections(text string) []string {
	var out []string
	for _, loc := range markerPattern.FindAllStringIndex(text, -1) {
		out = append(out, truncateRunes(text[loc[0]:], MaxSectionRunes))
	}
	return out
}

// Scan runs every extractor over text and tags the results with layer and
// source. Output order is sections, encoded payloads, coordinates.
func Scan(text string, layer int, source string) []Hint {
	var out []Hint
	for _, s := range FindHintSections(text) {
		out = append(out, Hint{Kind: KindSection, Text: s, Layer: layer, Source: source})
	}
	for _, d := range FindEncodedSegments(text) {
		out = append(out, Hint{Kind: KindEncoded, Text: d, Decoded: d, Layer: layer, Source: source})
	}
	for _, c := range FindCoordinates(text) {
		out = append(out, Hint{Kind: KindCoordinates, Text: c.Raw, Coordinate: &c, Layer: layer, Source: source})
	}
	return out
}

// ScanMetadata is Scan over document or image metadata fields. When the
// fields carry no HINT section the whole text is kept as one metadata hint,
// since titles, authors and comments are hints in their own right.
func ScanMetadata(text string, layer int, source string) []Hint {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	out := Scan(text, layer, source)
	for _, h := range out {
		if h.Kind == KindSection {
			return out
		}
	}
	meta := Hint{Kind: KindMetadata, Text: truncateRunes(text, MaxSectionRunes), Layer: layer, Source: source}
	return append([]Hint{meta}, out...)
}

// Join concatenates hint payloads into a single mining corpus.
func Join(hs []Hint) string {
	parts := make([]string, 0, len(hs))
	for _, h := range hs {
		if p := strings.TrimSpace(h.Payload()); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

func isText(b []byte) bool {
	if len(b) == 0 || !utf8.Valid(b) {
		return false
	}
	for _, c := range b {
		if c == 0 {
			return false
		}
		if c < 0x09 || (c > 0x0D && c < 0x20) || c == 0x7F {
			return false
		}
	}
	return true
}
