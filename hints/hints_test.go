package hints

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFindEncodedSegmentsDecodesPayload(t *testing.T) {
	text := "Secret message: SGVsbG8gSGFja2VyISBZb3UncmUgZG9pbmcgZ3JlYXQh (keep going)"
	got := FindEncodedSegments(text)
	if len(got) != 1 || got[0] != "Hello Hacker! You're doing great!" {
		t.Fatalf("unexpected decoded segments: %#v", got)
	}
}

func TestFindEncodedSegmentsToleratesPaddingBits(t *testing.T) {
	got := FindEncodedSegments("note SGVsbG8gV29ybGQgZnJvbSBsYXl= end")
	if len(got) != 1 || got[0] != "Hello World from lay" {
		t.Fatalf("unexpected decoded segments: %#v", got)
	}
}

func TestFindEncodedSegmentsSkipsInvalidTokens(t *testing.T) {
	// 21 characters cannot be valid padded base64.
	text := "noise abcdefghijklmnopqrstu and short QUJD tokens"
	if got := FindEncodedSegments(text); len(got) != 0 {
		t.Fatalf("expected no segments, got %#v", got)
	}
}

func TestFindEncodedSegmentsSkipsBinaryPayload(t *testing.T) {
	// decodes to bytes containing NUL and high control characters
	text := "AAAAAAAAAAAAAAAAAAAAAAAA"
	if got := FindEncodedSegments(text); len(got) != 0 {
		t.Fatalf("expected binary payload to be dropped, got %#v", got)
	}
}

func TestFindCoordinates(t *testing.T) {
	text := "Meet at 48.8566, 2.3522 then -33.8688 151.2093 but not 12.34, 56.78 or 48.85661, 2.3522"
	got := FindCoordinates(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 coordinate pairs, got %#v", got)
	}
	if got[0].Lat != 48.8566 || got[0].Lon != 2.3522 {
		t.Fatalf("unexpected first pair: %+v", got[0])
	}
	if got[1].Lat != -33.8688 || got[1].Lon != 151.2093 {
		t.Fatalf("unexpected second pair: %+v", got[1])
	}
}

func TestFindCoordinatesKeepsOutOfRangePairs(t *testing.T) {
	got := FindCoordinates("999.0000, 2.0000")
	if len(got) != 1 {
		t.Fatalf("expected pair to be returned, got %#v", got)
	}
	if got[0].Valid() {
		t.Fatal("expected out-of-range pair to be reported invalid")
	}
}

func TestFindHintSectionsCaseInsensitiveAndBounded(t *testing.T) {
	long := strings.Repeat("é", 800)
	text := "intro Hint: look left\n" + "HINT " + long
	got := FindHintSections(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(got))
	}
	if !strings.HasPrefix(got[0], "Hint: look left") {
		t.Fatalf("unexpected first section: %q", got[0])
	}
	if !strings.HasPrefix(got[1], "HINT ") {
		t.Fatalf("unexpected second section: %q", got[1][:10])
	}
	for _, s := range got {
		if n := utf8.RuneCountInString(s); n > MaxSectionRunes {
			t.Fatalf("section exceeds bound: %d runes", n)
		}
		if !utf8.ValidString(s) {
			t.Fatal("section split a multi-byte rune")
		}
	}
}

func TestFindHintSectionsNoMarker(t *testing.T) {
	if got := FindHintSections("nothing to see"); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	text := "HINT FOR LAYER 3: capital of France.\nBase64 secret: VGhlIGZpbmFsIGxheWVyIGF3YWl0cyE=\nCoordinates: 48.8566, 2.3522"
	first := Scan(text, 2, "hint.txt")
	second := Scan(text, 2, "hint.txt")
	if !reflect.DeepEqual(first, second) {
		t.Fatal("scan results differ between runs")
	}

	var kinds []Kind
	for _, h := range first {
		if h.Layer != 2 || h.Source != "hint.txt" {
			t.Fatalf("hint not tagged: %+v", h)
		}
		kinds = append(kinds, h.Kind)
	}
	want := []Kind{KindSection, KindEncoded, KindCoordinates}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	if first[1].Decoded != "The final layer awaits!" {
		t.Fatalf("unexpected decoded payload %q", first[1].Decoded)
	}
}

func TestJoinUsesDecodedPayload(t *testing.T) {
	hs := []Hint{
		{Kind: KindSection, Text: "HINT one"},
		{Kind: KindEncoded, Text: "ignored", Decoded: "two"},
		{Kind: KindSection, Text: "   "},
	}
	if got := Join(hs); got != "HINT one\ntwo" {
		t.Fatalf("Join = %q", got)
	}
}

func TestScanMetadata(t *testing.T) {
	if got := ScanMetadata("  ", 2, "a.pdf"); got != nil {
		t.Fatalf("expected nothing for blank metadata, got %v", got)
	}
	got := ScanMetadata("author: Marie\ngps: 48.8566, 2.3522\n", 2, "photo.jpg")
	if len(got) != 2 || got[0].Kind != KindMetadata || got[1].Kind != KindCoordinates {
		t.Fatalf("unexpected metadata hints: %+v", got)
	}
	if got[0].Layer != 2 || got[0].Source != "photo.jpg" {
		t.Fatalf("metadata hint not tagged: %+v", got[0])
	}
	got = ScanMetadata("description: hint: use the year", 3, "doc.docx")
	if len(got) != 1 || got[0].Kind != KindSection {
		t.Fatalf("section in metadata should be reported as a section: %+v", got)
	}
}
