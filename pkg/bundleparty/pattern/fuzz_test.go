package pattern

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// FuzzMatches checks that the compiled matcher agrees with a direct
// lower-case substring search and never panics.
func FuzzMatches(f *testing.F) {
	f.Add("connection timeout retrying", "timeout")
	f.Add("ERROR: access denied", "DENIED")
	f.Add("", "x")
	f.Add("OK", "")
	f.Add(string([]byte{0xff, 0xfe, 0xfd}), "a")
	f.Add("tâche: ÉCHEC", "échec")
	f.Add(string(make([]byte, 2048)), "\x00")

	f.Fuzz(func(t *testing.T, line, term string) {
		set := &Set{Terms: []string{term}}
		got := Matches(line, set)

		want := strings.TrimSpace(term) != "" &&
			utf8.ValidString(line) &&
			strings.Contains(strings.ToLower(line), strings.ToLower(term))
		if got != want {
			t.Errorf("Matches(%q, [%q]) = %v, want %v", line, term, got, want)
		}
	})
}

// FuzzParseTerms checks that parsed terms are trimmed, non-empty and unique.
func FuzzParseTerms(f *testing.F) {
	f.Add("  ,timeout, ,DENIED ")
	f.Add("a,A,a")
	f.Add(",,,")
	f.Add("")

	f.Fuzz(func(t *testing.T, raw string) {
		terms, err := ParseTerms(raw)
		if err != nil {
			if len(terms) != 0 {
				t.Fatalf("ParseTerms(%q) returned terms with error", raw)
			}
			return
		}
		seen := make(map[string]bool)
		for _, term := range terms {
			if term == "" || term != strings.TrimSpace(term) {
				t.Errorf("ParseTerms(%q) produced untrimmed term %q", raw, term)
			}
			if strings.Contains(term, ",") {
				t.Errorf("ParseTerms(%q) produced term with comma %q", raw, term)
			}
			folded := strings.ToLower(term)
			if seen[folded] {
				t.Errorf("ParseTerms(%q) produced duplicate %q", raw, term)
			}
			seen[folded] = true
		}
	})
}
