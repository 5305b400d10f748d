package pattern

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Matcher decides whether a log line belongs in an analysis result.
type Matcher interface {
	Match(line string) bool
}

// NewMatcher compiles a set for repeated matching.
//
// Terms are compared case-insensitively as plain substrings; a line matches
// when any term occurs in it. No anchoring or word boundaries are applied.
// When s.Regex is set each term is compiled as a case-insensitive regular
// expression instead. Lines that are not valid UTF-8 never match.
//
// Returns ErrNoTerms for a nil set or one without non-blank terms, and a
// *SetError for a term that is not a valid regular expression.
func NewMatcher(s *Set) (Matcher, error) {
	if s == nil {
		return nil, ErrNoTerms
	}

	terms := nonBlank(s.Terms)
	if len(terms) == 0 {
		return nil, ErrNoTerms
	}
	ignore := lowerAll(nonBlank(s.Ignore))

	if !s.Regex {
		return &substringMatcher{terms: lowerAll(terms), ignore: ignore}, nil
	}

	res := make([]*regexp.Regexp, 0, len(terms))
	for i, term := range terms {
		re, err := regexp.Compile("(?i)" + term)
		if err != nil {
			return nil, &SetError{
				Index:   i,
				Key:     s.Key,
				Field:   "terms",
				Message: fmt.Sprintf("invalid regular expression %q: %v", term, err),
				Cause:   err,
			}
		}
		res = append(res, re)
	}
	return &regexMatcher{res: res, ignore: ignore}, nil
}

// Matches reports whether line matches s. It compiles s on every call; use
// NewMatcher when testing many lines against the same set.
// An empty or invalid set matches nothing.
func Matches(line string, s *Set) bool {
	m, err := NewMatcher(s)
	if err != nil {
		return false
	}
	return m.Match(line)
}

type substringMatcher struct {
	terms  []string // lower-cased
	ignore []string // lower-cased
}

func (m *substringMatcher) Match(line string) bool {
	if !utf8.ValidString(line) {
		return false
	}
	lower := strings.ToLower(line)
	if !containsAny(lower, m.terms) {
		return false
	}
	return !containsAny(lower, m.ignore)
}

type regexMatcher struct {
	res    []*regexp.Regexp
	ignore []string // lower-cased
}

func (m *regexMatcher) Match(line string) bool {
	if !utf8.ValidString(line) {
		return false
	}
	hit := false
	for _, re := range m.res {
		if re.MatchString(line) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	return !containsAny(strings.ToLower(line), m.ignore)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func nonBlank(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}

func lowerAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(t)
	}
	return out
}
