// Package pattern defines the named search-term sets bundleparty runs over a
// support bundle. Sets come from a catalog file (YAML or TOML), from the
// embedded default catalog, or from comma-separated terms typed by the user.
package pattern

import (
	"strings"
	"unicode"
)

// Catalog represents the structure of a catalog file.
//
// Example YAML file:
//
//	version: 1
//	analyses:
//	  - key: "1"
//	    name: Database Errors
//	    terms: ["connection refused", "error acquiring connection"]
//	    output_file: database_errors.txt
//	  - key: "2"
//	    name: HTTP 5xx
//	    terms: ['status=5\d{2}']
//	    regex: true
type Catalog struct {
	// Version is the catalog file format version. Currently only version 1 is supported.
	Version int `yaml:"version" toml:"version"`

	// Analyses is the ordered list of pre-canned analyses.
	Analyses []Set `yaml:"analyses" toml:"analyses"`
}

// Set is a named, ordered collection of search terms run as one analysis.
type Set struct {
	// Key selects the set from the menu (e.g. "1"). Empty for ad-hoc sets.
	Key string `yaml:"key" toml:"key"`

	// Name is the display name (e.g. "Connection Errors").
	Name string `yaml:"name" toml:"name"`

	// Terms are matched case-insensitively; a line matches when any term does.
	Terms []string `yaml:"terms" toml:"terms"`

	// Ignore drops a matching line when it also contains any of these terms.
	Ignore []string `yaml:"ignore,omitempty" toml:"ignore,omitempty"`

	// OutputFile is the result file name inside the output directory.
	// Empty means Slug(Name) + ".txt".
	OutputFile string `yaml:"output_file,omitempty" toml:"output_file,omitempty"`

	// Regex makes each term a case-insensitive regular expression instead of
	// a plain substring.
	Regex bool `yaml:"regex,omitempty" toml:"regex,omitempty"`
}

const (
	// CustomName is the name given to ad-hoc sets.
	CustomName = "custom_search"

	// CustomOutputFile is the result file for ad-hoc sets.
	CustomOutputFile = "custom_search_results.txt"
)

// ResultFile returns the file name results for this set are written to.
func (s *Set) ResultFile() string {
	if s.OutputFile != "" {
		return s.OutputFile
	}
	return Slug(s.Name) + ".txt"
}

// Sets returns pointers to the catalog's analyses in file order.
func (c *Catalog) Sets() []*Set {
	sets := make([]*Set, len(c.Analyses))
	for i := range c.Analyses {
		sets[i] = &c.Analyses[i]
	}
	return sets
}

// Lookup returns the analysis with the given key, ignoring case and
// surrounding whitespace.
func (c *Catalog) Lookup(key string) (*Set, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}
	for i := range c.Analyses {
		if strings.EqualFold(c.Analyses[i].Key, key) {
			return &c.Analyses[i], true
		}
	}
	return nil, false
}

// ParseTerms splits comma-separated user input into search terms.
// Whitespace around each term is trimmed, empty terms are dropped, and
// repeated terms (compared case-insensitively) keep their first spelling.
// Returns ErrNoTerms if nothing remains.
func ParseTerms(raw string) ([]string, error) {
	var terms []string
	seen := make(map[string]struct{})
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		folded := strings.ToLower(tok)
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}
		terms = append(terms, tok)
	}
	if len(terms) == 0 {
		return nil, ErrNoTerms
	}
	return terms, nil
}

// Custom builds an ad-hoc set from comma-separated user input.
func Custom(raw string) (*Set, error) {
	terms, err := ParseTerms(raw)
	if err != nil {
		return nil, err
	}
	return &Set{
		Name:       CustomName,
		Terms:      terms,
		OutputFile: CustomOutputFile,
	}, nil
}

// Slug turns a display name into a file-name stem:
// "Vault Seal/Auth Errors" becomes "vault_seal_auth_errors".
func Slug(name string) string {
	var sb strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pendingSep = false
			sb.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if sb.Len() == 0 {
		return "analysis"
	}
	return sb.String()
}
