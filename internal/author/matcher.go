// Package author matches publisher names against free-text citations and
// metadata rows, and parses the name selectors typed on the command line.
package author

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/matsen/pubdash/internal/reference"
)

// nonWord is a Unicode-aware \W. Go's \W is ASCII-only, which would treat
// the "ü" in "Müller" as a boundary.
const nonWord = `[^\p{L}\p{N}_]`

// Matcher holds the two case-insensitive name patterns for one publisher.
//
// The boundary pattern matches the last name as a whole word and is used
// against metadata rows. The citation pattern matches "Last<sep>F", the last
// name followed by one or more non-word characters and the first initial,
// which is how names appear in "Lastname, F." style citations.
type Matcher struct {
	First string
	Last  string

	boundary *regexp.Regexp // nil when Last is empty
	citation *regexp.Regexp // nil when Last or First is empty
}

// NewMatcher compiles the patterns for a publisher. Names are quoted, so
// compilation cannot fail.
func NewMatcher(first, last string) *Matcher {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	m := &Matcher{First: first, Last: last}
	if last == "" {
		return m
	}

	quoted := regexp.QuoteMeta(last)
	m.boundary = regexp.MustCompile(`(?i)(?:` + nonWord + `|\A)` + quoted + `(?:` + nonWord + `|\z)`)

	if r, _ := utf8.DecodeRuneInString(first); r != utf8.RuneError {
		initial := regexp.QuoteMeta(string(r))
		m.citation = regexp.MustCompile(`(?i)(?:` + nonWord + `|\A)` + quoted + nonWord + `+` + initial)
	}
	return m
}

// BoundaryPattern returns the source of the last-name boundary pattern, or
// "" when the publisher has no last name.
func (m *Matcher) BoundaryPattern() string {
	if m.boundary == nil {
		return ""
	}
	return m.boundary.String()
}

// CitationPattern returns the source of the citation pattern, or "" when
// the publisher cannot be matched against citations.
func (m *Matcher) CitationPattern() string {
	if m.citation == nil {
		return ""
	}
	return m.citation.String()
}

// MatchesLastName reports whether s contains the last name as a whole word.
func (m *Matcher) MatchesLastName(s string) bool {
	return m.boundary != nil && m.boundary.MatchString(s)
}

// MatchesCitation reports whether a citation names this publisher.
func (m *Matcher) MatchesCitation(citation string) bool {
	return m.citation != nil && m.citation.MatchString(citation)
}

// Attribute returns the corpus rows whose citation matches, in corpus order.
//
// Matching is not exclusive: the same row may be attributed to several
// publishers when their patterns all match it.
func (m *Matcher) Attribute(corpus []reference.Publication) []reference.Publication {
	var out []reference.Publication
	for _, pub := range corpus {
		if m.MatchesCitation(pub.Citation) {
			out = append(out, pub)
		}
	}
	return out
}

// ActiveFlag scans metadata rows for this publisher's last name and returns
// the active flag of the matching row. found is false when no row matches.
// When several rows match, the last one wins.
func (m *Matcher) ActiveFlag(rows []reference.PublisherRow) (active, found bool) {
	for _, row := range rows {
		if m.MatchesLastName(row.Last) {
			active = row.Active
			found = true
		}
	}
	return active, found
}
