package author

import (
	"strings"
)

// Query is a publisher selector as typed on the command line.
type Query struct {
	First string // may be empty or an initial
	Last  string
}

// ParseQuery reads "Smith", "John Smith", "J. Smith" or the display form
// "Smith, John". Without a comma the final word is the last name. Case is
// kept; Matches ignores it.
func ParseQuery(input string) Query {
	if last, first, ok := strings.Cut(input, ","); ok && strings.TrimSpace(last) != "" {
		return Query{First: strings.Join(strings.Fields(first), " "), Last: strings.TrimSpace(last)}
	}
	words := strings.Fields(input)
	switch len(words) {
	case 0:
		return Query{}
	case 1:
		return Query{Last: words[0]}
	}
	n := len(words) - 1
	return Query{First: strings.Join(words[:n], " "), Last: words[n]}
}

// Matches reports whether a publisher named first/last is selected. The last
// name must match whole; the first name, when given, is a prefix with any
// trailing period dropped so "J." selects "John".
func (q Query) Matches(first, last string) bool {
	if q.Last == "" || !strings.EqualFold(q.Last, strings.TrimSpace(last)) {
		return false
	}
	prefix := strings.ToLower(strings.TrimSuffix(q.First, "."))
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(first)), prefix)
}
