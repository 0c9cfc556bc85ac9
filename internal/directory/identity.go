// Package directory builds the canonical publisher identities from the
// publisher sheet, attributes publications to them, and answers the
// selection queries the statistics are computed over.
package directory

import (
	"time"

	"github.com/matsen/pubdash/internal/author"
	"github.com/matsen/pubdash/internal/percent"
	"github.com/matsen/pubdash/internal/reference"
)

// Identity is one disambiguated publisher.
type Identity struct {
	Key              string                  `json:"key"` // Unique; "Smith" or "Smith_1" for collisions
	LastName         string                  `json:"last_name"`
	FirstName        string                  `json:"first_name"`
	DisplayName      string                  `json:"display_name"`
	Position         string                  `json:"position,omitempty"`
	CurrentlyActive  bool                    `json:"currently_active"`
	Collision        bool                    `json:"collision,omitempty"`
	Publications     []reference.Publication `json:"publications"` // Sorted by date
	PublicationCount int                     `json:"publication_count"`
	ResearchPercent  percent.Table           `json:"research_percent"`

	matcher *author.Matcher
}

// MatchesCitation reports whether a citation names this publisher.
// Collision identities never match.
func (id *Identity) MatchesCitation(citation string) bool {
	if id.Collision || id.matcher == nil {
		return false
	}
	return id.matcher.MatchesCitation(citation)
}

// CitationPattern returns the source of the identity's citation pattern,
// or "" for identities that are not matched against citations.
func (id *Identity) CitationPattern() string {
	if id.Collision || id.matcher == nil {
		return ""
	}
	return id.matcher.CitationPattern()
}

// Newest returns the date of the identity's latest publication.
func (id *Identity) Newest() (time.Time, bool) {
	if len(id.Publications) == 0 {
		return time.Time{}, false
	}
	return id.Publications[len(id.Publications)-1].Published, true
}

// Oldest returns the date of the identity's earliest publication.
func (id *Identity) Oldest() (time.Time, bool) {
	if len(id.Publications) == 0 {
		return time.Time{}, false
	}
	return id.Publications[0].Published, true
}
