// Package listing defines the normalized listing shape every adapter emits.
package listing

import (
	"strings"

	"nextstep/internal/models"
)

const (
	// UnspecifiedLocation stands in for listings without a location.
	UnspecifiedLocation = "Not specified"
	// InternalSource labels listings stored on the platform itself.
	InternalSource = "nextstep-db"
)

// Listing is the normalized DTO shared by the extractor, the API adapter and
// the aggregator. InternalID is set only for internally stored listings.
type Listing struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	CompanyName string `json:"companyName,omitempty"`
	ApplyURL    string `json:"applyUrl,omitempty"`
	Source      string `json:"source"`
	InternalID  string `json:"internalId,omitempty"`
}

// Raw is adapter output before normalization.
type Raw struct {
	Title       string
	Description string
	Location    string
	Company     string
	ApplyURL    string
}

// Normalize canonicalizes raw adapter output. It reports false when the
// title is empty; such items are dropped by callers.
func Normalize(raw Raw, source string) (Listing, bool) {
	title := clean(raw.Title)
	if title == "" {
		return Listing{}, false
	}
	location := clean(raw.Location)
	if location == "" {
		location = UnspecifiedLocation
	}
	return Listing{
		Title:       title,
		Description: strings.TrimSpace(raw.Description),
		Location:    location,
		CompanyName: clean(raw.Company),
		ApplyURL:    strings.TrimSpace(raw.ApplyURL),
		Source:      source,
	}, true
}

// Describe synthesizes a description for sources that do not provide one.
func Describe(title, company, location string) string {
	var b strings.Builder
	b.WriteString(title)
	if company != "" {
		b.WriteString(" at ")
		b.WriteString(company)
	}
	b.WriteString(" - ")
	b.WriteString(location)
	return b.String()
}

// FromInternship maps a stored internship. Internal listings are applied to
// inside the platform, so they carry no apply URL or company name.
func FromInternship(in *models.Internship) Listing {
	return Listing{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Source:      InternalSource,
		InternalID:  in.ID,
	}
}

// Matches applies the aggregator's final filter: case-insensitive substring
// match of q against the title and of location against the location.
func (l Listing) Matches(q, location string) bool {
	if q != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(q)) {
		return false
	}
	if location != "" && !strings.Contains(strings.ToLower(l.Location), strings.ToLower(location)) {
		return false
	}
	return true
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
