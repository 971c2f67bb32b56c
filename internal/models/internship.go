package models

import "time"

type InternshipMode string

const (
	ModeRemote InternshipMode = "remote"
	ModeOnsite InternshipMode = "onsite"
	ModeHybrid InternshipMode = "hybrid"
)

type InternshipType string

const (
	TypeInternship InternshipType = "internship"
	TypeFulltime   InternshipType = "fulltime"
)

type InternshipStatus string

const (
	InternshipOpen   InternshipStatus = "open"
	InternshipClosed InternshipStatus = "closed"
	InternshipDraft  InternshipStatus = "draft"
)

// InternshipOrigin records whether a listing was posted on the platform or scraped.
type InternshipOrigin string

const (
	OriginManual  InternshipOrigin = "manual"
	OriginScraped InternshipOrigin = "scraped"
)

// Internship is a permanently stored listing. Scraped rows carry the source
// and job that produced them and wait for review before being trusted.
type Internship struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Location         string           `json:"location"`
	Mode             InternshipMode   `json:"mode"`
	Type             InternshipType   `json:"type"`
	DurationInMonths int              `json:"durationInMonths,omitempty"`
	Skills           []string         `json:"skills"`
	CreatedBy        string           `json:"createdBy,omitempty"`
	Source           InternshipOrigin `json:"source"`
	SourceID         string           `json:"sourceId,omitempty"`
	JobID            string           `json:"jobId,omitempty"`
	CompanyName      string           `json:"companyName,omitempty"`
	ExternalApplyURL string           `json:"externalApplyUrl,omitempty"`
	PostedAt         time.Time        `json:"postedAt"`
	Status           InternshipStatus `json:"status"`
	NeedsReview      bool             `json:"needsReview"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// InternshipQuery filters open internships for search.
type InternshipQuery struct {
	Q        string
	Location string
	Mode     string
	Type     string
	Page     int
	Limit    int
}

// Offset is the number of rows skipped for the requested page.
func (q InternshipQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}
