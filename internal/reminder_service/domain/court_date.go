package domain

import (
	"time"

	"github.com/google/uuid"
)

// CourtDate is a scheduled legal appearance. It is owned by the case-management
// flows; the reminder service only reads it.
type CourtDate struct {
	ID           uuid.UUID  `json:"id"`
	ClientID     uuid.UUID  `json:"client_id"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"` // nil until the court sets a date
	Location     string     `json:"location"`
	CaseNumber   string     `json:"case_number"`
	Completed    bool       `json:"completed"`
	Approved     bool       `json:"approved"`
	Acknowledged bool       `json:"acknowledged"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsScheduled reports whether the court date has a scheduled instant.
func (c *CourtDate) IsScheduled() bool {
	return c != nil && c.ScheduledAt != nil && !c.ScheduledAt.IsZero()
}

// Client is the subset of a bail client the reminder service needs.
type Client struct {
	ID         uuid.UUID `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	ExternalID string    `json:"external_id"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
}

// DisplayName is "First Last", trimmed when either part is missing.
func (c *Client) DisplayName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// UpcomingCourtDate is a court date enriched with client details and the
// number of days until it starts.
type UpcomingCourtDate struct {
	CourtDate
	ClientName       string `json:"client_name"`
	ClientExternalID string `json:"client_external_id"`
	DaysUntil        int    `json:"days_until"`
}

// OverdueCourtDate is a past, not-completed court date.
type OverdueCourtDate struct {
	CourtDate
	ClientName       string `json:"client_name"`
	ClientExternalID string `json:"client_external_id"`
	DaysOverdue      int    `json:"days_overdue"`
}
