package app

import (
	"time"

	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

// DefaultReminderHour is the local hour at which every reminder fires.
const DefaultReminderHour = 9

// Candidate is a reminder the policy wants to exist.
type Candidate struct {
	Kind         domain.ReminderKind
	ScheduledFor time.Time
	Priority     domain.Priority
}

// Policy maps a court date instant to reminder candidates. It is pure and
// holds no store.
type Policy struct {
	loc  *time.Location
	hour int
}

// NewPolicy returns a policy that normalizes reminders to hour:00 in loc.
// A nil loc means UTC; an hour outside 0..23 falls back to DefaultReminderHour.
func NewPolicy(loc *time.Location, hour int) *Policy {
	if loc == nil {
		loc = time.UTC
	}
	if hour < 0 || hour > 23 {
		hour = DefaultReminderHour
	}
	return &Policy{loc: loc, hour: hour}
}

// ScheduledFor is the fire time of kind for a court date at courtAt: the
// court date's local calendar day minus the kind's offset, at the policy hour.
func (p *Policy) ScheduledFor(courtAt time.Time, kind domain.ReminderKind) time.Time {
	d := courtAt.In(p.loc)
	return time.Date(d.Year(), d.Month(), d.Day()-kind.OffsetDays(), p.hour, 0, 0, 0, p.loc)
}

// Candidates returns up to four candidates in kind order (initial first).
// A candidate whose fire time is not strictly after now is dropped, and a
// court date that is not in the future yields nothing.
//
// Because slots are pinned to the policy hour on a calendar day, being more
// than seven days out is not enough for all four: a court date between seven
// and eight days away can have its initial slot earlier today, and then
// yields three. Eight days or more always yields four.
func (p *Policy) Candidates(courtAt, now time.Time) []Candidate {
	if courtAt.IsZero() || !courtAt.After(now) {
		return nil
	}

	out := make([]Candidate, 0, len(domain.AllKinds))
	for _, kind := range domain.AllKinds {
		at := p.ScheduledFor(courtAt, kind)
		if !at.After(now) {
			continue
		}
		out = append(out, Candidate{Kind: kind, ScheduledFor: at, Priority: kind.Priority()})
	}
	return out
}
