package report

import (
	"strings"

	"ms-volunteers/internal/models"
)

// Scope selects how much roll-up Summarize produces.
type Scope string

const (
	// ScopeEvent summarizes people only; the input is already one event.
	ScopeEvent Scope = "event"
	// ScopeAll additionally rolls the records up by event.
	ScopeAll Scope = "all"
)

// IdentityPolicy controls how (name, email) pairs are matched when
// grouping records by person. The original system compares the raw
// strings byte for byte, so the same person typed with different casing
// lands in two groups; IdentityExact keeps that behavior and
// IdentityFold is the opt-in normalized alternative.
type IdentityPolicy int

const (
	IdentityExact IdentityPolicy = iota
	IdentityFold
)

// PersonSummary is the derived per-person roll-up. It is computed on
// demand from the current records and never persisted.
type PersonSummary struct {
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	MobileNo         string  `json:"mobileNo"`
	Role             string  `json:"role"`
	EventsRegistered int     `json:"eventsRegistered"`
	EventsAttended   int     `json:"eventsAttended"`
	TotalHours       float64 `json:"totalHours"`
}

// EventSummary is the per-event roll-up produced for ScopeAll.
type EventSummary struct {
	EventID        string  `json:"eventId"`
	EventName      string  `json:"eventName"`
	Date           string  `json:"date"`
	VolunteerCount int     `json:"volunteerCount"`
	AttendedCount  int     `json:"attendedCount"`
	TotalHours     float64 `json:"totalHours"`
}

type Summary struct {
	People []PersonSummary `json:"people"`
	Events []EventSummary  `json:"events,omitempty"`
}

// Aggregator groups volunteer records by person and, for ScopeAll, by
// event. It holds no state beyond its configuration; Summarize is a
// pure function of its input.
type Aggregator struct {
	Identity IdentityPolicy
}

func NewAggregator(identity IdentityPolicy) *Aggregator {
	return &Aggregator{Identity: identity}
}

func (a *Aggregator) personKey(v models.Volunteer) string {
	name, email := v.Name, v.Email
	if a.Identity == IdentityFold {
		name = strings.ToLower(strings.TrimSpace(name))
		email = strings.ToLower(strings.TrimSpace(email))
	}
	return name + "\x00" + email
}

// Summarize computes person totals over records in a single pass. Hours
// are summed only for records marked attended; registered and no-show
// records still count toward EventsRegistered. Group order is the
// first-seen order of each key. An empty input yields an empty summary,
// not an error.
func (a *Aggregator) Summarize(records []models.Volunteer, scope Scope) Summary {
	var summary Summary

	personIdx := make(map[string]int)
	eventIdx := make(map[string]int)

	for _, rec := range records {
		key := a.personKey(rec)
		i, ok := personIdx[key]
		if !ok {
			i = len(summary.People)
			personIdx[key] = i
			summary.People = append(summary.People, PersonSummary{
				Name:     rec.Name,
				Email:    rec.Email,
				MobileNo: rec.MobileNo,
				Role:     rec.Role,
			})
		}

		person := &summary.People[i]
		person.EventsRegistered++
		if rec.Attendance == models.AttendanceAttended {
			person.EventsAttended++
			person.TotalHours += rec.HoursVolunteered
		}

		if scope != ScopeAll {
			continue
		}

		j, ok := eventIdx[rec.EventID]
		if !ok {
			j = len(summary.Events)
			eventIdx[rec.EventID] = j
			summary.Events = append(summary.Events, EventSummary{
				EventID:   rec.EventID,
				EventName: rec.EventName,
				Date:      rec.Date.Format("2006-01-02"),
			})
		}

		event := &summary.Events[j]
		event.VolunteerCount++
		if rec.Attendance == models.AttendanceAttended {
			event.AttendedCount++
			event.TotalHours += rec.HoursVolunteered
		}
	}

	return summary
}
