package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Attendance statuses. A record starts as registered and is flipped by
// the attendance-taking UI; hours only count once it reads attended.
const (
	AttendanceRegistered = "registered"
	AttendanceAttended   = "attended"
	AttendanceNoShow     = "no show"
)

// Remarks values.
const (
	RemarksNone      = ""
	RemarksWarning   = "Warning"
	RemarksBlacklist = "Blacklist"
)

type Volunteer struct {
	bun.BaseModel `bun:"table:volunteers"`

	ID           string `bun:"id,pk" json:"id"`
	SerialNumber int64  `bun:"serial_number,unique,notnull" json:"serialNumber"`

	District    string `bun:"district,notnull" json:"district"`
	EventName   string `bun:"event_name,notnull" json:"eventName"`
	EventID     string `bun:"event_id,notnull" json:"eventId"`
	EventFormat string `bun:"event_format,notnull" json:"eventFormat"`
	Details     string `bun:"details,nullzero" json:"details,omitempty"`

	Name     string `bun:"name,notnull" json:"name"`
	Email    string `bun:"email,notnull" json:"email"`
	MobileNo string `bun:"mobile_no,notnull" json:"mobileNo"`
	Role     string `bun:"role,notnull" json:"role"`

	Date      time.Time `bun:"date,notnull" json:"date"`
	StartTime string    `bun:"start_time,notnull" json:"startTime"`
	EndTime   string    `bun:"end_time,notnull" json:"endTime"`

	// Derived from StartTime/EndTime on every create and update that
	// touches the timing fields. Never taken from the client.
	HoursVolunteered float64 `bun:"hours_volunteered,notnull" json:"hoursVolunteered"`

	VMS        bool   `bun:"vms" json:"vms"`
	Attendance string `bun:"attendance,notnull,default:'registered'" json:"attendance"`
	Remarks    string `bun:"remarks,nullzero" json:"remarks"`

	VolunteerShirtTaken bool   `bun:"volunteer_shirt_taken" json:"volunteerShirtTaken"`
	ShirtSize           string `bun:"shirt_size,nullzero" json:"shirtSize,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}
