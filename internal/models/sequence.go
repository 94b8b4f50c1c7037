package models

import "github.com/uptrace/bun"

// SequenceVolunteerSerial is the sequence row backing serial number
// allocation for volunteer records.
const SequenceVolunteerSerial = "volunteer_serial"

// SerialSequence is a named counter row. Allocation increments value
// atomically in a single UPDATE ... RETURNING, so concurrent
// registrations can never observe the same serial.
type SerialSequence struct {
	bun.BaseModel `bun:"table:serial_sequences"`

	Name  string `bun:"name,pk"`
	Value int64  `bun:"value,notnull"`
}
