// Package hours converts a volunteer shift's HH:mm start/end pair into
// an hours-volunteered value.
package hours

import (
	"time"

	"ms-volunteers/internal/errs"
)

const timeLayout = "15:04"

// Compute returns the fractional hours between start and end, both
// "HH:mm" times of day. An end earlier than start is a shift crossing
// midnight and gets 24 hours added. A zero-length shift is valid and
// yields 0. Results above 24 hours are rejected as an invalid range.
func Compute(start, end string) (float64, error) {
	if start == "" {
		return 0, errs.Validation("startTime", "start time is required")
	}
	if end == "" {
		return 0, errs.Validation("endTime", "end time is required")
	}

	startAt, err := time.Parse(timeLayout, start)
	if err != nil {
		return 0, errs.Validation("startTime", "must be in HH:mm format")
	}
	endAt, err := time.Parse(timeLayout, end)
	if err != nil {
		return 0, errs.Validation("endTime", "must be in HH:mm format")
	}

	hrs := endAt.Sub(startAt).Hours()

	// Cross-midnight shift, e.g. 23:00 to 02:00.
	if hrs < 0 {
		hrs += 24
	}

	if hrs > 24 {
		return 0, errs.Validation("endTime", "invalid time range - hours cannot exceed 24")
	}

	return hrs, nil
}
