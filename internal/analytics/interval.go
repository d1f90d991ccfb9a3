package analytics

import (
	"time"
)

// Interval is the signed day count between two resolved milestones for one
// entity. Negative Days means the end milestone preceded the start milestone
// (an invoice dated before its triggering state); that is a first-class,
// reportable observation, not an error.
type Interval struct {
	EntityID string    `json:"entityId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Days     int       `json:"days"`
	Valid    bool      `json:"valid"`
}

// IntervalDiagnostics counts entities excluded from or flagged within one
// interval computation. Per-entity failures never abort the batch; they land
// here and are surfaced alongside the successful results.
type IntervalDiagnostics struct {
	MissingStart int `json:"missing_start"`
	MissingEnd   int `json:"missing_end"`
	NoEvents     int `json:"no_events"`
	// Negative counts valid intervals whose end preceded the start
	// ("anticipated" bucket). These intervals still enter the sample with
	// their sign preserved.
	Negative int `json:"negative"`
}

// Excluded returns the number of entities that produced no usable interval.
func (d IntervalDiagnostics) Excluded() int {
	return d.MissingStart + d.MissingEnd + d.NoEvents
}

// DaysBetween computes the signed calendar-day count from start to end.
// Inputs are expected at date granularity (see StateEvent.Date); any
// time-of-day component is truncated in UTC first.
func DaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

// NewInterval builds one valid Interval for an entity from two resolved dates.
func NewInterval(entityID string, start, end time.Time) Interval {
	return Interval{
		EntityID: entityID,
		Start:    start,
		End:      end,
		Days:     DaysBetween(start, end),
		Valid:    true,
	}
}

// SampleDays collects the signed day values of the valid intervals. Invalid
// intervals never reach a statistical sample.
func SampleDays(intervals []Interval) []float64 {
	var days []float64
	for _, iv := range intervals {
		if iv.Valid {
			days = append(days, float64(iv.Days))
		}
	}
	return days
}
