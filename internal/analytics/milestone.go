package analytics

import (
	"time"

	"saletrace/internal/eventlog"
)

// Milestone lookups return the zero time and false when no matching event
// exists; "not found" is a normal value here, never an error.

// FirstOccurrence returns the earliest timestamp among events matching state.
func FirstOccurrence(events []eventlog.StateEvent, state int) (time.Time, bool) {
	var best time.Time
	found := false
	for _, e := range events {
		if e.State != state {
			continue
		}
		t := e.Date()
		if !found || t.Before(best) {
			best = t
			found = true
		}
	}
	return best, found
}

// LastOccurrence returns the latest timestamp among events matching state.
// Trusting the most recent entry tolerates duplicate or corrected records.
func LastOccurrence(events []eventlog.StateEvent, state int) (time.Time, bool) {
	var best time.Time
	found := false
	for _, e := range events {
		if e.State != state {
			continue
		}
		t := e.Date()
		if !found || t.After(best) {
			best = t
			found = true
		}
	}
	return best, found
}

// ResolvePair resolves a milestone pair using the canonical asymmetric rule:
// first occurrence of the starting state, last occurrence of the ending state.
// The pair is returned even when end precedes start; callers decide whether a
// negative interval is a valid observation or a data-quality signal.
func ResolvePair(events []eventlog.StateEvent, startState, endState int) (start, end time.Time, ok bool) {
	start, startOK := FirstOccurrence(events, startState)
	end, endOK := LastOccurrence(events, endState)
	if !startOK || !endOK {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
