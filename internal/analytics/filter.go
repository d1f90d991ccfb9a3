package analytics

import (
	"sort"
	"strings"
	"time"

	"saletrace/internal/eventlog"
)

// FilterConfig consolidates the exclusion rules applied before any entity
// reaches the analytical stages. One explicit value is passed into every
// component; there is no ambient lookup.
type FilterConfig struct {
	// ExcludedPrefixes drops entities whose external code starts with any of
	// these prefixes (case-insensitive).
	ExcludedPrefixes []string
	// ValidStates is the whitelist of acceptable most-recent state codes.
	// A nil or empty map accepts every state.
	ValidStates map[int]bool
	// DateFrom/DateTo bound the entity's anchor date (inclusive) when set.
	DateFrom *time.Time
	DateTo   *time.Time
}

// FilterDiagnostics counts entities dropped by each rule.
type FilterDiagnostics struct {
	ByPrefix int `json:"excluded_by_prefix"`
	ByState  int `json:"excluded_by_state"`
	ByDate   int `json:"excluded_by_date"`
}

// FilterSales returns the sale ids surviving all three filters, sorted for
// deterministic downstream iteration. Pure; the snapshot is only read.
func FilterSales(snap *eventlog.Snapshot, cfg FilterConfig) ([]string, FilterDiagnostics) {
	var diag FilterDiagnostics
	var kept []string

	for saleID, events := range snap.SaleEvents {
		meta := snap.Meta[saleID]

		if hasExcludedPrefix(meta.ExternalCode, cfg.ExcludedPrefixes) {
			diag.ByPrefix++
			continue
		}

		if len(cfg.ValidStates) > 0 {
			if state, ok := latestState(events); ok && !cfg.ValidStates[state] {
				diag.ByState++
				continue
			}
		}

		if !withinRange(meta.AnchorDate, cfg.DateFrom, cfg.DateTo) {
			diag.ByDate++
			continue
		}

		kept = append(kept, saleID)
	}

	sort.Strings(kept)
	return kept, diag
}

func hasExcludedPrefix(code string, prefixes []string) bool {
	if code == "" {
		return false
	}
	lower := strings.ToLower(code)
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// latestState returns the state code of the most recent event. Events arrive
// chronologically from the store, but histories ingested out of order are
// tolerated by scanning for the maximum timestamp.
func latestState(events []eventlog.StateEvent) (int, bool) {
	if len(events) == 0 {
		return 0, false
	}
	best := events[0]
	for _, e := range events[1:] {
		if e.Timestamp > best.Timestamp || (e.Timestamp == best.Timestamp && e.Sequence > best.Sequence) {
			best = e
		}
	}
	return best.State, true
}

func withinRange(anchor time.Time, from, to *time.Time) bool {
	if from != nil && anchor.Before(*from) {
		return false
	}
	if to != nil && anchor.After(*to) {
		return false
	}
	return true
}
