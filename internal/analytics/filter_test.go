package analytics

import (
	"reflect"
	"testing"
	"time"

	"saletrace/internal/eventlog"
)

func filterSnapshot() *eventlog.Snapshot {
	day := func(d int) time.Time { return time.Date(2025, 2, d, 0, 0, 0, 0, time.UTC) }
	event := func(id string, d, state int) eventlog.StateEvent {
		return eventlog.StateEvent{EntityID: id, State: state, Timestamp: day(d).UnixMicro()}
	}

	return &eventlog.Snapshot{
		SaleEvents: map[string][]eventlog.StateEvent{
			"S1": {event("S1", 1, eventlog.SaleInProcess), event("S1", 3, eventlog.SaleReadyToInvoice)},
			"S2": {event("S2", 2, eventlog.SaleInProcess)},
			"S3": {event("S3", 2, eventlog.SaleInProcess), event("S3", 6, 99)},
			"S4": {event("S4", 20, eventlog.SaleInProcess)},
			"S5": nil,
		},
		InvoiceEvents: map[string][]eventlog.StateEvent{},
		Meta: map[string]eventlog.EntityMeta{
			"S1": {EntityID: "S1", ExternalCode: "OV-1001", AnchorDate: day(1)},
			"S2": {EntityID: "S2", ExternalCode: "ZZ-TEST-7", AnchorDate: day(2)},
			"S3": {EntityID: "S3", ExternalCode: "OV-1003", AnchorDate: day(2)},
			"S4": {EntityID: "S4", ExternalCode: "OV-1004", AnchorDate: day(20)},
			"S5": {EntityID: "S5", ExternalCode: "OV-1005", AnchorDate: day(3)},
		},
	}
}

func TestFilterSales(t *testing.T) {
	snap := filterSnapshot()
	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

	cfg := FilterConfig{
		ExcludedPrefixes: []string{"zz-"},
		ValidStates: map[int]bool{
			eventlog.SaleInProcess:      true,
			eventlog.SaleReadyToInvoice: true,
		},
		DateFrom: &from,
		DateTo:   &to,
	}

	kept, diag := FilterSales(snap, cfg)

	// S2 dropped by prefix, S3 by its unknown latest state, S4 by date range.
	// S5 has no events; state filtering cannot apply, so it survives.
	if want := []string{"S1", "S5"}; !reflect.DeepEqual(kept, want) {
		t.Errorf("FilterSales() kept = %v, want %v", kept, want)
	}
	if diag.ByPrefix != 1 || diag.ByState != 1 || diag.ByDate != 1 {
		t.Errorf("FilterSales() diagnostics = %+v, want 1/1/1", diag)
	}
}

func TestFilterSalesNoRules(t *testing.T) {
	kept, diag := FilterSales(filterSnapshot(), FilterConfig{})
	if len(kept) != 5 {
		t.Errorf("FilterSales() with empty config kept %d sales, want all 5", len(kept))
	}
	if diag != (FilterDiagnostics{}) {
		t.Errorf("FilterSales() diagnostics = %+v, want zero", diag)
	}
	if !sortedStrings(kept) {
		t.Errorf("FilterSales() result not sorted: %v", kept)
	}
}

func sortedStrings(xs []string) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] < xs[i-1] {
			return false
		}
	}
	return true
}

func TestHasExcludedPrefix(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		prefixes []string
		expected bool
	}{
		{"CaseInsensitive", "ZZ-TEST-7", []string{"zz-"}, true},
		{"NoMatch", "OV-1001", []string{"zz-"}, false},
		{"EmptyCode", "", []string{"zz-"}, false},
		{"EmptyPrefixIgnored", "OV-1001", []string{""}, false},
		{"NoPrefixes", "OV-1001", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasExcludedPrefix(tt.code, tt.prefixes); got != tt.expected {
				t.Errorf("hasExcludedPrefix(%q, %v) = %v, want %v", tt.code, tt.prefixes, got, tt.expected)
			}
		})
	}
}
