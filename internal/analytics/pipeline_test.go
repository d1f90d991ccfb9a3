package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"saletrace/internal/eventlog"

	"github.com/shopspring/decimal"
)

// pipelineSnapshot builds one client with four sales, each invoiced once.
// Three invoices settle with delays of 10, 20 and 30 days; the fourth is
// pending, anchored 15 days before the reference date.
func pipelineSnapshot(reference time.Time) *eventlog.Snapshot {
	value := decimal.NewFromInt(1000)

	event := func(id string, ts time.Time, state int, amount decimal.Decimal) eventlog.StateEvent {
		return eventlog.StateEvent{EntityID: id, State: state, Timestamp: ts.UnixMicro(), Amount: amount}
	}

	snap := &eventlog.Snapshot{
		SaleEvents:    map[string][]eventlog.StateEvent{},
		InvoiceEvents: map[string][]eventlog.StateEvent{},
		Meta:          map[string]eventlog.EntityMeta{},
		LoadedAt:      reference,
	}

	type fixture struct {
		saleID    string
		invoiceID string
		anchor    time.Time
		payDelay  int // days after issuance; -1 means pending
	}
	fixtures := []fixture{
		{"S1", "F1", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), 10},
		{"S2", "F2", time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), 20},
		{"S3", "F3", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 30},
		{"S4", "F4", reference.AddDate(0, 0, -15), -1},
	}

	for _, f := range fixtures {
		ready := f.anchor.AddDate(0, 0, 3)
		issued := f.anchor.AddDate(0, 0, 5)

		snap.SaleEvents[f.saleID] = []eventlog.StateEvent{
			event(f.saleID, f.anchor, eventlog.SaleInProcess, decimal.Zero),
			event(f.saleID, ready, eventlog.SaleReadyToInvoice, decimal.Zero),
		}
		snap.Meta[f.saleID] = eventlog.EntityMeta{
			EntityID:     f.saleID,
			ExternalCode: "OV-" + f.saleID,
			AnchorDate:   f.anchor,
			TargetValue:  value,
			ClientID:     "C1",
		}

		invoiceEvents := []eventlog.StateEvent{
			event(f.invoiceID, issued, eventlog.InvoiceIssued, value),
		}
		if f.payDelay >= 0 {
			paid := issued.AddDate(0, 0, f.payDelay)
			invoiceEvents = append(invoiceEvents, event(f.invoiceID, paid, eventlog.InvoicePaid, value))
		}
		snap.InvoiceEvents[f.invoiceID] = invoiceEvents
		snap.Meta[f.invoiceID] = eventlog.EntityMeta{
			EntityID:    f.invoiceID,
			AnchorDate:  f.anchor,
			TargetValue: value,
			ClientID:    "C1",
			ParentID:    f.saleID,
		}
	}

	return snap
}

func pipelineSession(t *testing.T) *Session {
	t.Helper()
	reference := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return NewSession(pipelineSnapshot(reference), FilterConfig{}, DefaultClassificationConfig(), decimal.Zero, reference)
}

func TestPaymentDelayReport(t *testing.T) {
	got := pipelineSession(t).PaymentDelay()

	if got.Operation != "payment_delay" {
		t.Errorf("Operation = %q, want payment_delay", got.Operation)
	}
	if got.Summary.Count != 3 {
		t.Fatalf("Summary.Count = %d, want 3", got.Summary.Count)
	}
	if got.Summary.Mean != 20 || got.Summary.Median != 20 {
		t.Errorf("mean/median = %v/%v, want 20/20", got.Summary.Mean, got.Summary.Median)
	}
	if got.Summary.StdDev != 8.16 {
		t.Errorf("StdDev = %v, want 8.16", got.Summary.StdDev)
	}
	if got.Diagnostics.MissingEnd != 1 {
		t.Errorf("MissingEnd = %d, want 1 (the pending invoice)", got.Diagnostics.MissingEnd)
	}
}

func TestInvoicingDelayReport(t *testing.T) {
	got := pipelineSession(t).InvoicingDelay()

	// Every sale issues 2 days after reaching ready-to-invoice.
	if got.Summary.Count != 4 {
		t.Fatalf("Summary.Count = %d, want 4", got.Summary.Count)
	}
	if got.Summary.Mean != 2 || got.Summary.StdDev != 0 {
		t.Errorf("mean/stddev = %v/%v, want 2/0", got.Summary.Mean, got.Summary.StdDev)
	}
	if got.Diagnostics.Excluded() != 0 {
		t.Errorf("Diagnostics = %+v, want none excluded", got.Diagnostics)
	}
}

func TestSaleSettlementReport(t *testing.T) {
	got := pipelineSession(t).SaleSettlement()

	// ready-to-invoice precedes issuance by 2 days, so each settled sale's
	// interval is its invoice's payment delay plus 2.
	if got.Summary.Count != 3 {
		t.Fatalf("Summary.Count = %d, want 3", got.Summary.Count)
	}
	if got.Summary.Mean != 22 || got.Summary.Median != 22 {
		t.Errorf("mean/median = %v/%v, want 22/22", got.Summary.Mean, got.Summary.Median)
	}
	if got.Diagnostics.MissingEnd != 1 {
		t.Errorf("MissingEnd = %d, want 1 (the unpaid sale)", got.Diagnostics.MissingEnd)
	}
}

func TestClientReliabilityReport(t *testing.T) {
	profiles := pipelineSession(t).ClientReliability()

	if len(profiles) != 1 {
		t.Fatalf("got %d profiles, want 1", len(profiles))
	}
	p := profiles[0]
	if p.ClientID != "C1" {
		t.Errorf("ClientID = %q, want C1", p.ClientID)
	}
	if p.TotalInvoices != 4 || p.PaidInvoices != 3 {
		t.Errorf("invoices = %d/%d, want 4 total, 3 paid", p.TotalInvoices, p.PaidInvoices)
	}
	if p.PercentPaid != 75 {
		t.Errorf("PercentPaid = %v, want 75", p.PercentPaid)
	}
	if p.MeanDelayDays != 20 {
		t.Errorf("MeanDelayDays = %v, want 20", p.MeanDelayDays)
	}
	// The pending invoice is only 15 days old, below the critical age.
	if p.CriticalOverdueCount != 0 {
		t.Errorf("CriticalOverdueCount = %d, want 0", p.CriticalOverdueCount)
	}
	// 24 (75% paid) + 35 (mean 20d) + 25 (no overdue) = 84.
	if p.Score != 84 || p.Tier != TierGood {
		t.Errorf("score/tier = %d/%q, want 84/%q", p.Score, p.Tier, TierGood)
	}
}

func TestPaymentPredictionsReport(t *testing.T) {
	got := pipelineSession(t).PaymentPredictions("C1")

	if got.HistorySize != 3 {
		t.Fatalf("HistorySize = %d, want 3", got.HistorySize)
	}
	if len(got.Predictions) != 1 {
		t.Fatalf("got %d predictions, want 1 (only the pending invoice)", len(got.Predictions))
	}

	p := got.Predictions[0]
	if p.InvoiceID != "F4" || !p.Available {
		t.Fatalf("prediction = %+v, want available prediction for F4", p)
	}
	wantDays := []int{15, 20, 25, 28}
	for i, s := range p.Scenarios {
		if s.DelayDays != wantDays[i] {
			t.Errorf("scenario %q delay = %d, want %d", s.Label, s.DelayDays, wantDays[i])
		}
		if want := p.AnchorDate.AddDate(0, 0, wantDays[i]); !s.ProjectedDate.Equal(want) {
			t.Errorf("scenario %q date = %v, want %v", s.Label, s.ProjectedDate, want)
		}
	}
}

func TestPaymentTrendReport(t *testing.T) {
	s := pipelineSession(t)

	// Delays [10 20 30] ordered by anchor: payments are arriving later.
	got := s.PaymentTrend("C1")
	if got.Status != TrendWorsening {
		t.Errorf("PaymentTrend(C1) = %q, want %q", got.Status, TrendWorsening)
	}
	if got.SampleSize != 3 {
		t.Errorf("SampleSize = %d, want 3", got.SampleSize)
	}

	// The whole scope is the same single client here.
	if whole := s.PaymentTrend(""); whole.Status != TrendWorsening {
		t.Errorf("PaymentTrend(\"\") = %q, want %q", whole.Status, TrendWorsening)
	}

	if unknown := s.PaymentTrend("C999"); unknown.Status != TrendInsufficient {
		t.Errorf("PaymentTrend(C999) = %q, want %q", unknown.Status, TrendInsufficient)
	}
}

func TestSessionReference(t *testing.T) {
	reference := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	snap := pipelineSnapshot(reference)

	s := NewSession(snap, FilterConfig{}, DefaultClassificationConfig(), decimal.Zero, reference)
	if !s.Reference().Equal(reference) {
		t.Errorf("Reference() = %v, want %v", s.Reference(), reference)
	}

	// A zero reference falls back to the snapshot's load time.
	fallback := NewSession(snap, FilterConfig{}, DefaultClassificationConfig(), decimal.Zero, time.Time{})
	if !fallback.Reference().Equal(snap.LoadedAt) {
		t.Errorf("Reference() = %v, want LoadedAt %v", fallback.Reference(), snap.LoadedAt)
	}
}

// TestPaymentTrendDeterministicAcrossClients mixes two clients whose invoices
// share anchor dates; the global sample ordering must not depend on map
// iteration order.
func TestPaymentTrendDeterministicAcrossClients(t *testing.T) {
	reference := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	value := decimal.NewFromInt(1000)

	snap := &eventlog.Snapshot{
		SaleEvents:    map[string][]eventlog.StateEvent{},
		InvoiceEvents: map[string][]eventlog.StateEvent{},
		Meta:          map[string]eventlog.EntityMeta{},
		LoadedAt:      reference,
	}

	addInvoice := func(invoiceID, clientID string, anchor time.Time, payDelay int) {
		issued := anchor.AddDate(0, 0, 5)
		paid := issued.AddDate(0, 0, payDelay)
		snap.InvoiceEvents[invoiceID] = []eventlog.StateEvent{
			{EntityID: invoiceID, State: eventlog.InvoiceIssued, Timestamp: issued.UnixMicro(), Amount: value},
			{EntityID: invoiceID, State: eventlog.InvoicePaid, Timestamp: paid.UnixMicro(), Amount: value},
		}
		snap.Meta[invoiceID] = eventlog.EntityMeta{
			EntityID:    invoiceID,
			AnchorDate:  anchor,
			TargetValue: value,
			ClientID:    clientID,
		}
	}

	// Clients A and B invoice on the same three dates with very different
	// delays, so any ordering instability between them flips the half-split.
	for i := 0; i < 3; i++ {
		anchor := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
		addInvoice(fmt.Sprintf("FA%d", i+1), "A", anchor, 5)
		addInvoice(fmt.Sprintf("FB%d", i+1), "B", anchor, 60)
	}

	first := NewSession(snap, FilterConfig{}, DefaultClassificationConfig(), decimal.Zero, reference).PaymentTrend("")
	if first.Status != TrendWorsening {
		t.Fatalf("PaymentTrend(\"\") = %q, want %q", first.Status, TrendWorsening)
	}
	if first.FirstHalfMean != 23.33 || first.SecondHalfMean != 41.67 {
		t.Fatalf("half means = %v/%v, want 23.33/41.67", first.FirstHalfMean, first.SecondHalfMean)
	}

	for i := 0; i < 200; i++ {
		s := NewSession(snap, FilterConfig{}, DefaultClassificationConfig(), decimal.Zero, reference)
		if got := s.PaymentTrend(""); got != first {
			t.Fatalf("run %d produced %+v, first run produced %+v", i, got, first)
		}
		// Repeated calls on the same session must agree too.
		if got := s.PaymentTrend(""); got != first {
			t.Fatalf("second call on run %d produced %+v, want %+v", i, got, first)
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	reference := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	snap := pipelineSnapshot(reference)

	run := func() []byte {
		t.Helper()
		s := NewSession(snap, FilterConfig{}, DefaultClassificationConfig(), decimal.Zero, reference)
		out, err := json.Marshal(s.Analyze())
		if err != nil {
			t.Fatalf("marshal full report: %v", err)
		}
		return out
	}

	first := run()
	second := run()
	if !bytes.Equal(first, second) {
		t.Error("two runs over the same snapshot produced different reports")
	}
}
