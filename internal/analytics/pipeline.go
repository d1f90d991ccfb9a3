package analytics

import (
	"sort"
	"time"

	"saletrace/internal/eventlog"
)

// DelayReport is the result of one milestone-pair analysis across the
// filtered scope: the aggregate sample summary plus the exclusion counters.
type DelayReport struct {
	Operation   string              `json:"operation"`
	Summary     Summary             `json:"summary"`
	Diagnostics IntervalDiagnostics `json:"diagnostics"`
	Filter      FilterDiagnostics   `json:"filter"`
	Intervals   []Interval          `json:"intervals,omitempty"`
}

// InvoicingDelay measures, per sale, the days from reaching ready-to-invoice
// to the first invoice issued against that sale.
func (s *Session) InvoicingDelay() DelayReport {
	s.project()

	var intervals []Interval
	var diag IntervalDiagnostics

	for _, saleID := range s.saleIDs {
		events := s.snap.SaleEvents[saleID]
		if len(events) == 0 {
			diag.NoEvents++
			continue
		}

		start, ok := FirstOccurrence(events, eventlog.SaleReadyToInvoice)
		if !ok {
			diag.MissingStart++
			continue
		}

		end, ok := s.firstIssueDate(saleID)
		if !ok {
			diag.MissingEnd++
			continue
		}

		iv := NewInterval(saleID, start, end)
		if iv.Days < 0 {
			diag.Negative++
		}
		intervals = append(intervals, iv)
	}

	return s.report("invoicing_delay", intervals, diag)
}

// PaymentDelay measures, per invoice, the days from issuance to full
// settlement as detected by the accumulation matcher.
func (s *Session) PaymentDelay() DelayReport {
	s.project()

	var intervals []Interval
	var diag IntervalDiagnostics

	for _, invoiceID := range s.invoiceIDs {
		events := s.snap.InvoiceEvents[invoiceID]
		if len(events) == 0 {
			diag.NoEvents++
			continue
		}

		start, ok := FirstOccurrence(events, eventlog.InvoiceIssued)
		if !ok {
			diag.MissingStart++
			continue
		}

		end, ok := MatchSettlement(PaidRecords(events), s.snap.Meta[invoiceID].TargetValue, s.tolerance)
		if !ok {
			diag.MissingEnd++
			continue
		}

		iv := NewInterval(invoiceID, start, end)
		if iv.Days < 0 {
			diag.Negative++
		}
		intervals = append(intervals, iv)
	}

	return s.report("payment_delay", intervals, diag)
}

// SaleSettlement measures, per sale, the days from ready-to-invoice to the
// sale being fully paid: the accumulation matcher runs over the payments of
// all the sale's invoices pooled chronologically, against the sale's value.
func (s *Session) SaleSettlement() DelayReport {
	s.project()

	var intervals []Interval
	var diag IntervalDiagnostics

	for _, saleID := range s.saleIDs {
		events := s.snap.SaleEvents[saleID]
		if len(events) == 0 {
			diag.NoEvents++
			continue
		}

		start, ok := FirstOccurrence(events, eventlog.SaleReadyToInvoice)
		if !ok {
			diag.MissingStart++
			continue
		}

		end, ok := MatchSettlement(s.pooledPayments(saleID), s.snap.Meta[saleID].TargetValue, s.tolerance)
		if !ok {
			diag.MissingEnd++
			continue
		}

		iv := NewInterval(saleID, start, end)
		if iv.Days < 0 {
			diag.Negative++
		}
		intervals = append(intervals, iv)
	}

	return s.report("sale_settlement", intervals, diag)
}

// ClientReliability classifies every client in scope from their invoice
// history. Clients with zero invoices cannot occur here (the index only holds
// clients that own invoices); percent_paid guards the division regardless.
func (s *Session) ClientReliability() []ReliabilityProfile {
	s.project()

	clientIDs := make([]string, 0, len(s.invoicesByClient))
	for clientID := range s.invoicesByClient {
		clientIDs = append(clientIDs, clientID)
	}
	sort.Strings(clientIDs)

	profiles := make([]ReliabilityProfile, 0, len(clientIDs))
	for _, clientID := range clientIDs {
		invoiceIDs := s.invoicesByClient[clientID]

		in := ReliabilityInput{
			ClientID:      clientID,
			TotalInvoices: len(invoiceIDs),
		}

		for _, invoiceID := range invoiceIDs {
			days, settled := s.invoiceDelay(invoiceID)
			if settled {
				in.PaidInvoices++
				in.DelaySample = append(in.DelaySample, days)
				continue
			}
			age := DaysBetween(s.snap.Meta[invoiceID].AnchorDate, s.reference)
			if age > s.class.CriticalAgeDays {
				in.CriticalOverdue++
			}
		}

		profiles = append(profiles, Classify(in, s.class))
	}

	return profiles
}

// PredictionReport bundles the projections for a client's pending invoices.
type PredictionReport struct {
	ClientID    string       `json:"clientId"`
	HistorySize int          `json:"historySize"`
	Predictions []Prediction `json:"predictions"`
}

// PaymentPredictions projects payment dates for every pending invoice of the
// client, using the client's historical paid-delay distribution.
func (s *Session) PaymentPredictions(clientID string) PredictionReport {
	s.project()

	history := s.clientHistory(clientID)

	report := PredictionReport{
		ClientID:    clientID,
		HistorySize: len(history),
	}

	for _, invoiceID := range s.invoicesByClient[clientID] {
		if _, settled := s.invoiceDelay(invoiceID); settled {
			continue
		}
		anchor := s.snap.Meta[invoiceID].AnchorDate
		report.Predictions = append(report.Predictions, PredictPayment(invoiceID, anchor, history))
	}

	return report
}

// PaymentTrend reports whether a client's payment delays are improving,
// stable, or worsening over time. An empty clientID evaluates the whole scope.
func (s *Session) PaymentTrend(clientID string) TrendResult {
	s.project()

	if clientID != "" {
		return DetectTrend(s.clientHistory(clientID))
	}

	clientIDs := make([]string, 0, len(s.invoicesByClient))
	for cid := range s.invoicesByClient {
		clientIDs = append(clientIDs, cid)
	}
	sort.Strings(clientIDs)

	var sample []anchoredDelay
	for _, cid := range clientIDs {
		sample = append(sample, s.settledDelays(cid)...)
	}
	return DetectTrend(orderByAnchor(sample))
}

// FullReport runs every analysis of the pipeline against the session scope.
type FullReport struct {
	InvoicingDelay DelayReport          `json:"invoicingDelay"`
	PaymentDelay   DelayReport          `json:"paymentDelay"`
	SaleSettlement DelayReport          `json:"saleSettlement"`
	Reliability    []ReliabilityProfile `json:"reliability"`
	Trend          TrendResult          `json:"trend"`
}

// Analyze executes the full pipeline end-to-end.
func (s *Session) Analyze() FullReport {
	return FullReport{
		InvoicingDelay: s.InvoicingDelay(),
		PaymentDelay:   s.PaymentDelay(),
		SaleSettlement: s.SaleSettlement(),
		Reliability:    s.ClientReliability(),
		Trend:          s.PaymentTrend(""),
	}
}

func (s *Session) report(operation string, intervals []Interval, diag IntervalDiagnostics) DelayReport {
	return DelayReport{
		Operation:   operation,
		Summary:     Summarize(SampleDays(intervals)),
		Diagnostics: diag,
		Filter:      s.filterDiag,
		Intervals:   intervals,
	}
}

// firstIssueDate finds the earliest issuance across the sale's invoices.
func (s *Session) firstIssueDate(saleID string) (time.Time, bool) {
	var best time.Time
	found := false
	for _, invoiceID := range s.invoicesBySale[saleID] {
		t, ok := FirstOccurrence(s.snap.InvoiceEvents[invoiceID], eventlog.InvoiceIssued)
		if ok && (!found || t.Before(best)) {
			best = t
			found = true
		}
	}
	return best, found
}

// pooledPayments merges the payment records of all the sale's invoices in
// chronological order.
func (s *Session) pooledPayments(saleID string) []PaymentRecord {
	var pooled []PaymentRecord
	for _, invoiceID := range s.invoicesBySale[saleID] {
		pooled = append(pooled, PaidRecords(s.snap.InvoiceEvents[invoiceID])...)
	}
	sort.Slice(pooled, func(i, j int) bool {
		return pooled[i].Timestamp.Before(pooled[j].Timestamp)
	})
	return pooled
}

// invoiceDelay resolves one invoice's issued-to-settled interval. The signed
// day count is returned as observed; negative values (payment recorded before
// issuance) stay negative.
func (s *Session) invoiceDelay(invoiceID string) (float64, bool) {
	events := s.snap.InvoiceEvents[invoiceID]
	if len(events) == 0 {
		return 0, false
	}
	start, ok := FirstOccurrence(events, eventlog.InvoiceIssued)
	if !ok {
		return 0, false
	}
	end, ok := MatchSettlement(PaidRecords(events), s.snap.Meta[invoiceID].TargetValue, s.tolerance)
	if !ok {
		return 0, false
	}
	return float64(DaysBetween(start, end)), true
}

type anchoredDelay struct {
	entityID string
	anchor   time.Time
	days     float64
}

// settledDelays collects the client's settled-invoice delays tagged with each
// invoice's anchor date for time ordering.
func (s *Session) settledDelays(clientID string) []anchoredDelay {
	var out []anchoredDelay
	for _, invoiceID := range s.invoicesByClient[clientID] {
		if days, settled := s.invoiceDelay(invoiceID); settled {
			out = append(out, anchoredDelay{
				entityID: invoiceID,
				anchor:   s.snap.Meta[invoiceID].AnchorDate,
				days:     days,
			})
		}
	}
	return out
}

// clientHistory returns the client's paid-delay sample ordered by anchor date.
func (s *Session) clientHistory(clientID string) []float64 {
	return orderByAnchor(s.settledDelays(clientID))
}

// orderByAnchor sorts by anchor date with the entity id as tie-break, so
// samples mixing several clients order the same way on every call.
func orderByAnchor(sample []anchoredDelay) []float64 {
	sort.SliceStable(sample, func(i, j int) bool {
		if !sample[i].anchor.Equal(sample[j].anchor) {
			return sample[i].anchor.Before(sample[j].anchor)
		}
		return sample[i].entityID < sample[j].entityID
	})
	days := make([]float64, len(sample))
	for i, d := range sample {
		days[i] = d.days
	}
	return days
}
