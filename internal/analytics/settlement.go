package analytics

import (
	"sort"
	"time"

	"saletrace/internal/eventlog"

	"github.com/shopspring/decimal"
)

// DefaultTolerance is the fixed absolute currency tolerance used by the
// accumulation matcher. Historical records carry rounding noise of up to a few
// units; the observed constant is 100. It deliberately does not scale with the
// target value.
var DefaultTolerance = decimal.NewFromInt(100)

// PaymentRecord is one positive payment observation against an invoice.
type PaymentRecord struct {
	Timestamp time.Time
	Amount    decimal.Decimal
}

// PaidRecords extracts the chronological positive-amount payment events from
// an invoice's history.
func PaidRecords(events []eventlog.StateEvent) []PaymentRecord {
	var records []PaymentRecord
	for _, e := range events {
		if e.State != eventlog.InvoicePaid || !e.Amount.IsPositive() {
			continue
		}
		records = append(records, PaymentRecord{Timestamp: e.Date(), Amount: e.Amount})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records
}

// MatchSettlement walks the chronological payment records accumulating a
// running sum and returns the timestamp at which the sum first reaches the
// target: either |sum - target| <= tolerance, or sum >= target (overshoot
// also completes). Returns false if the records are exhausted before the
// target is reached.
//
// The same algorithm detects both "sale fully paid" (target = sale value,
// records pooled across its invoices) and "invoice fully paid" (target =
// invoice value, records of that invoice only).
func MatchSettlement(payments []PaymentRecord, target, tolerance decimal.Decimal) (time.Time, bool) {
	if target.IsZero() {
		return time.Time{}, false
	}

	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
		if sum.Sub(target).Abs().Cmp(tolerance) <= 0 || sum.Cmp(target) >= 0 {
			return p.Timestamp, true
		}
	}
	return time.Time{}, false
}
