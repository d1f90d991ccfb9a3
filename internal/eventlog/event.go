package eventlog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lifecycle state codes. Sales and invoices draw from disjoint ranges so a
// single event stream can never confuse the two entity kinds.
const (
	// SaleInProcess is the initial state of a commercialization.
	SaleInProcess = 0
	// SaleReadyToInvoice marks the sale as eligible for invoicing.
	SaleReadyToInvoice = 1
	// SaleSenceSettled marks the external SENCE settlement of the sale.
	SaleSenceSettled = 3

	// InvoiceIssued marks the emission of an invoice document.
	InvoiceIssued = 10
	// InvoicePaid records a payment against an invoice. Paid events carry an
	// Amount; partial payments produce multiple InvoicePaid events.
	InvoicePaid = 11
)

// StateEvent represents a single observed lifecycle transition.
// It is the primary unit of the event log and is immutable once ingested.
type StateEvent struct {
	// EntityID is the owning sale or invoice id.
	EntityID string `json:"entityId"`
	// State is the lifecycle state code reached by this transition.
	State int `json:"state"`
	// Timestamp is the physical time the transition occurred (Unix microseconds).
	Timestamp int64 `json:"ts"`
	// Sequence is an optional ordering hint used to break timestamp ties.
	Sequence int `json:"seq,omitempty"`
	// Amount is the monetary value attached to paid events (two-decimal currency).
	// Zero for non-payment events.
	Amount decimal.Decimal `json:"amount"`
}

// Time returns the event timestamp as a time.Time in UTC.
func (e StateEvent) Time() time.Time {
	return time.UnixMicro(e.Timestamp).UTC()
}

// Date returns the event's calendar date (UTC, no time-of-day component).
// All interval arithmetic in the analytics engine works on calendar dates.
func (e StateEvent) Date() time.Time {
	t := e.Time()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EntityMeta carries the repository-owned attributes of a sale or invoice.
type EntityMeta struct {
	EntityID     string          `json:"entityId"`
	ExternalCode string          `json:"externalCode"`
	AnchorDate   time.Time       `json:"anchorDate"`
	TargetValue  decimal.Decimal `json:"targetValue"`
	ClientID     string          `json:"clientId"`
	// ParentID links an invoice to its owning sale. Empty for sales.
	ParentID string `json:"parentId,omitempty"`
}
