package analytics

import (
	"sort"
	"time"

	"saletrace/internal/eventlog"

	"github.com/shopspring/decimal"
)

// Session orchestrates the analytical pipeline for a single request. It binds
// one frozen Snapshot to one filter scope, builds the per-entity indexes once,
// and serves every analysis from those grouped buckets. Sessions hold no state
// across requests; a new request builds a new Session.
type Session struct {
	snap      *eventlog.Snapshot
	filter    FilterConfig
	class     ClassificationConfig
	tolerance decimal.Decimal
	reference time.Time

	projected        bool
	saleIDs          []string
	filterDiag       FilterDiagnostics
	invoiceIDs       []string
	invoicesBySale   map[string][]string
	invoicesByClient map[string][]string
}

// NewSession creates a request-scoped session. reference is the evaluation
// date for pending-invoice ages; a zero value falls back to the snapshot's
// load time.
func NewSession(snap *eventlog.Snapshot, filter FilterConfig, class ClassificationConfig, tolerance decimal.Decimal, reference time.Time) *Session {
	if tolerance.IsZero() {
		tolerance = DefaultTolerance
	}
	if reference.IsZero() {
		reference = snap.LoadedAt
	}
	return &Session{
		snap:      snap,
		filter:    filter,
		class:     class,
		tolerance: tolerance,
		reference: reference,
	}
}

// project applies the filter stage and builds the invoice indexes. Runs once
// per session; every analysis afterwards iterates the grouped buckets.
func (s *Session) project() {
	if s.projected {
		return
	}

	s.saleIDs, s.filterDiag = FilterSales(s.snap, s.filter)

	kept := make(map[string]bool, len(s.saleIDs))
	for _, id := range s.saleIDs {
		kept[id] = true
	}

	s.invoicesBySale = make(map[string][]string)
	s.invoicesByClient = make(map[string][]string)

	for invoiceID := range s.snap.InvoiceEvents {
		meta, ok := s.snap.Meta[invoiceID]
		if !ok {
			continue
		}
		// Invoices follow their sale's filter verdict; unlinked invoices are
		// kept (tolerated inconsistency, counted nowhere as an error).
		if meta.ParentID != "" && !kept[meta.ParentID] {
			continue
		}
		s.invoiceIDs = append(s.invoiceIDs, invoiceID)
		if meta.ParentID != "" {
			s.invoicesBySale[meta.ParentID] = append(s.invoicesBySale[meta.ParentID], invoiceID)
		}
		if meta.ClientID != "" {
			s.invoicesByClient[meta.ClientID] = append(s.invoicesByClient[meta.ClientID], invoiceID)
		}
	}

	sort.Strings(s.invoiceIDs)
	for _, ids := range s.invoicesBySale {
		sort.Strings(ids)
	}
	for _, ids := range s.invoicesByClient {
		sort.Strings(ids)
	}

	s.projected = true
}

// SaleIDs returns the filtered sale scope.
func (s *Session) SaleIDs() []string {
	s.project()
	return s.saleIDs
}

// InvoiceIDs returns the invoices within the filtered scope.
func (s *Session) InvoiceIDs() []string {
	s.project()
	return s.invoiceIDs
}

// Reference returns the session's evaluation date.
func (s *Session) Reference() time.Time {
	return s.reference
}
