package engine

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"saletrace/internal/eventlog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type GeneratorConfig struct {
	Scenario       string // "reliable", "slow", "deteriorating", "chaotic"
	Clients        int
	SalesPerClient int
	Now            time.Time
}

// Dataset is a complete generated snapshot ready for saving.
type Dataset struct {
	SaleEvents    []eventlog.StateEvent
	InvoiceEvents []eventlog.StateEvent
	Meta          []eventlog.EntityMeta
}

// Generate produces a synthetic sales/invoices history with
// scenario-controlled payment-delay distributions. The most recent invoices
// per client are left pending so prediction and overdue analysis have
// something to chew on.
func Generate(cfg GeneratorConfig) *Dataset {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now().UTC()
	}
	if cfg.Clients <= 0 {
		cfg.Clients = 10
	}
	if cfg.SalesPerClient <= 0 {
		cfg.SalesPerClient = 8
	}

	rng := rand.New(rand.NewSource(cfg.Now.UnixNano()))
	ds := &Dataset{}

	for c := 0; c < cfg.Clients; c++ {
		clientID := fmt.Sprintf("CLI-%03d", c+1)

		for i := 0; i < cfg.SalesPerClient; i++ {
			saleID := fmt.Sprintf("%s-SALE-%02d", clientID, i+1)

			// Anchor dates spread backwards; the newest sale is ~20 days old.
			ageDays := 20 + (cfg.SalesPerClient-1-i)*45
			anchor := cfg.Now.AddDate(0, 0, -ageDays)

			value := decimal.NewFromInt(int64(500000 + rng.Intn(4_500_000)))

			ds.Meta = append(ds.Meta, eventlog.EntityMeta{
				EntityID:     saleID,
				ExternalCode: fmt.Sprintf("COM-%03d-%02d", c+1, i+1),
				AnchorDate:   dateOnly(anchor),
				TargetValue:  value,
				ClientID:     clientID,
			})

			ds.SaleEvents = append(ds.SaleEvents,
				saleEvent(saleID, eventlog.SaleInProcess, anchor),
				saleEvent(saleID, eventlog.SaleReadyToInvoice, anchor.AddDate(0, 0, 2+rng.Intn(5))),
			)

			invoiceID := uuid.NewString()
			issueDate := anchor.AddDate(0, 0, 5+rng.Intn(8))

			ds.Meta = append(ds.Meta, eventlog.EntityMeta{
				EntityID:     invoiceID,
				ExternalCode: fmt.Sprintf("INV-%03d-%02d", c+1, i+1),
				AnchorDate:   dateOnly(issueDate),
				TargetValue:  value,
				ClientID:     clientID,
				ParentID:     saleID,
			})

			ds.InvoiceEvents = append(ds.InvoiceEvents,
				invoiceEvent(invoiceID, eventlog.InvoiceIssued, issueDate, decimal.Zero))

			delay := paymentDelay(cfg.Scenario, i, cfg.SalesPerClient, rng)
			payDate := issueDate.AddDate(0, 0, delay)

			// Invoices that would settle in the future stay pending.
			if payDate.After(cfg.Now) {
				continue
			}

			// Chaotic histories pay in partial installments.
			if cfg.Scenario == "chaotic" && rng.Float64() < 0.5 {
				half := value.Div(decimal.NewFromInt(2)).Round(2)
				ds.InvoiceEvents = append(ds.InvoiceEvents,
					invoiceEvent(invoiceID, eventlog.InvoicePaid, payDate.AddDate(0, 0, -7), half),
					invoiceEvent(invoiceID, eventlog.InvoicePaid, payDate, value.Sub(half)))
			} else {
				ds.InvoiceEvents = append(ds.InvoiceEvents,
					invoiceEvent(invoiceID, eventlog.InvoicePaid, payDate, value))
			}

			if cfg.Scenario != "chaotic" || rng.Float64() < 0.8 {
				ds.SaleEvents = append(ds.SaleEvents,
					saleEvent(saleID, eventlog.SaleSenceSettled, payDate.AddDate(0, 0, 3)))
			}
		}
	}

	return ds
}

func paymentDelay(scenario string, saleIdx, salesPerClient int, rng *rand.Rand) int {
	switch scenario {
	case "slow":
		return 45 + rng.Intn(55)
	case "deteriorating":
		// Delays grow as histories get more recent.
		base := 15 + saleIdx*60/salesPerClient
		return base + rng.Intn(10)
	case "chaotic":
		d := rng.Intn(120)
		if rng.Float64() < 0.1 {
			d = -rng.Intn(5) // payment recorded before issuance
		}
		return d
	default: // reliable
		return 10 + rng.Intn(20)
	}
}

func saleEvent(id string, state int, t time.Time) eventlog.StateEvent {
	return eventlog.StateEvent{EntityID: id, State: state, Timestamp: t.UnixMicro()}
}

func invoiceEvent(id string, state int, t time.Time, amount decimal.Decimal) eventlog.StateEvent {
	return eventlog.StateEvent{EntityID: id, State: state, Timestamp: t.UnixMicro(), Amount: amount}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Save writes the dataset in the repository's on-disk layout: two JSONL event
// streams plus the entity metadata file.
func Save(outDir string, ds *Dataset) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	store := eventlog.NewEventStore()
	store.Append(eventlog.SourceSales, ds.SaleEvents)
	store.Append(eventlog.SourceInvoices, ds.InvoiceEvents)

	if err := store.Save(outDir, eventlog.SourceSales); err != nil {
		return err
	}
	if err := store.Save(outDir, eventlog.SourceInvoices); err != nil {
		return err
	}

	metaBytes, err := json.MarshalIndent(ds.Meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, "entities.json"), metaBytes, 0644)
}
