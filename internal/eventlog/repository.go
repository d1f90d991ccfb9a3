package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Source ids of the two event streams within a dataset directory.
const (
	SourceSales    = "sale_events"
	SourceInvoices = "invoice_events"
)

// metadataFile is the JSON file holding the EntityMeta records of a dataset.
const metadataFile = "entities.json"

// Snapshot is an immutable, per-entity-grouped view of one dataset.
// All engine computations run against a Snapshot; nothing downstream ever
// re-scans the flat streams (group once, then iterate grouped buckets).
type Snapshot struct {
	// SaleEvents maps sale id to its chronological state events.
	SaleEvents map[string][]StateEvent
	// InvoiceEvents maps invoice id to its chronological state events.
	InvoiceEvents map[string][]StateEvent
	// Meta maps entity id (sale or invoice) to its attributes.
	Meta map[string]EntityMeta
	// LoadedAt records when the snapshot was taken.
	LoadedAt time.Time
}

// SnapshotRepository loads frozen dataset snapshots from a directory holding
// the two JSONL event streams and the entity metadata file.
type SnapshotRepository struct {
	dataDir string
}

// NewSnapshotRepository creates a repository rooted at dataDir.
func NewSnapshotRepository(dataDir string) *SnapshotRepository {
	return &SnapshotRepository{dataDir: dataDir}
}

// Load reads the full dataset into memory. The three files are read
// concurrently; any top-level failure (unreadable file, malformed metadata)
// aborts the whole load. Individual malformed event lines are skipped by the
// store and do not fail the snapshot.
func (r *SnapshotRepository) Load(ctx context.Context) (*Snapshot, error) {
	store := NewEventStore()
	var meta map[string]EntityMeta

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		return store.Load(r.dataDir, SourceSales)
	})
	g.Go(func() error {
		return store.Load(r.dataDir, SourceInvoices)
	})
	g.Go(func() error {
		m, err := r.loadMetadata()
		if err != nil {
			return err
		}
		meta = m
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("snapshot load failed: %w", err)
	}

	snap := &Snapshot{
		SaleEvents:    groupByEntity(store.Events(SourceSales)),
		InvoiceEvents: groupByEntity(store.Events(SourceInvoices)),
		Meta:          meta,
		LoadedAt:      time.Now().UTC(),
	}

	log.Debug().
		Int("sales", len(snap.SaleEvents)).
		Int("invoices", len(snap.InvoiceEvents)).
		Int("entities", len(snap.Meta)).
		Msg("Snapshot loaded")

	return snap, nil
}

func (r *SnapshotRepository) loadMetadata() (map[string]EntityMeta, error) {
	path := filepath.Join(r.dataDir, metadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entity metadata: %w", err)
	}

	var records []EntityMeta
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("malformed entity metadata: %w", err)
	}

	meta := make(map[string]EntityMeta, len(records))
	for _, m := range records {
		meta[m.EntityID] = m
	}
	return meta, nil
}

// groupByEntity buckets a chronological stream by owning entity, preserving
// the stream order within each bucket.
func groupByEntity(events []StateEvent) map[string][]StateEvent {
	grouped := make(map[string][]StateEvent)
	for _, e := range events {
		grouped[e.EntityID] = append(grouped[e.EntityID], e)
	}
	return grouped
}
