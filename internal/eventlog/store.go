package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventStore provides thread-safe, chronological storage for StateEvents.
// Streams are partitioned by source (one stream for sale events, one for
// invoice events in the standard layout).
type EventStore struct {
	mu   sync.RWMutex
	logs map[string][]StateEvent
}

// NewEventStore creates a new empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{
		logs: make(map[string][]StateEvent),
	}
}

// Append adds new events to the log for a given source, ensuring chronological
// order and deduplication.
func (s *EventStore) Append(sourceID string, events []StateEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.logs[sourceID]

	// Identity = EntityID + Timestamp + State + Amount. Re-ingesting the same
	// file is a no-op.
	existing := make(map[string]bool)
	for _, e := range stream {
		existing[e.identity()] = true
	}

	newCount := 0
	for _, e := range events {
		if !existing[e.identity()] {
			existing[e.identity()] = true
			stream = append(stream, e)
			newCount++
		}
	}

	if newCount == 0 {
		return
	}

	// Sort by timestamp, then sequence hint, then state code for deterministic
	// ordering when historical records collide on the same instant.
	sort.Slice(stream, func(i, j int) bool {
		if stream[i].Timestamp != stream[j].Timestamp {
			return stream[i].Timestamp < stream[j].Timestamp
		}
		if stream[i].Sequence != stream[j].Sequence {
			return stream[i].Sequence < stream[j].Sequence
		}
		return stream[i].State < stream[j].State
	})

	s.logs[sourceID] = stream
}

// Load reads events from a JSONL file for the given source. A missing file is
// not an error; a malformed line is skipped with a warning (skippable
// per-event condition, not fatal).
func (s *EventStore) Load(dataDir string, sourceID string) error {
	path := filepath.Join(dataDir, fmt.Sprintf("%s.jsonl", sourceID))
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer file.Close()

	var events []StateEvent
	skipped := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e StateEvent
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			skipped++
			log.Warn().Err(err).Str("source", sourceID).Msg("Skipping invalid JSON line in event log")
			continue
		}
		events = append(events, e)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading event log: %w", err)
	}

	log.Info().Str("source", sourceID).Int("count", len(events)).Int("skipped", skipped).Msg("Loaded events")
	s.Append(sourceID, events)
	return nil
}

// Save persists events for the given source to a JSONL file via atomic rename.
func (s *EventStore) Save(dataDir string, sourceID string) error {
	s.mu.RLock()
	stream, ok := s.logs[sourceID]
	s.mu.RUnlock()

	if !ok || len(stream) == 0 {
		return nil
	}

	path := filepath.Join(dataDir, fmt.Sprintf("%s.jsonl", sourceID))
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp event log: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	for _, e := range stream {
		if err := encoder.Encode(e); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename event log: %w", err)
	}

	log.Info().Str("source", sourceID).Int("count", len(stream)).Msg("Events saved")
	return nil
}

// Count returns the number of events in the store for a source.
func (s *EventStore) Count(sourceID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[sourceID])
}

// Events returns a copy of the chronological event stream for a source.
func (s *EventStore) Events(sourceID string) []StateEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream, ok := s.logs[sourceID]
	if !ok {
		return nil
	}
	out := make([]StateEvent, len(stream))
	copy(out, stream)
	return out
}

// LatestTimestamp returns the timestamp of the most recent event for a source.
func (s *EventStore) LatestTimestamp(sourceID string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream, ok := s.logs[sourceID]
	if !ok || len(stream) == 0 {
		return time.Time{}
	}
	return time.UnixMicro(stream[len(stream)-1].Timestamp).UTC()
}

func (e StateEvent) identity() string {
	return fmt.Sprintf("%s|%d|%d|%s", e.EntityID, e.Timestamp, e.State, e.Amount.String())
}
