package stresslab

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AnalysisKind tells which pipeline produced a stored analysis.
type AnalysisKind string

const (
	KindAnalyze      AnalysisKind = "analyze"
	KindAnalyzeShock AnalysisKind = "analyze_shock"
)

// AnalysisRecord is the artifact cached by a successful analyze or
// stress call and consumed, never mutated, by a later forecast call.
type AnalysisRecord struct {
	ID        string
	Kind      AnalysisKind
	CreatedAt time.Time
	ExpiresAt time.Time

	Inputs       AnalyzeInputs
	StartingCash float64

	// Returns holds the portfolio return series of an analyze record and
	// the baseline series of an analyze_shock record. ScenarioReturns is
	// only set for analyze_shock.
	Returns         *Series
	ScenarioReturns *Series

	LastEquityDate  Date
	LastEquityValue float64
}

// Store defaults, configuration rather than protocol.
const (
	DefaultTTL      = 30 * time.Minute
	DefaultCapacity = 5000
)

// StoreStats is a point-in-time snapshot of the store.
type StoreStats struct {
	Items    int           `json:"items"`
	TTL      time.Duration `json:"ttl"`
	Capacity int           `json:"capacity"`
}

// AnalysisStore is a bounded in-memory TTL store for analysis artifacts.
// It is safe for concurrent use: every operation runs under one lock so
// that the sweep-evict-insert sequence is observed atomically. The store
// is local to one process and offers no durability across restarts.
type AnalysisStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	items    map[string]*AnalysisRecord
}

// NewAnalysisStore builds a store with the given entry TTL and capacity.
// Non-positive arguments fall back to the package defaults.
func NewAnalysisStore(ttl time.Duration, capacity int) *AnalysisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &AnalysisStore{
		ttl:      ttl,
		capacity: capacity,
		items:    make(map[string]*AnalysisRecord),
	}
}

// Put stamps the record with a fresh opaque id and its lifecycle times,
// then inserts it, sweeping expired entries first and evicting the
// oldest tenth when the store is full. It returns the id.
func (s *AnalysisStore) Put(rec AnalysisRecord) string {
	now := time.Now().UTC()
	rec.ID = strings.ReplaceAll(uuid.NewString(), "-", "")
	rec.CreatedAt = now
	rec.ExpiresAt = now.Add(s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked(now)
	s.evictIfFullLocked()
	s.items[rec.ID] = &rec
	return rec.ID
}

// Get returns the record for the id. An entry whose expiry time has
// passed is deleted and reported absent: the TTL is fixed at creation,
// access does not renew it.
func (s *AnalysisStore) Get(id string) (AnalysisRecord, bool) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[id]
	if !ok {
		return AnalysisRecord{}, false
	}
	if !rec.ExpiresAt.After(now) {
		delete(s.items, id)
		return AnalysisRecord{}, false
	}
	return *rec, true
}

// Delete removes the entry and reports whether it existed.
func (s *AnalysisStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok
}

// Stats sweeps expired entries and returns the live count and configuration.
func (s *AnalysisStore) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked(time.Now().UTC())
	return StoreStats{Items: len(s.items), TTL: s.ttl, Capacity: s.capacity}
}

// Cleanup sweeps expired entries and returns how many were evicted.
func (s *AnalysisStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.items)
	s.evictExpiredLocked(time.Now().UTC())
	return before - len(s.items)
}

func (s *AnalysisStore) evictExpiredLocked(now time.Time) {
	for id, rec := range s.items {
		if !rec.ExpiresAt.After(now) {
			delete(s.items, id)
		}
	}
}

// evictIfFullLocked makes room by removing the oldest ~10% of entries
// (at least one) by creation time when the store is at capacity.
func (s *AnalysisStore) evictIfFullLocked() {
	if len(s.items) < s.capacity {
		return
	}
	oldest := make([]*AnalysisRecord, 0, len(s.items))
	for _, rec := range s.items {
		oldest = append(oldest, rec)
	}
	sort.Slice(oldest, func(i, j int) bool { return oldest[i].CreatedAt.Before(oldest[j].CreatedAt) })
	n := max(1, s.capacity/10)
	for _, rec := range oldest[:min(n, len(oldest))] {
		delete(s.items, rec.ID)
	}
}
