package history

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"statlens/domain/analysis"
	"statlens/domain/core"
	"statlens/ports"
)

// MemoryStore is the default HistoryStore: in-process, mutex-guarded,
// suitable for single-node use and tests. The id sequence only moves
// forward, so ids stay unique across deletions.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[core.RecordID]analysis.Record
	nextID  core.RecordID
}

// NewMemoryStore creates an empty store. Ids start at 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[core.RecordID]analysis.Record),
		nextID:  1,
	}
}

func (s *MemoryStore) Append(ctx context.Context, record analysis.Record) (core.RecordID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	record.ID = id
	s.records[id] = record
	return id, nil
}

func (s *MemoryStore) List(ctx context.Context, page, pageSize int) (*ports.HistoryPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("page must be >= 1, got %d", page)
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("page size must be >= 1, got %d", pageSize)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]core.RecordID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	// Newest first: ids are monotonic, so descending id is descending time.
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	total := len(ids)
	totalPages := (total + pageSize - 1) / pageSize

	// Non-nil even past the end, so pages always serialize as [].
	records := make([]analysis.Record, 0, pageSize)
	start := (page - 1) * pageSize
	if start < total {
		end := start + pageSize
		if end > total {
			end = total
		}
		for _, id := range ids[start:end] {
			records = append(records, s.records[id])
		}
	}

	return &ports.HistoryPage{
		Records:      records,
		Page:         page,
		PageSize:     pageSize,
		TotalRecords: total,
		TotalPages:   totalPages,
	}, nil
}

func (s *MemoryStore) Get(ctx context.Context, id core.RecordID) (*analysis.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", core.ErrRecordNotFound, id)
	}
	return &record, nil
}

func (s *MemoryStore) Delete(ctx context.Context, ids ...core.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.records, id)
	}
	return nil
}

var _ ports.HistoryStore = (*MemoryStore)(nil)
