package store

import (
	"context"
	"sort"
	"sync"

	document "veridoc/internal/document/models"
	"veridoc/internal/verification/models"
)

// InMemoryStore keeps records in process memory, newest first on List.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]models.VerificationRecord
	ordered []string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[string]models.VerificationRecord)}
}

func (s *InMemoryStore) Save(_ context.Context, record models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[record.ID]; !exists {
		s.ordered = append(s.ordered, record.ID)
	}
	s.byID[record.ID] = record
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.byID[id]
	if !ok {
		return models.VerificationRecord{}, ErrNotFound
	}
	return record, nil
}

func (s *InMemoryStore) FindByIDNumber(_ context.Context, idNumber string) ([]models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	normalized := document.NormalizeID(idNumber)
	var matches []models.VerificationRecord
	for _, id := range s.ordered {
		record := s.byID[id]
		if document.NormalizeID(record.Claim.NationalID) == normalized && normalized != "" {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

func (s *InMemoryStore) FindByPhone(_ context.Context, phone string) ([]models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []models.VerificationRecord
	for _, id := range s.ordered {
		record := s.byID[id]
		if phone != "" && record.Claim.PhoneNumber == phone {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

func (s *InMemoryStore) List(_ context.Context, filter ListFilter) ([]models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []models.VerificationRecord
	for _, id := range s.ordered {
		record := s.byID[id]
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		if !filter.Since.IsZero() && record.CreatedAt.Before(filter.Since) {
			continue
		}
		records = append(records, record)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

func (s *InMemoryStore) Stats(_ context.Context) ([]models.StatsBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int64)
	for _, record := range s.byID {
		counts[record.Status]++
	}
	buckets := make([]models.StatsBucket, 0, len(counts))
	for status, count := range counts {
		buckets = append(buckets, models.StatsBucket{Status: status, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Status < buckets[j].Status })
	return buckets, nil
}
