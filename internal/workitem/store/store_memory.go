package store

import (
	"context"
	"sync"

	"veriflow/internal/workitem"
	"veriflow/pkg/domain"
	"veriflow/pkg/platform/sentinel"
)

// InMemory is the development and unit-test store with the same uniqueness
// contract as the PostgreSQL store.
type InMemory struct {
	mu     sync.RWMutex
	alerts []*workitem.Alert
	cases  []*workitem.Case
}

// NewInMemory constructs an empty in-memory work-item store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) FindOpenAlert(_ context.Context, accountID domain.AccountID, kind string) (*workitem.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.alerts {
		if a.AccountID == accountID && a.Kind == kind && a.Status == workitem.WorkStatusOpen {
			clone := *a
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) InsertAlert(_ context.Context, alert *workitem.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if alert.Status == workitem.WorkStatusOpen {
		for _, a := range s.alerts {
			if a.AccountID == alert.AccountID && a.Kind == alert.Kind && a.Status == workitem.WorkStatusOpen {
				return sentinel.ErrConflict
			}
		}
	}
	clone := *alert
	s.alerts = append(s.alerts, &clone)
	return nil
}

func (s *InMemory) FindOpenCase(_ context.Context, accountID domain.AccountID, kind string) (*workitem.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.cases {
		if c.AccountID == accountID && c.Kind == kind && c.Resolution == workitem.ResolutionUnsolved {
			clone := *c
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) InsertCase(_ context.Context, c *workitem.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.Resolution == workitem.ResolutionUnsolved {
		for _, existing := range s.cases {
			if existing.AccountID == c.AccountID && existing.Kind == c.Kind && existing.Resolution == workitem.ResolutionUnsolved {
				return sentinel.ErrConflict
			}
		}
	}
	clone := *c
	s.cases = append(s.cases, &clone)
	return nil
}

// Counts reports stored totals; test helper.
func (s *InMemory) Counts() (alerts, cases int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts), len(s.cases)
}
