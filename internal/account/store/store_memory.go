package store

import (
	"context"
	"sync"

	"veriflow/internal/account"
	"veriflow/pkg/domain"
	"veriflow/pkg/platform/sentinel"
)

// InMemory is the development and unit-test store. It enforces the same
// uniqueness contract as the PostgreSQL store.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account
}

// NewInMemory constructs an empty in-memory account store.
func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[string]*account.Account)}
}

func key(tenant domain.TenantID, identityKey string) string {
	return string(tenant) + "\x00" + identityKey
}

func (s *InMemory) FindByIdentityKey(_ context.Context, tenant domain.TenantID, identityKey string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[key(tenant, identityKey)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *InMemory) Insert(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(a.TenantID, a.IdentityKey)
	if _, exists := s.accounts[k]; exists {
		return sentinel.ErrConflict
	}
	clone := *a
	s.accounts[k] = &clone
	return nil
}

func (s *InMemory) Update(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(a.TenantID, a.IdentityKey)
	if _, exists := s.accounts[k]; !exists {
		return sentinel.ErrNotFound
	}
	clone := *a
	s.accounts[k] = &clone
	return nil
}

// Count reports the number of stored accounts; test helper.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
