package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veriflow/internal/account"
	"veriflow/pkg/domain"
	"veriflow/pkg/platform/sentinel"
)

type AccountStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestAccountStoreSuite(t *testing.T) {
	suite.Run(t, new(AccountStoreSuite))
}

func (s *AccountStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *AccountStoreSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *AccountStoreSuite) newAccount(tenant domain.TenantID, identityKey string) *account.Account {
	now := time.Now()
	return &account.Account{
		ID:          domain.NewAccountID(),
		TenantID:    tenant,
		IdentityKey: identityKey,
		KeySource:   account.KeySourceDocument,
		Status:      account.StatusPending,
		AMLStatus:   account.AMLStatusClear,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *AccountStoreSuite) TestInsertAndFind() {
	s.Run("inserts and finds by identity key", func() {
		a := s.newAccount("acme", "doc:DE:X123")
		s.Require().NoError(s.store.Insert(s.ctx, a))

		found, err := s.store.FindByIdentityKey(s.ctx, "acme", "doc:DE:X123")
		s.Require().NoError(err)
		s.Equal(a.ID, found.ID)
	})

	s.Run("returns ErrNotFound for unknown key", func() {
		_, err := s.store.FindByIdentityKey(s.ctx, "acme", "doc:DE:missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns ErrConflict for duplicate identity key", func() {
		a := s.newAccount("acme", "doc:DE:dup")
		b := s.newAccount("acme", "doc:DE:dup")
		s.Require().NoError(s.store.Insert(s.ctx, a))
		s.Require().ErrorIs(s.store.Insert(s.ctx, b), sentinel.ErrConflict)
		s.Equal(1, s.store.Count())
	})
}

func (s *AccountStoreSuite) TestTenantIsolation() {
	a := s.newAccount("acme", "doc:DE:shared")
	b := s.newAccount("globex", "doc:DE:shared")

	s.Require().NoError(s.store.Insert(s.ctx, a))
	s.Require().NoError(s.store.Insert(s.ctx, b), "same identity key under another tenant is a distinct account")

	found, err := s.store.FindByIdentityKey(s.ctx, "acme", "doc:DE:shared")
	s.Require().NoError(err)
	s.Equal(a.ID, found.ID)

	_, err = s.store.FindByIdentityKey(s.ctx, "initech", "doc:DE:shared")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *AccountStoreSuite) TestUpdate() {
	s.Run("persists changes", func() {
		a := s.newAccount("acme", "doc:DE:upd")
		s.Require().NoError(s.store.Insert(s.ctx, a))

		a.Status = account.StatusVerified
		s.Require().NoError(s.store.Update(s.ctx, a))

		found, err := s.store.FindByIdentityKey(s.ctx, "acme", "doc:DE:upd")
		s.Require().NoError(err)
		s.Equal(account.StatusVerified, found.Status)
	})

	s.Run("returns ErrNotFound for unknown account", func() {
		a := s.newAccount("acme", "doc:DE:ghost")
		s.ErrorIs(s.store.Update(s.ctx, a), sentinel.ErrNotFound)
	})
}

func (s *AccountStoreSuite) TestCloneSemantics() {
	a := s.newAccount("acme", "doc:DE:clone")
	s.Require().NoError(s.store.Insert(s.ctx, a))

	found, err := s.store.FindByIdentityKey(s.ctx, "acme", "doc:DE:clone")
	s.Require().NoError(err)

	// Mutating the returned copy must not leak into the store.
	found.Status = account.StatusRejected

	again, err := s.store.FindByIdentityKey(s.ctx, "acme", "doc:DE:clone")
	s.Require().NoError(err)
	s.Equal(account.StatusPending, again.Status)
}
