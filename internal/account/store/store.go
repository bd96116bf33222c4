// Package store persists accounts. Implementations must enforce uniqueness on
// (tenant_id, identity_key) and surface violations as sentinel.ErrConflict so
// the reconciler can retry as a merge.
package store

import "veriflow/internal/account"

// Both implementations satisfy the reconciler's store contract.
var (
	_ account.Store = (*InMemory)(nil)
	_ account.Store = (*Postgres)(nil)
)
