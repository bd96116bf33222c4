// Package store persists alerts and cases. Implementations must enforce
// at-most-one OPEN item per (account_id, kind); in PostgreSQL that is a
// partial unique index, see migrations/001_init.sql.
package store

import "veriflow/internal/workitem"

// Both implementations satisfy the factory's store contract.
var (
	_ workitem.Store = (*InMemory)(nil)
	_ workitem.Store = (*Postgres)(nil)
)
