package pid

import (
	"context"
	"time"
)

// Store is the transactional persistence port the engine depends on. The
// engine holds only this interface — spec.md's "consumes a transactional
// key-value persistence capability" — never a concrete backend; the
// storage package satisfies it for Postgres and for an in-memory double.
type Store interface {
	// WithTransaction runs fn against a single transactional Tx and commits
	// on success or rolls back on any error fn returns. Implementations
	// must give getSeed-then-setSeed within fn conflict-serializable
	// semantics (spec.md §4.2): serializable isolation, or repeatable read
	// plus an explicit row lock on the Seed row.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of operations available inside one mint transaction.
type Tx interface {
	// GetSeed returns the current seed for kind, or ok=false if kind has
	// never been initialized. Implementations that back a mutating
	// pipeline take a row lock here so a concurrent GetSeed for the same
	// kind blocks until this transaction commits or rolls back.
	GetSeed(ctx context.Context, kind Kind) (seed uint64, ok bool, err error)

	// InitSeed installs seed as the starting value for kind if, and only
	// if, kind has no seed yet. inserted reports which case occurred; when
	// inserted is false the caller should read the existing value back via
	// GetSeed to report AlreadyInitialized.
	InitSeed(ctx context.Context, kind Kind, seed uint64) (inserted bool, err error)

	// SetSeed overwrites the current seed for kind. The caller is
	// responsible for having established that a seed row already exists.
	SetSeed(ctx context.Context, kind Kind, seed uint64) error

	// HasPid reports whether identifier has already been minted for kind,
	// and if so, when.
	HasPid(ctx context.Context, kind Kind, identifier string) (found bool, createdAt time.Time, err error)

	// AddPid records that identifier was minted for kind at createdAt. The
	// caller is responsible for having established via HasPid that
	// identifier is not already present; AddPid does not itself resolve
	// the duplicate case.
	AddPid(ctx context.Context, kind Kind, identifier string, createdAt time.Time) error
}
