package pid

import (
	"context"
	"errors"
	"time"
)

// Pid is a single minted identifier, returned to the caller of Generate.
type Pid struct {
	Kind       Kind
	Identifier string
	Seed       uint64
	CreatedAt  time.Time
}

// Generator orchestrates initialize/generate/exists against a Store. It
// holds no state of its own beyond its dependencies: the Store, the
// EncoderConfig, and the injected clock — spec.md design note §9's
// "Store, Encoder and Generator are values, constructed once by the host
// and shared read-only across request threads."
type Generator struct {
	store Store
	cfg   EncoderConfig
	clock func() time.Time
	loc   *time.Location
}

// NewGenerator constructs a Generator. clock and loc are injected so tests
// can pin timestamps and reproduce scenarios exactly (spec.md §9); a nil
// clock defaults to time.Now, a nil loc to time.UTC.
func NewGenerator(store Store, cfg EncoderConfig, clock func() time.Time, loc *time.Location) *Generator {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{store: store, cfg: cfg, clock: clock, loc: loc}
}

// Initialize installs seed as the starting value for kind if kind has no
// seed yet. Any later call for an already initialized kind, with the same
// seed or another, returns *AlreadyInitializedError carrying the persisted
// seed and leaves state unchanged.
func (g *Generator) Initialize(ctx context.Context, kind Kind, seed uint64) error {
	return g.store.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		inserted, err := tx.InitSeed(ctx, kind, seed)
		if err != nil {
			return storageErr(err)
		}
		if inserted {
			return nil
		}
		existing, ok, err := tx.GetSeed(ctx, kind)
		if err != nil {
			return storageErr(err)
		}
		if !ok {
			return storageErr(errors.New("seed row reported already present but is now absent"))
		}
		return &AlreadyInitializedError{Kind: kind, ExistingSeed: existing}
	})
}

// Generate performs a single mint for kind: read the current seed, derive
// the identifier, verify it hasn't already been minted, record it, and
// advance the seed, all inside one transaction (spec.md §4.3).
func (g *Generator) Generate(ctx context.Context, kind Kind) (Pid, error) {
	var result Pid
	err := g.store.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		seed, ok, err := tx.GetSeed(ctx, kind)
		if err != nil {
			return storageErr(err)
		}
		if !ok {
			return &NotInitializedError{Kind: kind}
		}

		identifier := Encode(kind, seed, g.cfg)
		next := Advance(kind, seed)

		found, existingCreatedAt, err := tx.HasPid(ctx, kind, identifier)
		if err != nil {
			return storageErr(err)
		}
		if found {
			// The seed is deliberately NOT advanced on this path (spec.md
			// P3/scenario 4): the transaction rolls back with only this
			// error, leaving the stored seed exactly as it was read.
			return &DuplicatePidError{
				Kind:       kind,
				UsedSeed:   seed,
				NextSeed:   next,
				Identifier: identifier,
				CreatedAt:  existingCreatedAt,
			}
		}

		createdAt := g.clock().In(g.loc)
		if err := tx.AddPid(ctx, kind, identifier, createdAt); err != nil {
			return storageErr(err)
		}
		if err := tx.SetSeed(ctx, kind, next); err != nil {
			return storageErr(err)
		}

		result = Pid{Kind: kind, Identifier: identifier, Seed: seed, CreatedAt: createdAt}
		return nil
	})
	if err != nil {
		return Pid{}, err
	}
	return result, nil
}

// Exists reports whether identifier has already been minted for kind. It is
// a thin, transaction-wrapped pass-through to Tx.HasPid (spec.md §4.4).
func (g *Generator) Exists(ctx context.Context, kind Kind, identifier string) (bool, error) {
	var found bool
	err := g.store.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		found, _, err = tx.HasPid(ctx, kind, identifier)
		if err != nil {
			return storageErr(err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}
