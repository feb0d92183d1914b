// Package storage contains persistence abstractions and implementations —
// an in-memory double and a PostgreSQL-backed store — for the pid engine's
// Seed and Minted relations.
package storage

import (
	"context"
	"sync"
	"time"

	"github.com/vesaakerman/easy-pid-generator/internal/pid"
)

// Memory is a concurrency-safe in-memory implementation of pid.Store.
// Useful for tests and as an embedded single-process backend.
//
// A real backend gets its per-kind serializability from a row lock on the
// Seed row (spec.md §4.2); since there is no database underneath a single
// Go process, Memory instead runs the whole body of WithTransaction under
// one coarse mutex. That is stricter than the contract requires (it
// serializes across kinds too, not just within one), but it is never
// wrong, and it is what makes Memory usable as the test double for the
// concurrency property (P5) without needing an actual database in tests.
type Memory struct {
	mu     sync.Mutex
	seeds  map[pid.Kind]uint64
	minted map[pid.Kind]map[string]time.Time
}

// NewMemory returns a new, empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		seeds:  make(map[pid.Kind]uint64),
		minted: make(map[pid.Kind]map[string]time.Time),
	}
}

// WithTransaction implements pid.Store. It snapshots both relations before
// running fn and restores the snapshot if fn returns an error, giving
// Memory the same "no partial state on error" atomicity a real backend
// gets from *sql.Tx.Rollback (spec.md §7).
func (m *Memory) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pid.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seedsBackup := make(map[pid.Kind]uint64, len(m.seeds))
	for k, v := range m.seeds {
		seedsBackup[k] = v
	}
	mintedBackup := make(map[pid.Kind]map[string]time.Time, len(m.minted))
	for k, ids := range m.minted {
		copied := make(map[string]time.Time, len(ids))
		for id, ts := range ids {
			copied[id] = ts
		}
		mintedBackup[k] = copied
	}

	err := fn(ctx, memoryTx{m: m})
	if err != nil {
		m.seeds = seedsBackup
		m.minted = mintedBackup
	}
	return err
}

// memoryTx implements pid.Tx against a Memory store already holding its
// lock for the transaction's duration.
type memoryTx struct {
	m *Memory
}

func (t memoryTx) GetSeed(ctx context.Context, kind pid.Kind) (uint64, bool, error) {
	v, ok := t.m.seeds[kind]
	return v, ok, nil
}

func (t memoryTx) InitSeed(ctx context.Context, kind pid.Kind, seed uint64) (bool, error) {
	if _, ok := t.m.seeds[kind]; ok {
		return false, nil
	}
	t.m.seeds[kind] = seed
	if t.m.minted[kind] == nil {
		t.m.minted[kind] = make(map[string]time.Time)
	}
	return true, nil
}

func (t memoryTx) SetSeed(ctx context.Context, kind pid.Kind, seed uint64) error {
	t.m.seeds[kind] = seed
	return nil
}

func (t memoryTx) HasPid(ctx context.Context, kind pid.Kind, identifier string) (bool, time.Time, error) {
	createdAt, ok := t.m.minted[kind][identifier]
	return ok, createdAt, nil
}

func (t memoryTx) AddPid(ctx context.Context, kind pid.Kind, identifier string, createdAt time.Time) error {
	if t.m.minted[kind] == nil {
		t.m.minted[kind] = make(map[string]time.Time)
	}
	t.m.minted[kind][identifier] = createdAt
	return nil
}
