package storage

import (
	"context"
	"testing"
	"time"

	"github.com/vesaakerman/easy-pid-generator/internal/pid"
)

func TestMemory_InitAndGetSeed(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	err := m.WithTransaction(ctx, func(ctx context.Context, tx pid.Tx) error {
		inserted, err := tx.InitSeed(ctx, pid.KindDOI, 1073741824)
		if err != nil {
			t.Fatalf("InitSeed failed: %v", err)
		}
		if !inserted {
			t.Fatalf("InitSeed reported not-inserted on a fresh store")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	err = m.WithTransaction(ctx, func(ctx context.Context, tx pid.Tx) error {
		v, ok, err := tx.GetSeed(ctx, pid.KindDOI)
		if err != nil {
			t.Fatalf("GetSeed failed: %v", err)
		}
		if !ok || v != 1073741824 {
			t.Fatalf("GetSeed returned (%d, %v), want (1073741824, true)", v, ok)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}
}

func TestMemory_InitSeedTwiceDoesNotOverwrite(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.WithTransaction(ctx, func(ctx context.Context, tx pid.Tx) error {
		_, err := tx.InitSeed(ctx, pid.KindDOI, 1)
		return err
	})

	err := m.WithTransaction(ctx, func(ctx context.Context, tx pid.Tx) error {
		inserted, err := tx.InitSeed(ctx, pid.KindDOI, 999)
		if err != nil {
			t.Fatalf("InitSeed failed: %v", err)
		}
		if inserted {
			t.Fatalf("InitSeed reported inserted on an already-initialized kind")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	_ = m.WithTransaction(ctx, func(ctx context.Context, tx pid.Tx) error {
		v, _, _ := tx.GetSeed(ctx, pid.KindDOI)
		if v != 1 {
			t.Fatalf("seed was overwritten: got %d, want 1", v)
		}
		return nil
	})
}

func TestMemory_AddAndHasPid(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	err := m.WithTransaction(ctx, func(ctx context.Context, tx pid.Tx) error {
		found, _, err := tx.HasPid(ctx, pid.KindDOI, "10.5072/dans-abc-defg")
		if err != nil {
			t.Fatalf("HasPid failed: %v", err)
		}
		if found {
			t.Fatalf("HasPid reported found before AddPid was ever called")
		}
		if err := tx.AddPid(ctx, pid.KindDOI, "10.5072/dans-abc-defg", now); err != nil {
			t.Fatalf("AddPid failed: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	err = m.WithTransaction(ctx, func(ctx context.Context, tx pid.Tx) error {
		found, createdAt, err := tx.HasPid(ctx, pid.KindDOI, "10.5072/dans-abc-defg")
		if err != nil {
			t.Fatalf("HasPid failed: %v", err)
		}
		if !found || !createdAt.Equal(now) {
			t.Fatalf("HasPid returned (%v, %v), want (true, %v)", found, createdAt, now)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}
}

// TestMemory_RollbackOnError checks the "no partial state" atomicity
// spec.md §7 requires: a mutation made by fn before it returns an error
// must not be visible afterwards.
func TestMemory_RollbackOnError(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.WithTransaction(ctx, func(ctx context.Context, tx pid.Tx) error {
		_, err := tx.InitSeed(ctx, pid.KindDOI, 1073741824)
		return err
	})

	sentinel := context.Canceled
	err := m.WithTransaction(ctx, func(ctx context.Context, tx pid.Tx) error {
		if err := tx.SetSeed(ctx, pid.KindDOI, 999); err != nil {
			return err
		}
		return sentinel
	})
	if err != sentinel {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	_ = m.WithTransaction(ctx, func(ctx context.Context, tx pid.Tx) error {
		v, _, _ := tx.GetSeed(ctx, pid.KindDOI)
		if v != 1073741824 {
			t.Fatalf("seed mutation from a failed transaction leaked: got %d, want 1073741824", v)
		}
		return nil
	})
}
