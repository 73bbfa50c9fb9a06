package storage

import (
	"context"
	"path/filepath"
	"testing"

	trusterrors "github.com/agentrust/trustcore/errors"
)

func TestMemoryLoadMissingReturnsNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.Load(context.Background(), "missing")
	if !trusterrors.Is(err, trusterrors.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestMemorySaveLoadRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	snap := &Snapshot{ListID: "list-1", Purpose: "revocation", Length: 131072, NextFreeIndex: 3}
	if err := m.Save(ctx, "list-1", snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := m.Load(ctx, "list-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.NextFreeIndex != 3 {
		t.Fatalf("unexpected NextFreeIndex: %d", got.NextFreeIndex)
	}
	ids, err := m.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "list-1" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestFilesystemSaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "statuslists")
	fs, err := NewFilesystem(dir)
	if err != nil {
		t.Fatalf("NewFilesystem failed: %v", err)
	}
	ctx := context.Background()
	snap := &Snapshot{ListID: "did:web:example.com:status:1", Purpose: "revocation", Length: 131072, NextFreeIndex: 9}
	if err := fs.Save(ctx, snap.ListID, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := fs.Load(ctx, snap.ListID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.NextFreeIndex != 9 {
		t.Fatalf("unexpected NextFreeIndex: %d", got.NextFreeIndex)
	}
	ids, err := fs.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != snap.ListID {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestFilesystemLoadMissingReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFilesystem(dir)
	if err != nil {
		t.Fatalf("NewFilesystem failed: %v", err)
	}
	_, err = fs.Load(context.Background(), "missing")
	if !trusterrors.Is(err, trusterrors.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
