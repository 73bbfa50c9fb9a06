package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	trusterrors "github.com/agentrust/trustcore/errors"
)

// Filesystem persists each list as one JSON file under a root directory,
// named by a filesystem-safe encoding of the list id.
type Filesystem struct {
	root string
}

// NewFilesystem builds a store rooted at dir, creating it if necessary.
func NewFilesystem(dir string) (*Filesystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, trusterrors.InternalErrorf("creating status list directory: %v", err)
	}
	return &Filesystem{root: dir}, nil
}

func (f *Filesystem) path(listID string) string {
	safe := strings.ReplaceAll(listID, string(filepath.Separator), "_")
	safe = strings.ReplaceAll(safe, ":", "_")
	return filepath.Join(f.root, safe+".json")
}

func (f *Filesystem) Load(ctx context.Context, listID string) (*Snapshot, error) {
	raw, err := os.ReadFile(f.path(listID))
	if os.IsNotExist(err) {
		return nil, trusterrors.NotFoundError("status list %q not found", listID)
	}
	if err != nil {
		return nil, trusterrors.InternalErrorf("reading status list %q: %v", listID, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, trusterrors.CorruptStateError("status list %q is corrupt: %v", listID, err)
	}
	return &snap, nil
}

func (f *Filesystem) Save(ctx context.Context, listID string, snapshot *Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return trusterrors.InternalErrorf("marshaling status list %q: %v", listID, err)
	}
	if err := os.WriteFile(f.path(listID), raw, 0o644); err != nil {
		return trusterrors.InternalErrorf("writing status list %q: %v", listID, err)
	}
	return nil
}

func (f *Filesystem) ListAll(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, trusterrors.InternalErrorf("listing status list directory: %v", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(f.root, e.Name()))
		if err != nil {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			continue
		}
		ids = append(ids, snap.ListID)
	}
	return ids, nil
}
