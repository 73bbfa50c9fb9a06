package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"

	trusterrors "github.com/agentrust/trustcore/errors"
)

// FilesystemStorage persists the log as one JSON object per line in a
// single append-only file, replaying it into memory at open time so
// reads never touch disk.
type FilesystemStorage struct {
	mu      sync.RWMutex
	file    *os.File
	entries []*Entry
}

// NewFilesystemStorage opens (creating if necessary) path and replays
// any existing entries.
func NewFilesystemStorage(path string) (*FilesystemStorage, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, trusterrors.InternalErrorf("opening audit log file %q: %v", path, err)
	}
	fs := &FilesystemStorage{file: f}
	if err := fs.replay(); err != nil {
		f.Close()
		return nil, err
	}
	return fs, nil
}

func (f *FilesystemStorage) replay() error {
	if _, err := f.file.Seek(0, 0); err != nil {
		return trusterrors.InternalErrorf("seeking audit log file: %v", err)
	}
	scanner := bufio.NewScanner(f.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return trusterrors.CorruptStateError("audit log file contains an unparseable entry: %v", err)
		}
		cp := entry
		f.entries = append(f.entries, &cp)
	}
	if err := scanner.Err(); err != nil {
		return trusterrors.InternalErrorf("reading audit log file: %v", err)
	}
	if _, err := f.file.Seek(0, 2); err != nil {
		return trusterrors.InternalErrorf("seeking to end of audit log file: %v", err)
	}
	return nil
}

func (f *FilesystemStorage) Append(ctx context.Context, entry *Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(entry)
	if err != nil {
		return trusterrors.InternalErrorf("marshaling audit entry %d: %v", entry.Seq, err)
	}
	if _, err := f.file.Write(append(raw, '\n')); err != nil {
		return trusterrors.InternalErrorf("appending audit entry %d: %v", entry.Seq, err)
	}
	if err := f.file.Sync(); err != nil {
		return trusterrors.InternalErrorf("syncing audit log file: %v", err)
	}
	cp := *entry
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *FilesystemStorage) Get(ctx context.Context, seq uint64) (*Entry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if seq >= uint64(len(f.entries)) {
		return nil, trusterrors.NotFoundError("audit entry %d not found", seq)
	}
	cp := *f.entries[seq]
	return &cp, nil
}

func (f *FilesystemStorage) Range(ctx context.Context, fromSeq, toSeq uint64) ([]*Entry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if fromSeq > toSeq || toSeq >= uint64(len(f.entries)) {
		return nil, trusterrors.NotFoundError("audit range [%d,%d] out of bounds (len=%d)", fromSeq, toSeq, len(f.entries))
	}
	out := make([]*Entry, 0, toSeq-fromSeq+1)
	for i := fromSeq; i <= toSeq; i++ {
		cp := *f.entries[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (f *FilesystemStorage) Tail(ctx context.Context) (*Entry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.entries) == 0 {
		return nil, trusterrors.NotFoundError("audit log is empty")
	}
	cp := *f.entries[len(f.entries)-1]
	return &cp, nil
}

// Close releases the underlying file handle.
func (f *FilesystemStorage) Close() error {
	return f.file.Close()
}
